// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package mealweekdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// NewFirestoreStore returns a PlanStore backed by Firestore. Documents live
// at users/{userId}/mealPlans/{weekId}, profiles at users/{userId}.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{
		client: client,
	}
}

// FirestoreStore is the Firestore-backed PlanStore.
type FirestoreStore struct {
	client *firestore.Client
}

var _ PlanStore = (*FirestoreStore)(nil)

func (s *FirestoreStore) planDoc(userID string, weekID string) *firestore.DocumentRef {
	return s.client.Collection("users").Doc(userID).Collection("mealPlans").Doc(weekID)
}

func (s *FirestoreStore) MealPlan(ctx context.Context, userID string, weekID string) (*MealPlan, error) {
	doc, err := s.planDoc(userID, weekID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mealweekdb: getting plan doc: %w", err)
	}
	var plan MealPlan
	if err := doc.DataTo(&plan); err != nil {
		return nil, fmt.Errorf("mealweekdb: decoding plan doc: %w", err)
	}
	return &plan, nil
}

func (s *FirestoreStore) SetMealPlan(ctx context.Context, userID string, weekID string, plan *MealPlan) error {
	if _, err := s.planDoc(userID, weekID).Set(ctx, plan); err != nil {
		return fmt.Errorf("mealweekdb: saving plan doc: %w", err)
	}
	return nil
}

func (s *FirestoreStore) ListWeeks(ctx context.Context, userID string) ([]string, error) {
	iter := s.client.Collection("users").Doc(userID).Collection("mealPlans").
		OrderBy(firestore.DocumentID, firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var weeks []string
	for {
		doc, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("mealweekdb: listing plan weeks: %w", err)
		}
		weeks = append(weeks, doc.Ref.ID)
	}
	return weeks, nil
}

func (s *FirestoreStore) UserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	doc, err := s.client.Collection("users").Doc(userID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mealweekdb: getting user profile: %w", err)
	}
	var profile UserProfile
	if err := doc.DataTo(&profile); err != nil {
		return nil, fmt.Errorf("mealweekdb: decoding user profile: %w", err)
	}
	return &profile, nil
}

func (s *FirestoreStore) GenerationStatus(ctx context.Context, userID string, weekID string) (*RecipeGenerationStatus, error) {
	plan, err := s.MealPlan(ctx, userID, weekID)
	if err != nil {
		return nil, err
	}
	return plan.RecipeGenerationStatus, nil
}

func (s *FirestoreStore) BeginGeneration(ctx context.Context, userID string, weekID string, total int) error {
	doc := s.planDoc(userID, weekID)
	err := s.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(doc)
		if status.Code(err) == codes.NotFound {
			return ErrPlanNotFound
		}
		if err != nil {
			return fmt.Errorf("mealweekdb: getting plan doc in transaction: %w", err)
		}
		var plan MealPlan
		if err := snap.DataTo(&plan); err != nil {
			return fmt.Errorf("mealweekdb: decoding plan doc in transaction: %w", err)
		}
		if st := plan.RecipeGenerationStatus; st != nil && st.IsGenerating {
			return ErrGenerationActive
		}
		return tx.Update(doc, []firestore.Update{
			{
				Path: "recipeGenerationStatus",
				Value: &RecipeGenerationStatus{
					IsGenerating: true,
					Progress:     0,
					Total:        total,
					StartedAt:    time.Now(),
				},
			},
		})
	})
	if err != nil {
		if errors.Is(err, ErrPlanNotFound) || errors.Is(err, ErrGenerationActive) {
			return err
		}
		return fmt.Errorf("mealweekdb: beginning generation: %w", err)
	}
	return nil
}

func (s *FirestoreStore) RequestCancel(ctx context.Context, userID string, weekID string) error {
	_, err := s.planDoc(userID, weekID).Update(ctx, []firestore.Update{
		{Path: "recipeGenerationStatus.cancelled", Value: true},
		{Path: "recipeGenerationStatus.cancelledAt", Value: time.Now()},
	})
	if status.Code(err) == codes.NotFound {
		return ErrPlanNotFound
	}
	if err != nil {
		return fmt.Errorf("mealweekdb: requesting cancellation: %w", err)
	}
	return nil
}

func (s *FirestoreStore) SetMealRecipe(ctx context.Context, userID string, weekID string, day string, slot string, recipe *Recipe) error {
	_, err := s.planDoc(userID, weekID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"weekPlan", day, slot, "recipe"}, Value: recipe},
		{Path: "recipeGenerationStatus.progress", Value: firestore.Increment(1)},
	})
	if err != nil {
		return fmt.Errorf("mealweekdb: writing meal recipe: %w", err)
	}
	return nil
}

func (s *FirestoreStore) RecordAttempt(ctx context.Context, userID string, weekID string) error {
	_, err := s.planDoc(userID, weekID).Update(ctx, []firestore.Update{
		{Path: "recipeGenerationStatus.progress", Value: firestore.Increment(1)},
	})
	if err != nil {
		return fmt.Errorf("mealweekdb: recording attempt: %w", err)
	}
	return nil
}

func (s *FirestoreStore) SetMealImageURL(ctx context.Context, userID string, weekID string, day string, slot string, url string) error {
	_, err := s.planDoc(userID, weekID).Update(ctx, []firestore.Update{
		{FieldPath: firestore.FieldPath{"weekPlan", day, slot, "imageUrl"}, Value: url},
	})
	if err != nil {
		return fmt.Errorf("mealweekdb: writing meal image url: %w", err)
	}
	return nil
}

func (s *FirestoreStore) CompleteGeneration(ctx context.Context, userID string, weekID string) error {
	_, err := s.planDoc(userID, weekID).Update(ctx, []firestore.Update{
		{Path: "recipeGenerationStatus.isGenerating", Value: false},
		{Path: "recipeGenerationStatus.completedAt", Value: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("mealweekdb: completing generation: %w", err)
	}
	return nil
}

func (s *FirestoreStore) CancelGeneration(ctx context.Context, userID string, weekID string) error {
	_, err := s.planDoc(userID, weekID).Update(ctx, []firestore.Update{
		{Path: "recipeGenerationStatus.isGenerating", Value: false},
		{Path: "recipeGenerationStatus.cancelledAt", Value: time.Now()},
	})
	if err != nil {
		return fmt.Errorf("mealweekdb: cancelling generation: %w", err)
	}
	return nil
}

func (s *FirestoreStore) FailGeneration(ctx context.Context, userID string, weekID string, cause string) error {
	_, err := s.planDoc(userID, weekID).Update(ctx, []firestore.Update{
		{Path: "recipeGenerationStatus.isGenerating", Value: false},
		{Path: "recipeGenerationStatus.failedAt", Value: time.Now()},
		{Path: "recipeGenerationStatus.failureReason", Value: cause},
	})
	if err != nil {
		return fmt.Errorf("mealweekdb: failing generation: %w", err)
	}
	return nil
}

// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package mealweekdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// NewMemoryStore returns an in-memory PlanStore with the same semantics as
// the Firestore store, for tests and local runs without GCP credentials.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		plans:    map[string]*MealPlan{},
		profiles: map[string]*UserProfile{},
	}
}

// MemoryStore is an in-memory PlanStore.
type MemoryStore struct {
	mu       sync.Mutex
	plans    map[string]*MealPlan
	profiles map[string]*UserProfile
}

var _ PlanStore = (*MemoryStore)(nil)

func planKey(userID string, weekID string) string {
	return userID + "/" + weekID
}

// deep copies documents in and out so callers never share memory with the
// store, matching the serialization boundary of the real backend.
func deepCopy[T any](v *T) *T {
	if v == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("mealweekdb: copying document: %v", err))
	}
	out := new(T)
	if err := json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("mealweekdb: copying document: %v", err))
	}
	return out
}

// SetUserProfile stores a profile document.
func (s *MemoryStore) SetUserProfile(userID string, profile *UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = deepCopy(profile)
}

func (s *MemoryStore) MealPlan(_ context.Context, userID string, weekID string) (*MealPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planKey(userID, weekID)]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return deepCopy(plan), nil
}

func (s *MemoryStore) SetMealPlan(_ context.Context, userID string, weekID string, plan *MealPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[planKey(userID, weekID)] = deepCopy(plan)
	return nil
}

func (s *MemoryStore) ListWeeks(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prefix := userID + "/"
	var weeks []string
	for key := range s.plans {
		if week, ok := strings.CutPrefix(key, prefix); ok {
			weeks = append(weeks, week)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(weeks)))
	return weeks, nil
}

func (s *MemoryStore) UserProfile(_ context.Context, userID string) (*UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return deepCopy(profile), nil
}

func (s *MemoryStore) GenerationStatus(_ context.Context, userID string, weekID string) (*RecipeGenerationStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planKey(userID, weekID)]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return deepCopy(plan.RecipeGenerationStatus), nil
}

func (s *MemoryStore) BeginGeneration(_ context.Context, userID string, weekID string, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planKey(userID, weekID)]
	if !ok {
		return ErrPlanNotFound
	}
	if st := plan.RecipeGenerationStatus; st != nil && st.IsGenerating {
		return ErrGenerationActive
	}
	plan.RecipeGenerationStatus = &RecipeGenerationStatus{
		IsGenerating: true,
		Progress:     0,
		Total:        total,
		StartedAt:    time.Now(),
	}
	return nil
}

// statusFor returns the status record of the plan, creating an empty one the
// way a field-path update on the real backend would.
func (s *MemoryStore) statusFor(userID string, weekID string) (*RecipeGenerationStatus, error) {
	plan, ok := s.plans[planKey(userID, weekID)]
	if !ok {
		return nil, ErrPlanNotFound
	}
	if plan.RecipeGenerationStatus == nil {
		plan.RecipeGenerationStatus = &RecipeGenerationStatus{}
	}
	return plan.RecipeGenerationStatus, nil
}

func (s *MemoryStore) RequestCancel(_ context.Context, userID string, weekID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.statusFor(userID, weekID)
	if err != nil {
		return err
	}
	now := time.Now()
	st.Cancelled = true
	st.CancelledAt = &now
	return nil
}

func (s *MemoryStore) SetMealRecipe(_ context.Context, userID string, weekID string, day string, slot string, recipe *Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planKey(userID, weekID)]
	if !ok {
		return ErrPlanNotFound
	}
	if plan.WeekPlan == nil {
		plan.WeekPlan = WeekPlan{}
	}
	if plan.WeekPlan[day] == nil {
		plan.WeekPlan[day] = DayMeals{}
	}
	if plan.WeekPlan[day][slot] == nil {
		plan.WeekPlan[day][slot] = &Meal{}
	}
	plan.WeekPlan[day][slot].Recipe = deepCopy(recipe)
	st, err := s.statusFor(userID, weekID)
	if err != nil {
		return err
	}
	st.Progress++
	return nil
}

func (s *MemoryStore) RecordAttempt(_ context.Context, userID string, weekID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.statusFor(userID, weekID)
	if err != nil {
		return err
	}
	st.Progress++
	return nil
}

func (s *MemoryStore) SetMealImageURL(_ context.Context, userID string, weekID string, day string, slot string, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.plans[planKey(userID, weekID)]
	if !ok {
		return ErrPlanNotFound
	}
	meal := plan.WeekPlan.Meal(day, slot)
	if meal == nil {
		return fmt.Errorf("mealweekdb: no meal at %s %s", day, slot)
	}
	meal.ImageURL = url
	return nil
}

func (s *MemoryStore) CompleteGeneration(_ context.Context, userID string, weekID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.statusFor(userID, weekID)
	if err != nil {
		return err
	}
	now := time.Now()
	st.IsGenerating = false
	st.CompletedAt = &now
	return nil
}

func (s *MemoryStore) CancelGeneration(_ context.Context, userID string, weekID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.statusFor(userID, weekID)
	if err != nil {
		return err
	}
	now := time.Now()
	st.IsGenerating = false
	st.CancelledAt = &now
	return nil
}

func (s *MemoryStore) FailGeneration(_ context.Context, userID string, weekID string, cause string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := s.statusFor(userID, weekID)
	if err != nil {
		return err
	}
	now := time.Now()
	st.IsGenerating = false
	st.FailedAt = &now
	st.FailureReason = cause
	return nil
}

// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package mealweekdb

import (
	"context"
	"errors"
)

var (
	// ErrPlanNotFound is returned when the referenced week plan document does
	// not exist.
	ErrPlanNotFound = errors.New("mealweekdb: plan not found")

	// ErrGenerationActive is returned by BeginGeneration when a recipe
	// generation run is already in progress for the plan.
	ErrGenerationActive = errors.New("mealweekdb: recipe generation already in progress")
)

// PlanStore is the document store for week plans and their recipe generation
// status. The production implementation is backed by Firestore, tests use
// the in-memory implementation.
//
// All recipe generation mutations are narrow field updates rather than whole
// document rewrites, and progress increments are atomic adds so that
// concurrent writers within a batch never lose updates.
type PlanStore interface {
	// MealPlan returns the week plan document for the user and week, or
	// ErrPlanNotFound.
	MealPlan(ctx context.Context, userID string, weekID string) (*MealPlan, error)

	// SetMealPlan writes the full week plan document for the user and week.
	SetMealPlan(ctx context.Context, userID string, weekID string, plan *MealPlan) error

	// ListWeeks returns the week IDs the user has plans for, most recent
	// first.
	ListWeeks(ctx context.Context, userID string) ([]string, error)

	// UserProfile returns the user's profile, or ErrPlanNotFound if there is
	// no profile document.
	UserProfile(ctx context.Context, userID string) (*UserProfile, error)

	// GenerationStatus returns the current recipe generation status of the
	// plan. A plan that never had a run returns a nil status.
	GenerationStatus(ctx context.Context, userID string, weekID string) (*RecipeGenerationStatus, error)

	// BeginGeneration atomically checks that no run is active and resets the
	// status record for a new run. Returns ErrGenerationActive if a run is in
	// progress and ErrPlanNotFound if the plan does not exist. This is the
	// only operation that resets the cancelled flag.
	BeginGeneration(ctx context.Context, userID string, weekID string, total int) error

	// RequestCancel sets the cancellation flag on the status record
	// unconditionally. When no run is active this is a harmless no-op write.
	RequestCancel(ctx context.Context, userID string, weekID string) error

	// SetMealRecipe writes the generated recipe at the meal's exact field
	// path and increments progress by one, in a single document update.
	SetMealRecipe(ctx context.Context, userID string, weekID string, day string, slot string, recipe *Recipe) error

	// RecordAttempt increments progress by one without writing a recipe,
	// used for failed generation attempts.
	RecordAttempt(ctx context.Context, userID string, weekID string) error

	// SetMealImageURL writes the generated image URL for a meal.
	SetMealImageURL(ctx context.Context, userID string, weekID string, day string, slot string, url string) error

	// CompleteGeneration marks the run completed.
	CompleteGeneration(ctx context.Context, userID string, weekID string) error

	// CancelGeneration marks the run cancelled after the pipeline observed
	// the cancellation flag at a batch boundary.
	CancelGeneration(ctx context.Context, userID string, weekID string) error

	// FailGeneration marks the run failed with the given cause. Without this
	// terminal state an unrecoverable error would leave the status generating
	// forever.
	FailGeneration(ctx context.Context, userID string, weekID string, cause string) error
}

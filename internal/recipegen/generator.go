// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package recipegen

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mealweek/server/internal/mealweekdb"
)

const (
	// DefaultBatchSize is the number of meal slots generated concurrently.
	DefaultBatchSize = 5

	// DefaultBatchDelay is the pause between batches, to stay under upstream
	// rate limits.
	DefaultBatchDelay = 500 * time.Millisecond
)

// RecipeRequest is the input for generating one meal's recipe.
type RecipeRequest struct {
	// MealName is the name of the meal.
	MealName string

	// MealDescription is the description of the meal.
	MealDescription string

	// Ingredients are the ingredients of the meal.
	Ingredients []mealweekdb.Ingredient

	// DietaryRestrictions are the user's dietary restrictions, if known.
	DietaryRestrictions []string

	// Allergies are the user's allergies, if known.
	Allergies []string
}

// RecipeSource generates a recipe for a single meal.
type RecipeSource interface {
	GenerateRecipe(ctx context.Context, req *RecipeRequest) (*mealweekdb.Recipe, error)
}

// Config tunes the generation pipeline. Zero values fall back to defaults.
type Config struct {
	// BatchSize bounds in-flight generation requests.
	BatchSize int

	// BatchDelay is the pause between batches.
	BatchDelay time.Duration

	// ItemTimeout bounds a single meal's generation attempt, including
	// retries. Zero means no per-item timeout.
	ItemTimeout time.Duration
}

// NewGenerator returns a Generator. images may be nil to disable meal image
// generation.
func NewGenerator(store mealweekdb.PlanStore, recipes RecipeSource, images *MealImager, conf Config) *Generator {
	if conf.BatchSize <= 0 {
		conf.BatchSize = DefaultBatchSize
	}
	if conf.BatchDelay <= 0 {
		conf.BatchDelay = DefaultBatchDelay
	}
	return &Generator{
		store:   store,
		recipes: recipes,
		images:  images,
		conf:    conf,
	}
}

// Generator runs recipe generation for a week plan: it fans out per-meal
// requests in bounded batches, persists each result as it completes and
// tracks progress and cancellation through the plan's status record.
type Generator struct {
	store   mealweekdb.PlanStore
	recipes RecipeSource
	images  *MealImager
	conf    Config
}

// workItem is one meal slot eligible for generation.
type workItem struct {
	day  string
	slot string
	meal *mealweekdb.Meal
}

// worklist enumerates the plan's slots in fixed day and slot order and keeps
// those with a named meal and a non-empty ingredient list. Malformed slots
// are skipped silently, they are not an error.
func worklist(plan mealweekdb.WeekPlan) []workItem {
	var items []workItem
	for _, day := range mealweekdb.Days {
		for _, slot := range mealweekdb.MealSlots {
			meal := plan.Meal(day, slot)
			if meal == nil || meal.Name == "" || len(meal.Ingredients) == 0 {
				continue
			}
			items = append(items, workItem{day: day, slot: slot, meal: meal})
		}
	}
	return items
}

// Generate runs to completion, cancellation or unrecoverable failure. The
// caller must have initialized the plan's status record with
// BeginGeneration first. All externally visible effects are document
// writes, the returned error is for the supervisor's log only.
func (g *Generator) Generate(ctx context.Context, userID string, weekID string, plan mealweekdb.WeekPlan) error {
	// Dietary context is best effort, a missing profile never blocks
	// generation.
	var restrictions, allergies []string
	if profile, err := g.store.UserProfile(ctx, userID); err == nil {
		restrictions = profile.DietaryRestrictions
		allergies = profile.Allergies
	} else {
		slog.InfoContext(ctx, "recipegen: no user profile for generation", "userId", userID, "error", err)
	}

	items := worklist(plan)
	for start := 0; start < len(items); start += g.conf.BatchSize {
		// Cancellation is observed only here, between batches. In-flight
		// items of a dispatched batch always complete and get counted.
		st, err := g.store.GenerationStatus(ctx, userID, weekID)
		if err != nil {
			return g.fail(ctx, userID, weekID, fmt.Errorf("recipegen: reading status: %w", err))
		}
		if st != nil && st.Cancelled {
			if err := g.store.CancelGeneration(ctx, userID, weekID); err != nil {
				return g.fail(ctx, userID, weekID, fmt.Errorf("recipegen: marking run cancelled: %w", err))
			}
			slog.InfoContext(ctx, "recipegen: run cancelled", "userId", userID, "weekId", weekID, "progress", st.Progress)
			return nil
		}

		batch := items[start:min(start+g.conf.BatchSize, len(items))]
		var grp errgroup.Group
		for _, item := range batch {
			grp.Go(func() error {
				g.generateOne(ctx, userID, weekID, item, restrictions, allergies)
				return nil
			})
		}
		_ = grp.Wait()

		if start+g.conf.BatchSize < len(items) {
			select {
			case <-time.After(g.conf.BatchDelay):
			case <-ctx.Done():
				return g.fail(ctx, userID, weekID, fmt.Errorf("recipegen: run interrupted: %w", ctx.Err()))
			}
		}
	}

	if err := g.store.CompleteGeneration(ctx, userID, weekID); err != nil {
		return g.fail(ctx, userID, weekID, fmt.Errorf("recipegen: marking run completed: %w", err))
	}
	slog.InfoContext(ctx, "recipegen: run completed", "userId", userID, "weekId", weekID, "slots", len(items))
	return nil
}

// generateOne attempts a single meal slot. Failures are contained here:
// whatever happens, the attempt counts for exactly one progress increment
// and never aborts the batch.
func (g *Generator) generateOne(ctx context.Context, userID string, weekID string, item workItem, restrictions []string, allergies []string) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "recipegen: panic generating recipe", "day", item.day, "slot", item.slot, "panic", r)
			g.recordAttempt(ctx, userID, weekID, item)
		}
	}()

	itemCtx := ctx
	if g.conf.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, g.conf.ItemTimeout)
		defer cancel()
	}

	recipe, err := g.recipes.GenerateRecipe(itemCtx, &RecipeRequest{
		MealName:            item.meal.Name,
		MealDescription:     item.meal.Description,
		Ingredients:         item.meal.Ingredients,
		DietaryRestrictions: restrictions,
		Allergies:           allergies,
	})
	if err != nil {
		slog.ErrorContext(ctx, "recipegen: generating recipe", "day", item.day, "slot", item.slot, "meal", item.meal.Name, "error", err)
		g.recordAttempt(ctx, userID, weekID, item)
		return
	}

	if err := g.store.SetMealRecipe(ctx, userID, weekID, item.day, item.slot, recipe); err != nil {
		// Writes are not retried. The slot loses its recipe for this run, but
		// the attempt still counts.
		slog.ErrorContext(ctx, "recipegen: writing recipe", "day", item.day, "slot", item.slot, "error", err)
		g.recordAttempt(ctx, userID, weekID, item)
		return
	}

	if g.images != nil && item.meal.ImageURL == "" {
		g.generateImage(itemCtx, userID, weekID, item, recipe)
	}
}

// recordAttempt counts a failed attempt. A write failure here is only
// logged, the progress counter may then undercount for this run.
func (g *Generator) recordAttempt(ctx context.Context, userID string, weekID string, item workItem) {
	if err := g.store.RecordAttempt(ctx, userID, weekID); err != nil {
		slog.ErrorContext(ctx, "recipegen: recording attempt", "day", item.day, "slot", item.slot, "error", err)
	}
}

// generateImage adds a generated photo to a meal that got a recipe. Image
// failures never affect progress accounting.
func (g *Generator) generateImage(ctx context.Context, userID string, weekID string, item workItem, recipe *mealweekdb.Recipe) {
	path := fmt.Sprintf("mealplans/%s/%s/%s-%s.jpg", userID, weekID, item.day, item.slot)
	url, err := g.images.GenerateMealImage(ctx, path, item.meal, recipe)
	if err != nil {
		slog.ErrorContext(ctx, "recipegen: generating meal image", "day", item.day, "slot", item.slot, "error", err)
		return
	}
	if url == "" {
		return
	}
	if err := g.store.SetMealImageURL(ctx, userID, weekID, item.day, item.slot, url); err != nil {
		slog.ErrorContext(ctx, "recipegen: writing meal image url", "day", item.day, "slot", item.slot, "error", err)
	}
}

// fail records the failed terminal state and returns the original error.
func (g *Generator) fail(ctx context.Context, userID string, weekID string, cause error) error {
	if err := g.store.FailGeneration(ctx, userID, weekID, cause.Error()); err != nil {
		slog.ErrorContext(ctx, "recipegen: marking run failed", "userId", userID, "weekId", weekID, "error", err)
	}
	return cause
}

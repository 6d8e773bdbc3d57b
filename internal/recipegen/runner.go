// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package recipegen

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mealweek/server/internal/mealweekdb"
)

// NewRunner returns a Runner supervising generation runs on the given
// generator.
func NewRunner(store mealweekdb.PlanStore, gen *Generator) *Runner {
	return &Runner{
		store: store,
		gen:   gen,
	}
}

// Runner starts generation runs fire-and-forget: the caller's request
// returns as soon as the run is admitted, the run itself continues on a
// context detached from the request. The store's transactional guard keeps
// at most one run active per plan.
type Runner struct {
	store mealweekdb.PlanStore
	gen   *Generator

	wg sync.WaitGroup
}

// Start admits a new run for the plan and spawns it. Returns
// mealweekdb.ErrPlanNotFound when the plan is missing and
// mealweekdb.ErrGenerationActive when a run is already in progress, in which
// case nothing is mutated.
func (r *Runner) Start(ctx context.Context, userID string, weekID string) error {
	plan, err := r.store.MealPlan(ctx, userID, weekID)
	if err != nil {
		return err
	}

	// Total is always the nominal slot count, not the filtered worklist
	// size. See RecipeGenerationStatus.Total.
	if err := r.store.BeginGeneration(ctx, userID, weekID, mealweekdb.NumMealSlots); err != nil {
		return err
	}

	runCtx := context.WithoutCancel(ctx)
	r.wg.Go(func() {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(runCtx, "recipegen: run panicked", "userId", userID, "weekId", weekID, "panic", rec)
				if err := r.store.FailGeneration(runCtx, userID, weekID, fmt.Sprintf("panic: %v", rec)); err != nil {
					slog.ErrorContext(runCtx, "recipegen: marking panicked run failed", "error", err)
				}
			}
		}()
		if err := r.gen.Generate(runCtx, userID, weekID, plan.WeekPlan); err != nil {
			slog.ErrorContext(runCtx, "recipegen: run failed", "userId", userID, "weekId", weekID, "error", err)
		}
	})
	return nil
}

// Shutdown waits for active runs to finish, or for ctx to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("recipegen: waiting for active runs: %w", ctx.Err())
	}
}

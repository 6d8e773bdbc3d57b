// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package startrecipes

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mealweek/server/internal/auth"
	"github.com/mealweek/server/internal/httpjson"
	"github.com/mealweek/server/internal/mealweekdb"
	"github.com/mealweek/server/internal/recipegen"
)

// NewHandler returns a Handler.
func NewHandler(runner *recipegen.Runner) *Handler {
	return &Handler{
		runner: runner,
	}
}

// Handler starts recipe generation for a week plan.
type Handler struct {
	runner *recipegen.Runner
}

type StartRecipesRequest struct {
	// WeekID is the target week, e.g. "2025-W44".
	WeekID string `json:"weekId"`
}

type StartRecipesResponse struct {
	// WeekID is the week the run was started for.
	WeekID string `json:"weekId"`
}

// StartRecipes admits a generation run and returns without waiting for it.
// Progress is observed through the plan document's recipeGenerationStatus
// field, not through this endpoint.
func (h *Handler) StartRecipes(ctx context.Context, req *StartRecipesRequest) (*StartRecipesResponse, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, httpjson.NewError(http.StatusUnauthorized, errors.New("startrecipes: missing user"))
	}
	if req.WeekID == "" {
		return nil, httpjson.NewError(http.StatusBadRequest, errors.New("startrecipes: weekId is required"))
	}
	if _, _, err := mealweekdb.ParseWeekID(req.WeekID); err != nil {
		return nil, httpjson.NewError(http.StatusBadRequest, err)
	}

	if err := h.runner.Start(ctx, userID, req.WeekID); err != nil {
		switch {
		case errors.Is(err, mealweekdb.ErrPlanNotFound):
			return nil, httpjson.NewError(http.StatusNotFound, fmt.Errorf("startrecipes: no plan for week %s: %w", req.WeekID, err))
		case errors.Is(err, mealweekdb.ErrGenerationActive):
			return nil, httpjson.NewError(http.StatusConflict, err)
		}
		return nil, fmt.Errorf("startrecipes: starting generation: %w", err)
	}

	return &StartRecipesResponse{WeekID: req.WeekID}, nil
}

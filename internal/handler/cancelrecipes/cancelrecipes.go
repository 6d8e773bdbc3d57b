// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package cancelrecipes

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mealweek/server/internal/auth"
	"github.com/mealweek/server/internal/httpjson"
	"github.com/mealweek/server/internal/mealweekdb"
)

// NewHandler returns a Handler.
func NewHandler(store mealweekdb.PlanStore) *Handler {
	return &Handler{
		store: store,
	}
}

// Handler requests cancellation of a recipe generation run.
type Handler struct {
	store mealweekdb.PlanStore
}

type CancelRecipesRequest struct {
	// WeekID is the target week, e.g. "2025-W44".
	WeekID string `json:"weekId"`
}

type CancelRecipesResponse struct{}

// CancelRecipes flips the cancellation flag on the plan's status record. The
// running pipeline observes it at its next batch boundary, in-flight meals
// still complete. Cancelling an idle plan is a no-op.
func (h *Handler) CancelRecipes(ctx context.Context, req *CancelRecipesRequest) (*CancelRecipesResponse, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, httpjson.NewError(http.StatusUnauthorized, errors.New("cancelrecipes: missing user"))
	}
	if req.WeekID == "" {
		return nil, httpjson.NewError(http.StatusBadRequest, errors.New("cancelrecipes: weekId is required"))
	}
	if _, _, err := mealweekdb.ParseWeekID(req.WeekID); err != nil {
		return nil, httpjson.NewError(http.StatusBadRequest, err)
	}

	if err := h.store.RequestCancel(ctx, userID, req.WeekID); err != nil {
		if errors.Is(err, mealweekdb.ErrPlanNotFound) {
			return nil, httpjson.NewError(http.StatusNotFound, fmt.Errorf("cancelrecipes: no plan for week %s: %w", req.WeekID, err))
		}
		return nil, fmt.Errorf("cancelrecipes: requesting cancellation: %w", err)
	}

	return &CancelRecipesResponse{}, nil
}

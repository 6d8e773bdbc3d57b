// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package getplan

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

// Handler fetches a week plan document.
type Handler struct {
	store mealweekdb.PlanStore
}

type GetPlanRequest struct {
	// WeekID is the week to fetch. Empty means the current week.
	WeekID string `json:"weekId"`
}

type GetPlanResponse struct {
	WeekID string               `json:"weekId"`
	Plan   *mealweekdb.MealPlan `json:"plan"`
}

func (h *Handler) GetPlan(ctx context.Context, req *GetPlanRequest) (*GetPlanResponse, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, httpjson.NewError(http.StatusUnauthorized, errors.New("getplan: missing user"))
	}
	weekID := req.WeekID
	if weekID == "" {
		weekID = mealweekdb.CurrentWeekID()
	} else if _, _, err := mealweekdb.ParseWeekID(weekID); err != nil {
		return nil, httpjson.NewError(http.StatusBadRequest, err)
	}

	plan, err := h.store.MealPlan(ctx, userID, weekID)
	if err != nil {
		if errors.Is(err, mealweekdb.ErrPlanNotFound) {
			return nil, httpjson.NewError(http.StatusNotFound, fmt.Errorf("getplan: no plan for week %s: %w", weekID, err))
		}
		return nil, fmt.Errorf("getplan: fetching plan: %w", err)
	}

	return &GetPlanResponse{WeekID: weekID, Plan: plan}, nil
}

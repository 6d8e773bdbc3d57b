// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package getstats

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mealweek/server/internal/auth"
	"github.com/mealweek/server/internal/httpjson"
	"github.com/mealweek/server/internal/mealplan"
	"github.com/mealweek/server/internal/mealweekdb"
)

// NewHandler returns a Handler.
func NewHandler(store mealweekdb.PlanStore) *Handler {
	return &Handler{
		store: store,
	}
}

// Handler computes the nutrition and ingredient statistics of a week plan for
// the dashboard.
type Handler struct {
	store mealweekdb.PlanStore
}

type GetStatsRequest struct {
	// WeekID is the week to compute statistics for. Empty means the current
	// week.
	WeekID string `json:"weekId"`
}

type GetStatsResponse struct {
	WeekID string `json:"weekId"`

	// DayNutrition is the nutrition total of each day, keyed by weekday.
	DayNutrition map[string]mealweekdb.Nutrition `json:"dayNutrition"`

	// WeekNutrition is the nutrition total of the whole week.
	WeekNutrition mealweekdb.Nutrition `json:"weekNutrition"`

	// TopIngredients counts the most used ingredients across the week, most
	// frequent first.
	TopIngredients []mealplan.IngredientCount `json:"topIngredients"`
}

func (h *Handler) GetStats(ctx context.Context, req *GetStatsRequest) (*GetStatsResponse, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, httpjson.NewError(http.StatusUnauthorized, errors.New("getstats: missing user"))
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
			return nil, httpjson.NewError(http.StatusNotFound, fmt.Errorf("getstats: no plan for week %s: %w", weekID, err))
		}
		return nil, fmt.Errorf("getstats: fetching plan: %w", err)
	}

	days := make(map[string]mealweekdb.Nutrition, len(mealweekdb.Days))
	for _, day := range mealweekdb.Days {
		days[day] = mealplan.DayNutrition(plan.WeekPlan[day])
	}

	return &GetStatsResponse{
		WeekID:         weekID,
		DayNutrition:   days,
		WeekNutrition:  mealplan.WeekNutrition(plan.WeekPlan),
		TopIngredients: mealplan.TopIngredients(plan.WeekPlan),
	}, nil
}

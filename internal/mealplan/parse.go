// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

// Package mealplan decodes structured meal plan responses from the planning
// model and computes the aggregations the dashboard shows.
package mealplan

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mealweek/server/internal/mealweekdb"
)

// PlanResponse is the structured response of a meal planning request.
type PlanResponse struct {
	// WeekPlan is the generated week of meals.
	WeekPlan mealweekdb.WeekPlan `json:"weekPlan"`

	// GroceryList is the aggregated grocery list for the week.
	GroceryList []mealweekdb.GroceryItem `json:"groceryList"`

	// NutritionSummary is the weekly nutrition summary.
	NutritionSummary *mealweekdb.NutritionSummary `json:"nutritionSummary"`
}

// ParseResponse decodes a meal plan response. Day keys are normalized to
// lowercase, models occasionally capitalize them. Missing days or meal slots
// are tolerated, the recipe pipeline skips them later, but a response
// without any day at all is an error.
func ParseResponse(data []byte) (*PlanResponse, error) {
	var res PlanResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("mealplan: decoding plan response: %w", err)
	}
	if len(res.WeekPlan) == 0 {
		return nil, fmt.Errorf("mealplan: plan response has no week plan")
	}

	normalized := mealweekdb.WeekPlan{}
	for day, meals := range res.WeekPlan {
		normalized[strings.ToLower(day)] = meals
	}
	res.WeekPlan = normalized
	return &res, nil
}

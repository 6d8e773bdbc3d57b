// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package getplan

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealweek/server/internal/auth"
	"github.com/mealweek/server/internal/httpjson"
	"github.com/mealweek/server/internal/mealweekdb"
)

const (
	testUser = "user1"
	testWeek = "2025-W44"
)

func seedPlan(t *testing.T, store *mealweekdb.MemoryStore, weekID string) {
	t.Helper()
	require.NoError(t, store.SetMealPlan(t.Context(), testUser, weekID, &mealweekdb.MealPlan{
		WeekPlan: mealweekdb.WeekPlan{
			"monday": mealweekdb.DayMeals{
				"breakfast": &mealweekdb.Meal{Name: "Oatmeal", Ingredients: []mealweekdb.Ingredient{{Item: "Oats"}}},
			},
		},
	}))
}

func requireStatus(t *testing.T, err error, status int) {
	t.Helper()
	var herr *httpjson.Error
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, status, herr.Status)
}

func TestGetPlan(t *testing.T) {
	store := mealweekdb.NewMemoryStore()
	seedPlan(t, store, testWeek)

	h := NewHandler(store)
	ctx := auth.WithUserID(t.Context(), testUser)
	res, err := h.GetPlan(ctx, &GetPlanRequest{WeekID: testWeek})
	require.NoError(t, err)
	assert.Equal(t, testWeek, res.WeekID)
	require.NotNil(t, res.Plan)
	assert.Equal(t, "Oatmeal", res.Plan.WeekPlan.Meal("monday", "breakfast").Name)
}

func TestGetPlan_DefaultsToCurrentWeek(t *testing.T) {
	store := mealweekdb.NewMemoryStore()
	seedPlan(t, store, mealweekdb.CurrentWeekID())

	h := NewHandler(store)
	ctx := auth.WithUserID(t.Context(), testUser)
	res, err := h.GetPlan(ctx, &GetPlanRequest{})
	require.NoError(t, err)
	assert.Equal(t, mealweekdb.CurrentWeekID(), res.WeekID)
	require.NotNil(t, res.Plan)
}

func TestGetPlan_MissingUser(t *testing.T) {
	h := NewHandler(mealweekdb.NewMemoryStore())

	_, err := h.GetPlan(t.Context(), &GetPlanRequest{WeekID: testWeek})
	requireStatus(t, err, http.StatusUnauthorized)
}

func TestGetPlan_BadWeekID(t *testing.T) {
	h := NewHandler(mealweekdb.NewMemoryStore())
	ctx := auth.WithUserID(t.Context(), testUser)

	_, err := h.GetPlan(ctx, &GetPlanRequest{WeekID: "44"})
	requireStatus(t, err, http.StatusBadRequest)
}

func TestGetPlan_NotFound(t *testing.T) {
	h := NewHandler(mealweekdb.NewMemoryStore())
	ctx := auth.WithUserID(t.Context(), testUser)

	_, err := h.GetPlan(ctx, &GetPlanRequest{WeekID: testWeek})
	requireStatus(t, err, http.StatusNotFound)
	require.ErrorIs(t, err, mealweekdb.ErrPlanNotFound)
}

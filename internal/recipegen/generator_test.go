// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package recipegen

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mealweek/server/internal/mealweekdb"
)

const (
	testUser = "user1"
	testWeek = "2025-W44"
)

func testRecipe() *mealweekdb.Recipe {
	return &mealweekdb.Recipe{
		PrepTime:   "10 minutes",
		CookTime:   "20 minutes",
		Servings:   2,
		Difficulty: mealweekdb.DifficultyEasy,
		Steps:      []string{"a", "b", "c", "d", "e"},
		Tips:       []string{"x", "y"},
	}
}

// fakeSource returns canned recipes and tracks how many requests run
// concurrently.
type fakeSource struct {
	mu      sync.Mutex
	calls   int
	current int
	maxConc int

	// onCall runs at the start of every request, outside the lock.
	onCall func(req *RecipeRequest)

	// fail returns an error for requests that should not produce a recipe.
	fail func(req *RecipeRequest) error
}

func (s *fakeSource) GenerateRecipe(_ context.Context, req *RecipeRequest) (*mealweekdb.Recipe, error) {
	s.mu.Lock()
	s.calls++
	s.current++
	if s.current > s.maxConc {
		s.maxConc = s.current
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.current--
		s.mu.Unlock()
	}()

	if s.onCall != nil {
		s.onCall(req)
	}
	if s.fail != nil {
		if err := s.fail(req); err != nil {
			return nil, err
		}
	}
	return testRecipe(), nil
}

// fullPlan builds a well-formed plan with all 21 meal slots filled.
func fullPlan() mealweekdb.WeekPlan {
	plan := mealweekdb.WeekPlan{}
	for _, day := range mealweekdb.Days {
		plan[day] = mealweekdb.DayMeals{}
		for _, slot := range mealweekdb.MealSlots {
			plan[day][slot] = &mealweekdb.Meal{
				Name:        fmt.Sprintf("%s %s", day, slot),
				Ingredients: []mealweekdb.Ingredient{{Item: "Rice", Amount: 100, Unit: "g", Category: "Pantry"}},
			}
		}
	}
	return plan
}

func startedStore(t *testing.T, plan mealweekdb.WeekPlan) *mealweekdb.MemoryStore {
	t.Helper()
	store := mealweekdb.NewMemoryStore()
	require.NoError(t, store.SetMealPlan(t.Context(), testUser, testWeek, &mealweekdb.MealPlan{WeekPlan: plan}))
	require.NoError(t, store.BeginGeneration(t.Context(), testUser, testWeek, mealweekdb.NumMealSlots))
	return store
}

func testConfig() Config {
	return Config{BatchSize: 5, BatchDelay: time.Millisecond}
}

func TestGenerate_FullPlan(t *testing.T) {
	plan := fullPlan()
	store := startedStore(t, plan)
	source := &fakeSource{}
	gen := NewGenerator(store, source, nil, testConfig())

	require.NoError(t, gen.Generate(t.Context(), testUser, testWeek, plan))

	st, err := store.GenerationStatus(t.Context(), testUser, testWeek)
	require.NoError(t, err)
	assert.Equal(t, mealweekdb.NumMealSlots, st.Progress)
	assert.Equal(t, mealweekdb.NumMealSlots, st.Total)
	assert.False(t, st.IsGenerating)
	assert.NotNil(t, st.CompletedAt)
	assert.Nil(t, st.FailedAt)
	assert.Equal(t, mealweekdb.NumMealSlots, source.calls)

	stored, err := store.MealPlan(t.Context(), testUser, testWeek)
	require.NoError(t, err)
	for _, day := range mealweekdb.Days {
		for _, slot := range mealweekdb.MealSlots {
			assert.NotNil(t, stored.WeekPlan.Meal(day, slot).Recipe, "%s %s", day, slot)
		}
	}
}

func TestGenerate_BoundsConcurrency(t *testing.T) {
	plan := fullPlan()
	store := startedStore(t, plan)
	source := &fakeSource{onCall: func(*RecipeRequest) {
		// Hold each request open long enough for the whole batch to be in
		// flight together.
		time.Sleep(10 * time.Millisecond)
	}}
	gen := NewGenerator(store, source, nil, testConfig())

	require.NoError(t, gen.Generate(t.Context(), testUser, testWeek, plan))

	assert.LessOrEqual(t, source.maxConc, 5)
	assert.Greater(t, source.maxConc, 1)
}

func TestGenerate_FailedAttemptsStillCount(t *testing.T) {
	plan := fullPlan()
	store := startedStore(t, plan)
	source := &fakeSource{fail: func(req *RecipeRequest) error {
		if req.MealName == "monday lunch" || req.MealName == "sunday dinner" {
			return errors.New("model overloaded")
		}
		return nil
	}}
	gen := NewGenerator(store, source, nil, testConfig())

	require.NoError(t, gen.Generate(t.Context(), testUser, testWeek, plan))

	st, err := store.GenerationStatus(t.Context(), testUser, testWeek)
	require.NoError(t, err)
	assert.Equal(t, mealweekdb.NumMealSlots, st.Progress)
	assert.NotNil(t, st.CompletedAt)

	stored, err := store.MealPlan(t.Context(), testUser, testWeek)
	require.NoError(t, err)
	assert.Nil(t, stored.WeekPlan.Meal("monday", "lunch").Recipe)
	assert.Nil(t, stored.WeekPlan.Meal("sunday", "dinner").Recipe)
	assert.NotNil(t, stored.WeekPlan.Meal("monday", "breakfast").Recipe)
}

func TestGenerate_PanickingSourceCounts(t *testing.T) {
	plan := fullPlan()
	store := startedStore(t, plan)
	source := &fakeSource{onCall: func(req *RecipeRequest) {
		if req.MealName == "wednesday dinner" {
			panic("bad response shape")
		}
	}}
	gen := NewGenerator(store, source, nil, testConfig())

	require.NoError(t, gen.Generate(t.Context(), testUser, testWeek, plan))

	st, err := store.GenerationStatus(t.Context(), testUser, testWeek)
	require.NoError(t, err)
	assert.Equal(t, mealweekdb.NumMealSlots, st.Progress)
	assert.NotNil(t, st.CompletedAt)

	stored, err := store.MealPlan(t.Context(), testUser, testWeek)
	require.NoError(t, err)
	assert.Nil(t, stored.WeekPlan.Meal("wednesday", "dinner").Recipe)
}

func TestGenerate_SkipsMalformedSlots(t *testing.T) {
	plan := fullPlan()
	delete(plan, "tuesday")
	plan["wednesday"]["lunch"] = nil
	plan["thursday"]["dinner"].Name = ""
	plan["friday"]["breakfast"].Ingredients = nil
	valid := mealweekdb.NumMealSlots - 3 - 1 - 1 - 1

	store := startedStore(t, plan)
	source := &fakeSource{}
	gen := NewGenerator(store, source, nil, testConfig())

	require.NoError(t, gen.Generate(t.Context(), testUser, testWeek, plan))

	st, err := store.GenerationStatus(t.Context(), testUser, testWeek)
	require.NoError(t, err)
	assert.Equal(t, valid, st.Progress)
	// Total stays the nominal slot count regardless of how many slots were
	// actually eligible.
	assert.Equal(t, mealweekdb.NumMealSlots, st.Total)
	assert.NotNil(t, st.CompletedAt)
	assert.Equal(t, valid, source.calls)
}

// recipeWriteFailStore fails the recipe write for one slot.
type recipeWriteFailStore struct {
	mealweekdb.PlanStore
	day  string
	slot string
}

func (s *recipeWriteFailStore) SetMealRecipe(ctx context.Context, userID string, weekID string, day string, slot string, recipe *mealweekdb.Recipe) error {
	if day == s.day && slot == s.slot {
		return errors.New("deadline exceeded")
	}
	return s.PlanStore.SetMealRecipe(ctx, userID, weekID, day, slot, recipe)
}

func TestGenerate_RecipeWriteFailureStillCounts(t *testing.T) {
	plan := fullPlan()
	mem := startedStore(t, plan)
	store := &recipeWriteFailStore{PlanStore: mem, day: "tuesday", slot: "lunch"}
	source := &fakeSource{}
	gen := NewGenerator(store, source, nil, testConfig())

	require.NoError(t, gen.Generate(t.Context(), testUser, testWeek, plan))

	st, err := mem.GenerationStatus(t.Context(), testUser, testWeek)
	require.NoError(t, err)
	assert.Equal(t, mealweekdb.NumMealSlots, st.Progress)
	assert.NotNil(t, st.CompletedAt)

	stored, err := mem.MealPlan(t.Context(), testUser, testWeek)
	require.NoError(t, err)
	assert.Nil(t, stored.WeekPlan.Meal("tuesday", "lunch").Recipe)
	assert.NotNil(t, stored.WeekPlan.Meal("tuesday", "breakfast").Recipe)
}

// cancelOnPoll flips the cancellation flag right before the pipeline's nth
// status poll, simulating a cancel request landing while a batch runs.
type cancelOnPoll struct {
	mealweekdb.PlanStore
	polls    int
	cancelOn int
}

func (s *cancelOnPoll) GenerationStatus(ctx context.Context, userID string, weekID string) (*mealweekdb.RecipeGenerationStatus, error) {
	s.polls++
	if s.polls == s.cancelOn {
		if err := s.PlanStore.RequestCancel(ctx, userID, weekID); err != nil {
			return nil, err
		}
	}
	return s.PlanStore.GenerationStatus(ctx, userID, weekID)
}

func TestGenerate_CancelObservedAtBatchBoundary(t *testing.T) {
	plan := fullPlan()
	mem := startedStore(t, plan)
	store := &cancelOnPoll{PlanStore: mem, cancelOn: 3}
	source := &fakeSource{}
	gen := NewGenerator(store, source, nil, testConfig())

	require.NoError(t, gen.Generate(t.Context(), testUser, testWeek, plan))

	// Two full batches were dispatched before the flag was observed, all of
	// their slots completed and counted.
	st, err := mem.GenerationStatus(t.Context(), testUser, testWeek)
	require.NoError(t, err)
	assert.Equal(t, 10, st.Progress)
	assert.Equal(t, 10, source.calls)
	assert.False(t, st.IsGenerating)
	assert.True(t, st.Cancelled)
	assert.NotNil(t, st.CancelledAt)
	assert.Nil(t, st.CompletedAt)

	stored, err := mem.MealPlan(t.Context(), testUser, testWeek)
	require.NoError(t, err)
	assert.NotNil(t, stored.WeekPlan.Meal("tuesday", "dinner").Recipe)
	assert.Nil(t, stored.WeekPlan.Meal("thursday", "lunch").Recipe)
}

func TestGenerate_CancelBeforeFirstBatch(t *testing.T) {
	plan := fullPlan()
	mem := startedStore(t, plan)
	store := &cancelOnPoll{PlanStore: mem, cancelOn: 1}
	source := &fakeSource{}
	gen := NewGenerator(store, source, nil, testConfig())

	require.NoError(t, gen.Generate(t.Context(), testUser, testWeek, plan))

	st, err := mem.GenerationStatus(t.Context(), testUser, testWeek)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Progress)
	assert.Equal(t, 0, source.calls)
	assert.False(t, st.IsGenerating)
	assert.NotNil(t, st.CancelledAt)
}

func TestGenerate_InterruptedContextFailsRun(t *testing.T) {
	plan := fullPlan()
	store := startedStore(t, plan)

	ctx, cancel := context.WithCancel(t.Context())
	source := &fakeSource{onCall: func(*RecipeRequest) {
		cancel()
	}}
	gen := NewGenerator(store, source, nil, testConfig())

	err := gen.Generate(ctx, testUser, testWeek, plan)
	require.Error(t, err)

	// The first batch still completed, the run died waiting for the next one.
	st, serr := store.GenerationStatus(t.Context(), testUser, testWeek)
	require.NoError(t, serr)
	assert.Equal(t, 5, st.Progress)
	assert.False(t, st.IsGenerating)
	assert.NotNil(t, st.FailedAt)
	assert.Contains(t, st.FailureReason, "interrupted")
	assert.Nil(t, st.CompletedAt)
}

func TestGenerate_UsesUserProfile(t *testing.T) {
	plan := fullPlan()
	store := startedStore(t, plan)
	store.SetUserProfile(testUser, &mealweekdb.UserProfile{
		DietaryRestrictions: []string{"vegetarian"},
		Allergies:           []string{"peanuts"},
	})

	var mu sync.Mutex
	seen := map[string]bool{}
	source := &fakeSource{onCall: func(req *RecipeRequest) {
		mu.Lock()
		defer mu.Unlock()
		seen[req.MealName] = len(req.DietaryRestrictions) == 1 && req.DietaryRestrictions[0] == "vegetarian" &&
			len(req.Allergies) == 1 && req.Allergies[0] == "peanuts"
	}}
	gen := NewGenerator(store, source, nil, testConfig())

	require.NoError(t, gen.Generate(t.Context(), testUser, testWeek, plan))

	require.Len(t, seen, mealweekdb.NumMealSlots)
	for name, ok := range seen {
		assert.True(t, ok, name)
	}
}

func TestWorklist_Order(t *testing.T) {
	items := worklist(fullPlan())
	require.Len(t, items, mealweekdb.NumMealSlots)
	assert.Equal(t, "monday", items[0].day)
	assert.Equal(t, "breakfast", items[0].slot)
	assert.Equal(t, "monday", items[2].day)
	assert.Equal(t, "dinner", items[2].slot)
	assert.Equal(t, "sunday", items[20].day)
	assert.Equal(t, "dinner", items[20].slot)
}

func TestWorklist_EmptyPlan(t *testing.T) {
	assert.Empty(t, worklist(nil))
	assert.Empty(t, worklist(mealweekdb.WeekPlan{}))
}

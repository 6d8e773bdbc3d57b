// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package mealweekdb

import "time"

// Days are the canonical weekday keys of a week plan, in the order the
// recipe generation pipeline processes them.
var Days = []string{
	"monday",
	"tuesday",
	"wednesday",
	"thursday",
	"friday",
	"saturday",
	"sunday",
}

// MealSlots are the meal slot keys of a day, in processing order.
var MealSlots = []string{
	"breakfast",
	"lunch",
	"dinner",
}

// NumMealSlots is the number of meal slots in a well-formed week plan.
const NumMealSlots = 21

// Ingredient is a single ingredient of a meal. Ingredients are produced by
// the planning layer and are read-only input to recipe generation.
type Ingredient struct {
	// Item is the name of the ingredient.
	Item string `firestore:"item" json:"item"`

	// Amount is the quantity of the ingredient.
	Amount float64 `firestore:"amount" json:"amount"`

	// Unit is the unit of the amount, e.g. "g" or "cup".
	Unit string `firestore:"unit" json:"unit"`

	// Category is the grocery category of the ingredient, e.g. "Produce".
	Category string `firestore:"category" json:"category"`
}

// Nutrition is the nutrition estimate for a single meal.
type Nutrition struct {
	Calories float64 `firestore:"calories" json:"calories"`
	Protein  float64 `firestore:"protein" json:"protein"`
	Carbs    float64 `firestore:"carbs" json:"carbs"`
	Fats     float64 `firestore:"fats" json:"fats"`
}

// Difficulty is the difficulty rating of a recipe.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Recipe is the full cooking instructions for a meal. It is written
// atomically by the recipe generation pipeline, a meal either has a complete
// recipe or none at all.
type Recipe struct {
	// PrepTime is the preparation time as free-form text, e.g. "15 minutes".
	PrepTime string `firestore:"prepTime" json:"prepTime"`

	// CookTime is the cooking time as free-form text.
	CookTime string `firestore:"cookTime" json:"cookTime"`

	// Servings is the number of servings the recipe yields.
	Servings int `firestore:"servings" json:"servings"`

	// Difficulty is the difficulty rating of the recipe.
	Difficulty Difficulty `firestore:"difficulty" json:"difficulty"`

	// Steps are the cooking steps, between 5 and 8.
	Steps []string `firestore:"steps" json:"steps"`

	// Tips are cooking tips, between 2 and 3.
	Tips []string `firestore:"tips" json:"tips"`
}

// Meal is a single meal slot in a week plan. The planning layer owns all
// fields except Recipe and ImageURL, which are filled in by the recipe
// generation pipeline.
type Meal struct {
	// Name is the name of the meal.
	Name string `firestore:"name" json:"name"`

	// Description is a short description of the meal.
	Description string `firestore:"description" json:"description"`

	// Ingredients are the ingredients of the meal.
	Ingredients []Ingredient `firestore:"ingredients" json:"ingredients"`

	// Nutrition is the nutrition estimate for the meal.
	Nutrition *Nutrition `firestore:"nutrition,omitempty" json:"nutrition,omitempty"`

	// Recipe is the generated recipe for the meal, if one has been generated.
	Recipe *Recipe `firestore:"recipe,omitempty" json:"recipe,omitempty"`

	// ImageURL is the URL of a generated image of the meal, if any.
	ImageURL string `firestore:"imageUrl,omitempty" json:"imageUrl,omitempty"`
}

// DayMeals maps meal slot keys (MealSlots) to meals. Slots may be missing.
type DayMeals map[string]*Meal

// WeekPlan maps weekday keys (Days) to the meals of the day. Days may be
// missing from a malformed plan, the pipeline tolerates that.
type WeekPlan map[string]DayMeals

// Meal returns the meal at the given day and slot, or nil if the slot is
// missing.
func (p WeekPlan) Meal(day string, slot string) *Meal {
	if p == nil {
		return nil
	}
	return p[day][slot]
}

// GroceryItem is an entry of the weekly grocery list produced by the
// planning layer.
type GroceryItem struct {
	Item     string `firestore:"item" json:"item"`
	Category string `firestore:"category" json:"category"`
	Amount   string `firestore:"amount" json:"amount"`
	Unit     string `firestore:"unit" json:"unit"`
}

// MacroBreakdown is the macro split of the weekly nutrition summary, as
// free-form text such as "30%".
type MacroBreakdown struct {
	Protein string `firestore:"protein" json:"protein"`
	Carbs   string `firestore:"carbs" json:"carbs"`
	Fats    string `firestore:"fats" json:"fats"`
}

// NutritionSummary is the weekly nutrition summary produced by the planning
// layer.
type NutritionSummary struct {
	AverageCaloriesPerDay float64        `firestore:"averageCaloriesPerDay" json:"averageCaloriesPerDay"`
	MacroBreakdown        MacroBreakdown `firestore:"macroBreakdown" json:"macroBreakdown"`
}

// RecipeGenerationStatus tracks a single recipe generation run. It is reset
// by the start operation and updated by the pipeline as slots are attempted.
type RecipeGenerationStatus struct {
	// IsGenerating reports whether a run is active.
	IsGenerating bool `firestore:"isGenerating" json:"isGenerating"`

	// Progress is the number of meal slots attempted so far, success or
	// failure. It only ever increases within a run.
	Progress int `firestore:"progress" json:"progress"`

	// Total is always NumMealSlots, even when fewer slots pass the worklist
	// filter. A plan with invalid slots therefore never reaches
	// Progress == Total. This matches the behavior clients were built
	// against and is kept deliberately.
	Total int `firestore:"total" json:"total"`

	// StartedAt is the time the run was started.
	StartedAt time.Time `firestore:"startedAt" json:"startedAt"`

	// CompletedAt is the time the run finished attempting every worklist
	// slot, or nil if it has not.
	CompletedAt *time.Time `firestore:"completedAt" json:"completedAt"`

	// Cancelled is the cancellation flag. It is set by the cancel operation
	// at any time and observed by the pipeline at batch boundaries.
	Cancelled bool `firestore:"cancelled" json:"cancelled"`

	// CancelledAt is the time cancellation was requested or observed.
	CancelledAt *time.Time `firestore:"cancelledAt" json:"cancelledAt"`

	// FailedAt is the time the run died on an unrecoverable error, or nil.
	FailedAt *time.Time `firestore:"failedAt" json:"failedAt"`

	// FailureReason describes the unrecoverable error, if any.
	FailureReason string `firestore:"failureReason,omitempty" json:"failureReason,omitempty"`
}

// MealPlan is the week plan document for one user and one ISO week, stored
// at users/{userId}/mealPlans/{weekId}.
type MealPlan struct {
	// WeekPlan is the meals of the week.
	WeekPlan WeekPlan `firestore:"weekPlan" json:"weekPlan"`

	// GroceryList is the weekly grocery list.
	GroceryList []GroceryItem `firestore:"groceryList,omitempty" json:"groceryList,omitempty"`

	// NutritionSummary is the weekly nutrition summary.
	NutritionSummary *NutritionSummary `firestore:"nutritionSummary,omitempty" json:"nutritionSummary,omitempty"`

	// RecipeGenerationStatus is the status of the latest recipe generation
	// run, or nil if none was ever started.
	RecipeGenerationStatus *RecipeGenerationStatus `firestore:"recipeGenerationStatus,omitempty" json:"recipeGenerationStatus,omitempty"`

	// CreatedAt is the time the plan was created.
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`

	// UpdatedAt is the time the plan was last updated.
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
}

// UserProfile is the profile document at users/{userId}. Only the fields
// recipe generation injects into prompts are modeled here.
type UserProfile struct {
	// DietaryRestrictions are dietary restrictions such as "vegetarian".
	DietaryRestrictions []string `firestore:"dietaryRestrictions" json:"dietaryRestrictions"`

	// Allergies are ingredients the user is allergic to.
	Allergies []string `firestore:"allergies" json:"allergies"`
}

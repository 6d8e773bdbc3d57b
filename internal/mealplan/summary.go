// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package mealplan

import (
	"sort"
	"strings"

	"github.com/mealweek/server/internal/mealweekdb"
)

// MealIngredient is an ingredient annotated with the meal it belongs to.
type MealIngredient struct {
	mealweekdb.Ingredient

	// MealName is the name of the meal using the ingredient.
	MealName string `json:"mealName"`
}

// IngredientCount is how often an ingredient item appears across the week.
type IngredientCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DayNutrition sums the nutrition of all meals of a day.
func DayNutrition(day mealweekdb.DayMeals) mealweekdb.Nutrition {
	var total mealweekdb.Nutrition
	for _, slot := range mealweekdb.MealSlots {
		meal := day[slot]
		if meal == nil || meal.Nutrition == nil {
			continue
		}
		total.Calories += meal.Nutrition.Calories
		total.Protein += meal.Nutrition.Protein
		total.Carbs += meal.Nutrition.Carbs
		total.Fats += meal.Nutrition.Fats
	}
	return total
}

// WeekNutrition sums the nutrition of every meal of the week.
func WeekNutrition(plan mealweekdb.WeekPlan) mealweekdb.Nutrition {
	var total mealweekdb.Nutrition
	for _, day := range mealweekdb.Days {
		n := DayNutrition(plan[day])
		total.Calories += n.Calories
		total.Protein += n.Protein
		total.Carbs += n.Carbs
		total.Fats += n.Fats
	}
	return total
}

// DayIngredients collects the ingredients of a day in slot order, annotated
// with their meal names.
func DayIngredients(day mealweekdb.DayMeals) []MealIngredient {
	var out []MealIngredient
	for _, slot := range mealweekdb.MealSlots {
		meal := day[slot]
		if meal == nil {
			continue
		}
		name := meal.Name
		if name == "" {
			name = "Unknown Meal"
		}
		for _, ing := range meal.Ingredients {
			out = append(out, MealIngredient{Ingredient: ing, MealName: name})
		}
	}
	return out
}

// WeekIngredients collects the ingredients of the whole week in day order.
func WeekIngredients(plan mealweekdb.WeekPlan) []MealIngredient {
	var out []MealIngredient
	for _, day := range mealweekdb.Days {
		out = append(out, DayIngredients(plan[day])...)
	}
	return out
}

// TopIngredients counts how often each ingredient item appears across the
// week, most frequent first. Ties order alphabetically so the result is
// stable.
func TopIngredients(plan mealweekdb.WeekPlan) []IngredientCount {
	counts := map[string]int{}
	for _, ing := range WeekIngredients(plan) {
		name := strings.TrimSpace(ing.Item)
		if name == "" {
			continue
		}
		counts[name]++
	}

	out := make([]IngredientCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, IngredientCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

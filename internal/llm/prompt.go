// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package llm

import (
	"fmt"
	"strings"

	"github.com/mealweek/server/internal/mealweekdb"
)

// GenerateRecipePrompt is the system instruction for per-meal recipe
// generation.
func GenerateRecipePrompt() string {
	return generateRecipePrompt
}

const generateRecipePrompt = `
You are a professional chef writing clear home-cooking recipes. Given a meal
name, description and ingredient list, write the full cooking instructions
for that exact meal using those exact ingredients.

Rules:
- Write between 5 and 8 numbered steps. Each step is one clear action.
- Write 2 or 3 practical tips.
- prepTime and cookTime are short free-form durations such as "15 minutes".
- difficulty is exactly one of Easy, Medium or Hard.
- If dietary restrictions are listed, the instructions must respect them.
- If allergies are listed, never introduce those ingredients, not even as
  optional garnishes or substitutions.
- Respond with JSON only, matching the provided schema.
`

// RecipeUserContent formats the per-meal request content sent alongside
// GenerateRecipePrompt.
func RecipeUserContent(name string, description string, ingredients []mealweekdb.Ingredient, restrictions []string, allergies []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Meal: %s\n", name)
	if description != "" {
		fmt.Fprintf(&b, "Description: %s\n", description)
	}
	b.WriteString("Ingredients:\n")
	b.WriteString(FormatIngredients(ingredients))
	if len(restrictions) > 0 {
		fmt.Fprintf(&b, "Dietary restrictions: %s\n", strings.Join(restrictions, ", "))
	}
	if len(allergies) > 0 {
		fmt.Fprintf(&b, "ALLERGY WARNING - the cook is allergic to: %s\n", strings.Join(allergies, ", "))
	}
	return b.String()
}

// FormatIngredients renders an ingredient list as prompt text, one per line.
func FormatIngredients(ingredients []mealweekdb.Ingredient) string {
	var b strings.Builder
	for _, ing := range ingredients {
		fmt.Fprintf(&b, "- %g %s %s (%s)\n", ing.Amount, ing.Unit, ing.Item, ing.Category)
	}
	return b.String()
}

// MealImagePrompt is the system instruction for generating a meal image from
// recipe JSON.
func MealImagePrompt() string {
	return mealImagePrompt
}

const mealImagePrompt = `
Given the details of a meal as JSON, generate an appetizing photo of the
finished dish, plated for serving, in natural light. Do not include any text
in the image.
`

// IntentPrompt is the system instruction for classifying whether a chat
// message is a meal planning request.
func IntentPrompt() string {
	return intentPrompt
}

const intentPrompt = `You are an intent classifier. Respond with 'true' only if the user is requesting a meal plan or asking about meal planning. Otherwise respond with 'false'.`

// MealPlanPrompt is the system instruction for generating a structured
// weekly meal plan.
func MealPlanPrompt() string {
	return mealPlanPrompt
}

const mealPlanPrompt = `You are a meal planning assistant. When creating a meal plan, return a JSON object with the following structure:
{
  "weekPlan": {
    "monday": {
      "breakfast": {
        "name": "",
        "description": "",
        "ingredients": [
          { "item": "", "amount": 0, "unit": "", "category": "" }
        ],
        "nutrition": { "calories": 0, "protein": 0, "carbs": 0, "fats": 0 }
      },
      "lunch": {...},
      "dinner": {...}
    },
    "tuesday": {...},
    "wednesday": {...},
    "thursday": {...},
    "friday": {...},
    "saturday": {...},
    "sunday": {...}
  },
  "groceryList": [
    { "item": "", "category": "", "amount": "", "unit": "" }
  ],
  "nutritionSummary": {
    "averageCaloriesPerDay": 0,
    "macroBreakdown": { "protein": "", "carbs": "", "fats": "" }
  }
}
Every day has exactly the three meals breakfast, lunch and dinner. Respond with JSON only.`

// AssistantPrompt is the system instruction for free-form nutrition chat.
func AssistantPrompt() string {
	return assistantPrompt
}

const assistantPrompt = `You are a helpful nutrition and wellness assistant. Engage in natural conversation while providing accurate and helpful information about nutrition, health, and wellness.`

// StreamAssistantPrompt is the system instruction for the streaming chat
// endpoint.
func StreamAssistantPrompt() string {
	return streamAssistantPrompt
}

const streamAssistantPrompt = `You are a helpful assistant.`

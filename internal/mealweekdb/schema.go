// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package mealweekdb

import "google.golang.org/genai"

// RecipeSchema is the structured output schema for a single generated
// recipe. Step and tip counts are validated after decoding, models do not
// reliably honor array size constraints.
var RecipeSchema = &genai.Schema{
	Type:        "object",
	Description: "The full cooking instructions for a meal.",
	Required:    []string{"prepTime", "cookTime", "servings", "difficulty", "steps", "tips"},
	Properties: map[string]*genai.Schema{
		"prepTime": {
			Type:        "string",
			Description: "The preparation time, e.g. \"15 minutes\".",
		},
		"cookTime": {
			Type:        "string",
			Description: "The cooking time, e.g. \"30 minutes\".",
		},
		"servings": {
			Type:        "integer",
			Description: "The number of servings the recipe yields.",
		},
		"difficulty": {
			Type:        "string",
			Description: "The difficulty rating of the recipe.",
			Enum:        []string{"Easy", "Medium", "Hard"},
		},
		"steps": {
			Type:        "array",
			Description: "The cooking steps, between 5 and 8 steps.",
			Items: &genai.Schema{
				Type:        "string",
				Description: "A single cooking step.",
			},
		},
		"tips": {
			Type:        "array",
			Description: "Cooking tips, between 2 and 3 tips.",
			Items: &genai.Schema{
				Type:        "string",
				Description: "A single cooking tip.",
			},
		},
	},
}

// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package recipegen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v5"
	"google.golang.org/genai"

	"github.com/mealweek/server/internal/llm"
	"github.com/mealweek/server/internal/mealweekdb"
)

const llmMaxTries = 3

// NewGenAISource returns a RecipeSource backed by the given genai client and
// model.
func NewGenAISource(genAI *genai.Client, model string) *GenAISource {
	return &GenAISource{
		genAI: genAI,
		model: model,
	}
}

// GenAISource generates recipes with structured JSON output from genai.
type GenAISource struct {
	genAI *genai.Client
	model string
}

var _ RecipeSource = (*GenAISource)(nil)

func (s *GenAISource) GenerateRecipe(ctx context.Context, req *RecipeRequest) (*mealweekdb.Recipe, error) {
	content := llm.RecipeUserContent(req.MealName, req.MealDescription, req.Ingredients, req.DietaryRestrictions, req.Allergies)

	// Transient upstream errors are retried within the item's attempt.
	// Anything else, including a malformed response, is a single failure.
	res, err := backoff.Retry(ctx, func() (*genai.GenerateContentResponse, error) {
		res, err := s.genAI.Models.GenerateContent(ctx, s.model, []*genai.Content{
			genai.NewContentFromText(content, genai.RoleUser),
		}, &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(llm.GenerateRecipePrompt(), genai.RoleModel),
			ResponseMIMEType:  "application/json",
			ResponseSchema:    mealweekdb.RecipeSchema,
		})
		if err != nil {
			if !retryable(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return res, nil
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(llmMaxTries))
	if err != nil {
		return nil, fmt.Errorf("recipegen: generating content: %w", err)
	}

	text := res.Text()
	if text == "" {
		return nil, fmt.Errorf("recipegen: unexpected response from genai: %v", res)
	}
	var recipe mealweekdb.Recipe
	if err := json.Unmarshal([]byte(text), &recipe); err != nil {
		return nil, fmt.Errorf("recipegen: unmarshalling recipe: %w", err)
	}
	if err := validateRecipe(&recipe); err != nil {
		return nil, err
	}
	return &recipe, nil
}

func retryable(err error) bool {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
}

// validateRecipe rejects structured output that does not meet the recipe
// contract. A violation is an item failure, never written to the plan.
func validateRecipe(recipe *mealweekdb.Recipe) error {
	if n := len(recipe.Steps); n < 5 || n > 8 {
		return fmt.Errorf("recipegen: recipe has %d steps, want 5 to 8", n)
	}
	if n := len(recipe.Tips); n < 2 || n > 3 {
		return fmt.Errorf("recipegen: recipe has %d tips, want 2 or 3", n)
	}
	switch recipe.Difficulty {
	case mealweekdb.DifficultyEasy, mealweekdb.DifficultyMedium, mealweekdb.DifficultyHard:
	default:
		return fmt.Errorf("recipegen: invalid difficulty %q", recipe.Difficulty)
	}
	if recipe.Servings <= 0 {
		return fmt.Errorf("recipegen: invalid servings %d", recipe.Servings)
	}
	return nil
}

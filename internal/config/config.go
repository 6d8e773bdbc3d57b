// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"github.com/curioswitch/go-curiostack/config"
)

type RecipeGen struct {
	// Model is the genai model used for recipe generation.
	Model string `koanf:"model"`

	// ImageModel is the genai model used for meal images. Empty disables
	// image generation.
	ImageModel string `koanf:"imagemodel"`

	// BatchSize bounds concurrent recipe requests within a run.
	BatchSize int `koanf:"batchsize"`

	// BatchDelayMs is the pause between batches in milliseconds.
	BatchDelayMs int `koanf:"batchdelayms"`

	// ItemTimeoutSeconds bounds a single meal's generation attempt.
	ItemTimeoutSeconds int `koanf:"itemtimeoutseconds"`
}

type OpenAI struct {
	// Model is the chat completion model for the conversational endpoints.
	Model string `koanf:"model"`
}

type Config struct {
	config.Common

	// RecipeGen is the configuration for the recipe generation pipeline.
	RecipeGen RecipeGen `koanf:"recipegen"`

	// OpenAI is the configuration for the conversational endpoints.
	OpenAI OpenAI `koanf:"openai"`
}

// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package recipegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"image/png"

	"cloud.google.com/go/storage"
	"google.golang.org/genai"

	"github.com/mealweek/server/internal/llm"
	"github.com/mealweek/server/internal/mealweekdb"
)

// NewMealImager returns a MealImager writing generated images to the given
// public bucket.
func NewMealImager(genAI *genai.Client, storage *storage.Client, bucket string, model string) *MealImager {
	return &MealImager{
		genAI:   genAI,
		storage: storage,
		bucket:  bucket,
		model:   model,
	}
}

// MealImager generates a photo for a meal and uploads it to cloud storage.
type MealImager struct {
	genAI   *genai.Client
	storage *storage.Client
	bucket  string
	model   string
}

// GenerateMealImage generates an image for the meal and returns its public
// URL. Returns an empty URL without error when the model produced no usable
// image.
func (m *MealImager) GenerateMealImage(ctx context.Context, path string, meal *mealweekdb.Meal, recipe *mealweekdb.Recipe) (string, error) {
	mealJSON, err := json.Marshal(struct {
		Name        string            `json:"name"`
		Description string            `json:"description"`
		Recipe      *mealweekdb.Recipe `json:"recipe"`
	}{
		Name:        meal.Name,
		Description: meal.Description,
		Recipe:      recipe,
	})
	if err != nil {
		return "", fmt.Errorf("recipegen: marshalling meal for image generation: %w", err)
	}

	res, err := m.genAI.Models.GenerateContent(ctx, m.model, genai.Text(string(mealJSON)), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(llm.MealImagePrompt(), genai.RoleModel),
	})
	if err != nil {
		return "", fmt.Errorf("recipegen: generating meal image: %w", err)
	}
	if len(res.Candidates) != 1 || len(res.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("recipegen: unexpected response from genai for image request: %v", res)
	}
	var blob *genai.Blob
	for _, part := range res.Candidates[0].Content.Parts {
		if b := part.InlineData; b != nil && (b.MIMEType == "image/jpeg" || b.MIMEType == "image/png") {
			blob = b
			break
		}
	}
	if blob == nil {
		return "", nil
	}

	data := blob.Data
	if blob.MIMEType == "image/png" {
		img, err := png.Decode(bytes.NewReader(blob.Data))
		if err != nil {
			return "", fmt.Errorf("recipegen: decoding png image: %w", err)
		}
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, nil); err != nil {
			return "", fmt.Errorf("recipegen: encoding png to jpeg: %w", err)
		}
		data = buf.Bytes()
	}

	wc := m.storage.Bucket(m.bucket).Object(path).NewWriter(ctx)
	wc.ContentType = "image/jpeg"
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return "", fmt.Errorf("recipegen: writing meal image: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("recipegen: closing meal image writer: %w", err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", m.bucket, path), nil
}

// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"

	"github.com/mealweek/server/internal/auth"
	"github.com/mealweek/server/internal/httpjson"
	"github.com/mealweek/server/internal/llm"
	"github.com/mealweek/server/internal/mealplan"
	"github.com/mealweek/server/internal/mealweekdb"
)

// parseFailureMessage is returned when the model claimed to produce a meal
// plan but the payload did not decode.
const parseFailureMessage = "I encountered an error creating your meal plan. Could you please try asking again?"

// NewHandler returns a Handler.
func NewHandler(oai *openai.Client, store mealweekdb.PlanStore, model string) *Handler {
	return &Handler{
		oai:   oai,
		store: store,
		model: model,
	}
}

// Handler answers chat messages, producing either a persisted weekly meal
// plan or a free-form assistant reply.
type Handler struct {
	oai   *openai.Client
	store mealweekdb.PlanStore
	model string
}

type ChatRequest struct {
	// Message is the user's chat message.
	Message string `json:"message"`

	// WeekID is the week a generated plan is saved under. Empty means the
	// current week.
	WeekID string `json:"weekId"`
}

type ChatResponse struct {
	// Response is the assistant's reply, or the raw plan JSON for a
	// structured response.
	Response string `json:"response"`

	// Structured reports whether a meal plan was generated and saved.
	Structured bool `json:"structured"`

	// WeekID is the week the plan was saved under, when Structured.
	WeekID string `json:"weekId,omitempty"`

	// MealPlan is the generated plan, when Structured.
	MealPlan *mealplan.PlanResponse `json:"mealPlan,omitempty"`
}

func (h *Handler) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, httpjson.NewError(http.StatusUnauthorized, errors.New("chat: missing user"))
	}
	if req.Message == "" {
		return nil, httpjson.NewError(http.StatusBadRequest, errors.New("chat: message is required"))
	}
	weekID := req.WeekID
	if weekID == "" {
		weekID = mealweekdb.CurrentWeekID()
	} else if _, _, err := mealweekdb.ParseWeekID(weekID); err != nil {
		return nil, httpjson.NewError(http.StatusBadRequest, err)
	}

	isPlanRequest, err := h.classifyIntent(ctx, req.Message)
	if err != nil {
		return nil, fmt.Errorf("chat: classifying intent: %w", err)
	}

	if !isPlanRequest {
		reply, err := h.complete(ctx, llm.AssistantPrompt(), req.Message, false)
		if err != nil {
			return nil, fmt.Errorf("chat: generating reply: %w", err)
		}
		return &ChatResponse{Response: reply}, nil
	}

	planJSON, err := h.complete(ctx, llm.MealPlanPrompt(), req.Message, true)
	if err != nil {
		return nil, fmt.Errorf("chat: generating meal plan: %w", err)
	}
	plan, err := mealplan.ParseResponse([]byte(planJSON))
	if err != nil {
		// Degrade to a retry prompt rather than failing the chat, matching
		// what the client expects for unusable plan JSON.
		return &ChatResponse{Response: parseFailureMessage}, nil
	}

	now := time.Now()
	doc := &mealweekdb.MealPlan{
		WeekPlan:         plan.WeekPlan,
		GroceryList:      plan.GroceryList,
		NutritionSummary: plan.NutritionSummary,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := h.store.SetMealPlan(ctx, userID, weekID, doc); err != nil {
		return nil, fmt.Errorf("chat: saving meal plan: %w", err)
	}

	return &ChatResponse{
		Response:   planJSON,
		Structured: true,
		WeekID:     weekID,
		MealPlan:   plan,
	}, nil
}

func (h *Handler) classifyIntent(ctx context.Context, message string) (bool, error) {
	reply, err := h.complete(ctx, llm.IntentPrompt(), message, false)
	if err != nil {
		return false, err
	}
	return isPlanIntent(reply), nil
}

// isPlanIntent interprets the classifier's reply. The model is told to answer
// 'true' or 'false' but tends to wrap it in prose, so look for the token
// anywhere.
func isPlanIntent(reply string) bool {
	return strings.Contains(strings.ToLower(reply), "true")
}

func (h *Handler) complete(ctx context.Context, system string, user string, jsonOutput bool) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(h.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	}
	if jsonOutput {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{},
		}
	}
	completion, err := h.oai.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat: calling completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat: completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package chatstream

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/openai/openai-go/v3"

	"github.com/mealweek/server/internal/llm"
)

// NewHandler returns a Handler.
func NewHandler(oai *openai.Client, model string) *Handler {
	return &Handler{
		oai:   oai,
		model: model,
	}
}

// Handler streams assistant tokens to the client over server-sent events.
type Handler struct {
	oai   *openai.Client
	model string
}

type streamRequest struct {
	Message string `json:"message"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req streamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-transform")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	stream := h.oai.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(h.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(llm.StreamAssistantPrompt()),
			openai.UserMessage(req.Message),
		},
		Temperature: openai.Float(0.7),
	})
	defer func() {
		_ = stream.Close()
	}()

	for stream.Next() {
		// The client may have gone away mid-stream, stop reading tokens for
		// nobody.
		if ctx.Err() != nil {
			return
		}
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			sendEvent(w, flusher, "data", map[string]string{"delta": delta})
		}
	}
	if err := stream.Err(); err != nil {
		slog.ErrorContext(ctx, "chatstream: streaming completion", "error", err)
		if ctx.Err() == nil {
			sendEvent(w, flusher, "error", map[string]string{"message": err.Error()})
		}
		return
	}
	if ctx.Err() == nil {
		sendEvent(w, flusher, "end", map[string]bool{"done": true})
	}
}

func sendEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

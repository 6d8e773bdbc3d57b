// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package listweeks

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mealweek/server/internal/auth"
	"github.com/mealweek/server/internal/httpjson"
	"github.com/mealweek/server/internal/mealweekdb"
)

// NewHandler returns a Handler.
func NewHandler(store mealweekdb.PlanStore) *Handler {
	return &Handler{
		store: store,
	}
}

// Handler lists the weeks the user has meal plans for.
type Handler struct {
	store mealweekdb.PlanStore
}

type ListWeeksRequest struct{}

type ListWeeksResponse struct {
	// WeekIDs are the weeks with a plan, most recent first.
	WeekIDs []string `json:"weekIds"`
}

func (h *Handler) ListWeeks(ctx context.Context, _ *ListWeeksRequest) (*ListWeeksResponse, error) {
	userID := auth.UserID(ctx)
	if userID == "" {
		return nil, httpjson.NewError(http.StatusUnauthorized, errors.New("listweeks: missing user"))
	}

	weeks, err := h.store.ListWeeks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listweeks: listing plan weeks: %w", err)
	}
	return &ListWeeksResponse{WeekIDs: weeks}, nil
}

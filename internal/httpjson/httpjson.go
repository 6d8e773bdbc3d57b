// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

// Package httpjson adapts unary (ctx, *Req) (*Res, error) handlers to JSON
// over POST.
package httpjson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Error carries an HTTP status for a handler error. Handlers wrap domain
// errors with NewError to control the response code, anything else maps to
// 500.
type Error struct {
	Status int
	Err    error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError returns an Error with the given HTTP status.
func NewError(status int, err error) *Error {
	return &Error{Status: status, Err: err}
}

type errorBody struct {
	Error string `json:"error"`
}

// Handler adapts fn to an http.Handler decoding the request body as JSON
// into Req and encoding the Res as JSON. An empty body decodes to the zero
// request.
func Handler[Req any, Res any](fn func(ctx context.Context, req *Req) (*Res, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, NewError(http.StatusBadRequest, fmt.Errorf("httpjson: decoding request: %w", err)))
			return
		}

		res, err := fn(r.Context(), &req)
		if err != nil {
			slog.ErrorContext(r.Context(), "httpjson: handler error", "path", r.URL.Path, "error", err)
			writeError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(res); err != nil {
			slog.ErrorContext(r.Context(), "httpjson: encoding response", "path", r.URL.Path, "error", err)
		}
	})
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var herr *Error
	if errors.As(err, &herr) {
		status = herr.Status
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
}

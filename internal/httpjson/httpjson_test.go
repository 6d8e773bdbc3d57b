// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package httpjson

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	Name string `json:"name"`
}

type echoResponse struct {
	Greeting string `json:"greeting"`
}

func echo(_ context.Context, req *echoRequest) (*echoResponse, error) {
	return &echoResponse{Greeting: "hello " + req.Name}, nil
}

func TestHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name": "world"}`))

	Handler(echo).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"greeting": "hello world"}`, rec.Body.String())
}

func TestHandler_EmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", nil)

	Handler(echo).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"greeting": "hello "}`, rec.Body.String())
}

func TestHandler_MalformedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"name":`))

	Handler(echo).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestHandler_StatusError(t *testing.T) {
	fn := func(context.Context, *echoRequest) (*echoResponse, error) {
		return nil, NewError(http.StatusConflict, errors.New("already running"))
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{}`))

	Handler(fn).ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error": "already running"}`, rec.Body.String())
}

func TestHandler_WrappedStatusError(t *testing.T) {
	// The status survives further wrapping by handler code.
	fn := func(context.Context, *echoRequest) (*echoResponse, error) {
		return nil, fmt.Errorf("handler: %w", NewError(http.StatusNotFound, errors.New("no such plan")))
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{}`))

	Handler(fn).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_PlainErrorIs500(t *testing.T) {
	fn := func(context.Context, *echoRequest) (*echoResponse, error) {
		return nil, errors.New("backend exploded")
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{}`))

	Handler(fn).ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error": "backend exploded"}`, rec.Body.String())
}

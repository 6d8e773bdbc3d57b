// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package auth

import (
	"context"
	"net/http"

	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
)

type userIDContextKey struct{}

var userIDContextKeyInstance = userIDContextKey{}

// Middleware resolves the caller's user ID from the verified firebase token
// and stores it on the request context. It must run after the firebaseauth
// middleware.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if tok := firebaseauth.TokenFromContext(ctx); tok != nil && tok.UID != "" {
				r = r.WithContext(WithUserID(ctx, tok.UID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUserID returns a context carrying the authenticated user's ID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKeyInstance, userID)
}

// UserID returns the authenticated user's ID, or an empty string.
func UserID(ctx context.Context) string {
	if uid, ok := ctx.Value(userIDContextKeyInstance).(string); ok {
		return uid
	}
	return ""
}

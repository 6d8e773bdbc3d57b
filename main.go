// Copyright (c) Mealweek (dev@mealweek.app)
// SPDX-License-Identifier: BUSL-1.1

package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/curioswitch/go-curiostack/server"
	"github.com/curioswitch/go-usegcp/middleware/firebaseauth"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"github.com/mealweek/server/internal/auth"
	"github.com/mealweek/server/internal/config"
	"github.com/mealweek/server/internal/handler/cancelrecipes"
	"github.com/mealweek/server/internal/handler/chat"
	"github.com/mealweek/server/internal/handler/chatstream"
	"github.com/mealweek/server/internal/handler/getplan"
	"github.com/mealweek/server/internal/handler/getstats"
	"github.com/mealweek/server/internal/handler/listweeks"
	"github.com/mealweek/server/internal/handler/startrecipes"
	"github.com/mealweek/server/internal/httpjson"
	"github.com/mealweek/server/internal/mealweekdb"
	"github.com/mealweek/server/internal/recipegen"
)

//go:embed conf/*.yaml
var confFiles embed.FS

func main() {
	conf, _ := fs.Sub(confFiles, "conf")
	os.Exit(server.Main(&config.Config{}, conf, setupServer))
}

func setupServer(ctx context.Context, conf *config.Config, s *server.Server) error {
	mux := server.Mux(s)

	fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: conf.Google.Project})
	if err != nil {
		return fmt.Errorf("main: create firebase app: %w", err)
	}

	fbAuth, err := fbApp.Auth(ctx)
	if err != nil {
		return fmt.Errorf("main: create firebase auth client: %w", err)
	}

	firestore, err := fbApp.Firestore(ctx)
	if err != nil {
		return fmt.Errorf("main: create firestore client: %w", err)
	}
	defer func() {
		if err := firestore.Close(); err != nil {
			slog.ErrorContext(ctx, "main: close firestore client", "error", err)
		}
	}()

	genAI, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		Project: conf.Google.Project,
	})
	if err != nil {
		return fmt.Errorf("main: create genai client: %w", err)
	}

	oai := openai.NewClient()

	store := mealweekdb.NewFirestoreStore(firestore)

	var imager *recipegen.MealImager
	if conf.RecipeGen.ImageModel != "" {
		storage, err := storage.NewGRPCClient(ctx)
		if err != nil {
			return fmt.Errorf("main: create storage client: %w", err)
		}
		defer func() {
			if err := storage.Close(); err != nil {
				slog.ErrorContext(ctx, "main: close storage client", "error", err)
			}
		}()
		publicBucket := conf.Google.Project + "-public"
		imager = recipegen.NewMealImager(genAI, storage, publicBucket, conf.RecipeGen.ImageModel)
	}

	generator := recipegen.NewGenerator(store, recipegen.NewGenAISource(genAI, conf.RecipeGen.Model), imager, recipegen.Config{
		BatchSize:   conf.RecipeGen.BatchSize,
		BatchDelay:  time.Duration(conf.RecipeGen.BatchDelayMs) * time.Millisecond,
		ItemTimeout: time.Duration(conf.RecipeGen.ItemTimeoutSeconds) * time.Second,
	})
	runner := recipegen.NewRunner(store, generator)

	fbMW := firebaseauth.NewMiddleware(fbAuth)
	mux.Use(middleware.Maybe(func(h http.Handler) http.Handler {
		return fbMW(h)
	}, func(r *http.Request) bool {
		switch {
		case strings.HasPrefix(r.URL.Path, "/internal/"):
			return false
		default:
			return true
		}
	}))
	mux.Use(auth.Middleware())

	mux.Method(http.MethodPost, "/api/plan/get", httpjson.Handler(getplan.NewHandler(store).GetPlan))
	mux.Method(http.MethodPost, "/api/plan/weeks", httpjson.Handler(listweeks.NewHandler(store).ListWeeks))
	mux.Method(http.MethodPost, "/api/plan/stats", httpjson.Handler(getstats.NewHandler(store).GetStats))
	mux.Method(http.MethodPost, "/api/plan/recipes/generate", httpjson.Handler(startrecipes.NewHandler(runner).StartRecipes))
	mux.Method(http.MethodPost, "/api/plan/recipes/cancel", httpjson.Handler(cancelrecipes.NewHandler(store).CancelRecipes))
	mux.Method(http.MethodPost, "/api/chat", httpjson.Handler(chat.NewHandler(&oai, store, conf.OpenAI.Model).Chat))
	mux.Method(http.MethodPost, "/api/chat/stream", chatstream.NewHandler(&oai, conf.OpenAI.Model))

	if err := server.Start(ctx, s); err != nil {
		return fmt.Errorf("main: starting server: %w", err)
	}

	// Let in-flight generation runs drain before the process exits so their
	// status records reach a terminal state.
	drainCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := runner.Shutdown(drainCtx); err != nil {
		slog.ErrorContext(ctx, "main: draining generation runs", "error", err)
	}
	return nil
}

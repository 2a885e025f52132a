// Package server exposes the assistant over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/openclaw/tubebrief/config"
	"github.com/openclaw/tubebrief/internal/assistant"
	"github.com/openclaw/tubebrief/internal/qa"
	"github.com/openclaw/tubebrief/internal/summary"
	"github.com/openclaw/tubebrief/internal/transcript"
	"github.com/openclaw/tubebrief/provider"
	openai_provider "github.com/openclaw/tubebrief/provider/openai"
	"github.com/openclaw/tubebrief/session"
	"github.com/openclaw/tubebrief/session/inmemory"
	"github.com/openclaw/tubebrief/session/postgres"
	"github.com/openclaw/tubebrief/session/redis"
)

// Run wires the dependencies from config and serves until the listener fails.
func Run(cfg *config.Config) error {
	asst, err := BuildAssistant(cfg)
	if err != nil {
		return err
	}
	e := New(asst)
	e.Debug = cfg.General.Debug
	return e.Start(cfg.Server.Address)
}

// BuildAssistant constructs the full pipeline from config. Shared by the
// serve and chat commands.
func BuildAssistant(cfg *config.Config) (*assistant.Assistant, error) {
	store, err := newSessionStore(cfg)
	if err != nil {
		return nil, err
	}
	completer := openai_provider.New(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model, cfg.LLM.Timeout)
	fetcher := transcript.NewHTTPFetcher(cfg.Transcript.FetchTimeout, cfg.Transcript.PreferredLanguages)
	return assistant.New(store, completer, fetcher, assistantConfig(cfg)), nil
}

func assistantConfig(cfg *config.Config) assistant.Config {
	return assistant.Config{
		DefaultLanguage: cfg.General.DefaultLanguage,
		Limits: transcript.Limits{
			MaxChars: cfg.Transcript.MaxChars,
			MaxLines: cfg.Transcript.MaxLines,
		},
		Summary: summary.Options{
			ChunkChars:       cfg.Summary.ChunkChars,
			MaxChunks:        cfg.Summary.MaxChunks,
			ChunkConcurrency: cfg.Summary.ChunkConcurrency,
			Temperature:      float32(cfg.LLM.Temperature),
			MaxTokens:        cfg.LLM.MaxTokens,
			Retry: provider.RetryPolicy{
				MaxAttempts: cfg.LLM.MaxRetries,
				Backoff:     cfg.LLM.Backoff,
			},
		},
		Retriever: qa.RetrieverConfig{
			TopK:       cfg.QA.TopK,
			MinOverlap: cfg.QA.MinOverlap,
		},
		HistoryDepth: cfg.QA.HistoryDepth,
	}
}

// newSessionStore picks the session backend from config.
func newSessionStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Storage.Driver {
	case "", "inmemory":
		return inmemory.NewStore(), nil
	case "redis":
		store := redis.NewStore(cfg.Storage.Redis.Addr(), cfg.Storage.Redis.Password, cfg.Storage.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("redis connection failed (%s): %w", cfg.Storage.Redis.Addr(), err)
		}
		return store, nil
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return postgres.NewStore(ctx, cfg.Storage.Postgres.DSN())
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// New builds the echo instance with routes registered; split out so tests can
// drive it with httptest.
func New(asst *assistant.Assistant) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	mh := &MessagesHandler{Assistant: asst, Logger: baseLogger}
	mh.Register(e.Group("/api"))

	return e
}

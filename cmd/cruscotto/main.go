package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"cruscotto/internal/cli"
	"cruscotto/internal/dashboard"
	"cruscotto/internal/feed"
	"cruscotto/internal/fetch"
	apphttp "cruscotto/internal/http"
	"cruscotto/internal/log"
	"cruscotto/internal/render"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()
	logger = logger.WithComponent(log.ComponentApp)

	format, err := render.ParseFormat(cfg.RenderFormat)
	if err != nil {
		logger.Error("Invalid render format", log.FieldError, err)
		os.Exit(1)
	}

	// Fetches are bounded by the page request's context.
	fetcher, err := fetch.New(cfg.APIBaseURL, nil)
	if err != nil {
		logger.Error("Failed to initialize data fetcher", log.FieldError, err, "api_base_url", cfg.APIBaseURL)
		os.Exit(1)
	}

	var store *feed.Store
	if cfg.ServeFixtures {
		store, err = feed.Load(cfg.FixturesDir, logger)
		if err != nil {
			logger.Error("Failed to load fixtures", log.FieldError, err, "dir", cfg.FixturesDir)
			os.Exit(1)
		}
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Dashboard:          dashboard.New(fetcher, render.NewEngine(), logger),
		Surfaces:           cfg.PageSurfaces,
		Format:             format,
		Width:              cfg.ChartWidth,
		Height:             cfg.ChartHeight,
		Feed:               store,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		Logger:             logger,
	})
	if err != nil {
		logger.Error("Failed to initialize server", log.FieldError, err)
		os.Exit(1)
	}
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting cruscotto server",
		log.FieldOperation, log.OpStartup,
		"port", cfg.Port,
		"api_base_url", cfg.APIBaseURL,
		"surfaces", cfg.PageSurfaces,
		log.FieldFormat, format,
		"fixtures", cfg.ServeFixtures)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/api"
	"github.com/tendant/simple-flatblocks/pkg/flatblocks/config"
)

// Config holds process settings that are not part of the flatblocks
// service configuration.
type Config struct {
	ApiKeySHA256 string `env:"API_KEY_SHA256" env-default:""`
	EnvPrefix    string `env:"FLATBLOCKS_ENV_PREFIX" env-default:"FLATBLOCKS_"`
	LogLevel     string `env:"LOG_LEVEL" env-default:"info"`
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// mountRoutes registers the admin API under /api/v1 and pages under /pages.
func mountRoutes(r chi.Router, cfg *config.ServerConfig, services *config.Services, logger *slog.Logger, guard func(http.Handler) http.Handler) {
	var opts []api.HandlerOption
	if cfg.JWTSecret != "" {
		opts = append(opts, api.WithAuth(api.NewJWTAuth(cfg.JWTSecret)))
	}
	handler := api.NewHandler(services.Admin, services.Engine, opts...)
	pages := api.NewPageHandler(services.Engine, services.Templates, cfg.ReloadTemplates)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(api.RequestIDMiddleware)
		r.Use(api.LoggingMiddleware(logger))
		r.Use(api.RecoveryMiddleware)
		if guard != nil {
			r.Use(guard)
		}
		r.Mount("/", handler.Routes())
	})

	r.Route("/pages", func(r chi.Router) {
		r.Use(api.RequestIDMiddleware)
		r.Use(api.LoggingMiddleware(logger))
		r.Use(api.RecoveryMiddleware)
		r.Mount("/", pages.Routes())
	})
}

func main() {
	var processConfig Config
	if err := cleanenv.ReadEnv(&processConfig); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(processConfig.LogLevel)
	slog.SetDefault(logger)

	cfg, err := config.Load(
		config.WithEnv(processConfig.EnvPrefix),
		config.WithLogger(logger),
	)
	if err != nil {
		slog.Error("Failed to load flatblocks configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	services, err := cfg.BuildServices(ctx)
	if err != nil {
		slog.Error("Failed to build services", "err", err)
		os.Exit(1)
	}
	defer services.Close()

	var guard func(http.Handler) http.Handler
	if processConfig.ApiKeySHA256 != "" {
		guard, err = middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
			APIKeys: map[string]string{
				"key1": processConfig.ApiKeySHA256,
			},
		})
		if err != nil {
			slog.Error("Failed initialize API Key middleware", "err", err)
			return
		}
	}

	server := app.DefaultApp()

	app.RoutesHealthz(server.R)
	app.RoutesHealthzReady(server.R)

	mountRoutes(server.R, cfg, services, logger, guard)

	slog.Info("Starting flatblocks server",
		"environment", cfg.Environment,
		"database", cfg.DatabaseType,
		"templates", cfg.Templates.Type,
		"cache_size", cfg.CacheSize,
	)
	server.Run()
}

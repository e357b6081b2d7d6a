package cli

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-search/internal/api/http"
	"github.com/i474232898/weather-search/internal/config"
	"github.com/i474232898/weather-search/internal/scheduler"
	"github.com/i474232898/weather-search/internal/session"
	"github.com/i474232898/weather-search/internal/store"
	"github.com/i474232898/weather-search/internal/weather"
	"github.com/i474232898/weather-search/internal/weather/providers"
)

// NewServeCommand creates the serve command.
func NewServeCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP server",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("warning: error closing store: %v", err)
		}
	}()

	// Shared HTTP client for outbound Open-Meteo calls.
	httpCfg := providers.HTTPClientConfig{
		Client:           &http.Client{Timeout: cfg.HTTPTimeout},
		BreakerThreshold: cfg.BreakerThreshold,
	}

	service := weather.NewService(
		st,
		providers.NewGeocodingClient(cfg.GeocodingURL, httpCfg),
		providers.NewForecastClient(cfg.ForecastURL, httpCfg),
		weather.WithLanguage(cfg.GeocodingLanguage),
	)

	sched := scheduler.New(cfg.MaintenanceInterval, st, service)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	sessions := session.NewManager(session.Config{
		CookieName: cfg.SessionCookieName,
		MaxAge:     cfg.SessionMaxAge,
	})

	app := httpapi.NewApp(service, sessions, httpapi.AppOptions{
		SessionSecret: cfg.SessionSecret,
		AccessLog:     true,
	})

	go func() {
		log.Printf("INFO: listening on :%s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
	return nil
}

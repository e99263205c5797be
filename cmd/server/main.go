package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"survey-dashboard/internal/aggregate"
	"survey-dashboard/internal/api"
	"survey-dashboard/internal/app"
	"survey-dashboard/internal/config"
	"survey-dashboard/internal/observability"
	"survey-dashboard/internal/source"
	"survey-dashboard/internal/survey"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

func main() {
	host := flag.String("host", "", "listen host (overrides HOST)")
	port := flag.Int("port", 0, "listen port (overrides PORT)")
	debug := flag.Bool("debug", false, "enable debug logging (overrides DEBUG)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logger := newLogger(cfg.AppEnv)
	setLogLevel(cfg.LogLevel, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := survey.LoadCatalog(cfg.DomainsFile)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load domain configuration")
	}

	src, err := source.Open(ctx, cfg.Source)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Source.Driver).Msg("failed to open data source")
	}
	defer src.Close()

	snapshot, err := app.Load(ctx, src, catalog, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load survey data")
	}

	engine := aggregate.NewEngine(aggregate.WithOthersMean(aggregate.OthersMean(cfg.OthersMean)))
	handler := api.NewHandler(snapshot, catalog, engine, &logger)

	// Router Setup
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(&logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown failed")
		}
	}()

	logger.Info().
		Str("addr", cfg.Addr()).
		Str("driver", cfg.Source.Driver).
		Strs("cors_origins", cfg.CORSOrigins).
		Msg("starting survey dashboard")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server failed")
	}
	logger.Info().Msg("server stopped")
}

func newLogger(appEnv string) zerolog.Logger {
	if appEnv == "local" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	}

	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// setLogLevel sets the global log level; debug wins over level.
func setLogLevel(level string, debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// Package main is the entry point for the Sebastian Contacts server.
// Sebastian Contacts is a multi-tenant contact book API with token-based
// authentication.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/prn-tf/sebastian-contacts/internal/auth"
	"github.com/prn-tf/sebastian-contacts/internal/cache/memory"
	"github.com/prn-tf/sebastian-contacts/internal/cache/redis"
	"github.com/prn-tf/sebastian-contacts/internal/config"
	"github.com/prn-tf/sebastian-contacts/internal/handler"
	"github.com/prn-tf/sebastian-contacts/internal/lock"
	"github.com/prn-tf/sebastian-contacts/internal/metrics"
	"github.com/prn-tf/sebastian-contacts/internal/repository"
	"github.com/prn-tf/sebastian-contacts/internal/repository/postgres"
	"github.com/prn-tf/sebastian-contacts/internal/repository/sqlite"
	"github.com/prn-tf/sebastian-contacts/internal/service"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(*configPath)

	logger := setupLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("starting sebastian contacts server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}

	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	// Database
	repos, dbHealth, err := openDatabase(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer dbHealth.Close()

	// Principal cache and session locker: Redis when enabled so
	// multiple instances agree, in-process otherwise.
	var principalCache repository.Cache
	var sessionLocker lock.Locker
	if cfg.Redis.Enabled {
		redisCache, err := redis.NewCache(ctx, cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisCache.Close()
		principalCache = redisCache
		sessionLocker = lock.NewRedisLocker(redisCache.Client())
	} else {
		memCache := memory.NewCache()
		defer memCache.Stop()
		principalCache = memCache

		memLocker := lock.NewMemoryLocker()
		defer memLocker.Stop()
		sessionLocker = memLocker
	}

	// Services
	authService := service.NewAuthService(repos.User, principalCache, service.AuthOptions{
		TokenTTL:          cfg.Auth.TokenTTL,
		PrincipalCacheTTL: cfg.Auth.PrincipalCacheTTL,
		Locker:            sessionLocker,
	}, logger)
	userService := service.NewUserService(repos.User, service.UserOptions{
		BcryptCost: cfg.Auth.BcryptCost,
		Cache:      principalCache,
	}, logger)
	contactService := service.NewContactService(repos.Contact, logger)
	addressService := service.NewAddressService(repos.Contact, repos.Address, logger)

	// HTTP surface
	m := metrics.New()

	router := handler.NewRouter(handler.RouterConfig{
		AuthHandler:    handler.NewAuthHandler(authService, logger),
		UserHandler:    handler.NewUserHandler(userService, logger),
		ContactHandler: handler.NewContactHandler(contactService, logger),
		AddressHandler: handler.NewAddressHandler(addressService, logger),
		AuthMiddleware: auth.Middleware(authService, auth.DefaultConfig(), logger),
		Middlewares:    []func(http.Handler) http.Handler{m.Middleware},
		Logger:         logger,
	})

	apiHandler := http.MaxBytesHandler(router.Handler(), cfg.Server.MaxBodySize)

	apiServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      apiHandler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 2)

	go func() {
		logger.Info().Str("addr", apiServer.Addr).Msg("api server listening")
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("api server: %w", err)
		}
	}()

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, m.Handler())
		metricsServer = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Metrics.Port),
			Handler: mux,
		}
		go func() {
			logger.Info().Str("addr", metricsServer.Addr).Str("path", cfg.Metrics.Path).Msg("metrics server listening")
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("api server shutdown failed")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("metrics server shutdown failed")
		}
	}

	return nil
}

// openDatabase opens the configured backend, runs pending migrations,
// and returns the repository set.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (*repository.Repositories, repository.DatabaseHealth, error) {
	switch cfg.Driver {
	case "sqlite":
		db, err := sqlite.NewDB(ctx, sqlite.Config{
			Path:            cfg.Path,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			JournalMode:     cfg.JournalMode,
			BusyTimeout:     cfg.BusyTimeout,
			SynchronousMode: cfg.SynchronousMode,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &repository.Repositories{
			User:    sqlite.NewUserRepository(db),
			Contact: sqlite.NewContactRepository(db),
			Address: sqlite.NewAddressRepository(db),
		}, db, nil

	case "postgres":
		db, err := postgres.NewDB(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &repository.Repositories{
			User:    postgres.NewUserRepository(db),
			Contact: postgres.NewContactRepository(db),
			Address: postgres.NewAddressRepository(db),
		}, db, nil

	default:
		return nil, nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

// setupLogger builds the root logger from logging configuration.
func setupLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = cfg.TimeFormat

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out = os.Stdout
	if cfg.Output == "stderr" {
		out = os.Stderr
	}

	var logger zerolog.Logger
	if cfg.Format == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(out)
	}

	return logger.Level(level).With().Timestamp().Logger()
}

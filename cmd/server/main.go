package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/weirdqq-coder/troyyon/internal/application/services"
	"github.com/weirdqq-coder/troyyon/internal/application/session"
	"github.com/weirdqq-coder/troyyon/internal/application/usecases"
	"github.com/weirdqq-coder/troyyon/internal/config"
	domainrepos "github.com/weirdqq-coder/troyyon/internal/domain/repositories"
	domainservices "github.com/weirdqq-coder/troyyon/internal/domain/services"
	"github.com/weirdqq-coder/troyyon/internal/infrastructure/api"
	"github.com/weirdqq-coder/troyyon/internal/infrastructure/external"
	"github.com/weirdqq-coder/troyyon/internal/infrastructure/logging"
	"github.com/weirdqq-coder/troyyon/internal/infrastructure/repositories"
	infraservices "github.com/weirdqq-coder/troyyon/internal/infrastructure/services"
)

func main() {
	cfg := config.Load()
	logging.Init(cfg.IsDevelopment(), cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pools := infraservices.NewClientPoolService(external.NewClientConfig(cfg))
	defer pools.Close()

	generator := external.NewTryOnGenerator(cfg, pools)

	tryOnRepository := newHistoryRepository(ctx, cfg)

	tryOnDomainService := domainservices.NewTryOnDomainService(generator, cfg.RequestTimeout)
	tryOnUseCase := usecases.NewTryOnUseCase(tryOnRepository, tryOnDomainService)
	ingestUseCase := usecases.NewIngestUseCase(cfg.MaxUploadBytes)
	parameterService := services.NewParameterService()

	sessions := api.NewSessionManager(func() *session.Controller {
		return session.NewController(ingestUseCase, tryOnUseCase)
	}, cfg.SessionIdleTimeout)
	sessions.StartCleanupRoutine(ctx, 5*time.Minute)

	handler := api.NewTryOnHandler(tryOnUseCase, ingestUseCase, parameterService, sessions, cfg.MaxUploadBytes)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newHistoryRepository uses Redis when REDIS_ADDR is set and falls back to
// process memory otherwise or when Redis is unreachable.
func newHistoryRepository(ctx context.Context, cfg config.Config) domainrepos.TryOnRepository {
	if cfg.RedisAddr == "" {
		return repositories.NewMemoryTryOnRepository()
	}

	client, err := repositories.ConnectRedis(ctx, repositories.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		UseTLS:   cfg.RedisUseTLS,
		TTL:      cfg.HistoryTTL,
	})
	if err != nil {
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable, keeping history in memory")
		return repositories.NewMemoryTryOnRepository()
	}
	return repositories.NewRedisTryOnRepository(client, cfg.HistoryTTL)
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hongminglow/earn-portal/internal/apiclient"
	"github.com/hongminglow/earn-portal/internal/auth"
	"github.com/hongminglow/earn-portal/internal/config"
	"github.com/hongminglow/earn-portal/internal/logging"
	"github.com/hongminglow/earn-portal/internal/metrics"
	"github.com/hongminglow/earn-portal/internal/promo"
	"github.com/hongminglow/earn-portal/internal/server"
	"github.com/hongminglow/earn-portal/internal/session"
	"github.com/hongminglow/earn-portal/internal/view"
)

func main() {
	envLoaded := loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	zap.ReplaceGlobals(logger)
	if !envLoaded {
		logger.Info("no .env file found; relying on existing environment")
	}

	views, err := view.New(logger)
	if err != nil {
		logger.Fatal("parse templates", zap.Error(err))
	}

	m := metrics.New()
	api := apiclient.New(apiclient.Endpoints{
		Auth:        cfg.AuthAPIURL,
		Referrals:   cfg.ReferralsAPIURL,
		Withdrawals: cfg.WithdrawalsAPIURL,
	}, &http.Client{Timeout: cfg.APITimeout}, logger.Named("apiclient"), m)

	tokens := auth.NewTokenManager(cfg.SessionSecret, cfg.SessionIssuer)
	sessions := session.NewManager(tokens, cfg.SessionMaxAge, cfg.CookieSecure)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	counters := promo.NewSimulator(logger.Named("promo"))
	go counters.Run(ctx)

	srv := server.New(cfg, server.Deps{
		API:      api,
		Sessions: sessions,
		Views:    views,
		Counters: counters,
		Metrics:  m,
		Logger:   logger,
	})

	go func() {
		logger.Info("earn portal listening", zap.String("addr", cfg.HTTPAddress()), zap.String("env", cfg.Env))
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("graceful shutdown error", zap.Error(err))
	}
}

func loadLocalEnv() bool {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("read .env: %v", err)
		}
		return false
	}
	return true
}

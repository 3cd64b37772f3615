package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/climbing-section/backoffice/internal/adapters/httpapi"
	"github.com/climbing-section/backoffice/internal/platform/config"
	"github.com/climbing-section/backoffice/internal/platform/logging"
	"github.com/climbing-section/backoffice/internal/wiring"
)

const idempotencySweepInterval = time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := wiring.New(ctx, cfg, logger, wiring.Options{Migrate: true})
	if err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}
	defer app.Close()

	if err := app.BootstrapAdmin(ctx); err != nil {
		logger.Fatal("startup failed", zap.Error(err))
	}

	// Production uses session tokens issued by POST /auth/login.
	// Local dev may set AUTH_MODE=dev to act as any admin through X-Debug-Admin.
	var authMW func(http.Handler) http.Handler
	if cfg.AuthMode == config.AuthModeDev {
		logger.Warn("dev auth enabled: X-Debug-Admin is trusted")
		authMW = httpapi.NewDevAuthMiddleware(app.Admins, cfg.DevAdminID)
	}

	api := httpapi.NewServer(httpapi.Deps{
		Members:       app.Members,
		Seasons:       app.Seasons,
		Memberships:   app.Memberships,
		Admins:        app.Admins,
		Export:        app.Export,
		Idem:          app.Repos.Idempotency,
		Clock:         app.Clock,
		Logger:        logger.Named("http"),
		SecureCookies: !cfg.IsDevelopment(),
	})

	handler := httpapi.NewRouterWithOptions(
		api,
		httpapi.RouterOptions{
			AuthMiddleware:    authMW,
			Logger:            logger.Named("http"),
			LoginRateLimitRPM: cfg.LoginRateLimitRPM,
			TrustedProxies:    cfg.TrustedProxies,
		},
	)

	go wiring.RunIdempotencyJanitor(ctx, app.Repos.Idempotency, app.Clock, cfg.IdempotencyTTL, idempotencySweepInterval, logger.Named("idempotency"))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.String("storage", cfg.Storage.Backend),
			zap.String("blobs", cfg.Blob.Backend),
			zap.String("mail", cfg.Mail.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"time"

	"ledger/internal/backend"
	"ledger/internal/cli"
	"ledger/internal/config"
	apphttp "ledger/internal/http"
	"ledger/internal/log"
)

func main() {
	configFile := flag.String("config", "", "path to a YAML config file (default ./ledger.yaml if present)")
	flag.Parse()

	cfg := cli.MustLoadConfig(*configFile, (*config.Config).ValidateServer)
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	b, err := backend.New(ctx, backendCfg, logger)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	defer func() {
		if err := b.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		CookieName:         cfg.SessionCookie,
		SecureCookies:      cfg.SessionSecure,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	}, apphttp.Deps{
		Auth:         b.Auth,
		Transactions: b.Transactions,
		Budgets:      b.Budgets,
		Reports:      b.Reports,
		Admin:        b.Admin,
		Export:       b.Export,
		Tokens:       b.Tokens,
		Ping:         b.Repo.Ping,
		CacheEntries: b.Lookups.Size,
		Logger:       logger.WithComponent(log.ComponentHTTP),
	})
	srv.MaxHeaderBytes = 1 << 16

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("Starting ledger server", log.FieldOperation, log.OpStartup, "port", cfg.Port, "audit", b.AuditMode, "sheets_enabled", b.SheetsEnabled)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		cancel()
		return
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully", log.FieldOperation, log.OpShutdown)
}

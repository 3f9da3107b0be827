package backend

import (
	"context"
	"errors"
	"fmt"

	"ledger/internal/amqp"
	"ledger/internal/auth"
	"ledger/internal/cache"
	"ledger/internal/log"
	"ledger/internal/services"
	gsheet "ledger/internal/sheets/google"
	"ledger/internal/storage"
)

// New opens storage and wires every service. AMQP and Google Sheets are
// optional: an unreachable broker falls back to direct audit writes, while
// a configured but broken spreadsheet is a startup error.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backend config: %w", err)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentBackend)

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	logger.WithComponent(log.ComponentStorage).Info("Opened SQLite repository", "db_path", cfg.SQLiteDBPath)
	closers := []func() error{repo.Close}

	var audit services.AuditSink = services.NewDirectAudit(repo)
	auditMode := "direct"
	if cfg.AMQPURL != "" {
		amqpLogger := logger.WithComponent(log.ComponentAMQP)
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			amqpLogger.Warn("Failed to initialize AMQP client, writing audit events directly",
				log.NewFields().WithOperation(log.OpStartup).WithError(err).ToSlice()...)
		} else {
			audit, auditMode = client, "amqp"
			closers = append(closers, client.Close)
			amqpLogger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	// Left nil unless configured so the export service sees a nil interface.
	var sheet services.RowAppender
	if cfg.Sheets.Configured() {
		client, err := gsheet.New(ctx, cfg.Sheets)
		if err != nil {
			_ = closeAll(closers)
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		sheet = client
		logger.WithComponent(log.ComponentSheets).Info("Initialized Google Sheets export", "spreadsheet_id", cfg.Sheets.SpreadsheetID)
	}

	lookups := cache.NewLRUCache[services.Lookups](cfg.CacheSize, cfg.CacheTTL)
	manager := cache.NewManager()
	manager.Register(lookups)
	manager.StartCleanup(cfg.CacheTTL)
	closers = append(closers, func() error { manager.Stop(); return nil })
	logger.WithComponent(log.ComponentCache).Debug("Lookup cache ready", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)

	hasher := auth.NewPasswords(cfg.BcryptCost)
	budgets := services.NewBudgetService(repo, audit)

	b := &Backend{
		Repo:          repo,
		Tokens:        auth.NewTokens(cfg.SessionSecret, tokenIssuer, cfg.SessionTTL),
		Auth:          services.NewAuthService(repo, hasher, audit),
		Transactions:  services.NewTransactionService(repo, audit),
		Budgets:       budgets,
		Reports:       services.NewReportService(repo, budgets),
		Admin:         services.NewAdminService(repo, hasher, audit, cache.NewLoader[services.Lookups](lookups)),
		Export:        services.NewExportService(repo, sheet),
		Lookups:       lookups,
		AuditMode:     auditMode,
		SheetsEnabled: sheet != nil,
		Cleanup:       func() error { return closeAll(closers) },
	}

	logger.Info("Initialized backend", log.FieldOperation, log.OpStartup, "db_path", cfg.SQLiteDBPath, "audit", auditMode, "sheets_enabled", b.SheetsEnabled)
	return b, nil
}

// closeAll closes in reverse order of opening.
func closeAll(closers []func() error) error {
	var errs []error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

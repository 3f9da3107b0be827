// Package backend assembles storage, audit delivery, caches and services
// from configuration.
package backend

import (
	"ledger/internal/auth"
	"ledger/internal/cache"
	"ledger/internal/services"
	"ledger/internal/storage"
)

// CleanupFunc releases what the backend opened.
type CleanupFunc func() error

// Backend is the assembled application core.
type Backend struct {
	Repo   *storage.Repository
	Tokens *auth.Tokens

	Auth         *services.AuthService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Reports      *services.ReportService
	Admin        *services.AdminService
	Export       *services.ExportService

	// Lookups holds the per-organisation category and account lists.
	Lookups *cache.LRUCache[services.Lookups]

	// AuditMode is "amqp" or "direct".
	AuditMode string
	// SheetsEnabled reports whether exports can be pushed to a spreadsheet.
	SheetsEnabled bool

	Cleanup CleanupFunc
}

// Package services implements the ledger's operations on top of a store.
// Every operation receives the acting identity explicitly as a core.Actor.
package services

import (
	"context"

	"ledger/internal/core"
	"ledger/internal/query"
)

type UserStore interface {
	RegisterFirstUser(ctx context.Context, orgName string, admin core.User, categories []core.Category, account core.Account) (core.Organization, core.User, error)
	UserByEmail(ctx context.Context, email string) (core.User, error)
	UserByID(ctx context.Context, id int64) (core.User, error)
	CreateUser(ctx context.Context, u core.User) (core.User, error)
	ListUsers(ctx context.Context, orgID int64) ([]core.User, error)
}

type LookupStore interface {
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	ListAccounts(ctx context.Context, orgID int64) ([]core.Account, error)
	AccountByID(ctx context.Context, orgID, id int64) (core.Account, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	ListCategories(ctx context.Context, orgID int64) ([]core.Category, error)
	CategoryByID(ctx context.Context, orgID, id int64) (core.Category, error)
}

// TransactionStore evaluates query.Filter values. Implementations reject
// filters that carry no organisation predicate.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	FindTransactions(ctx context.Context, f query.Filter, limit int) ([]core.TransactionView, error)
	SumTotals(ctx context.Context, f query.Filter) (core.Totals, error)
	SumAmount(ctx context.Context, f query.Filter) (int64, error)
	CategoryTotals(ctx context.Context, f query.Filter) ([]core.CategoryTotal, error)
}

type BudgetStore interface {
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	ListBudgets(ctx context.Context, orgID int64) ([]core.Budget, error)
}

type AuditStore interface {
	AppendAudit(ctx context.Context, a core.AuditLog) error
}

// Store is everything the services need from persistence.
type Store interface {
	UserStore
	LookupStore
	TransactionStore
	BudgetStore
	AuditStore
}

// PasswordHasher is satisfied by auth.Passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// AuditSink receives an event after every successful create.
type AuditSink interface {
	Emit(ctx context.Context, event core.AuditLog) error
}

// RowAppender pushes export rows to an external spreadsheet.
type RowAppender interface {
	AppendRows(ctx context.Context, rows [][]string) error
}

package services

import (
	"context"
	"fmt"
	"strings"

	"ledger/internal/core"
	"ledger/internal/query"
)

// TransactionInput is a transaction as submitted, before validation.
type TransactionInput struct {
	Amount     string `json:"amount"`
	Type       string `json:"type"`
	OccurredAt string `json:"occurred_at"`
	CategoryID int64  `json:"category_id"`
	AccountID  int64  `json:"account_id"`
	Note       string `json:"note"`
	Tags       string `json:"tags"`
}

type transactionStore interface {
	TransactionStore
	LookupStore
}

type TransactionService struct {
	store transactionStore
	audit AuditSink
}

func NewTransactionService(store transactionStore, audit AuditSink) *TransactionService {
	return &TransactionService{store: store, audit: audit}
}

// Create validates in completely before anything is written.
func (s *TransactionService) Create(ctx context.Context, a core.Actor, in TransactionInput) (core.Transaction, error) {
	if err := core.RequireRole(a, core.WriteRoles...); err != nil {
		return core.Transaction{}, err
	}

	cents, err := core.AmountToCents(in.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	if err := (core.Money{Cents: cents}).Validate(); err != nil {
		return core.Transaction{}, err
	}
	typ, err := core.ParseTxType(in.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	day, err := core.ParseDate(in.OccurredAt)
	if err != nil {
		return core.Transaction{}, err
	}
	if _, err := s.store.CategoryByID(ctx, a.OrgID, in.CategoryID); err != nil {
		return core.Transaction{}, fmt.Errorf("category %d: %w", in.CategoryID, err)
	}
	if _, err := s.store.AccountByID(ctx, a.OrgID, in.AccountID); err != nil {
		return core.Transaction{}, fmt.Errorf("account %d: %w", in.AccountID, err)
	}

	created, err := s.store.CreateTransaction(ctx, core.Transaction{
		OrgID:       a.OrgID,
		UserID:      a.ID,
		AccountID:   in.AccountID,
		CategoryID:  in.CategoryID,
		AmountCents: cents,
		Type:        typ,
		OccurredAt:  day,
		Note:        strings.TrimSpace(in.Note),
		Tags:        strings.TrimSpace(in.Tags),
	})
	if err != nil {
		return core.Transaction{}, err
	}
	recordCreate(ctx, s.audit, a, EntityTransaction, created.ID)
	return created, nil
}

// List returns up to query.ListLimit matches, newest first, with totals over
// every match.
func (s *TransactionService) List(ctx context.Context, a core.Actor, p query.Params) (core.TransactionPage, error) {
	f := query.ScopeTransactions(p.Filter(), a)

	txs, err := s.store.FindTransactions(ctx, f, query.ListLimit)
	if err != nil {
		return core.TransactionPage{}, err
	}
	totals, err := s.store.SumTotals(ctx, f)
	if err != nil {
		return core.TransactionPage{}, err
	}
	return core.TransactionPage{Transactions: txs, Totals: totals}, nil
}

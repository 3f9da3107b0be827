package services

import (
	"context"
	"fmt"
	"strings"

	"ledger/internal/core"
	"ledger/internal/query"
)

type BudgetInput struct {
	Name       string `json:"name"`
	Period     string `json:"period"`
	CategoryID *int64 `json:"category_id"`
	Amount     string `json:"amount"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

type budgetStore interface {
	BudgetStore
	LookupStore
	SumAmount(ctx context.Context, f query.Filter) (int64, error)
}

type BudgetService struct {
	store budgetStore
	audit AuditSink
}

func NewBudgetService(store budgetStore, audit AuditSink) *BudgetService {
	return &BudgetService{store: store, audit: audit}
}

func (s *BudgetService) Create(ctx context.Context, a core.Actor, in BudgetInput) (core.Budget, error) {
	if err := core.RequireRole(a, core.WriteRoles...); err != nil {
		return core.Budget{}, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return core.Budget{}, fmt.Errorf("%w: name", core.ErrMissingField)
	}
	period, err := core.ParsePeriod(in.Period)
	if err != nil {
		return core.Budget{}, err
	}
	cents, err := core.AmountToCents(in.Amount)
	if err != nil {
		return core.Budget{}, err
	}
	if err := (core.Money{Cents: cents}).Validate(); err != nil {
		return core.Budget{}, err
	}
	start, err := core.ParseDate(in.StartDate)
	if err != nil {
		return core.Budget{}, fmt.Errorf("start_date: %w", err)
	}
	end, err := core.ParseDate(in.EndDate)
	if err != nil {
		return core.Budget{}, fmt.Errorf("end_date: %w", err)
	}
	if end.Before(start.Time) {
		return core.Budget{}, core.ErrInvalidDateRange
	}
	if in.CategoryID != nil {
		if _, err := s.store.CategoryByID(ctx, a.OrgID, *in.CategoryID); err != nil {
			return core.Budget{}, fmt.Errorf("category %d: %w", *in.CategoryID, err)
		}
	}

	created, err := s.store.CreateBudget(ctx, core.Budget{
		OrgID:       a.OrgID,
		Name:        name,
		Period:      period,
		CategoryID:  in.CategoryID,
		AmountCents: cents,
		StartDate:   start,
		EndDate:     end,
	})
	if err != nil {
		return core.Budget{}, err
	}
	recordCreate(ctx, s.audit, a, EntityBudget, created.ID)
	return created, nil
}

// ComputeSpend is the organisation-wide expense inside the budget window.
// The viewer's role does not narrow it.
func (s *BudgetService) ComputeSpend(ctx context.Context, b core.Budget) (int64, error) {
	spent, err := s.store.SumAmount(ctx, query.BudgetWindow(b))
	if err != nil {
		return 0, fmt.Errorf("budget %d spend: %w", b.ID, err)
	}
	return spent, nil
}

// Summaries lists the organisation's budgets, newest first, with spend.
func (s *BudgetService) Summaries(ctx context.Context, a core.Actor) ([]core.BudgetSummary, error) {
	budgets, err := s.store.ListBudgets(ctx, a.OrgID)
	if err != nil {
		return nil, err
	}
	out := make([]core.BudgetSummary, 0, len(budgets))
	for _, b := range budgets {
		spent, err := s.ComputeSpend(ctx, b)
		if err != nil {
			return nil, err
		}
		out = append(out, core.NewBudgetSummary(b, spent))
	}
	return out, nil
}

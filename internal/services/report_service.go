package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"ledger/internal/core"
	"ledger/internal/query"
)

type ReportService struct {
	store   TransactionStore
	budgets *BudgetService
}

func NewReportService(store TransactionStore, budgets *BudgetService) *ReportService {
	return &ReportService{store: store, budgets: budgets}
}

// Report computes month and year to date totals and the month's expense
// breakdown by category, all within the actor's visibility.
func (s *ReportService) Report(ctx context.Context, a core.Actor, today core.Date) (core.Report, error) {
	visible := query.Visible(a)
	monthStart, yearStart := today.MonthStart(), today.YearStart()

	var r core.Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := s.store.SumTotals(gctx, visible.And(query.Since(monthStart)))
		r.Month = t
		return err
	})
	g.Go(func() error {
		t, err := s.store.SumTotals(gctx, visible.And(query.Since(yearStart)))
		r.Year = t
		return err
	})
	g.Go(func() error {
		rows, err := s.store.CategoryTotals(gctx, visible.And(
			query.TypeEq{Type: core.Expense},
			query.Since(monthStart),
		))
		r.Breakdown = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Report{}, err
	}
	if r.Breakdown == nil {
		r.Breakdown = []core.CategoryTotal{}
	}
	return r, nil
}

// Dashboard is the month to date position plus every budget's consumption.
func (s *ReportService) Dashboard(ctx context.Context, a core.Actor, today core.Date) (core.Dashboard, error) {
	month, err := s.store.SumTotals(ctx, query.Visible(a).And(query.Since(today.MonthStart())))
	if err != nil {
		return core.Dashboard{}, err
	}
	budgets, err := s.budgets.Summaries(ctx, a)
	if err != nil {
		return core.Dashboard{}, err
	}
	return core.Dashboard{Month: month, Budgets: budgets}, nil
}

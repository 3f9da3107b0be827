package http

import (
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
)

type totalsView struct {
	core.Totals
	BalanceCents int64 `json:"balance_cents"`
}

func viewTotals(t core.Totals) totalsView {
	return totalsView{Totals: t, BalanceCents: t.Balance()}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Reports.Dashboard(r.Context(), actorFrom(r), s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	budgets := d.Budgets
	if budgets == nil {
		budgets = []core.BudgetSummary{}
	}
	NewJSONResponse().Body(map[string]any{
		"month":   viewTotals(d.Month),
		"budgets": budgets,
	}).Write(w)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.deps.Reports.Report(r.Context(), actorFrom(r), s.today())
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).Debug("Report computed", log.FieldOperation, log.OpReport, "categories", len(rep.Breakdown))
	NewJSONResponse().Body(map[string]any{
		"month":              viewTotals(rep.Month),
		"year":               viewTotals(rep.Year),
		"category_breakdown": rep.Breakdown,
	}).Write(w)
}

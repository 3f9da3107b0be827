package http

import (
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/services"
)

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.deps.Budgets.Summaries(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []core.BudgetSummary{}
	}
	NewJSONResponse().Body(map[string]any{"budgets": summaries}).Write(w)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Err(); err != nil {
		writeError(w, r, err)
		return
	}
	categoryID, err := p.OptionalID("category_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	b, err := s.deps.Budgets.Create(r.Context(), actorFrom(r), services.BudgetInput{
		Name:       p.Get("name"),
		Period:     p.Get("period"),
		CategoryID: categoryID,
		Amount:     p.Get("amount"),
		StartDate:  p.Get("start_date"),
		EndDate:    p.Get("end_date"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).Info("Budget created", log.FieldOperation, log.OpCreate, "budget_id", b.ID)
	NewJSONResponse().Status(http.StatusCreated).Body(b).Write(w)
}

package http

import (
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/query"
	"ledger/internal/services"
)

type transactionList struct {
	Transactions []core.TransactionView `json:"transactions"`
	IncomeCents  int64                  `json:"income_cents"`
	ExpenseCents int64                  `json:"expense_cents"`
	BalanceCents int64                  `json:"balance_cents"`
	services.Lookups
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	a := actorFrom(r)
	page, err := s.deps.Transactions.List(r.Context(), a, query.ParamsFromValues(r.URL.Query()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	lookups, err := s.deps.Admin.Lookups(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.FromContext(r.Context()).Debug("Transactions listed", log.FieldOperation, log.OpList, "rows", len(page.Transactions))

	txs := page.Transactions
	if txs == nil {
		txs = []core.TransactionView{}
	}
	NewJSONResponse().Body(transactionList{
		Transactions: txs,
		IncomeCents:  page.IncomeCents,
		ExpenseCents: page.ExpenseCents,
		BalanceCents: page.Balance(),
		Lookups:      lookups,
	}).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Err(); err != nil {
		writeError(w, r, err)
		return
	}
	categoryID, err := p.ID("category_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	accountID, err := p.ID("account_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := s.deps.Transactions.Create(r.Context(), actorFrom(r), services.TransactionInput{
		Amount:     p.Get("amount"),
		Type:       p.Get("type"),
		OccurredAt: p.Get("occurred_at"),
		CategoryID: categoryID,
		AccountID:  accountID,
		Note:       p.Get("note"),
		Tags:       p.Get("tags"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).Info("Transaction created", log.FieldOperation, log.OpCreate, "transaction_id", tx.ID)
	NewJSONResponse().Status(http.StatusCreated).Body(tx).Write(w)
}

package core

import "time"

// ExportHeader is the column order of every export format.
var ExportHeader = []string{"date", "type", "amount", "category", "account", "note", "tags", "user"}

type (
	// Totals are income and expense sums over one filtered set.
	Totals struct {
		IncomeCents  int64 `json:"income_cents"`
		ExpenseCents int64 `json:"expense_cents"`
	}

	CategoryTotal struct {
		Name       string `json:"category"`
		TotalCents int64  `json:"total_cents"`
	}

	BudgetSummary struct {
		Budget         Budget `json:"budget"`
		SpentCents     int64  `json:"spent_cents"`
		RemainingCents int64  `json:"remaining_cents"`
	}

	TransactionPage struct {
		Transactions []TransactionView `json:"transactions"`
		Totals
	}

	Report struct {
		Month     Totals          `json:"month"`
		Year      Totals          `json:"year"`
		Breakdown []CategoryTotal `json:"category_breakdown"`
	}

	Dashboard struct {
		Month   Totals          `json:"month"`
		Budgets []BudgetSummary `json:"budgets"`
	}

	ExportRow struct {
		Date     string
		Type     string
		Amount   string
		Category string
		Account  string
		Note     string
		Tags     string
		User     string
	}
)

// Balance is always derived, never stored.
func (t Totals) Balance() int64 {
	return t.IncomeCents - t.ExpenseCents
}

// NewBudgetSummary pairs a budget with its spend. Remaining goes negative on overspend.
func NewBudgetSummary(b Budget, spent int64) BudgetSummary {
	return BudgetSummary{Budget: b, SpentCents: spent, RemainingCents: b.AmountCents - spent}
}

// ExportRowOf projects a joined transaction into export columns.
func ExportRowOf(v TransactionView) ExportRow {
	return ExportRow{
		Date:     v.OccurredAt.String(),
		Type:     string(v.Type),
		Amount:   CentsToDisplay(v.AmountCents),
		Category: v.CategoryName,
		Account:  v.AccountName,
		Note:     v.Note,
		Tags:     v.Tags,
		User:     v.UserName,
	}
}

// Record returns the row in ExportHeader order.
func (r ExportRow) Record() []string {
	return []string{r.Date, r.Type, r.Amount, r.Category, r.Account, r.Note, r.Tags, r.User}
}

// ExportFilename is the download name for an export produced on day.
func ExportFilename(day time.Time, ext string) string {
	return "ledger_export_" + DateOf(day).String() + "." + ext
}

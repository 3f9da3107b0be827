package query

import "ledger/internal/core"

// Organization is the unscoped base: every transaction of one tenant.
func Organization(orgID int64) Filter {
	return Filter{OrgEq{OrgID: orgID}}
}

// ScopeTransactions narrows base to what the actor may read. The actor's
// organisation is always enforced; the user role additionally sees only
// its own rows.
func ScopeTransactions(base Filter, a core.Actor) Filter {
	scoped := base.And(OrgEq{OrgID: a.OrgID})
	if !a.Role.SeesWholeOrganization() {
		scoped = scoped.And(UserEq{UserID: a.ID})
	}
	return scoped
}

// Visible is ScopeTransactions over an empty base.
func Visible(a core.Actor) Filter {
	return ScopeTransactions(nil, a)
}

// Since keeps transactions on or after day.
func Since(day core.Date) DateRange {
	return DateRange{From: &day}
}

// BudgetWindow selects the expense transactions a budget counts against:
// organisation wide, inside [start, end], limited to its category when set.
func BudgetWindow(b core.Budget) Filter {
	start, end := b.StartDate, b.EndDate
	f := Organization(b.OrgID).And(
		TypeEq{Type: core.Expense},
		DateRange{From: &start, To: &end},
	)
	if b.CategoryID != nil {
		f = f.And(CategoryEq{CategoryID: *b.CategoryID})
	}
	return f
}

// Package query composes transaction filters as a conjunction of tagged
// predicates. A Filter is independent of storage: the SQL repository
// translates it to WHERE clauses and Match evaluates it in memory.
package query

import (
	"strings"

	"ledger/internal/core"
)

// ListLimit caps the rows returned by a transaction listing. Sums ignore it.
const ListLimit = 500

// Predicate is one of the variants declared in this package.
type Predicate interface {
	predicate()
}

type (
	// OrgEq is the tenant boundary and is present in every filter built here.
	OrgEq struct{ OrgID int64 }

	// UserEq narrows to transactions recorded by one user.
	UserEq struct{ UserID int64 }

	TypeEq struct{ Type core.TxType }

	// DateRange bounds occurred_at inclusively; a nil bound is open.
	DateRange struct {
		From *core.Date
		To   *core.Date
	}

	CategoryEq struct{ CategoryID int64 }

	AccountEq struct{ AccountID int64 }

	// AmountRange bounds amount_cents inclusively; a nil bound is open.
	AmountRange struct {
		Min *int64
		Max *int64
	}

	// Keyword is a substring match on note or tags, case-insensitive for
	// ASCII letters only so it agrees with SQLite's lower().
	Keyword struct{ Text string }
)

func (OrgEq) predicate()       {}
func (UserEq) predicate()      {}
func (TypeEq) predicate()      {}
func (DateRange) predicate()   {}
func (CategoryEq) predicate()  {}
func (AccountEq) predicate()   {}
func (AmountRange) predicate() {}
func (Keyword) predicate()     {}

// Filter is the logical AND of its predicates. The empty filter matches everything.
type Filter []Predicate

// And returns a new filter; the receiver is never modified, so a base filter
// can be shared between listing and aggregate queries.
func (f Filter) And(ps ...Predicate) Filter {
	out := make(Filter, 0, len(f)+len(ps))
	out = append(out, f...)
	return append(out, ps...)
}

// Match evaluates the filter against one transaction.
func (f Filter) Match(t core.Transaction) bool {
	for _, p := range f {
		if !matches(p, t) {
			return false
		}
	}
	return true
}

func matches(p Predicate, t core.Transaction) bool {
	switch p := p.(type) {
	case OrgEq:
		return t.OrgID == p.OrgID
	case UserEq:
		return t.UserID == p.UserID
	case TypeEq:
		return t.Type == p.Type
	case DateRange:
		if p.From != nil && t.OccurredAt.Before(p.From.Time) {
			return false
		}
		if p.To != nil && t.OccurredAt.After(p.To.Time) {
			return false
		}
		return true
	case CategoryEq:
		return t.CategoryID == p.CategoryID
	case AccountEq:
		return t.AccountID == p.AccountID
	case AmountRange:
		if p.Min != nil && t.AmountCents < *p.Min {
			return false
		}
		if p.Max != nil && t.AmountCents > *p.Max {
			return false
		}
		return true
	case Keyword:
		needle := FoldASCII(p.Text)
		return strings.Contains(FoldASCII(t.Note), needle) ||
			strings.Contains(FoldASCII(t.Tags), needle)
	}
	return false
}

// FoldASCII lowercases A-Z and leaves every other rune untouched.
func FoldASCII(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

// Sum applies the filter to an in-memory set and totals income and expense.
func (f Filter) Sum(txs []core.Transaction) core.Totals {
	var totals core.Totals
	for _, t := range txs {
		if !f.Match(t) {
			continue
		}
		switch t.Type {
		case core.Income:
			totals.IncomeCents += t.AmountCents
		case core.Expense:
			totals.ExpenseCents += t.AmountCents
		}
	}
	return totals
}

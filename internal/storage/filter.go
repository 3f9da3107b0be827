package storage

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"ledger/internal/query"
)

// ErrUnscopedQuery is returned for a transaction filter without a tenant predicate.
var ErrUnscopedQuery = errors.New("transaction query without organization scope")

// applyFilter chains one WHERE clause per predicate. Columns are qualified
// because listing queries join categories, accounts and users.
func applyFilter(db *gorm.DB, f query.Filter) *gorm.DB {
	scoped := false
	for _, p := range f {
		switch p := p.(type) {
		case query.OrgEq:
			scoped = true
			db = db.Where("transactions.org_id = ?", p.OrgID)
		case query.UserEq:
			db = db.Where("transactions.user_id = ?", p.UserID)
		case query.TypeEq:
			db = db.Where("transactions.type = ?", string(p.Type))
		case query.DateRange:
			if p.From != nil {
				db = db.Where("transactions.occurred_at >= ?", p.From.String())
			}
			if p.To != nil {
				db = db.Where("transactions.occurred_at <= ?", p.To.String())
			}
		case query.CategoryEq:
			db = db.Where("transactions.category_id = ?", p.CategoryID)
		case query.AccountEq:
			db = db.Where("transactions.account_id = ?", p.AccountID)
		case query.AmountRange:
			if p.Min != nil {
				db = db.Where("transactions.amount_cents >= ?", *p.Min)
			}
			if p.Max != nil {
				db = db.Where("transactions.amount_cents <= ?", *p.Max)
			}
		case query.Keyword:
			// instr keeps % and _ in the keyword literal. lower() folds ASCII
			// only, so the keyword is folded the same way.
			kw := query.FoldASCII(p.Text)
			db = db.Where(
				"(instr(lower(coalesce(transactions.note, '')), ?) > 0 OR instr(lower(coalesce(transactions.tags, '')), ?) > 0)",
				kw, kw,
			)
		default:
			_ = db.AddError(fmt.Errorf("unsupported predicate %T", p))
		}
	}
	if !scoped {
		_ = db.AddError(ErrUnscopedQuery)
	}
	return db
}

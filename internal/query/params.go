package query

import (
	"net/url"
	"strconv"
	"strings"

	"ledger/internal/core"
)

// Params carries the raw filter inputs of a listing or export request.
type Params struct {
	StartDate  string
	EndDate    string
	CategoryID string
	AccountID  string
	MinAmount  string
	MaxAmount  string
	Keyword    string
}

// ParamsFromValues reads the query-string names used by the HTTP API.
func ParamsFromValues(v url.Values) Params {
	return Params{
		StartDate:  v.Get("start_date"),
		EndDate:    v.Get("end_date"),
		CategoryID: v.Get("category_id"),
		AccountID:  v.Get("account_id"),
		MinAmount:  v.Get("min_amount"),
		MaxAmount:  v.Get("max_amount"),
		Keyword:    v.Get("q"),
	}
}

// Filter builds the predicates for the present, well-formed inputs. Anything
// that fails to parse is dropped so a listing always renders.
func (p Params) Filter() Filter {
	var f Filter

	var dr DateRange
	if d, err := core.ParseDate(p.StartDate); err == nil {
		dr.From = &d
	}
	if d, err := core.ParseDate(p.EndDate); err == nil {
		dr.To = &d
	}
	if dr.From != nil || dr.To != nil {
		f = append(f, dr)
	}

	if id, ok := parseID(p.CategoryID); ok {
		f = append(f, CategoryEq{CategoryID: id})
	}
	if id, ok := parseID(p.AccountID); ok {
		f = append(f, AccountEq{AccountID: id})
	}

	var ar AmountRange
	if c, ok := parseBound(p.MinAmount); ok {
		ar.Min = &c
	}
	if c, ok := parseBound(p.MaxAmount); ok {
		ar.Max = &c
	}
	if ar.Min != nil || ar.Max != nil {
		f = append(f, ar)
	}

	if p.Keyword != "" {
		f = append(f, Keyword{Text: p.Keyword})
	}
	return f
}

func parseID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func parseBound(s string) (int64, bool) {
	if strings.TrimSpace(s) == "" {
		return 0, false
	}
	c, err := core.AmountToCents(s)
	if err != nil {
		return 0, false
	}
	return c, true
}

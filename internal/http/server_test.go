package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"ledger/internal/auth"
	"ledger/internal/cache"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/storage"
)

type harness struct {
	t   *testing.T
	srv *Server
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	audit := services.NewDirectAudit(repo)
	hasher := auth.NewPasswords(bcrypt.MinCost)
	lookups := cache.NewLRUCache[services.Lookups](16, time.Minute)
	budgets := services.NewBudgetService(repo, audit)

	srv := NewServer(cfg, Deps{
		Auth:         services.NewAuthService(repo, hasher, audit),
		Transactions: services.NewTransactionService(repo, audit),
		Budgets:      budgets,
		Reports:      services.NewReportService(repo, budgets),
		Admin:        services.NewAdminService(repo, hasher, audit, cache.NewLoader[services.Lookups](lookups)),
		Export:       services.NewExportService(repo, nil),
		Tokens:       auth.NewTokens("test-secret-0123456789", "ledger", time.Hour),
		Ping:         repo.Ping,
		CacheEntries: lookups.Size,
		Logger:       log.New(log.Config{Output: io.Discard}),
	})
	srv.now = func() time.Time { return time.Date(2025, time.March, 20, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(srv.limiter.Stop)
	return &harness{t: t, srv: srv}
}

func (h *harness) do(method, path, body string, session *http.Cookie) *httptest.ResponseRecorder {
	h.t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	} else if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if session != nil {
		req.AddCookie(session)
	}
	rec := httptest.NewRecorder()
	h.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "ledger_session" && c.Value != "" {
			return c
		}
	}
	t.Fatalf("no session cookie in response (status %d: %s)", rec.Code, rec.Body.String())
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type namedID struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type lookupsBody struct {
	Categories []namedID `json:"categories"`
	Accounts   []namedID `json:"accounts"`
}

func (l lookupsBody) id(t *testing.T, items []namedID, name string) string {
	t.Helper()
	for _, it := range items {
		if it.Name == name {
			return strconv.FormatInt(it.ID, 10)
		}
	}
	t.Fatalf("%q not in lookups", name)
	return ""
}

// bootstrap registers the first admin and returns its session and lookups.
func (h *harness) bootstrap() (*http.Cookie, lookupsBody) {
	h.t.Helper()
	rec := h.do(http.MethodPost, "/register",
		`{"org_name":"Acme","name":"Alice","email":"alice@example.com","password":"pw"}`, nil)
	if rec.Code != http.StatusCreated {
		h.t.Fatalf("register status=%d body=%s", rec.Code, rec.Body.String())
	}
	session := sessionCookie(h.t, rec)

	rec = h.do(http.MethodGet, "/lookups", "", session)
	if rec.Code != http.StatusOK {
		h.t.Fatalf("lookups status=%d", rec.Code)
	}
	return session, decode[lookupsBody](h.t, rec)
}

func TestHealthAndReady(t *testing.T) {
	h := newHarness(t, Config{})
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := h.do(http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rec.Code)
		}
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Errorf("%s missing security headers", path)
		}
	}
	if rec := h.do(http.MethodGet, "/nope", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route status=%d", rec.Code)
	}
}

func TestSessionRequired(t *testing.T) {
	h := newHarness(t, Config{})
	for _, path := range []string{"/dashboard", "/transactions", "/export"} {
		if rec := h.do(http.MethodGet, path, "", nil); rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without session status=%d", path, rec.Code)
		}
	}
	bogus := &http.Cookie{Name: "ledger_session", Value: "not-a-token"}
	if rec := h.do(http.MethodGet, "/dashboard", "", bogus); rec.Code != http.StatusUnauthorized {
		t.Errorf("bogus session status=%d", rec.Code)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	h := newHarness(t, Config{})

	rec := h.do(http.MethodPost, "/register", `{"org_name":"Acme","name":"Alice"}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("incomplete register status=%d", rec.Code)
	}

	h.bootstrap()

	rec = h.do(http.MethodPost, "/register", "org_name=Other&name=Bob&email=bob@example.com&password=pw", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("second register status=%d", rec.Code)
	}

	rec = h.do(http.MethodPost, "/login", "email=alice@example.com&password=wrong", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status=%d", rec.Code)
	}

	rec = h.do(http.MethodPost, "/login", "email=alice@example.com&password=pw", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rec.Code, rec.Body.String())
	}
	user := decode[map[string]any](t, rec)
	if user["role"] != "admin" {
		t.Fatalf("role = %v", user["role"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatal("password hash serialized")
	}
	session := sessionCookie(t, rec)
	if !session.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}

	rec = h.do(http.MethodPost, "/logout", "", session)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status=%d", rec.Code)
	}
	cleared := rec.Result().Cookies()
	if len(cleared) != 1 || cleared[0].MaxAge >= 0 {
		t.Fatalf("logout did not clear the cookie: %+v", cleared)
	}
}

func TestTransactionsFlow(t *testing.T) {
	h := newHarness(t, Config{})
	session, lk := h.bootstrap()
	food := lk.id(t, lk.Categories, "Food")
	salary := lk.id(t, lk.Categories, "Salary")
	cash := lk.id(t, lk.Accounts, "Cash")

	create := func(body string) *httptest.ResponseRecorder {
		return h.do(http.MethodPost, "/transactions", body, session)
	}

	for _, body := range []string{
		`{"amount":"10.00","type":"expense","occurred_at":"2025-03-01","category_id":` + food + `,"account_id":` + cash + `,"note":"lunch"}`,
		"amount=50.00&type=expense&occurred_at=2025-03-02&category_id=" + food + "&account_id=" + cash + "&tags=weekly",
		`{"amount":1000,"type":"income","occurred_at":"2025-03-03","category_id":` + salary + `,"account_id":` + cash + `}`,
	} {
		if rec := create(body); rec.Code != http.StatusCreated {
			t.Fatalf("create %s status=%d body=%s", body, rec.Code, rec.Body.String())
		}
	}

	errCases := []struct {
		name string
		body string
		want int
	}{
		{"negative amount", "amount=-1&type=expense&occurred_at=2025-03-01&category_id=" + food + "&account_id=" + cash, http.StatusBadRequest},
		{"bad type", "amount=1&type=gift&occurred_at=2025-03-01&category_id=" + food + "&account_id=" + cash, http.StatusBadRequest},
		{"bad date", "amount=1&type=expense&occurred_at=03/01/2025&category_id=" + food + "&account_id=" + cash, http.StatusBadRequest},
		{"non numeric category", "amount=1&type=expense&occurred_at=2025-03-01&category_id=abc&account_id=" + cash, http.StatusUnprocessableEntity},
		{"missing account", "amount=1&type=expense&occurred_at=2025-03-01&category_id=" + food, http.StatusBadRequest},
		{"unknown category", "amount=1&type=expense&occurred_at=2025-03-01&category_id=9999&account_id=" + cash, http.StatusNotFound},
		{"broken json", `{"amount":`, http.StatusBadRequest},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := create(tc.body); rec.Code != tc.want {
				t.Fatalf("status=%d want %d body=%s", rec.Code, tc.want, rec.Body.String())
			}
		})
	}

	type listBody struct {
		Transactions []struct {
			AmountCents int64  `json:"amount_cents"`
			Category    string `json:"category"`
			Note        string `json:"note"`
		} `json:"transactions"`
		IncomeCents  int64     `json:"income_cents"`
		ExpenseCents int64     `json:"expense_cents"`
		BalanceCents int64     `json:"balance_cents"`
		Categories   []namedID `json:"categories"`
	}

	rec := h.do(http.MethodGet, "/transactions", "", session)
	all := decode[listBody](t, rec)
	if len(all.Transactions) != 3 || all.IncomeCents != 100000 || all.ExpenseCents != 6000 || all.BalanceCents != 94000 {
		t.Fatalf("list = %+v", all)
	}
	if all.Transactions[0].AmountCents != 100000 {
		t.Errorf("newest first expected, got %+v", all.Transactions[0])
	}
	if len(all.Categories) == 0 {
		t.Error("listing should carry lookup lists")
	}

	rec = h.do(http.MethodGet, "/transactions?min_amount=20.00&max_amount=60.00", "", session)
	ranged := decode[listBody](t, rec)
	if len(ranged.Transactions) != 1 || ranged.Transactions[0].AmountCents != 5000 {
		t.Fatalf("amount range = %+v", ranged.Transactions)
	}

	rec = h.do(http.MethodGet, "/transactions?category_id=abc&q=LUNCH", "", session)
	kw := decode[listBody](t, rec)
	if len(kw.Transactions) != 1 || kw.Transactions[0].Note != "lunch" {
		t.Fatalf("keyword with dropped category = %+v", kw.Transactions)
	}
}

func TestRolesAndAdmin(t *testing.T) {
	h := newHarness(t, Config{})
	admin, lk := h.bootstrap()
	food := lk.id(t, lk.Categories, "Food")
	cash := lk.id(t, lk.Accounts, "Cash")

	rec := h.do(http.MethodPost, "/admin/users", "name=Rita&email=rita@example.com&password=pw&role=readonly", admin)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := h.do(http.MethodPost, "/admin/users", "name=X&email=x@example.com&password=pw&role=owner", admin); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad role status=%d", rec.Code)
	}
	if rec := h.do(http.MethodPost, "/accounts", "name=Cash", admin); rec.Code != http.StatusConflict {
		t.Fatalf("duplicate account status=%d", rec.Code)
	}
	if rec := h.do(http.MethodPost, "/categories", "name=Lunch&type=expense&parent_id="+food, admin); rec.Code != http.StatusCreated {
		t.Fatalf("child category status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = h.do(http.MethodPost, "/login", "email=rita@example.com&password=pw", nil)
	reader := sessionCookie(t, rec)

	forbidden := []struct{ method, path, body string }{
		{http.MethodPost, "/transactions", "amount=1&type=expense&occurred_at=2025-03-01&category_id=" + food + "&account_id=" + cash},
		{http.MethodPost, "/budgets", "name=B&period=monthly&amount=1&start_date=2025-03-01&end_date=2025-03-31"},
		{http.MethodGet, "/accounts", ""},
		{http.MethodGet, "/categories", ""},
		{http.MethodGet, "/admin/users", ""},
	}
	for _, f := range forbidden {
		if rec := h.do(f.method, f.path, f.body, reader); rec.Code != http.StatusForbidden {
			t.Errorf("readonly %s %s status=%d", f.method, f.path, rec.Code)
		}
	}
	for _, path := range []string{"/dashboard", "/reports", "/lookups", "/budgets", "/transactions"} {
		if rec := h.do(http.MethodGet, path, "", reader); rec.Code != http.StatusOK {
			t.Errorf("readonly GET %s status=%d", path, rec.Code)
		}
	}

	rec = h.do(http.MethodGet, "/lookups", "", admin)
	after := decode[lookupsBody](t, rec)
	after.id(t, after.Categories, "Lunch")
}

func TestBudgetsAndReports(t *testing.T) {
	h := newHarness(t, Config{})
	session, lk := h.bootstrap()
	food := lk.id(t, lk.Categories, "Food")
	rent := lk.id(t, lk.Categories, "Rent")
	cash := lk.id(t, lk.Accounts, "Cash")

	for _, body := range []string{
		"amount=30&type=expense&occurred_at=2025-03-05&category_id=" + food + "&account_id=" + cash,
		"amount=500&type=expense&occurred_at=2025-03-06&category_id=" + rent + "&account_id=" + cash,
		"amount=20&type=expense&occurred_at=2025-02-06&category_id=" + food + "&account_id=" + cash,
	} {
		if rec := h.do(http.MethodPost, "/transactions", body, session); rec.Code != http.StatusCreated {
			t.Fatalf("seed status=%d body=%s", rec.Code, rec.Body.String())
		}
	}

	if rec := h.do(http.MethodPost, "/budgets", "name=March&period=monthly&amount=600&start_date=2025-03-01&end_date=2025-03-31", session); rec.Code != http.StatusCreated {
		t.Fatalf("budget status=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec := h.do(http.MethodPost, "/budgets", "name=Bad&period=monthly&amount=1&start_date=2025-03-31&end_date=2025-03-01", session); rec.Code != http.StatusBadRequest {
		t.Fatalf("reversed range status=%d", rec.Code)
	}
	if rec := h.do(http.MethodPost, "/budgets", "name=Bad&period=weekly&amount=1&start_date=2025-03-01&end_date=2025-03-02", session); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad period status=%d", rec.Code)
	}

	type budgetsBody struct {
		Budgets []struct {
			SpentCents     int64 `json:"spent_cents"`
			RemainingCents int64 `json:"remaining_cents"`
		} `json:"budgets"`
	}
	b := decode[budgetsBody](t, h.do(http.MethodGet, "/budgets", "", session))
	if len(b.Budgets) != 1 || b.Budgets[0].SpentCents != 53000 || b.Budgets[0].RemainingCents != 7000 {
		t.Fatalf("budgets = %+v", b)
	}

	type totals struct {
		ExpenseCents int64 `json:"expense_cents"`
		BalanceCents int64 `json:"balance_cents"`
	}
	rep := decode[struct {
		Month     totals `json:"month"`
		Year      totals `json:"year"`
		Breakdown []struct {
			Category   string `json:"category"`
			TotalCents int64  `json:"total_cents"`
		} `json:"category_breakdown"`
	}](t, h.do(http.MethodGet, "/reports", "", session))
	if rep.Month.ExpenseCents != 53000 || rep.Year.ExpenseCents != 55000 || rep.Month.BalanceCents != -53000 {
		t.Fatalf("report totals = %+v", rep)
	}
	if len(rep.Breakdown) != 2 || rep.Breakdown[0].Category != "Rent" {
		t.Fatalf("breakdown = %+v", rep.Breakdown)
	}

	dash := decode[struct {
		Month   totals            `json:"month"`
		Budgets []json.RawMessage `json:"budgets"`
	}](t, h.do(http.MethodGet, "/dashboard", "", session))
	if dash.Month.ExpenseCents != 53000 || len(dash.Budgets) != 1 {
		t.Fatalf("dashboard = %+v", dash)
	}
}

func TestExport(t *testing.T) {
	h := newHarness(t, Config{})
	session, lk := h.bootstrap()
	food := lk.id(t, lk.Categories, "Food")
	cash := lk.id(t, lk.Accounts, "Cash")
	h.do(http.MethodPost, "/transactions", "amount=12.5&type=expense&occurred_at=2025-03-05&category_id="+food+"&account_id="+cash+"&note=a,b", session)

	rec := h.do(http.MethodGet, "/export", "", session)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv status=%d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename=ledger_export_2025-03-20.csv" {
		t.Errorf("disposition = %q", got)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || lines[0] != "date,type,amount,category,account,note,tags,user" {
		t.Fatalf("csv = %q", rec.Body.String())
	}
	if !strings.Contains(lines[1], `"a,b"`) || !strings.Contains(lines[1], "12.50") {
		t.Errorf("csv row = %q", lines[1])
	}

	rec = h.do(http.MethodGet, "/export.xlsx?start_date=2026-01-01", "", session)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != xlsxContentType {
		t.Fatalf("xlsx status=%d type=%q", rec.Code, rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Body.String(), "PK") {
		t.Error("xlsx body is not a zip archive")
	}

	if rec := h.do(http.MethodPost, "/export/sheets", "", session); rec.Code != http.StatusNotFound {
		t.Fatalf("unconfigured sheets status=%d", rec.Code)
	}
}

func TestPostsAreRateLimited(t *testing.T) {
	h := newHarness(t, Config{RateLimitPerMinute: 2})
	for i := 0; i < 2; i++ {
		if rec := h.do(http.MethodPost, "/login", "email=a@b.c&password=x", nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status=%d", i, rec.Code)
		}
	}
	if rec := h.do(http.MethodPost, "/login", "email=a@b.c&password=x", nil); rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third attempt status=%d", rec.Code)
	}
	if rec := h.do(http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("GET limited: %d", rec.Code)
	}
}

func TestJSONAmountsKeepDecimalText(t *testing.T) {
	h := newHarness(t, Config{})
	session, lk := h.bootstrap()
	food := lk.id(t, lk.Categories, "Food")
	cash := lk.id(t, lk.Accounts, "Cash")

	rec := h.do(http.MethodPost, "/transactions",
		`{"amount":1234567890123456.78,"type":"expense","occurred_at":"2025-3-1","category_id":`+food+`,"account_id":`+cash+`}`, session)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status=%d body=%s", rec.Code, rec.Body.String())
	}
	created := decode[struct {
		AmountCents int64 `json:"amount_cents"`
	}](t, rec)
	if created.AmountCents != 123456789012345678 {
		t.Fatalf("amount_cents = %d", created.AmountCents)
	}

	start := time.Now()
	rec = h.do(http.MethodGet, "/transactions?min_amount=1e50000000", "", session)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status=%d", rec.Code)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("listing with an extreme bound took %v", elapsed)
	}
	list := decode[struct {
		Transactions []json.RawMessage `json:"transactions"`
	}](t, rec)
	if len(list.Transactions) != 1 {
		t.Fatalf("extreme bound must be dropped, got %d rows", len(list.Transactions))
	}
}

func TestNewServerTagsHTTPComponent(t *testing.T) {
	s := NewServer(Config{}, Deps{Logger: log.New(log.Config{Component: log.ComponentApp, Output: io.Discard})})
	t.Cleanup(s.limiter.Stop)
	if got := s.deps.Logger.Component(); got != log.ComponentHTTP {
		t.Fatalf("component = %s, want %s", got, log.ComponentHTTP)
	}
}

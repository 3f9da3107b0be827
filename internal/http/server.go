// Package http serves the ledger's JSON, CSV and XLSX API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ledger/internal/auth"
	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/query"
	"ledger/internal/services"
)

type Authenticator interface {
	Register(ctx context.Context, in services.RegisterInput) (core.User, error)
	Login(ctx context.Context, email, password string) (core.User, error)
	Authenticate(ctx context.Context, userID int64) (core.User, error)
}

type TransactionAPI interface {
	Create(ctx context.Context, a core.Actor, in services.TransactionInput) (core.Transaction, error)
	List(ctx context.Context, a core.Actor, p query.Params) (core.TransactionPage, error)
}

type BudgetAPI interface {
	Create(ctx context.Context, a core.Actor, in services.BudgetInput) (core.Budget, error)
	Summaries(ctx context.Context, a core.Actor) ([]core.BudgetSummary, error)
}

type ReportAPI interface {
	Report(ctx context.Context, a core.Actor, today core.Date) (core.Report, error)
	Dashboard(ctx context.Context, a core.Actor, today core.Date) (core.Dashboard, error)
}

type AdminAPI interface {
	Lookups(ctx context.Context, a core.Actor) (services.Lookups, error)
	ListAccounts(ctx context.Context, a core.Actor) ([]core.Account, error)
	CreateAccount(ctx context.Context, a core.Actor, in services.AccountInput) (core.Account, error)
	ListCategories(ctx context.Context, a core.Actor) ([]core.Category, error)
	CreateCategory(ctx context.Context, a core.Actor, in services.CategoryInput) (core.Category, error)
	ListUsers(ctx context.Context, a core.Actor) ([]core.User, error)
	CreateUser(ctx context.Context, a core.Actor, in services.UserInput) (core.User, error)
}

type ExportAPI interface {
	Rows(ctx context.Context, a core.Actor, p query.Params) ([]core.ExportRow, error)
	PushToSheet(ctx context.Context, a core.Actor, p query.Params) (int, error)
}

// Deps are the operations the handlers call.
type Deps struct {
	Auth         Authenticator
	Transactions TransactionAPI
	Budgets      BudgetAPI
	Reports      ReportAPI
	Admin        AdminAPI
	Export       ExportAPI
	Tokens       *auth.Tokens

	// Ping checks storage for /readyz.
	Ping func(ctx context.Context) error
	// CacheEntries reports cached lookup lists for /readyz; optional.
	CacheEntries func() int

	Logger *log.Logger
}

type Config struct {
	Addr               string
	CookieName         string
	SecureCookies      bool
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	deps     Deps
	cfg      Config
	limiter  *ratelimit.Limiter
	access   *trace.Middleware
	clientIP *security.ClientIP
	now      func() time.Time
}

func NewServer(cfg Config, deps Deps) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = "ledger_session"
	}
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	if deps.Logger.Component() != log.ComponentHTTP {
		deps.Logger = deps.Logger.WithComponent(log.ComponentHTTP)
	}

	s := &Server{
		deps:     deps,
		cfg:      cfg,
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		clientIP: security.NewClientIP(),
		now:      time.Now,
	}
	s.access = trace.NewMiddleware(s.clientIP.Extract)
	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(log.Middleware(s.deps.Logger, func(r *http.Request) string {
		return middleware.GetReqID(r.Context())
	}))
	r.Use(s.access.Handler)
	r.Use(middleware.Recoverer)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)
	r.Use(s.limiter.Middleware(s.clientIP.Extract, s.handleRateLimited, http.MethodPost))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such route").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").Write(w)
	})

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Post("/register", s.handleRegister)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/reports", s.handleReport)
		r.Get("/lookups", s.handleLookups)

		r.Get("/transactions", s.handleListTransactions)
		r.Post("/transactions", s.handleCreateTransaction)

		r.Get("/budgets", s.handleListBudgets)
		r.Post("/budgets", s.handleCreateBudget)

		r.Get("/accounts", s.handleListAccounts)
		r.Post("/accounts", s.handleCreateAccount)
		r.Get("/categories", s.handleListCategories)
		r.Post("/categories", s.handleCreateCategory)
		r.Get("/admin/users", s.handleListUsers)
		r.Post("/admin/users", s.handleCreateUser)

		r.Get("/export", s.handleExportCSV)
		r.Get("/export.xlsx", s.handleExportXLSX)
		r.Post("/export/sheets", s.handleExportSheets)
	})

	return r
}

// Shutdown stops the rate limiter's sweeper, then drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ping(ctx); err != nil {
			log.FromContext(r.Context()).Error("Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "storage unavailable").Write(w)
			return
		}
	}

	m := s.access.Metrics()
	body := map[string]any{
		"status":         "ready",
		"requests_total": m.TotalRequests,
		"server_errors":  m.ServerErrors,
		"rate_limited":   s.limiter.Rejected(),
		"active_clients": s.limiter.ActiveClients(),
	}
	if s.deps.CacheEntries != nil {
		body["cache_entries"] = s.deps.CacheEntries()
	}
	NewJSONResponse().Body(body).Write(w)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).Warn("Rate limit exceeded",
		log.NewFields().WithClientIP(s.clientIP.Extract(r)).WithHTTPRequest(r.Method, r.URL.Path, "", "").ToSlice()...)
	ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
}

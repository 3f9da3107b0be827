package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ledger/internal/core"
	"ledger/internal/query"

	_ "modernc.org/sqlite"
)

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Repository is the relational store. Schema comes from the embedded
// migrations; queries are composed with gorm over the same connection pool.
type Repository struct {
	db  *sql.DB
	orm *gorm.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	dsn := dbPath + "?" + pragmas

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dsn)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("Database schema ready", "path", dbPath, "version", version)

	orm, err := gorm.Open(gormsqlite.New(gormsqlite.Config{Conn: db}), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	return &Repository{db: db, orm: orm}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// translate maps driver errors onto the core taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return core.ErrNotFound
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", core.ErrConflict, err)
	}
	return err
}

// Organizations and users

// RegisterFirstUser creates the organisation, its admin and the seed data in
// one transaction. It fails with ErrRegistrationClosed once any user exists.
func (r *Repository) RegisterFirstUser(ctx context.Context, orgName string, admin core.User, categories []core.Category, account core.Account) (core.Organization, core.User, error) {
	var (
		org  organizationRecord
		user userRecord
	)
	err := r.orm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users int64
		if err := tx.Model(&userRecord{}).Count(&users).Error; err != nil {
			return err
		}
		if users > 0 {
			return core.ErrRegistrationClosed
		}

		org = organizationRecord{Name: orgName}
		if err := tx.Create(&org).Error; err != nil {
			return translate(err)
		}

		admin.OrgID = org.ID
		user = userFromCore(admin)
		if err := tx.Create(&user).Error; err != nil {
			return translate(err)
		}

		var existing int64
		if err := tx.Model(&categoryRecord{}).Where("org_id = ?", org.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			for _, c := range categories {
				c.OrgID = org.ID
				rec := categoryFromCore(c)
				if err := tx.Create(&rec).Error; err != nil {
					return translate(err)
				}
			}
		}

		if err := tx.Model(&accountRecord{}).Where("org_id = ?", org.ID).Count(&existing).Error; err != nil {
			return err
		}
		if existing == 0 {
			account.OrgID = org.ID
			rec := accountFromCore(account)
			if err := tx.Create(&rec).Error; err != nil {
				return translate(err)
			}
		}
		return nil
	})
	if err != nil {
		return core.Organization{}, core.User{}, fmt.Errorf("register organization: %w", err)
	}

	slog.InfoContext(ctx, "Organization registered", "org_id", org.ID, "admin_id", user.ID)

	u, err := user.toCore()
	return org.toCore(), u, err
}

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.orm.WithContext(ctx).Model(&userRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// UserByEmail returns the oldest user with that email across organisations.
func (r *Repository) UserByEmail(ctx context.Context, email string) (core.User, error) {
	var rec userRecord
	err := r.orm.WithContext(ctx).Where("email = ?", email).Order("id ASC").First(&rec).Error
	if err != nil {
		return core.User{}, translate(err)
	}
	return rec.toCore()
}

func (r *Repository) UserByID(ctx context.Context, id int64) (core.User, error) {
	var rec userRecord
	if err := r.orm.WithContext(ctx).First(&rec, id).Error; err != nil {
		return core.User{}, translate(err)
	}
	return rec.toCore()
}

func (r *Repository) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	u.ID = 0
	rec := userFromCore(u)
	if err := r.orm.WithContext(ctx).Create(&rec).Error; err != nil {
		return core.User{}, fmt.Errorf("create user: %w", translate(err))
	}
	slog.InfoContext(ctx, "User created", "id", rec.ID, "org_id", rec.OrgID, "role", rec.Role)
	return rec.toCore()
}

func (r *Repository) ListUsers(ctx context.Context, orgID int64) ([]core.User, error) {
	var recs []userRecord
	if err := r.orm.WithContext(ctx).Where("org_id = ?", orgID).Order("name ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users := make([]core.User, 0, len(recs))
	for _, rec := range recs {
		u, err := rec.toCore()
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", rec.ID, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// Accounts and categories

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	rec := accountFromCore(a)
	if err := r.orm.WithContext(ctx).Create(&rec).Error; err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", translate(err))
	}
	slog.InfoContext(ctx, "Account created", "id", rec.ID, "org_id", rec.OrgID)
	return rec.toCore(), nil
}

func (r *Repository) ListAccounts(ctx context.Context, orgID int64) ([]core.Account, error) {
	var recs []accountRecord
	if err := r.orm.WithContext(ctx).Where("org_id = ?", orgID).Order("name ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.Account, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toCore())
	}
	return out, nil
}

func (r *Repository) AccountByID(ctx context.Context, orgID, id int64) (core.Account, error) {
	var rec accountRecord
	if err := r.orm.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id).First(&rec).Error; err != nil {
		return core.Account{}, translate(err)
	}
	return rec.toCore(), nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	rec := categoryFromCore(c)
	if err := r.orm.WithContext(ctx).Create(&rec).Error; err != nil {
		return core.Category{}, fmt.Errorf("create category: %w", translate(err))
	}
	slog.InfoContext(ctx, "Category created", "id", rec.ID, "org_id", rec.OrgID, "type", rec.Type)
	return rec.toCore(), nil
}

func (r *Repository) ListCategories(ctx context.Context, orgID int64) ([]core.Category, error) {
	var recs []categoryRecord
	if err := r.orm.WithContext(ctx).Where("org_id = ?", orgID).Order("name ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]core.Category, 0, len(recs))
	for _, rec := range recs {
		out = append(out, rec.toCore())
	}
	return out, nil
}

func (r *Repository) CategoryByID(ctx context.Context, orgID, id int64) (core.Category, error) {
	var rec categoryRecord
	if err := r.orm.WithContext(ctx).Where("org_id = ? AND id = ?", orgID, id).First(&rec).Error; err != nil {
		return core.Category{}, translate(err)
	}
	return rec.toCore(), nil
}

// Transactions

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	rec := transactionFromCore(t)
	if err := r.orm.WithContext(ctx).Create(&rec).Error; err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", translate(err))
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", rec.ID,
		"org_id", rec.OrgID,
		"type", rec.Type,
		"amount_cents", rec.AmountCents,
		"occurred_at", rec.OccurredAt)

	return rec.toCore()
}

func (r *Repository) transactions(ctx context.Context, f query.Filter) *gorm.DB {
	return applyFilter(r.orm.WithContext(ctx).Table("transactions"), f)
}

// FindTransactions lists matches newest first. limit <= 0 means no cap.
func (r *Repository) FindTransactions(ctx context.Context, f query.Filter, limit int) ([]core.TransactionView, error) {
	q := r.transactions(ctx, f).
		Select("transactions.*, categories.name AS category_name, accounts.name AS account_name, users.name AS user_name").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Joins("JOIN accounts ON accounts.id = transactions.account_id").
		Joins("JOIN users ON users.id = transactions.user_id").
		Order("transactions.occurred_at DESC").
		Order("transactions.id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if q.Error != nil {
		return nil, fmt.Errorf("find transactions: %w", q.Error)
	}

	var rows []transactionRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("find transactions: %w", err)
	}

	out := make([]core.TransactionView, 0, len(rows))
	for _, row := range rows {
		v, err := row.toCore()
		if err != nil {
			return nil, fmt.Errorf("transaction %d: %w", row.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// SumTotals sums income and expense over every match, without any limit.
func (r *Repository) SumTotals(ctx context.Context, f query.Filter) (core.Totals, error) {
	q := r.transactions(ctx, f).Select(
		"COALESCE(SUM(CASE WHEN transactions.type = 'income' THEN transactions.amount_cents END), 0) AS income_cents, " +
			"COALESCE(SUM(CASE WHEN transactions.type = 'expense' THEN transactions.amount_cents END), 0) AS expense_cents")
	if q.Error != nil {
		return core.Totals{}, fmt.Errorf("sum transactions: %w", q.Error)
	}

	var totals core.Totals
	if err := q.Scan(&totals).Error; err != nil {
		return core.Totals{}, fmt.Errorf("sum transactions: %w", err)
	}
	return totals, nil
}

func (r *Repository) SumAmount(ctx context.Context, f query.Filter) (int64, error) {
	q := r.transactions(ctx, f).Select("COALESCE(SUM(transactions.amount_cents), 0)")
	if q.Error != nil {
		return 0, fmt.Errorf("sum amount: %w", q.Error)
	}

	var total int64
	if err := q.Row().Scan(&total); err != nil {
		return 0, fmt.Errorf("sum amount: %w", err)
	}
	return total, nil
}

// CategoryTotals groups matches by category name, largest total first.
// Categories without matches do not appear.
func (r *Repository) CategoryTotals(ctx context.Context, f query.Filter) ([]core.CategoryTotal, error) {
	q := r.transactions(ctx, f).
		Select("categories.name AS name, SUM(transactions.amount_cents) AS total_cents").
		Joins("JOIN categories ON categories.id = transactions.category_id").
		Group("categories.name").
		Order("total_cents DESC").
		Order("categories.name ASC")
	if q.Error != nil {
		return nil, fmt.Errorf("category totals: %w", q.Error)
	}

	var rows []core.CategoryTotal
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	return rows, nil
}

// Budgets

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	rec := budgetFromCore(b)
	if err := r.orm.WithContext(ctx).Create(&rec).Error; err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", translate(err))
	}
	slog.InfoContext(ctx, "Budget created", "id", rec.ID, "org_id", rec.OrgID, "amount_cents", rec.AmountCents)
	return rec.toCore()
}

// ListBudgets returns the organisation's budgets, newest first.
func (r *Repository) ListBudgets(ctx context.Context, orgID int64) ([]core.Budget, error) {
	var recs []budgetRecord
	if err := r.orm.WithContext(ctx).Where("org_id = ?", orgID).Order("id DESC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	out := make([]core.Budget, 0, len(recs))
	for _, rec := range recs {
		b, err := rec.toCore()
		if err != nil {
			return nil, fmt.Errorf("budget %d: %w", rec.ID, err)
		}
		out = append(out, b)
	}
	return out, nil
}

// Audit

func (r *Repository) AppendAudit(ctx context.Context, a core.AuditLog) error {
	rec := auditRecord{
		OrgID:     a.OrgID,
		UserID:    a.UserID,
		Action:    a.Action,
		Entity:    a.Entity,
		EntityID:  a.EntityID,
		CreatedAt: a.CreatedAt,
	}
	if err := r.orm.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

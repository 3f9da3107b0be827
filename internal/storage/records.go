package storage

import (
	"time"

	"ledger/internal/core"
)

type organizationRecord struct {
	ID        int64 `gorm:"primaryKey"`
	Name      string
	CreatedAt time.Time
}

func (organizationRecord) TableName() string { return "organizations" }

type userRecord struct {
	ID           int64 `gorm:"primaryKey"`
	OrgID        int64
	Name         string
	Email        string
	PasswordHash string
	Role         string
	Status       string
	CreatedAt    time.Time
}

func (userRecord) TableName() string { return "users" }

type accountRecord struct {
	ID           int64 `gorm:"primaryKey"`
	OrgID        int64
	Name         string
	Type         string
	Currency     string
	BalanceCents int64
	CreatedAt    time.Time
}

func (accountRecord) TableName() string { return "accounts" }

type categoryRecord struct {
	ID        int64 `gorm:"primaryKey"`
	OrgID     int64
	Name      string
	Type      string
	ParentID  *int64
	CreatedAt time.Time
}

func (categoryRecord) TableName() string { return "categories" }

type transactionRecord struct {
	ID          int64 `gorm:"primaryKey"`
	OrgID       int64
	UserID      int64
	AccountID   int64
	CategoryID  int64
	AmountCents int64
	Type        string
	OccurredAt  string
	Note        *string
	Tags        *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (transactionRecord) TableName() string { return "transactions" }

// transactionRow is a transactions row joined with the display names.
type transactionRow struct {
	ID           int64
	OrgID        int64
	UserID       int64
	AccountID    int64
	CategoryID   int64
	AmountCents  int64
	Type         string
	OccurredAt   string
	Note         *string
	Tags         *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CategoryName string
	AccountName  string
	UserName     string
}

type budgetRecord struct {
	ID          int64 `gorm:"primaryKey"`
	OrgID       int64
	Name        string
	Period      string
	CategoryID  *int64
	AmountCents int64
	StartDate   string
	EndDate     string
	CreatedAt   time.Time
}

func (budgetRecord) TableName() string { return "budgets" }

type auditRecord struct {
	ID        int64 `gorm:"primaryKey"`
	OrgID     int64
	UserID    int64
	Action    string
	Entity    string
	EntityID  int64
	CreatedAt time.Time
}

func (auditRecord) TableName() string { return "audit_logs" }

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r organizationRecord) toCore() core.Organization {
	return core.Organization{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt}
}

func (r userRecord) toCore() (core.User, error) {
	role, err := core.ParseRole(r.Role)
	if err != nil {
		return core.User{}, err
	}
	return core.User{
		ID:           r.ID,
		OrgID:        r.OrgID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         role,
		Status:       r.Status,
		CreatedAt:    r.CreatedAt,
	}, nil
}

func userFromCore(u core.User) userRecord {
	status := u.Status
	if status == "" {
		status = core.StatusActive
	}
	return userRecord{
		ID:           u.ID,
		OrgID:        u.OrgID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         u.Role.String(),
		Status:       status,
	}
}

func (r accountRecord) toCore() core.Account {
	return core.Account{
		ID:           r.ID,
		OrgID:        r.OrgID,
		Name:         r.Name,
		Type:         r.Type,
		Currency:     r.Currency,
		BalanceCents: r.BalanceCents,
		CreatedAt:    r.CreatedAt,
	}
}

func accountFromCore(a core.Account) accountRecord {
	return accountRecord{
		OrgID:        a.OrgID,
		Name:         a.Name,
		Type:         a.Type,
		Currency:     a.Currency,
		BalanceCents: a.BalanceCents,
	}
}

func (r categoryRecord) toCore() core.Category {
	return core.Category{
		ID:        r.ID,
		OrgID:     r.OrgID,
		Name:      r.Name,
		Type:      core.TxType(r.Type),
		ParentID:  r.ParentID,
		CreatedAt: r.CreatedAt,
	}
}

func categoryFromCore(c core.Category) categoryRecord {
	return categoryRecord{
		OrgID:    c.OrgID,
		Name:     c.Name,
		Type:     string(c.Type),
		ParentID: c.ParentID,
	}
}

func (r transactionRecord) toCore() (core.Transaction, error) {
	occurred, err := core.ParseDate(r.OccurredAt)
	if err != nil {
		return core.Transaction{}, err
	}
	return core.Transaction{
		ID:          r.ID,
		OrgID:       r.OrgID,
		UserID:      r.UserID,
		AccountID:   r.AccountID,
		CategoryID:  r.CategoryID,
		AmountCents: r.AmountCents,
		Type:        core.TxType(r.Type),
		OccurredAt:  occurred,
		Note:        deref(r.Note),
		Tags:        deref(r.Tags),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}, nil
}

func transactionFromCore(t core.Transaction) transactionRecord {
	return transactionRecord{
		OrgID:       t.OrgID,
		UserID:      t.UserID,
		AccountID:   t.AccountID,
		CategoryID:  t.CategoryID,
		AmountCents: t.AmountCents,
		Type:        string(t.Type),
		OccurredAt:  t.OccurredAt.String(),
		Note:        nullable(t.Note),
		Tags:        nullable(t.Tags),
	}
}

func (r transactionRow) toCore() (core.TransactionView, error) {
	t, err := transactionRecord{
		ID:          r.ID,
		OrgID:       r.OrgID,
		UserID:      r.UserID,
		AccountID:   r.AccountID,
		CategoryID:  r.CategoryID,
		AmountCents: r.AmountCents,
		Type:        r.Type,
		OccurredAt:  r.OccurredAt,
		Note:        r.Note,
		Tags:        r.Tags,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}.toCore()
	if err != nil {
		return core.TransactionView{}, err
	}
	return core.TransactionView{
		Transaction:  t,
		CategoryName: r.CategoryName,
		AccountName:  r.AccountName,
		UserName:     r.UserName,
	}, nil
}

func (r budgetRecord) toCore() (core.Budget, error) {
	start, err := core.ParseDate(r.StartDate)
	if err != nil {
		return core.Budget{}, err
	}
	end, err := core.ParseDate(r.EndDate)
	if err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		ID:          r.ID,
		OrgID:       r.OrgID,
		Name:        r.Name,
		Period:      core.Period(r.Period),
		CategoryID:  r.CategoryID,
		AmountCents: r.AmountCents,
		StartDate:   start,
		EndDate:     end,
		CreatedAt:   r.CreatedAt,
	}, nil
}

func budgetFromCore(b core.Budget) budgetRecord {
	return budgetRecord{
		OrgID:       b.OrgID,
		Name:        b.Name,
		Period:      string(b.Period),
		CategoryID:  b.CategoryID,
		AmountCents: b.AmountCents,
		StartDate:   b.StartDate.String(),
		EndDate:     b.EndDate.String(),
	}
}

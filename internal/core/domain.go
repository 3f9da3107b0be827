package core

import (
	"strings"
	"time"
)

const (
	dateLayout = "2006-01-02"
	// Month and day may drop their leading zero on input.
	dateParseLayout = "2006-1-2"
)

const (
	Income  TxType = "income"
	Expense TxType = "expense"
)

const (
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

const (
	StatusActive = "active"

	DefaultAccountType     = "cash"
	DefaultAccountCurrency = "CNY"
)

type (
	// TxType tells whether a transaction or category adds or removes money.
	TxType string

	// Period is descriptive only; budget windows always come from start/end dates.
	Period string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Organization struct {
		ID        int64     `json:"id"`
		Name      string    `json:"name"`
		CreatedAt time.Time `json:"created_at"`
	}

	User struct {
		ID           int64     `json:"id"`
		OrgID        int64     `json:"org_id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		Role         Role      `json:"role"`
		Status       string    `json:"status"`
		CreatedAt    time.Time `json:"created_at"`
	}

	// Actor is the identity every core operation receives explicitly.
	Actor struct {
		ID    int64
		OrgID int64
		Role  Role
	}

	Account struct {
		ID       int64  `json:"id"`
		OrgID    int64  `json:"org_id"`
		Name     string `json:"name"`
		Type     string `json:"type"`
		Currency string `json:"currency"`
		// BalanceCents is a manually maintained figure; transactions never touch it.
		BalanceCents int64     `json:"balance_cents"`
		CreatedAt    time.Time `json:"created_at"`
	}

	Category struct {
		ID        int64     `json:"id"`
		OrgID     int64     `json:"org_id"`
		Name      string    `json:"name"`
		Type      TxType    `json:"type"`
		ParentID  *int64    `json:"parent_id,omitempty"`
		CreatedAt time.Time `json:"created_at"`
	}

	Transaction struct {
		ID          int64     `json:"id"`
		OrgID       int64     `json:"org_id"`
		UserID      int64     `json:"user_id"`
		AccountID   int64     `json:"account_id"`
		CategoryID  int64     `json:"category_id"`
		AmountCents int64     `json:"amount_cents"`
		Type        TxType    `json:"type"`
		OccurredAt  Date      `json:"occurred_at"`
		Note        string    `json:"note"`
		Tags        string    `json:"tags"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}

	// TransactionView is a transaction joined with the names shown in listings and exports.
	TransactionView struct {
		Transaction
		CategoryName string `json:"category"`
		AccountName  string `json:"account"`
		UserName     string `json:"user"`
	}

	Budget struct {
		ID          int64     `json:"id"`
		OrgID       int64     `json:"org_id"`
		Name        string    `json:"name"`
		Period      Period    `json:"period"`
		CategoryID  *int64    `json:"category_id,omitempty"`
		AmountCents int64     `json:"amount_cents"`
		StartDate   Date      `json:"start_date"`
		EndDate     Date      `json:"end_date"`
		CreatedAt   time.Time `json:"created_at"`
	}

	AuditLog struct {
		ID        int64
		OrgID     int64
		UserID    int64
		Action    string
		Entity    string
		EntityID  int64
		CreatedAt time.Time
	}
)

// NewDate returns a UTC date at midnight.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate accepts YYYY-MM-DD, with or without zero padding on month and day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateParseLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// MonthStart is the first day of d's month.
func (d Date) MonthStart() Date {
	return NewDate(d.Year(), d.Time.Month(), 1)
}

// YearStart is January 1 of d's year.
func (d Date) YearStart() Date {
	return NewDate(d.Year(), time.January, 1)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON shadows the promoted time.Time encoding.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	return d.UnmarshalText([]byte(strings.Trim(string(b), `"`)))
}

func ParseTxType(s string) (TxType, error) {
	switch t := TxType(strings.ToLower(strings.TrimSpace(s))); t {
	case Income, Expense:
		return t, nil
	}
	return "", ErrInvalidType
}

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case Monthly, Yearly:
		return p, nil
	}
	return "", ErrInvalidPeriod
}

// Actor returns the identity used for access checks.
func (u User) Actor() Actor {
	return Actor{ID: u.ID, OrgID: u.OrgID, Role: u.Role}
}

// DefaultCategories are seeded into a freshly registered organisation.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Salary", Type: Income},
		{Name: "Bonus", Type: Income},
		{Name: "Food", Type: Expense},
		{Name: "Rent", Type: Expense},
		{Name: "Transport", Type: Expense},
	}
}

// DefaultAccount is seeded alongside DefaultCategories.
func DefaultAccount() Account {
	return Account{Name: "Cash", Type: DefaultAccountType, Currency: DefaultAccountCurrency}
}

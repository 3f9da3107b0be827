package services

import (
	"context"
	"errors"
	"sort"
	"sync"

	"ledger/internal/core"
	"ledger/internal/query"
)

// memStore is an in-memory Store that evaluates filters with query.Filter.Match.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	orgs       []core.Organization
	users      []core.User
	accounts   []core.Account
	categories []core.Category
	txs        []core.Transaction
	budgets    []core.Budget
	audits     []core.AuditLog

	listCategoryCalls int
}

func newMemStore() *memStore { return &memStore{} }

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func hasOrg(f query.Filter) bool {
	for _, p := range f {
		if _, ok := p.(query.OrgEq); ok {
			return true
		}
	}
	return false
}

var errUnscoped = errors.New("unscoped")

func (m *memStore) RegisterFirstUser(_ context.Context, orgName string, admin core.User, cats []core.Category, acct core.Account) (core.Organization, core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.users) > 0 {
		return core.Organization{}, core.User{}, core.ErrRegistrationClosed
	}
	org := core.Organization{ID: m.id(), Name: orgName}
	m.orgs = append(m.orgs, org)
	admin.ID, admin.OrgID = m.id(), org.ID
	m.users = append(m.users, admin)
	for _, c := range cats {
		c.ID, c.OrgID = m.id(), org.ID
		m.categories = append(m.categories, c)
	}
	acct.ID, acct.OrgID = m.id(), org.ID
	m.accounts = append(m.accounts, acct)
	return org, admin, nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (m *memStore) UserByID(_ context.Context, id int64) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

func (m *memStore) CreateUser(_ context.Context, u core.User) (core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.users {
		if e.OrgID == u.OrgID && e.Email == u.Email {
			return core.User{}, core.ErrConflict
		}
	}
	u.ID = m.id()
	m.users = append(m.users, u)
	return u, nil
}

func (m *memStore) ListUsers(_ context.Context, orgID int64) ([]core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.User
	for _, u := range m.users {
		if u.OrgID == orgID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memStore) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.id()
	m.accounts = append(m.accounts, a)
	return a, nil
}

func (m *memStore) ListAccounts(_ context.Context, orgID int64) ([]core.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Account
	for _, a := range m.accounts {
		if a.OrgID == orgID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) AccountByID(_ context.Context, orgID, id int64) (core.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.OrgID == orgID && a.ID == id {
			return a, nil
		}
	}
	return core.Account{}, core.ErrNotFound
}

func (m *memStore) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.id()
	m.categories = append(m.categories, c)
	return c, nil
}

func (m *memStore) ListCategories(_ context.Context, orgID int64) ([]core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCategoryCalls++
	var out []core.Category
	for _, c := range m.categories {
		if c.OrgID == orgID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) CategoryByID(_ context.Context, orgID, id int64) (core.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.OrgID == orgID && c.ID == id {
			return c, nil
		}
	}
	return core.Category{}, core.ErrNotFound
}

func (m *memStore) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.id()
	m.txs = append(m.txs, t)
	return t, nil
}

func (m *memStore) matching(f query.Filter) []core.Transaction {
	var out []core.Transaction
	for _, t := range m.txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt.Time) {
			return out[i].OccurredAt.After(out[j].OccurredAt.Time)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memStore) name(id int64) string {
	for _, c := range m.categories {
		if c.ID == id {
			return c.Name
		}
	}
	for _, a := range m.accounts {
		if a.ID == id {
			return a.Name
		}
	}
	for _, u := range m.users {
		if u.ID == id {
			return u.Name
		}
	}
	return ""
}

func (m *memStore) FindTransactions(_ context.Context, f query.Filter, limit int) ([]core.TransactionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !hasOrg(f) {
		return nil, errUnscoped
	}
	txs := m.matching(f)
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	out := make([]core.TransactionView, 0, len(txs))
	for _, t := range txs {
		out = append(out, core.TransactionView{
			Transaction:  t,
			CategoryName: m.name(t.CategoryID),
			AccountName:  m.name(t.AccountID),
			UserName:     m.name(t.UserID),
		})
	}
	return out, nil
}

func (m *memStore) SumTotals(_ context.Context, f query.Filter) (core.Totals, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !hasOrg(f) {
		return core.Totals{}, errUnscoped
	}
	return f.Sum(m.txs), nil
}

func (m *memStore) SumAmount(_ context.Context, f query.Filter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !hasOrg(f) {
		return 0, errUnscoped
	}
	var total int64
	for _, t := range m.matching(f) {
		total += t.AmountCents
	}
	return total, nil
}

func (m *memStore) CategoryTotals(_ context.Context, f query.Filter) ([]core.CategoryTotal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !hasOrg(f) {
		return nil, errUnscoped
	}
	sums := map[string]int64{}
	for _, t := range m.matching(f) {
		sums[m.name(t.CategoryID)] += t.AmountCents
	}
	var out []core.CategoryTotal
	for name, total := range sums {
		out = append(out, core.CategoryTotal{Name: name, TotalCents: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalCents != out[j].TotalCents {
			return out[i].TotalCents > out[j].TotalCents
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *memStore) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.id()
	m.budgets = append(m.budgets, b)
	return b, nil
}

func (m *memStore) ListBudgets(_ context.Context, orgID int64) ([]core.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Budget
	for i := len(m.budgets) - 1; i >= 0; i-- {
		if m.budgets[i].OrgID == orgID {
			out = append(out, m.budgets[i])
		}
	}
	return out, nil
}

func (m *memStore) AppendAudit(_ context.Context, a core.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append(m.audits, a)
	return nil
}

func (m *memStore) auditCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.audits)
}

// plainHasher stands in for bcrypt.
type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "hashed:" + p, nil }
func (plainHasher) Verify(h, p string) bool       { return h == "hashed:"+p }

type fixture struct {
	store    *memStore
	org      int64
	admin    core.Actor
	member   core.Actor
	reader   core.Actor
	food     int64
	rent     int64
	salary   int64
	cash     int64
	otherOrg core.Actor
	otherCat int64
	otherAcc int64
}

func newFixture() *fixture {
	s := newMemStore()
	ctx := context.Background()
	org, admin, _ := s.RegisterFirstUser(ctx, "Acme",
		core.User{Name: "Ada", Email: "ada@acme.test", PasswordHash: "hashed:pw", Role: core.RoleAdmin},
		core.DefaultCategories(), core.DefaultAccount())
	member, _ := s.CreateUser(ctx, core.User{OrgID: org.ID, Name: "Bob", Email: "bob@acme.test", Role: core.RoleUser})
	reader, _ := s.CreateUser(ctx, core.User{OrgID: org.ID, Name: "Rae", Email: "rae@acme.test", Role: core.RoleReadonly})

	f := &fixture{store: s, org: org.ID, admin: admin.Actor(), member: member.Actor(), reader: reader.Actor()}
	for _, c := range s.categories {
		switch c.Name {
		case "Food":
			f.food = c.ID
		case "Rent":
			f.rent = c.ID
		case "Salary":
			f.salary = c.ID
		}
	}
	f.cash = s.accounts[0].ID

	other := core.Organization{ID: s.id(), Name: "Other"}
	s.orgs = append(s.orgs, other)
	ou, _ := s.CreateUser(ctx, core.User{OrgID: other.ID, Name: "Olga", Email: "olga@other.test", Role: core.RoleAdmin})
	f.otherOrg = ou.Actor()
	oc, _ := s.CreateCategory(ctx, core.Category{OrgID: other.ID, Name: "Food", Type: core.Expense})
	oa, _ := s.CreateAccount(ctx, core.Account{OrgID: other.ID, Name: "Cash"})
	f.otherCat, f.otherAcc = oc.ID, oa.ID
	return f
}

// seed inserts a transaction directly, bypassing validation.
func (f *fixture) seed(a core.Actor, typ core.TxType, cents int64, day string, category int64, note, tags string) core.Transaction {
	d, err := core.ParseDate(day)
	if err != nil {
		panic(err)
	}
	acct := f.cash
	if a.OrgID != f.org {
		acct = f.otherAcc
	}
	t, _ := f.store.CreateTransaction(context.Background(), core.Transaction{
		OrgID: a.OrgID, UserID: a.ID, AccountID: acct, CategoryID: category,
		AmountCents: cents, Type: typ, OccurredAt: d, Note: note, Tags: tags,
	})
	return t
}

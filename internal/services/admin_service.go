package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"ledger/internal/cache"
	"ledger/internal/core"
)

// Lookups are the choices offered by transaction forms and filters.
type Lookups struct {
	Categories []core.Category `json:"categories"`
	Accounts   []core.Account  `json:"accounts"`
}

type AccountInput struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Currency string `json:"currency"`
}

type CategoryInput struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ParentID *int64 `json:"parent_id"`
}

type UserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type adminStore interface {
	UserStore
	LookupStore
}

// AdminService manages the organisation's accounts, categories and users.
// Lookups are readable by every role; everything else is admin only.
type AdminService struct {
	store   adminStore
	hasher  PasswordHasher
	audit   AuditSink
	lookups *cache.Loader[Lookups]
}

// NewAdminService builds the service. lookups may be nil to disable caching.
func NewAdminService(store adminStore, hasher PasswordHasher, audit AuditSink, lookups *cache.Loader[Lookups]) *AdminService {
	return &AdminService{store: store, hasher: hasher, audit: audit, lookups: lookups}
}

func lookupsKey(orgID int64) string {
	return "lookups:" + strconv.FormatInt(orgID, 10)
}

func (s *AdminService) Lookups(ctx context.Context, a core.Actor) (Lookups, error) {
	load := func(ctx context.Context) (Lookups, error) {
		return s.loadLookups(ctx, a.OrgID)
	}
	if s.lookups == nil {
		return load(ctx)
	}
	return s.lookups.GetOrLoad(ctx, lookupsKey(a.OrgID), load)
}

func (s *AdminService) loadLookups(ctx context.Context, orgID int64) (Lookups, error) {
	cats, err := s.store.ListCategories(ctx, orgID)
	if err != nil {
		return Lookups{}, err
	}
	accts, err := s.store.ListAccounts(ctx, orgID)
	if err != nil {
		return Lookups{}, err
	}
	return Lookups{Categories: cats, Accounts: accts}, nil
}

func (s *AdminService) invalidateLookups(orgID int64) {
	if s.lookups != nil {
		s.lookups.Invalidate(lookupsKey(orgID))
	}
}

func (s *AdminService) ListAccounts(ctx context.Context, a core.Actor) ([]core.Account, error) {
	if err := core.RequireRole(a, core.ManageRoles...); err != nil {
		return nil, err
	}
	return s.store.ListAccounts(ctx, a.OrgID)
}

func (s *AdminService) CreateAccount(ctx context.Context, a core.Actor, in AccountInput) (core.Account, error) {
	if err := core.RequireRole(a, core.ManageRoles...); err != nil {
		return core.Account{}, err
	}
	acct := core.Account{
		OrgID:    a.OrgID,
		Name:     strings.TrimSpace(in.Name),
		Type:     strings.TrimSpace(in.Type),
		Currency: strings.TrimSpace(in.Currency),
	}
	if acct.Name == "" {
		return core.Account{}, fmt.Errorf("%w: name", core.ErrMissingField)
	}
	if acct.Type == "" {
		acct.Type = core.DefaultAccountType
	}
	if acct.Currency == "" {
		acct.Currency = core.DefaultAccountCurrency
	}

	created, err := s.store.CreateAccount(ctx, acct)
	if err != nil {
		return core.Account{}, err
	}
	s.invalidateLookups(a.OrgID)
	recordCreate(ctx, s.audit, a, EntityAccount, created.ID)
	return created, nil
}

func (s *AdminService) ListCategories(ctx context.Context, a core.Actor) ([]core.Category, error) {
	if err := core.RequireRole(a, core.ManageRoles...); err != nil {
		return nil, err
	}
	return s.store.ListCategories(ctx, a.OrgID)
}

func (s *AdminService) CreateCategory(ctx context.Context, a core.Actor, in CategoryInput) (core.Category, error) {
	if err := core.RequireRole(a, core.ManageRoles...); err != nil {
		return core.Category{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return core.Category{}, fmt.Errorf("%w: name", core.ErrMissingField)
	}
	typ, err := core.ParseTxType(in.Type)
	if err != nil {
		return core.Category{}, err
	}
	if in.ParentID != nil {
		if _, err := s.store.CategoryByID(ctx, a.OrgID, *in.ParentID); err != nil {
			return core.Category{}, fmt.Errorf("parent category: %w", err)
		}
	}

	created, err := s.store.CreateCategory(ctx, core.Category{
		OrgID:    a.OrgID,
		Name:     name,
		Type:     typ,
		ParentID: in.ParentID,
	})
	if err != nil {
		return core.Category{}, err
	}
	s.invalidateLookups(a.OrgID)
	recordCreate(ctx, s.audit, a, EntityCategory, created.ID)
	return created, nil
}

func (s *AdminService) ListUsers(ctx context.Context, a core.Actor) ([]core.User, error) {
	if err := core.RequireRole(a, core.ManageRoles...); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx, a.OrgID)
}

func (s *AdminService) CreateUser(ctx context.Context, a core.Actor, in UserInput) (core.User, error) {
	if err := core.RequireRole(a, core.ManageRoles...); err != nil {
		return core.User{}, err
	}
	name, email := strings.TrimSpace(in.Name), strings.TrimSpace(in.Email)
	if err := requireFields(map[string]string{"name": name, "email": email, "password": in.Password}); err != nil {
		return core.User{}, err
	}
	role, err := core.ParseRole(in.Role)
	if err != nil {
		return core.User{}, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return core.User{}, err
	}

	created, err := s.store.CreateUser(ctx, core.User{
		OrgID:        a.OrgID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       core.StatusActive,
	})
	if err != nil {
		return core.User{}, err
	}
	recordCreate(ctx, s.audit, a, EntityUser, created.ID)
	return created, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"ledger/internal/core"
)

type RegisterInput struct {
	OrgName  string `json:"org_name"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthService owns registration, login and identity resolution.
type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	audit  AuditSink
}

func NewAuthService(users UserStore, hasher PasswordHasher, audit AuditSink) *AuthService {
	return &AuthService{users: users, hasher: hasher, audit: audit}
}

// Register bootstraps the first organisation and its admin. It is refused
// once any user exists.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (core.User, error) {
	in.OrgName = strings.TrimSpace(in.OrgName)
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := requireFields(map[string]string{
		"org_name": in.OrgName,
		"name":     in.Name,
		"email":    in.Email,
		"password": in.Password,
	}); err != nil {
		return core.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return core.User{}, err
	}

	admin := core.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         core.RoleAdmin,
		Status:       core.StatusActive,
	}
	org, user, err := s.users.RegisterFirstUser(ctx, in.OrgName, admin, core.DefaultCategories(), core.DefaultAccount())
	if err != nil {
		return core.User{}, err
	}

	actor := user.Actor()
	recordCreate(ctx, s.audit, actor, EntityOrganization, org.ID)
	recordCreate(ctx, s.audit, actor, EntityUser, user.ID)
	return user, nil
}

// Login returns the user matching the credentials. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (core.User, error) {
	u, err := s.users.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, fmt.Errorf("login: %w", err)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		return core.User{}, core.ErrInvalidCredentials
	}
	return u, nil
}

// Authenticate reloads the session's user so role changes apply immediately.
func (s *AuthService) Authenticate(ctx context.Context, userID int64) (core.User, error) {
	u, err := s.users.UserByID(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.User{}, core.ErrUnauthenticated
	}
	if err != nil {
		return core.User{}, fmt.Errorf("load session user: %w", err)
	}
	return u, nil
}

// requireFields names every empty field, sorted.
func requireFields(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%w: %s", core.ErrMissingField, strings.Join(missing, ", "))
}

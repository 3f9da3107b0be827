package http

import (
	"net/http"

	"ledger/internal/services"
)

func (s *Server) handleLookups(w http.ResponseWriter, r *http.Request) {
	l, err := s.deps.Admin.Lookups(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(l).Write(w)
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.deps.Admin.ListAccounts(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(map[string]any{"accounts": nonNil(accounts)}).Write(w)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Err(); err != nil {
		writeError(w, r, err)
		return
	}
	acc, err := s.deps.Admin.CreateAccount(r.Context(), actorFrom(r), services.AccountInput{
		Name:     p.Get("name"),
		Type:     p.Get("type"),
		Currency: p.Get("currency"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(acc).Write(w)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.deps.Admin.ListCategories(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(map[string]any{"categories": nonNil(cats)}).Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Err(); err != nil {
		writeError(w, r, err)
		return
	}
	parentID, err := p.OptionalID("parent_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	cat, err := s.deps.Admin.CreateCategory(r.Context(), actorFrom(r), services.CategoryInput{
		Name:     p.Get("name"),
		Type:     p.Get("type"),
		ParentID: parentID,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(cat).Write(w)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.deps.Admin.ListUsers(r.Context(), actorFrom(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(map[string]any{"users": nonNil(users)}).Write(w)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Err(); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.deps.Admin.CreateUser(r.Context(), actorFrom(r), services.UserInput{
		Name:     p.Get("name"),
		Email:    p.Get("email"),
		Password: p.Raw("password"),
		Role:     p.Get("role"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(http.StatusCreated).Body(u).Write(w)
}

// nonNil keeps empty lists rendering as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

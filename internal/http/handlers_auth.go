package http

import (
	"net/http"

	"ledger/internal/log"
	"ledger/internal/services"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Err(); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.deps.Auth.Register(r.Context(), services.RegisterInput{
		OrgName:  p.Get("org_name"),
		Name:     p.Get("name"),
		Email:    p.Get("email"),
		Password: p.Raw("password"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.startSession(w, user); err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).Info("Organization registered", log.FieldOrgID, user.OrgID, log.FieldUserID, user.ID)
	NewJSONResponse().Status(http.StatusCreated).Body(user).Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if err := p.Err(); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := s.deps.Auth.Login(r.Context(), p.Get("email"), p.Raw("password"))
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentAuth).Warn("Login failed",
			log.NewFields().WithOperation(log.OpLogin).WithClientIP(s.clientIP.Extract(r)).ToSlice()...)
		writeError(w, r, err)
		return
	}
	if err := s.startSession(w, user); err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Body(user).Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearSession(w)
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

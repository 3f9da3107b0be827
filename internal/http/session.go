package http

import (
	"context"
	"fmt"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
)

type actorKey struct{}

func withActor(ctx context.Context, a core.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// actorFrom returns the identity placed by requireSession.
func actorFrom(r *http.Request) core.Actor {
	a, _ := r.Context().Value(actorKey{}).(core.Actor)
	return a
}

// requireSession resolves the session cookie to a stored user. The role is
// read from storage on every request, never from the token.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(s.cfg.CookieName)
		if err != nil || c.Value == "" {
			writeError(w, r, core.ErrUnauthenticated)
			return
		}
		userID, err := s.deps.Tokens.Parse(c.Value)
		if err != nil {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).Warn("Rejected session token",
				log.NewFields().WithClientIP(s.clientIP.Extract(r)).WithError(err).ToSlice()...)
			s.clearSession(w)
			writeError(w, r, fmt.Errorf("%w: session expired or invalid", core.ErrUnauthenticated))
			return
		}
		user, err := s.deps.Auth.Authenticate(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}

		a := user.Actor()
		ctx := withActor(r.Context(), a)
		ctx = log.WithLogger(ctx, log.FromContext(ctx).With(
			log.NewFields().WithActor(a.OrgID, a.ID, a.Role.String()).ToSlice()...))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) startSession(w http.ResponseWriter, u core.User) error {
	token, err := s.deps.Tokens.Issue(u.ID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.deps.Tokens.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/Simplici0/artisanally/internal/auth"
)

type userCtxKey struct{}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type settingsRequest struct {
	Currency string `json:"currency"`
}

type sessionView struct {
	Email    string `json:"email"`
	Currency string `json:"currency"`
}

// withUser attaches the signed-in user, if any, to the request context.
func (s *server) withUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if u, ok := s.auth.UserFromRequest(r); ok {
			r = r.WithContext(context.WithValue(r.Context(), userCtxKey{}, u))
		}
		next.ServeHTTP(w, r)
	})
}

// requireUser rejects requests without a valid session.
func (s *server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := userFrom(r); !ok {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required", Reason: "unauthenticated"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func userFrom(r *http.Request) (auth.User, bool) {
	u, ok := r.Context().Value(userCtxKey{}).(auth.User)
	return u, ok
}

// callerKey identifies who is asking, for superseding their older analyses.
func callerKey(r *http.Request) string {
	if u, ok := userFrom(r); ok {
		return "user:" + strconv.FormatInt(u.ID, 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, err := s.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.log.Error("authenticate", "err", err)
		}
		s.writeError(w, r, err)
		return
	}

	s.auth.SetSessionCookie(w, u.Email)
	writeJSON(w, http.StatusOK, sessionView{Email: u.Email, Currency: u.Currency})
}

func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleSession(w http.ResponseWriter, r *http.Request) {
	u, _ := userFrom(r)
	writeJSON(w, http.StatusOK, sessionView{Email: u.Email, Currency: u.Currency})
}

func (s *server) handleSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, _ := userFrom(r)
	updated, err := s.auth.SetCurrency(r.Context(), u.ID, req.Currency)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView{Email: updated.Email, Currency: updated.Currency})
}

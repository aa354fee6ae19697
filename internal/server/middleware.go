package server

import (
	"net/http"

	"blog/internal/authz"
	"blog/internal/models"
)

type guardedHandler func(http.ResponseWriter, *http.Request, *models.User)

// caller resolves the request's session cookie to a user. Anything short of
// a live session bound to an existing user is an anonymous caller.
func (s *Server) caller(r *http.Request) *models.User {
	cookie, err := r.Cookie(s.CookieName)
	if err != nil {
		return nil
	}
	userID, ok := s.sessions.Resolve(cookie.Value)
	if !ok {
		return nil
	}
	user, err := s.registry.ByID(r.Context(), userID)
	if err != nil {
		return nil
	}
	return user
}

// requireAdmin guards the post mutation routes. Non-admins get a terminal
// 403 whether or not they are signed in; the login page would not help
// them.
func (s *Server) requireAdmin(next guardedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := s.caller(r)
		switch authz.PostMutation(caller) {
		case authz.Allowed:
			next(w, r, caller)
		case authz.RedirectToLogin:
			s.setFlash(w, "Please log in first.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		default:
			http.Error(w, "forbidden", http.StatusForbidden)
		}
	}
}

// requireCommenter guards comment submission. Anonymous visitors are sent
// to the login page with a hint; signing in is all they are missing.
func (s *Server) requireCommenter(next guardedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller := s.caller(r)
		switch authz.Commenting(caller) {
		case authz.Allowed:
			next(w, r, caller)
		case authz.RedirectToLogin:
			s.setFlash(w, "Please log in to submit comments.")
			http.Redirect(w, r, "/login", http.StatusSeeOther)
		default:
			http.Error(w, "forbidden", http.StatusForbidden)
		}
	}
}

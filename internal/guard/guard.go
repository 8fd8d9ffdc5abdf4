// Package guard gates pages behind a minimum role. Guards check the
// session's acting role, never the stored role, and present an in-place
// fallback page instead of redirecting.
package guard

import (
	"log/slog"
	"net/http"

	"github.com/escolaweb/escolaweb/internal/roles"
	"github.com/escolaweb/escolaweb/internal/shared"
	"github.com/escolaweb/escolaweb/internal/view"
)

// State is the outcome of evaluating a guard against a session.
type State int

const (
	// Loading means session resolution has not run for this request.
	Loading State = iota
	// Unauthenticated means there is no signed-in user.
	Unauthenticated
	// Unauthorized means the acting role ranks below the requirement.
	Unauthorized
	// Authorized means the guarded content may be served.
	Authorized
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Unauthorized:
		return "unauthorized"
	case Authorized:
		return "authorized"
	}
	return "unknown"
}

// Evaluate computes the guard state for a resolved session. It is a pure
// function so authorization decisions can be tested without HTTP plumbing.
func Evaluate(sess *shared.Session, required roles.Role) State {
	if sess == nil {
		return Loading
	}
	claims := sess.Claims()
	if !claims.Authenticated() {
		return Unauthenticated
	}
	if !roles.HasPermission(claims.ActingRole, required) {
		return Unauthorized
	}
	return Authorized
}

// Middleware renders guard fallbacks through the shared template engine.
type Middleware struct {
	Logger    *slog.Logger
	Templates *view.Engine
	CSRF      *shared.CSRFManager
}

// Require blocks the wrapped handler unless the session's acting role ranks
// at or above required. Unauthenticated and unauthorized requests get
// distinct fallback pages.
func (m Middleware) Require(required roles.Role) func(http.Handler) http.Handler {
	return m.RequireWithFallback(required, nil, nil)
}

// RequireWithFallback is Require with caller-supplied fallback handlers.
// A nil fallback keeps the default page for that state.
func (m Middleware) RequireWithFallback(required roles.Role, unauthenticated, unauthorized http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := shared.SessionFromContext(r.Context())
			switch state := Evaluate(sess, required); state {
			case Authorized:
				next.ServeHTTP(w, r)
			case Loading:
				// Session middleware missing from the chain; treat as
				// unauthenticated but make the misconfiguration visible.
				if m.Logger != nil {
					m.Logger.Error("guard evaluated without session middleware", slog.String("path", r.URL.Path))
				}
				fallthrough
			case Unauthenticated:
				if unauthenticated != nil {
					unauthenticated.ServeHTTP(w, r)
					return
				}
				m.renderFallback(w, r, "pages/guard_unauthenticated.html", http.StatusUnauthorized, nil)
			case Unauthorized:
				if unauthorized != nil {
					unauthorized.ServeHTTP(w, r)
					return
				}
				claims := sess.Claims()
				m.renderFallback(w, r, "pages/guard_forbidden.html", http.StatusForbidden, map[string]any{
					"ActingRole":   claims.ActingRole.String(),
					"RequiredRole": required.String(),
				})
			}
		})
	}
}

func (m Middleware) renderFallback(w http.ResponseWriter, r *http.Request, template string, status int, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken := ""
	if m.CSRF != nil && sess != nil {
		csrfToken, _ = m.CSRF.EnsureToken(r.Context(), sess)
	}
	viewData := view.TemplateData{
		Title:       "Acesso restrito",
		CSRFToken:   csrfToken,
		CurrentPath: r.URL.Path,
		User:        shared.ClaimsFromContext(r.Context()),
		Data:        data,
	}
	if m.Templates == nil {
		w.WriteHeader(status)
		return
	}
	if err := m.Templates.RenderStatus(w, status, template, viewData); err != nil && m.Logger != nil {
		m.Logger.Error("render guard fallback", slog.Any("error", err))
	}
}

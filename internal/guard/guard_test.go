package guard_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/escolaweb/escolaweb/internal/guard"
	"github.com/escolaweb/escolaweb/internal/roles"
	"github.com/escolaweb/escolaweb/internal/shared"
	"github.com/escolaweb/escolaweb/internal/view"
	_ "github.com/escolaweb/escolaweb/testing"
)

func newSession(t *testing.T) *shared.Session {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := manager.Load(context.Background(), req)
	require.NoError(t, err)
	return sess
}

func claimsFor(actual, acting roles.Role) shared.Claims {
	return shared.Claims{CPF: "12345678901", ActualRole: actual, ActingRole: acting, Nome: "Teste"}
}

func TestEvaluateStates(t *testing.T) {
	require.Equal(t, guard.Loading, guard.Evaluate(nil, roles.Professor))

	anon := newSession(t)
	require.Equal(t, guard.Unauthenticated, guard.Evaluate(anon, roles.Professor))

	low := newSession(t)
	low.SetClaims(claimsFor(roles.Aluno, roles.Aluno))
	require.Equal(t, guard.Unauthorized, guard.Evaluate(low, roles.Professor))

	ok := newSession(t)
	ok.SetClaims(claimsFor(roles.Coordenador, roles.Coordenador))
	require.Equal(t, guard.Authorized, guard.Evaluate(ok, roles.Professor))
}

func TestEvaluateUsesActingRoleNotActualRole(t *testing.T) {
	// Admin acting as Coordenador passes Professor-level guards but is
	// blocked by Admin-level guards.
	sess := newSession(t)
	sess.SetClaims(claimsFor(roles.Admin, roles.Coordenador))

	require.Equal(t, guard.Authorized, guard.Evaluate(sess, roles.Professor))
	require.Equal(t, guard.Unauthorized, guard.Evaluate(sess, roles.Admin))
}

func serveGuarded(t *testing.T, sess *shared.Session, required roles.Role) *httptest.ResponseRecorder {
	t.Helper()
	templates, err := view.NewEngine()
	require.NoError(t, err)
	mw := guard.Middleware{Templates: templates, CSRF: shared.NewCSRFManager("csrfsecret")}
	handler := mw.Require(required)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("conteudo protegido"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/aulas", nil)
	if sess != nil {
		req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	}
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestGuardFallbacksAreDistinguishable(t *testing.T) {
	anon := serveGuarded(t, newSession(t), roles.Professor)
	require.Equal(t, http.StatusUnauthorized, anon.Code)
	require.Contains(t, anon.Body.String(), "Fazer login")
	require.NotContains(t, anon.Body.String(), "conteudo protegido")

	low := newSession(t)
	low.SetClaims(claimsFor(roles.Aluno, roles.Aluno))
	blocked := serveGuarded(t, low, roles.Professor)
	require.Equal(t, http.StatusForbidden, blocked.Code)
	require.Contains(t, blocked.Body.String(), "aluno")
	require.Contains(t, blocked.Body.String(), "professor")
	require.NotContains(t, blocked.Body.String(), "Fazer login")
	require.NotContains(t, blocked.Body.String(), "conteudo protegido")
}

func TestGuardServesAuthorizedContent(t *testing.T) {
	sess := newSession(t)
	sess.SetClaims(claimsFor(roles.Professor, roles.Professor))
	res := serveGuarded(t, sess, roles.Professor)
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, res.Body.String(), "conteudo protegido")
}

func TestGuardCustomFallback(t *testing.T) {
	templates, err := view.NewEngine()
	require.NoError(t, err)
	mw := guard.Middleware{Templates: templates}
	custom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := mw.RequireWithFallback(roles.Admin, nil, custom)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	sess := newSession(t)
	sess.SetClaims(claimsFor(roles.Professor, roles.Professor))
	req := httptest.NewRequest(http.MethodGet, "/", nil).
		WithContext(shared.ContextWithSession(context.Background(), sess))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	require.Equal(t, http.StatusTeapot, res.Code)
}

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/escolaweb/escolaweb/internal/roles"
	"github.com/escolaweb/escolaweb/internal/shared"
)

type ownerStub struct {
	byPath map[string]int64
}

func (s ownerStub) AttachmentOwner(_ context.Context, publicPath string) (int64, error) {
	id, ok := s.byPath[publicPath]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return id, nil
}

func uploadRequest(t *testing.T, path string, claims *shared.Claims) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	sess := &shared.Session{}
	if claims != nil {
		sess.SetClaims(*claims)
	}
	return req.WithContext(shared.ContextWithSession(req.Context(), sess))
}

func TestAttachmentGateByOwnership(t *testing.T) {
	owners := ownerStub{byPath: map[string]int64{"/uploads/doc.pdf": 7}}
	served := false
	gate := attachmentGate(nil, owners, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served = true
	}))

	cases := []struct {
		name   string
		path   string
		claims *shared.Claims
		allow  bool
	}{
		{"owner fetches own file", "/uploads/doc.pdf", &shared.Claims{CPF: "1", ActualRole: roles.Aluno, ActingRole: roles.Aluno, ProfileID: 7}, true},
		{"other aluno denied", "/uploads/doc.pdf", &shared.Claims{CPF: "2", ActualRole: roles.Aluno, ActingRole: roles.Aluno, ProfileID: 8}, false},
		{"professor denied", "/uploads/doc.pdf", &shared.Claims{CPF: "3", ActualRole: roles.Professor, ActingRole: roles.Professor, ProfileID: 7}, false},
		{"coordenador allowed", "/uploads/doc.pdf", &shared.Claims{CPF: "4", ActualRole: roles.Coordenador, ActingRole: roles.Coordenador}, true},
		{"admin acting professor denied", "/uploads/doc.pdf", &shared.Claims{CPF: "5", ActualRole: roles.Admin, ActingRole: roles.Professor}, false},
		{"unknown file denied", "/uploads/other.pdf", &shared.Claims{CPF: "1", ActualRole: roles.Aluno, ActingRole: roles.Aluno, ProfileID: 7}, false},
		{"no claims denied", "/uploads/doc.pdf", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			served = false
			res := httptest.NewRecorder()
			gate.ServeHTTP(res, uploadRequest(t, tc.path, tc.claims))
			assert.Equal(t, tc.allow, served)
			if !tc.allow {
				assert.Equal(t, http.StatusNotFound, res.Code)
			}
		})
	}
}

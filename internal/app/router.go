package app

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/escolaweb/escolaweb/internal/alunos"
	"github.com/escolaweb/escolaweb/internal/atestados"
	"github.com/escolaweb/escolaweb/internal/aulas"
	"github.com/escolaweb/escolaweb/internal/auth"
	"github.com/escolaweb/escolaweb/internal/crud"
	"github.com/escolaweb/escolaweb/internal/dashboard"
	"github.com/escolaweb/escolaweb/internal/guard"
	"github.com/escolaweb/escolaweb/internal/notas"
	"github.com/escolaweb/escolaweb/internal/precadastro"
	"github.com/escolaweb/escolaweb/internal/professores"
	"github.com/escolaweb/escolaweb/internal/roles"
	"github.com/escolaweb/escolaweb/internal/shared"
	"github.com/escolaweb/escolaweb/internal/view"
	"github.com/escolaweb/escolaweb/jobs"
	"github.com/escolaweb/escolaweb/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Guard          guard.Middleware

	AuthHandler        *auth.Handler
	DashboardHandler   *dashboard.Handler
	AlunosHandler      *alunos.Handler
	ProfessoresHandler *professores.Handler
	AulasHandler       *aulas.Handler
	NotasHandler       *notas.Handler
	AtestadosHandler   *atestados.Handler
	PreCadastroHandler *precadastro.Handler
	CRUDHandler        *crud.Handler
	JobHandler         *jobs.Handler

	// AttachmentOwners maps an upload's public path to the aluno owning it.
	AttachmentOwners AttachmentOwners
}

// AttachmentOwners is satisfied by the atestados service.
type AttachmentOwners interface {
	AttachmentOwner(ctx context.Context, publicPath string) (int64, error)
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Landing page for unauthenticated visitors.
	r.Get("/bemvindo", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:     "EscolaWeb",
			CSRFToken: csrfToken,
			Flash:     flash,
		}
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		claims := shared.ClaimsFromContext(r.Context())
		if !claims.Authenticated() {
			http.Redirect(w, r, "/bemvindo", http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/inicio", http.StatusSeeOther)
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/inicio", params.DashboardHandler.MountRoutes)
	r.Route("/alunos", params.AlunosHandler.MountRoutes)
	r.Route("/professores", params.ProfessoresHandler.MountRoutes)
	r.Route("/aulas", params.AulasHandler.MountRoutes)
	r.Route("/notas", params.NotasHandler.MountRoutes)
	r.Route("/atestados", params.AtestadosHandler.MountRoutes)
	r.Route("/precadastro", params.PreCadastroHandler.MountRoutes)

	// Generic data API, admin only.
	r.Route("/api", func(r chi.Router) {
		r.Use(params.Guard.Require(roles.Admin))
		params.CRUDHandler.MountRoutes(r)
	})

	if params.JobHandler != nil {
		r.Route("/jobs", func(r chi.Router) {
			r.Use(params.Guard.Require(roles.Admin))
			params.JobHandler.MountRoutes(r)
		})
	}

	// Uploaded atestado attachments. Coordenador and above see everything;
	// a student only the files attached to their own atestados.
	if params.Config != nil && params.Config.UploadDir != "" {
		uploadServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(params.Config.UploadDir)))
		r.Group(func(r chi.Router) {
			r.Use(params.Guard.Require(roles.Aluno))
			r.Handle("/uploads/*", attachmentGate(params.Logger, params.AttachmentOwners, uploadServer))
		})
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// attachmentGate denies upload fetches unless the acting role is
// Coordenador or above, or the signed-in aluno owns the attachment. Denials
// answer 404 so unauthorized probes cannot confirm a file exists.
func attachmentGate(logger *slog.Logger, owners AttachmentOwners, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := shared.ClaimsFromContext(r.Context())
		if claims == nil {
			http.NotFound(w, r)
			return
		}
		if roles.HasPermission(claims.ActingRole, roles.Coordenador) {
			next.ServeHTTP(w, r)
			return
		}
		// ProfileID namespaces differ per role; ownership only applies to
		// an acting aluno.
		if claims.ActingRole != roles.Aluno || owners == nil {
			http.NotFound(w, r)
			return
		}
		ownerID, err := owners.AttachmentOwner(r.Context(), r.URL.Path)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) && logger != nil {
				logger.Error("resolve attachment owner", slog.Any("error", err), slog.String("path", r.URL.Path))
			}
			http.NotFound(w, r)
			return
		}
		if ownerID != claims.ProfileID {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// staticCacheHandler wraps a file server with Cache-Control headers so
// browsers keep assets for an hour.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}

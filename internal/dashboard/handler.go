package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/escolaweb/escolaweb/internal/guard"
	"github.com/escolaweb/escolaweb/internal/roles"
	"github.com/escolaweb/escolaweb/internal/shared"
	"github.com/escolaweb/escolaweb/internal/view"
)

// Handler renders the signed-in home page.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     guard.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, g guard.Middleware) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, guard: g}
}

// MountRoutes registers the home route. Any signed-in role may see it.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(roles.Aluno))
		r.Get("/", h.home)
	})
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())

	pageData := map[string]any{}
	if claims != nil && roles.HasPermission(claims.ActingRole, roles.Professor) {
		stats, err := h.service.Stats(r.Context())
		if err != nil {
			h.logger.Error("load dashboard stats failed", slog.Any("error", err))
		} else {
			pageData["Stats"] = &stats
		}
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       "Início",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		User:        claims,
		Data:        pageData,
	}
	if err := h.templates.Render(w, "pages/home.html", data); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

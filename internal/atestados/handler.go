package atestados

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/escolaweb/escolaweb/internal/guard"
	"github.com/escolaweb/escolaweb/internal/roles"
	"github.com/escolaweb/escolaweb/internal/shared"
	"github.com/escolaweb/escolaweb/internal/uploads"
	"github.com/escolaweb/escolaweb/internal/view"
)

// Handler manages medical-leave pages: student submission and the
// coordination review queue.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	store     *uploads.Store
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     guard.Middleware
	maxUpload int64
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, store *uploads.Store, templates *view.Engine, csrf *shared.CSRFManager, g guard.Middleware, maxUpload int64) *Handler {
	return &Handler{logger: logger, service: service, store: store, templates: templates, csrf: csrf, guard: g, maxUpload: maxUpload}
}

// MountRoutes registers medical-leave routes. Students file and follow
// their own atestados; coordinators decide on them.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(roles.Aluno))
		r.Get("/", h.listOwn)
		r.Get("/novo", h.showSubmitForm)
		r.Post("/", h.submit)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(roles.Coordenador))
		r.Get("/revisao", h.reviewQueue)
		r.Post("/{id}/aprovar", h.approve)
		r.Post("/{id}/rejeitar", h.reject)
	})
}

type formErrors map[string]string

func (h *Handler) listOwn(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	if claims == nil || claims.ProfileID <= 0 {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	list, err := h.service.ListByAluno(r.Context(), claims.ProfileID)
	if err != nil {
		h.logger.Error("list atestados failed", slog.Any("error", err))
		h.render(w, r, "pages/atestados_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/atestados_list.html", map[string]any{"Atestados": list, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) showSubmitForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/atestados_form.html", map[string]any{"Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	if claims == nil || claims.ProfileID <= 0 {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.render(w, r, "pages/atestados_form.html", map[string]any{"Errors": formErrors{"general": "Arquivo muito grande ou formulário inválido"}}, http.StatusBadRequest)
		return
	}

	errs := make(formErrors)
	inicio, err := time.Parse("2006-01-02", r.PostFormValue("inicio"))
	if err != nil {
		errs["Inicio"] = "Data inicial inválida"
	}
	fim, err := time.Parse("2006-01-02", r.PostFormValue("fim"))
	if err != nil {
		errs["Fim"] = "Data final inválida"
	}

	file, header, err := r.FormFile("arquivo")
	if err != nil {
		errs["Arquivo"] = "Anexe o atestado em PDF ou imagem"
	}
	if len(errs) > 0 {
		h.render(w, r, "pages/atestados_form.html", map[string]any{"Errors": errs}, http.StatusBadRequest)
		return
	}
	defer file.Close()

	arquivoURL, err := h.store.Save(file, header)
	if err != nil {
		status := http.StatusInternalServerError
		message := shared.UserSafeMessage(err)
		if errors.Is(err, uploads.ErrUnsupportedType) {
			status = http.StatusBadRequest
			message = "Tipo de arquivo não aceito"
		} else if errors.Is(err, uploads.ErrTooLarge) {
			status = http.StatusBadRequest
			message = "Arquivo muito grande"
		}
		h.render(w, r, "pages/atestados_form.html", map[string]any{"Errors": formErrors{"Arquivo": message}}, status)
		return
	}

	_, err = h.service.Submit(r.Context(), Atestado{
		AlunoID:    claims.ProfileID,
		Inicio:     inicio,
		Fim:        fim,
		Motivo:     r.PostFormValue("motivo"),
		ArquivoURL: arquivoURL,
	})
	if err != nil {
		h.logger.Error("submit atestado failed", slog.Any("error", err))
		if removeErr := h.store.Remove(arquivoURL); removeErr != nil {
			h.logger.Warn("remove orphan upload failed", slog.Any("error", removeErr))
		}
		h.render(w, r, "pages/atestados_form.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusBadRequest)
		return
	}
	h.redirectWithFlash(w, r, "/atestados", "success", "Atestado enviado para análise")
}

type reviewItem struct {
	Atestado
	Historico []shared.ReviewLog
}

func (h *Handler) reviewQueue(w http.ResponseWriter, r *http.Request) {
	queue, err := h.service.ListPendentes(r.Context())
	if err != nil {
		h.logger.Error("list pending atestados failed", slog.Any("error", err))
		h.render(w, r, "pages/atestados_review.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	items := make([]reviewItem, 0, len(queue))
	for _, a := range queue {
		trail, err := h.service.Historico(r.Context(), a.ID)
		if err != nil {
			h.logger.Warn("load atestado historico failed", slog.Any("error", err), slog.Int64("atestado_id", a.ID))
		}
		items = append(items, reviewItem{Atestado: a, Historico: trail})
	}
	h.render(w, r, "pages/atestados_review.html", map[string]any{"Atestados": items, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Approve, "Atestado aprovado")
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject, "Atestado rejeitado")
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64, string, string) error, successMsg string) {
	claims := shared.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulário inválido", http.StatusBadRequest)
		return
	}

	err = fn(r.Context(), id, claims.CPF, r.PostFormValue("parecer"))
	switch {
	case err == nil:
		h.redirectWithFlash(w, r, "/atestados/revisao", "success", successMsg)
	case errors.Is(err, ErrAlreadyReviewed):
		h.redirectWithFlash(w, r, "/atestados/revisao", "error", "Atestado já analisado")
	case errors.Is(err, shared.ErrNotFound):
		http.NotFound(w, r)
	default:
		h.logger.Error("decide atestado failed", slog.Any("error", err), slog.Int64("atestado_id", id))
		h.redirectWithFlash(w, r, "/atestados/revisao", "error", shared.UserSafeMessage(err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Atestados", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, User: shared.ClaimsFromContext(r.Context()), Data: data}
	if err := h.templates.RenderStatus(w, status, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

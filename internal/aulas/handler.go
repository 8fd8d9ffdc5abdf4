package aulas

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/escolaweb/escolaweb/internal/guard"
	"github.com/escolaweb/escolaweb/internal/roles"
	"github.com/escolaweb/escolaweb/internal/shared"
	"github.com/escolaweb/escolaweb/internal/view"
)

// Handler manages class-session and attendance pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	guard     guard.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager, g guard.Middleware) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf, guard: g, validator: validator.New()}
}

// MountRoutes registers class-session routes. Everything here is staff-only.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(roles.Professor))
		r.Get("/", h.list)
		r.Get("/nova", h.showCreateForm)
		r.Post("/", h.create)
		r.Get("/{id}/chamada", h.showChamada)
		r.Post("/{id}/chamada", h.registrarChamada)
	})
}

type aulaForm struct {
	Turma      string `validate:"required"`
	Disciplina string `validate:"required"`
	Data       string `validate:"required,datetime=2006-01-02"`
	Horario    string `validate:"omitempty,datetime=15:04"`
	Conteudo   string
}

type formErrors map[string]string

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	turma := r.URL.Query().Get("turma")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pagination := shared.NewPagination(page, 20, 0)

	result, total, err := h.service.List(r.Context(), turma, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("list aulas failed", slog.Any("error", err))
		h.render(w, r, "pages/aulas_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/aulas_list.html", map[string]any{
		"Aulas":      result,
		"Turma":      turma,
		"Errors":     formErrors{},
		"Pagination": shared.NewPagination(pagination.Page, pagination.PerPage, total),
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	form := aulaForm{Data: time.Now().Format("2006-01-02")}
	h.render(w, r, "pages/aulas_form.html", map[string]any{"Form": form, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	errs := make(formErrors)
	if err := r.ParseForm(); err != nil {
		errs["general"] = "Formulário inválido"
	}
	form := aulaForm{
		Turma:      r.PostFormValue("turma"),
		Disciplina: r.PostFormValue("disciplina"),
		Data:       r.PostFormValue("data"),
		Horario:    r.PostFormValue("horario"),
		Conteudo:   r.PostFormValue("conteudo"),
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	if len(errs) > 0 {
		h.render(w, r, "pages/aulas_form.html", map[string]any{"Form": form, "Errors": errs}, http.StatusBadRequest)
		return
	}

	data, _ := time.Parse("2006-01-02", form.Data)
	_, err := h.service.Create(r.Context(), Aula{
		ProfessorID: claims.ProfileID,
		Turma:       form.Turma,
		Disciplina:  form.Disciplina,
		Data:        data,
		Horario:     form.Horario,
		Conteudo:    form.Conteudo,
	})
	if err != nil {
		h.logger.Error("create aula failed", slog.Any("error", err))
		h.render(w, r, "pages/aulas_form.html", map[string]any{"Form": form, "Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.redirectWithFlash(w, r, "/aulas", "success", "Aula agendada")
}

func (h *Handler) showChamada(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	aula, entries, err := h.service.Chamada(r.Context(), id)
	if err != nil {
		h.logger.Error("load chamada failed", slog.Any("error", err), slog.Int64("aula_id", id))
		http.NotFound(w, r)
		return
	}
	h.render(w, r, "pages/presencas_form.html", map[string]any{"Aula": aula, "Entries": entries, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) registrarChamada(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Formulário inválido", http.StatusBadRequest)
		return
	}

	presentes := make(map[int64]bool)
	for key := range r.PostForm {
		if alunoID, ok := strings.CutPrefix(key, "presente_"); ok {
			if n, err := strconv.ParseInt(alunoID, 10, 64); err == nil {
				presentes[n] = true
			}
		}
	}

	err = h.service.RegistrarPresencas(r.Context(), id, r.PostFormValue("conteudo"), presentes)
	if err != nil {
		h.logger.Error("registrar presencas failed", slog.Any("error", err), slog.Int64("aula_id", id))
		aula, entries, loadErr := h.service.Chamada(r.Context(), id)
		if loadErr != nil {
			http.NotFound(w, r)
			return
		}
		h.render(w, r, "pages/presencas_form.html", map[string]any{"Aula": aula, "Entries": entries, "Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.redirectWithFlash(w, r, "/aulas", "success", "Chamada registrada")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Aulas", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, User: shared.ClaimsFromContext(r.Context()), Data: data}
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

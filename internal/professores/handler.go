package professores

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/escolaweb/escolaweb/internal/guard"
	"github.com/escolaweb/escolaweb/internal/roles"
	"github.com/escolaweb/escolaweb/internal/shared"
	"github.com/escolaweb/escolaweb/internal/view"
)

// Handler manages staff management pages.
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

// MountRoutes registers staff routes. Only coordination staff can browse
// the registry; only admins can change it.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(roles.Coordenador))
		r.Get("/", h.list)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(roles.Admin))
		r.Get("/novo", h.showCreateForm)
		r.Post("/", h.create)
		r.Get("/{id}/editar", h.showEditForm)
		r.Post("/{id}", h.update)
	})
}

type professorForm struct {
	ID         int64
	Nome       string `validate:"required,min=2"`
	Sobrenome  string
	CPF        string `validate:"required,len=11,numeric"`
	Email      string `validate:"omitempty,email"`
	Disciplina string
	Cargo      string `validate:"required,oneof=professor coordenador"`
}

type formErrors map[string]string

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("q")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pagination := shared.NewPagination(page, 20, 0)

	result, total, err := h.service.List(r.Context(), search, pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("list professores failed", slog.Any("error", err))
		h.render(w, r, "pages/professores_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/professores_list.html", map[string]any{
		"Professores": result,
		"Search":      search,
		"Errors":      formErrors{},
		"Pagination":  shared.NewPagination(pagination.Page, pagination.PerPage, total),
	}, http.StatusOK)
}

func (h *Handler) showCreateForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/professores_form.html", map[string]any{"Form": professorForm{Cargo: CargoProfessor}, "Errors": formErrors{}, "Action": "/professores"}, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	form, errs := h.parseForm(r)
	if len(errs) > 0 {
		h.render(w, r, "pages/professores_form.html", map[string]any{"Form": form, "Errors": errs, "Action": "/professores"}, http.StatusBadRequest)
		return
	}
	_, err := h.service.Create(r.Context(), Professor{
		Nome:       form.Nome,
		Sobrenome:  form.Sobrenome,
		CPF:        form.CPF,
		Email:      form.Email,
		Disciplina: form.Disciplina,
		Cargo:      form.Cargo,
	})
	if err != nil {
		h.logger.Error("create professor failed", slog.Any("error", err))
		h.render(w, r, "pages/professores_form.html", map[string]any{"Form": form, "Errors": formErrors{"general": shared.UserSafeMessage(err)}, "Action": "/professores"}, http.StatusInternalServerError)
		return
	}
	h.redirectWithFlash(w, r, "/professores", "success", "Professor cadastrado")
}

func (h *Handler) showEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	prof, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	form := professorForm{ID: prof.ID, Nome: prof.Nome, Sobrenome: prof.Sobrenome, CPF: prof.CPF, Email: prof.Email, Disciplina: prof.Disciplina, Cargo: prof.Cargo}
	h.render(w, r, "pages/professores_form.html", map[string]any{"Form": form, "Errors": formErrors{}, "Action": "/professores/" + chi.URLParam(r, "id")}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	form, errs := h.parseForm(r)
	form.ID = id
	action := "/professores/" + chi.URLParam(r, "id")
	if len(errs) > 0 {
		h.render(w, r, "pages/professores_form.html", map[string]any{"Form": form, "Errors": errs, "Action": action}, http.StatusBadRequest)
		return
	}
	err = h.service.Update(r.Context(), id, Professor{
		Nome:       form.Nome,
		Sobrenome:  form.Sobrenome,
		CPF:        form.CPF,
		Email:      form.Email,
		Disciplina: form.Disciplina,
		Cargo:      form.Cargo,
	})
	if err != nil {
		h.logger.Error("update professor failed", slog.Any("error", err))
		h.render(w, r, "pages/professores_form.html", map[string]any{"Form": form, "Errors": formErrors{"general": shared.UserSafeMessage(err)}, "Action": action}, http.StatusInternalServerError)
		return
	}
	h.redirectWithFlash(w, r, "/professores", "success", "Professor atualizado")
}

func (h *Handler) parseForm(r *http.Request) (professorForm, formErrors) {
	errs := make(formErrors)
	if err := r.ParseForm(); err != nil {
		errs["general"] = "Formulário inválido"
		return professorForm{}, errs
	}
	form := professorForm{
		Nome:       r.PostFormValue("nome"),
		Sobrenome:  r.PostFormValue("sobrenome"),
		CPF:        r.PostFormValue("cpf"),
		Email:      r.PostFormValue("email"),
		Disciplina: r.PostFormValue("disciplina"),
		Cargo:      r.PostFormValue("cargo"),
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	return form, errs
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Professores", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, User: shared.ClaimsFromContext(r.Context()), Data: data}
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

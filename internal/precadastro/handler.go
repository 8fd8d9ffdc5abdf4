package precadastro

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/escolaweb/escolaweb/internal/guard"
	"github.com/escolaweb/escolaweb/internal/roles"
	"github.com/escolaweb/escolaweb/internal/shared"
	"github.com/escolaweb/escolaweb/internal/view"
)

// Handler manages pre-enrollment pages. Submission is public; the review
// queue is staff-only.
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

// MountRoutes registers pre-enrollment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showForm)
	r.Post("/", h.submit)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(roles.Coordenador))
		r.Get("/pendentes", h.reviewQueue)
		r.Post("/{id}/aprovar", h.approve)
		r.Post("/{id}/rejeitar", h.reject)
	})
}

type preCadastroForm struct {
	Nome      string `validate:"required,min=2"`
	Sobrenome string
	CPF       string `validate:"required,len=11,numeric"`
	Email     string `validate:"omitempty,email"`
	Turma     string
}

type formErrors map[string]string

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/precadastro_form.html", map[string]any{"Form": preCadastroForm{}, "Errors": formErrors{}, "Enviado": false}, http.StatusOK)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	errs := make(formErrors)
	if err := r.ParseForm(); err != nil {
		errs["general"] = "Formulário inválido"
	}
	form := preCadastroForm{
		Nome:      r.PostFormValue("nome"),
		Sobrenome: r.PostFormValue("sobrenome"),
		CPF:       r.PostFormValue("cpf"),
		Email:     r.PostFormValue("email"),
		Turma:     r.PostFormValue("turma"),
	}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	if len(errs) > 0 {
		h.render(w, r, "pages/precadastro_form.html", map[string]any{"Form": form, "Errors": errs, "Enviado": false}, http.StatusBadRequest)
		return
	}

	_, err := h.service.Submit(r.Context(), PreCadastro{
		Nome:      form.Nome,
		Sobrenome: form.Sobrenome,
		CPF:       form.CPF,
		Email:     form.Email,
		Turma:     form.Turma,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			h.render(w, r, "pages/precadastro_form.html", map[string]any{"Form": form, "Errors": formErrors{"CPF": "Já existe uma solicitação para este CPF"}, "Enviado": false}, http.StatusConflict)
			return
		}
		h.logger.Error("submit precadastro failed", slog.Any("error", err))
		h.render(w, r, "pages/precadastro_form.html", map[string]any{"Form": form, "Errors": formErrors{"general": shared.UserSafeMessage(err)}, "Enviado": false}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/precadastro_form.html", map[string]any{"Form": preCadastroForm{}, "Errors": formErrors{}, "Enviado": true}, http.StatusOK)
}

func (h *Handler) reviewQueue(w http.ResponseWriter, r *http.Request) {
	queue, err := h.service.ListPendentes(r.Context())
	if err != nil {
		h.logger.Error("list pending precadastros failed", slog.Any("error", err))
		h.render(w, r, "pages/precadastro_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/precadastro_list.html", map[string]any{"Solicitacoes": queue, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, func(ctx context.Context, id int64, cpf, parecer string) error {
		_, err := h.service.Approve(ctx, id, cpf, parecer)
		return err
	}, "Pré-cadastro aprovado, aluno criado")
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject, "Pré-cadastro rejeitado")
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
		h.redirectWithFlash(w, r, "/precadastro/pendentes", "success", successMsg)
	case errors.Is(err, ErrAlreadyReviewed):
		h.redirectWithFlash(w, r, "/precadastro/pendentes", "error", "Solicitação já analisada")
	case errors.Is(err, shared.ErrNotFound):
		http.NotFound(w, r)
	default:
		h.logger.Error("decide precadastro failed", slog.Any("error", err), slog.Int64("precadastro_id", id))
		h.redirectWithFlash(w, r, "/precadastro/pendentes", "error", shared.UserSafeMessage(err))
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Pré-cadastro", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, User: shared.ClaimsFromContext(r.Context()), Data: data}
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

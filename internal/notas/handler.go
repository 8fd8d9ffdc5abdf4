package notas

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

// Handler manages grade pages: the student report card and the staff
// grade-launch form.
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

// MountRoutes registers grade routes. Students read their own boletim;
// professors launch grades.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(roles.Aluno))
		r.Get("/boletim", h.boletim)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(roles.Professor))
		r.Get("/lancamento", h.showLancamento)
		r.Post("/lancamento", h.lancar)
	})
}

type notaForm struct {
	AlunoID    int64   `validate:"required,gt=0"`
	Disciplina string  `validate:"required"`
	Bimestre   int     `validate:"required,min=1,max=4"`
	Valor      float64 `validate:"min=0,max=10"`
}

type formErrors map[string]string

// boletim renders the signed-in student's own report card. The aluno record
// is resolved from the session claims, never from request input.
func (h *Handler) boletim(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	if claims == nil || claims.ProfileID <= 0 {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}
	linhas, err := h.service.Boletim(r.Context(), claims.ProfileID)
	if err != nil {
		h.logger.Error("load boletim failed", slog.Any("error", err), slog.Int64("aluno_id", claims.ProfileID))
		h.render(w, r, "pages/notas_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/notas_list.html", map[string]any{"Linhas": linhas, "Errors": formErrors{}}, http.StatusOK)
}

func (h *Handler) showLancamento(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{"Form": notaForm{Bimestre: 1}, "Errors": formErrors{}}
	if alunoID, err := strconv.ParseInt(r.URL.Query().Get("aluno_id"), 10, 64); err == nil && alunoID > 0 {
		linhas, err := h.service.Boletim(r.Context(), alunoID)
		if err == nil {
			data["Form"] = notaForm{AlunoID: alunoID, Bimestre: 1}
			data["Linhas"] = linhas
		}
	}
	h.render(w, r, "pages/notas_form.html", data, http.StatusOK)
}

func (h *Handler) lancar(w http.ResponseWriter, r *http.Request) {
	claims := shared.ClaimsFromContext(r.Context())
	if claims == nil {
		http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
		return
	}

	errs := make(formErrors)
	if err := r.ParseForm(); err != nil {
		errs["general"] = "Formulário inválido"
	}
	alunoID, _ := strconv.ParseInt(r.PostFormValue("aluno_id"), 10, 64)
	bimestre, _ := strconv.Atoi(r.PostFormValue("bimestre"))
	valor, valorErr := strconv.ParseFloat(r.PostFormValue("valor"), 64)
	if valorErr != nil {
		errs["Valor"] = "Nota inválida"
	}
	form := notaForm{AlunoID: alunoID, Disciplina: r.PostFormValue("disciplina"), Bimestre: bimestre, Valor: valor}
	if err := h.validator.Struct(form); err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			errs[fieldErr.Field()] = fieldErr.Error()
		}
	}
	if len(errs) > 0 {
		h.render(w, r, "pages/notas_form.html", map[string]any{"Form": form, "Errors": errs}, http.StatusBadRequest)
		return
	}

	_, err := h.service.Lancar(r.Context(), Nota{
		AlunoID:     form.AlunoID,
		ProfessorID: claims.ProfileID,
		Disciplina:  form.Disciplina,
		Bimestre:    form.Bimestre,
		Valor:       form.Valor,
	})
	if err != nil {
		h.logger.Error("lancar nota failed", slog.Any("error", err))
		h.render(w, r, "pages/notas_form.html", map[string]any{"Form": form, "Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.redirectWithFlash(w, r, "/notas/lancamento?aluno_id="+strconv.FormatInt(form.AlunoID, 10), "success", "Nota lançada")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{Title: "Notas", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, User: shared.ClaimsFromContext(r.Context()), Data: data}
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

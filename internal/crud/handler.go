package crud

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/escolaweb/escolaweb/internal/platform/httpx"
)

// Handler exposes the dispatcher as a JSON endpoint.
type Handler struct {
	logger     *slog.Logger
	dispatcher *Dispatcher
	validator  *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, dispatcher *Dispatcher) *Handler {
	return &Handler{logger: logger, dispatcher: dispatcher, validator: validator.New()}
}

// MountRoutes registers the CRUD API on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/crud", h.handleDispatch)
}

func (h *Handler) handleDispatch(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Malformed Request", "request body is not valid JSON")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), req)
	if err != nil {
		h.respondDispatchError(w, req, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": result})
}

// respondDispatchError maps the dispatcher taxonomy onto HTTP statuses;
// anything outside it is a storage error handled by httpx.
func (h *Handler) respondDispatchError(w http.ResponseWriter, req Request, err error) {
	switch {
	case errors.Is(err, ErrModelNotFound), errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrMissingPrimaryKey), errors.Is(err, ErrMissingData), errors.Is(err, ErrMethodUnavailable), errors.Is(err, ErrUnknownColumn):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	default:
		if h.logger != nil {
			h.logger.Error("crud dispatch failed",
				slog.String("operation", string(req.Operation)),
				slog.String("table", req.Table),
				slog.Any("error", err))
		}
		httpx.RespondError(w, err)
	}
}

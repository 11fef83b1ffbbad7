package returns

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ambrevelours/av-suite/internal/auth"
	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/platform/httpx"
)

// Handler manages return endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	guard     auth.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	mappings := []httpx.Mapping{
		{Err: ErrInvalidQuantity, Status: http.StatusUnprocessableEntity, Title: "Invalid Quantity"},
		{Err: ErrValidation, Status: http.StatusBadRequest, Title: "Invalid Return"},
	}
	mappings = append(mappings, inventory.ErrorMappings()...)
	return &Handler{logger: logger, service: service, responder: httpx.NewResponder(logger, mappings...), guard: guard}
}

// MountRoutes registers return routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/returns", h.list)
	r.With(h.guard.RequireToken()).Post("/returns", h.process)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) process(w http.ResponseWriter, r *http.Request) {
	var input Return
	if err := httpx.DecodeJSON(w, r, &input); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	saved, movement, err := h.service.Process(r.Context(), input)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"return": saved, "movement": movement})
}

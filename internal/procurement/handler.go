package procurement

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ambrevelours/av-suite/internal/auth"
	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/platform/httpx"
	"github.com/ambrevelours/av-suite/internal/shared"
)

// Handler manages purchase-order endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	guard     auth.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	mappings := []httpx.Mapping{
		{Err: ErrNotFound, Status: http.StatusNotFound, Title: "Purchase Order Not Found"},
		{Err: ErrInvalidState, Status: http.StatusConflict, Title: "Invalid Purchase Order State"},
		{Err: ErrValidation, Status: http.StatusBadRequest, Title: "Invalid Purchase Order"},
		{Err: ErrDuplicateNumber, Status: http.StatusConflict, Title: "Duplicate Number"},
		{Err: shared.ErrIdempotencyConflict, Status: http.StatusConflict, Title: "Already Processed"},
	}
	mappings = append(mappings, inventory.ErrorMappings()...)
	return &Handler{logger: logger, service: service, responder: httpx.NewResponder(logger, mappings...), guard: guard}
}

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/purchase-orders", h.list)
	r.Get("/purchase-orders/{id}", h.get)
	r.Get("/purchase-orders/{id}/preview", h.preview)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireToken())
		r.Post("/purchase-orders", h.save)
		r.Put("/purchase-orders/{id}", h.save)
		r.Post("/purchase-orders/{id}/order", h.markOrdered)
		r.Post("/purchase-orders/{id}/receive", h.receive)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	pos, err := h.service.List(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, pos)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	po, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	preview, err := h.service.Preview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, preview)
}

func (h *Handler) save(w http.ResponseWriter, r *http.Request) {
	var po PurchaseOrder
	if err := httpx.DecodeJSON(w, r, &po); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		po.ID = id
		status = http.StatusOK
	}
	saved, err := h.service.SavePO(r.Context(), po)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, status, saved)
}

func (h *Handler) markOrdered(w http.ResponseWriter, r *http.Request) {
	po, err := h.service.MarkOrdered(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, po)
}

func (h *Handler) receive(w http.ResponseWriter, r *http.Request) {
	po, movements, err := h.service.Receive(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchase_order": po, "movements": movements})
}

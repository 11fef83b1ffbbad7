package masterdata

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ambrevelours/av-suite/internal/auth"
	"github.com/ambrevelours/av-suite/internal/platform/httpx"
)

// Handler manages catalog endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	guard     auth.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	responder := httpx.NewResponder(logger,
		httpx.Mapping{Err: ErrNotFound, Status: http.StatusNotFound, Title: "Not Found"},
		httpx.Mapping{Err: ErrValidation, Status: http.StatusBadRequest, Title: "Invalid Input"},
	)
	return &Handler{logger: logger, service: service, responder: responder, guard: guard}
}

// MountRoutes registers catalog routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/products", h.listProducts)
	r.Get("/products/{id}", h.getProduct)
	r.Get("/suppliers", h.listSuppliers)
	r.Get("/settings", h.getSettings)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireToken())
		r.Post("/products", h.saveProduct)
		r.Put("/products/{id}", h.saveProduct)
		r.Post("/suppliers", h.saveSupplier)
		r.Put("/suppliers/{id}", h.saveSupplier)
		r.Put("/settings", h.updateSettings)
	})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, products)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, suppliers)
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.GetSettings(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

func (h *Handler) saveProduct(w http.ResponseWriter, r *http.Request) {
	var p Product
	if err := httpx.DecodeJSON(w, r, &p); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		p.ID = id
		status = http.StatusOK
	}
	saved, err := h.service.SaveProduct(r.Context(), p)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, status, saved)
}

func (h *Handler) saveSupplier(w http.ResponseWriter, r *http.Request) {
	var s Supplier
	if err := httpx.DecodeJSON(w, r, &s); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		s.ID = id
		status = http.StatusOK
	}
	saved, err := h.service.SaveSupplier(r.Context(), s)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, status, saved)
}

func (h *Handler) updateSettings(w http.ResponseWriter, r *http.Request) {
	var s Settings
	if err := httpx.DecodeJSON(w, r, &s); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	saved, err := h.service.UpdateSettings(r.Context(), s)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

package sales

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ambrevelours/av-suite/internal/auth"
	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/platform/httpx"
)

// Handler manages order endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	guard     auth.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	mappings := []httpx.Mapping{
		{Err: ErrNotFound, Status: http.StatusNotFound, Title: "Order Not Found"},
		{Err: ErrInvalidState, Status: http.StatusConflict, Title: "Invalid Order State"},
		{Err: ErrInvalidAmount, Status: http.StatusUnprocessableEntity, Title: "Invalid Amount"},
		{Err: ErrValidation, Status: http.StatusBadRequest, Title: "Invalid Order"},
	}
	mappings = append(mappings, inventory.ErrorMappings()...)
	return &Handler{logger: logger, service: service, responder: httpx.NewResponder(logger, mappings...), guard: guard}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{id}", h.getOrder)
	r.Get("/orders/{id}/totals", h.totals)
	r.Get("/receivables", h.receivables)
	r.Get("/stats", h.stats)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireToken())
		r.Post("/orders", h.saveOrder)
		r.Put("/orders/{id}", h.saveOrder)
		r.Post("/orders/{id}/confirm", h.confirm)
		r.Post("/orders/{id}/status", h.setStatus)
		r.Post("/orders/{id}/payments", h.addPayment)
		r.Post("/credits", h.createCredit)
	})
}

type orderResponse struct {
	Order  Order  `json:"order"`
	Totals Totals `json:"totals"`
}

func respondOrder(w http.ResponseWriter, status int, o Order) {
	httpx.JSON(w, status, orderResponse{Order: o, Totals: ComputeTotals(o)})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondOrder(w, http.StatusOK, o)
}

func (h *Handler) totals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.service.Totals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, totals)
}

func (h *Handler) receivables(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Receivables(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) saveOrder(w http.ResponseWriter, r *http.Request) {
	var o Order
	if err := httpx.DecodeJSON(w, r, &o); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		o.ID = id
		status = http.StatusOK
	}
	saved, err := h.service.SaveOrder(r.Context(), o)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondOrder(w, status, saved)
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	o, movements, err := h.service.Confirm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"order": o, "totals": ComputeTotals(o), "movements": movements})
}

type statusRequest struct {
	Status OrderStatus `json:"status"`
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	o, err := h.service.SetStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondOrder(w, http.StatusOK, o)
}

type paymentRequest struct {
	Mode   string          `json:"mode"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	o, err := h.service.AddPayment(r.Context(), chi.URLParam(r, "id"), PaymentInput(req))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondOrder(w, http.StatusOK, o)
}

type creditRequest struct {
	ClientName string          `json:"client_name"`
	Date       time.Time       `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note"`
}

func (h *Handler) createCredit(w http.ResponseWriter, r *http.Request) {
	var req creditRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	o, err := h.service.CreateManualCredit(r.Context(), ManualCreditInput(req))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	respondOrder(w, http.StatusCreated, o)
}

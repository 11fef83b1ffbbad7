package inventory

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ambrevelours/av-suite/internal/auth"
	"github.com/ambrevelours/av-suite/internal/money"
	"github.com/ambrevelours/av-suite/internal/platform/httpx"
)

// RefManual tags adjustments booked by hand through the API.
const RefManual = "ADJ"

// Handler exposes the stock ledger over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	guard     auth.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	return &Handler{logger: logger, service: service, responder: httpx.NewResponder(logger, ErrorMappings()...), guard: guard}
}

// ErrorMappings lists the HTTP statuses of inventory errors.
func ErrorMappings() []httpx.Mapping {
	return []httpx.Mapping{
		{Err: ErrProductNotFound, Status: http.StatusNotFound, Title: "Product Not Found"},
		{Err: ErrInvalidQuantity, Status: http.StatusUnprocessableEntity, Title: "Invalid Quantity"},
		{Err: ErrInvalidUnitCost, Status: http.StatusUnprocessableEntity, Title: "Invalid Unit Cost"},
		{Err: ErrInsufficientStock, Status: http.StatusConflict, Title: "Insufficient Stock"},
	}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/movements", h.listMovements)
	r.Get("/stock-card/{productID}", h.stockCard)
	r.Get("/ledger/verify", h.verify)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireToken())
		r.Post("/adjustments", h.postAdjustment)
	})
}

func (h *Handler) listMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := MovementFilter{ProductID: q.Get("product_id"), Type: MovementType(q.Get("type"))}
	if limit := money.CoerceInt(q.Get("limit")); limit > 0 {
		filter.Limit = limit
	}
	for key, dst := range map[string]*time.Time{"from": &filter.From, "to": &filter.To} {
		if v := q.Get(key); v != "" {
			t, err := time.Parse(time.DateOnly, v)
			if err != nil {
				h.responder.Error(w, r, httpx.ErrBadRequest)
				return
			}
			*dst = t
		}
	}
	if !filter.To.IsZero() {
		filter.To = filter.To.Add(24*time.Hour - time.Nanosecond)
	}
	views, err := h.service.Movements(r.Context(), filter)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, views)
}

func (h *Handler) stockCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.StockCard(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, card)
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Verify(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ok": report.OK(), "over_issue": h.service.Policy(), "report": report})
}

type adjustmentRequest struct {
	ProductID string          `json:"product_id"`
	Qty       int             `json:"qty"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Ref       string          `json:"ref"`
}

func (h *Handler) postAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	if req.Ref == "" {
		req.Ref = RefManual
	}
	m, res, err := h.service.PostAdjustment(r.Context(), AdjustmentInput{ProductID: req.ProductID, Qty: req.Qty, UnitCost: req.UnitCost, Ref: req.Ref})
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"movement": m, "result": res})
}

package replenish

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ambrevelours/av-suite/internal/platform/httpx"
)

// Handler serves replenishment reports.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, responder: httpx.NewResponder(logger)}
}

// MountRoutes registers replenishment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/replenishment", h.report)
}

func (h *Handler) report(w http.ResponseWriter, r *http.Request) {
	pendingOnly := false
	if v := r.URL.Query().Get("pending"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.responder.Error(w, r, httpx.ErrBadRequest)
			return
		}
		pendingOnly = b
	}
	report, err := h.service.Shared(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	if pendingOnly {
		report.Suggestions = Pending(report.Suggestions)
	}
	httpx.JSON(w, http.StatusOK, report)
}

package crm

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ambrevelours/av-suite/internal/auth"
	"github.com/ambrevelours/av-suite/internal/platform/httpx"
)

// Handler manages lead and client endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	responder *httpx.Responder
	guard     auth.Middleware
	now       func() time.Time
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard auth.Middleware) *Handler {
	responder := httpx.NewResponder(logger,
		httpx.Mapping{Err: ErrNotFound, Status: http.StatusNotFound, Title: "Not Found"},
		httpx.Mapping{Err: ErrValidation, Status: http.StatusBadRequest, Title: "Invalid Input"},
	)
	return &Handler{logger: logger, service: service, responder: responder, guard: guard, now: time.Now}
}

// MountRoutes registers CRM routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/leads", h.listLeads)
	r.Get("/leads/due", h.leadsDue)
	r.Get("/pipeline", h.pipeline)
	r.Get("/clients", h.listClients)
	r.Group(func(r chi.Router) {
		r.Use(h.guard.RequireToken())
		r.Post("/leads", h.saveLead)
		r.Put("/leads/{id}", h.saveLead)
		r.Delete("/leads/{id}", h.deleteLead)
		r.Post("/clients", h.saveClient)
		r.Put("/clients/{id}", h.saveClient)
	})
}

func (h *Handler) listLeads(w http.ResponseWriter, r *http.Request) {
	leads, err := h.service.ListLeads(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, leads)
}

func (h *Handler) leadsDue(w http.ResponseWriter, r *http.Request) {
	today := h.now()
	if v := r.URL.Query().Get("date"); v != "" {
		t, err := time.Parse(time.DateOnly, v)
		if err != nil {
			h.responder.Error(w, r, httpx.ErrBadRequest)
			return
		}
		today = t
	}
	leads, err := h.service.LeadsDue(r.Context(), today)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, leads)
}

func (h *Handler) pipeline(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Pipeline(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.ListClients(r.Context())
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, clients)
}

func (h *Handler) saveLead(w http.ResponseWriter, r *http.Request) {
	var lead Lead
	if err := httpx.DecodeJSON(w, r, &lead); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		lead.ID = id
		status = http.StatusOK
	}
	saved, err := h.service.SaveLead(r.Context(), lead)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, status, saved)
}

func (h *Handler) deleteLead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteLead(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) saveClient(w http.ResponseWriter, r *http.Request) {
	var client Client
	if err := httpx.DecodeJSON(w, r, &client); err != nil {
		h.responder.Error(w, r, err)
		return
	}
	status := http.StatusCreated
	if id := chi.URLParam(r, "id"); id != "" {
		client.ID = id
		status = http.StatusOK
	}
	saved, err := h.service.SaveClient(r.Context(), client)
	if err != nil {
		h.responder.Error(w, r, err)
		return
	}
	httpx.JSON(w, status, saved)
}

package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/ambrevelours/av-suite/internal/crm"
	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/masterdata"
	"github.com/ambrevelours/av-suite/internal/observability"
	"github.com/ambrevelours/av-suite/internal/procurement"
	"github.com/ambrevelours/av-suite/internal/replenish"
	"github.com/ambrevelours/av-suite/internal/returns"
	"github.com/ambrevelours/av-suite/internal/sales"
	"github.com/ambrevelours/av-suite/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	MasterDataHandler  *masterdata.Handler
	InventoryHandler   *inventory.Handler
	ProcurementHandler *procurement.Handler
	SalesHandler       *sales.Handler
	ReturnsHandler     *returns.Handler
	ReplenishHandler   *replenish.Handler
	CRMHandler         *crm.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with the API defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	if params.Config == nil || !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		if params.MasterDataHandler != nil {
			params.MasterDataHandler.MountRoutes(r)
		}
		if params.InventoryHandler != nil {
			params.InventoryHandler.MountRoutes(r)
		}
		if params.ProcurementHandler != nil {
			params.ProcurementHandler.MountRoutes(r)
		}
		if params.SalesHandler != nil {
			params.SalesHandler.MountRoutes(r)
		}
		if params.ReturnsHandler != nil {
			params.ReturnsHandler.MountRoutes(r)
		}
		if params.ReplenishHandler != nil {
			params.ReplenishHandler.MountRoutes(r)
		}
		if params.CRMHandler != nil {
			params.CRMHandler.MountRoutes(r)
		}
	})
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}

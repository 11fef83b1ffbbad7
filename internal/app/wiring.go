package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ambrevelours/av-suite/internal/auth"
	"github.com/ambrevelours/av-suite/internal/crm"
	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/masterdata"
	"github.com/ambrevelours/av-suite/internal/observability"
	"github.com/ambrevelours/av-suite/internal/platform/cache"
	"github.com/ambrevelours/av-suite/internal/platform/db"
	"github.com/ambrevelours/av-suite/internal/procurement"
	"github.com/ambrevelours/av-suite/internal/replenish"
	"github.com/ambrevelours/av-suite/internal/returns"
	"github.com/ambrevelours/av-suite/internal/sales"
	"github.com/ambrevelours/av-suite/internal/shared"
	"github.com/ambrevelours/av-suite/internal/store"
	"github.com/ambrevelours/av-suite/internal/store/filestore"
	"github.com/ambrevelours/av-suite/internal/store/pgstore"
	"github.com/ambrevelours/av-suite/internal/store/redisstore"
)

// Resources holds the external connections opened for a process.
type Resources struct {
	Redis *redis.Client
	Pool  *pgxpool.Pool
}

// Close releases every open connection.
func (r *Resources) Close() {
	if r == nil {
		return
	}
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
	if r.Pool != nil {
		r.Pool.Close()
	}
}

// OpenResources connects to the backends the configured driver needs. Redis is also
// dialled for non-redis drivers so reception idempotency keys survive restarts; a
// failure there is only logged.
func OpenResources(ctx context.Context, cfg *Config, logger *slog.Logger) (*Resources, error) {
	res := &Resources{}
	if cfg.StoreDriver == DriverPostgres {
		pool, err := db.New(ctx, db.Config{DSN: cfg.PGDSN})
		if err != nil {
			return nil, err
		}
		res.Pool = pool
	}
	if cfg.RedisAddr != "" {
		client, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		switch {
		case err == nil:
			res.Redis = client
		case cfg.StoreDriver == DriverRedis:
			res.Close()
			return nil, err
		default:
			logger.Warn("redis unavailable, idempotency keys disabled", slog.Any("error", err))
		}
	} else if cfg.StoreDriver == DriverRedis {
		return nil, fmt.Errorf("app: redis driver requires REDIS_ADDR")
	}
	return res, nil
}

// NewProvider selects the snapshot provider for cfg.StoreDriver.
func NewProvider(ctx context.Context, cfg *Config, res *Resources) (store.Provider, error) {
	switch cfg.StoreDriver {
	case DriverMemory:
		return store.NewMemoryProvider(), nil
	case DriverFile:
		return filestore.New(cfg.StorePath), nil
	case DriverRedis:
		return redisstore.New(res.Redis, cfg.StoreKey), nil
	case DriverPostgres:
		p := pgstore.New(res.Pool, cfg.StoreKey)
		if err := p.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("app: unknown store driver %q", cfg.StoreDriver)
	}
}

// Services bundles every domain service built over one store.
type Services struct {
	Store       *store.Store
	MasterData  *masterdata.Service
	Inventory   *inventory.Service
	Procurement *procurement.Service
	Sales       *sales.Service
	Returns     *returns.Service
	Replenish   *replenish.Service
	CRM         *crm.Service
}

// NewServices wires the domain services over s.
func NewServices(s *store.Store, cfg *Config, logger *slog.Logger, metrics *observability.Metrics, redisClient *redis.Client) *Services {
	repos := s.Repositories()
	audit := shared.NewAuditLogger(logger)

	var idem procurement.IdempotencyPort
	if redisClient != nil {
		idem = shared.NewIdempotencyStore(redisClient, cfg.IdempotencyTTL)
	}

	inv := inventory.NewService(repos.Inventory, audit, inventory.ServiceConfig{
		OverIssue: cfg.OverIssuePolicy(),
		Metrics:   metrics,
		Logger:    logger,
	})
	return &Services{
		Store:       s,
		MasterData:  masterdata.NewService(repos.Masterdata, inv, audit),
		Inventory:   inv,
		Procurement: procurement.NewService(repos.Procurement, inv, audit, idem),
		Sales:       sales.NewService(repos.Sales, inv, audit, logger),
		Returns:     returns.NewService(repos.Returns, inv, audit),
		Replenish:   replenish.NewService(repos.Replenish),
		CRM:         crm.NewService(repos.CRM, audit),
	}
}

// NewHandlers builds RouterParams for svc.
func NewHandlers(svc *Services, cfg *Config, logger *slog.Logger, metrics *observability.Metrics) RouterParams {
	guard := auth.Middleware{Hash: cfg.APITokenHash, Logger: logger}
	return RouterParams{
		Logger:             logger,
		Config:             cfg,
		MasterDataHandler:  masterdata.NewHandler(logger, svc.MasterData, guard),
		InventoryHandler:   inventory.NewHandler(logger, svc.Inventory, guard),
		ProcurementHandler: procurement.NewHandler(logger, svc.Procurement, guard),
		SalesHandler:       sales.NewHandler(logger, svc.Sales, guard),
		ReturnsHandler:     returns.NewHandler(logger, svc.Returns, guard),
		ReplenishHandler:   replenish.NewHandler(logger, svc.Replenish),
		CRMHandler:         crm.NewHandler(logger, svc.CRM, guard),
		Metrics:            metrics,
	}
}

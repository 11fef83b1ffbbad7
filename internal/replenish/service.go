package replenish

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ambrevelours/av-suite/internal/masterdata"
	"github.com/ambrevelours/av-suite/internal/sales"
)

// RepositoryPort provides the read models the calculator needs.
type RepositoryPort interface {
	ListProducts(ctx context.Context) ([]masterdata.Product, error)
	ListOrders(ctx context.Context) ([]sales.Order, error)
	GetSettings(ctx context.Context) (masterdata.Settings, error)
}

// Report is a dated set of suggestions.
type Report struct {
	GeneratedAt time.Time    `json:"generated_at"`
	WindowDays  int          `json:"window_days"`
	Suggestions []Suggestion `json:"suggestions"`
	ToOrder     int          `json:"to_order"`
}

// Service builds replenishment reports from the current state.
type Service struct {
	repo  RepositoryPort
	now   func() time.Time
	group singleflight.Group
}

// NewService constructs the service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Report computes suggestions for every product.
func (s *Service) Report(ctx context.Context) (Report, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return Report{}, err
	}
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return Report{}, err
	}
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return Report{}, err
	}
	now := s.now().UTC()
	suggestions := Suggest(products, orders, settings, now)
	return Report{
		GeneratedAt: now,
		WindowDays:  settings.ReorderWindowDays,
		Suggestions: suggestions,
		ToOrder:     len(Pending(suggestions)),
	}, nil
}

// Shared behaves like Report but lets concurrent callers share one computation. The
// computation ignores the leading caller's cancellation since other callers wait on it.
func (s *Service) Shared(ctx context.Context) (Report, error) {
	v, err, _ := s.group.Do("report", func() (any, error) {
		return s.Report(context.WithoutCancel(ctx))
	})
	if err != nil {
		return Report{}, err
	}
	return v.(Report), nil
}

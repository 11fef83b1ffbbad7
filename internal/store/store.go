package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ambrevelours/av-suite/internal/shared"
)

// Provider loads and saves whole snapshots.
type Provider interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, s *Snapshot) error
}

// Store is the single source of truth. Readers see the last committed snapshot; writers are
// serialised and commit only after the provider accepted the new snapshot.
type Store struct {
	mu       sync.Mutex
	current  atomic.Pointer[Snapshot]
	provider Provider
	logger   *slog.Logger
	clock    func() time.Time
}

// Option customises Open.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now, mostly for reproducible seeding in tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// Open loads the snapshot from provider, seeding and saving the default dataset when none
// exists.
func Open(ctx context.Context, provider Provider, opts ...Option) (*Store, error) {
	if provider == nil {
		return nil, errors.New("store: provider required")
	}
	s := &Store{provider: provider, logger: slog.Default(), clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	snap, err := provider.Load(ctx)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		snap = Seed(s.clock())
		snap.SavedAt = s.clock().UTC()
		if err := provider.Save(ctx, snap); err != nil {
			return nil, fmt.Errorf("store: save seed: %w", err)
		}
		s.logger.InfoContext(ctx, "store seeded with default dataset",
			slog.Int("products", len(snap.Products)), slog.Int("orders", len(snap.Orders)))
	case err != nil:
		return nil, fmt.Errorf("store: load: %w", err)
	default:
		s.logger.InfoContext(ctx, "store loaded",
			slog.Int("products", len(snap.Products)),
			slog.Int("movements", len(snap.Movements)),
			slog.Time("saved_at", snap.SavedAt))
	}
	s.current.Store(snap)
	return s, nil
}

type unitKey struct{}

type unit struct {
	snap *Snapshot
}

// Update runs fn against a private copy of the state and commits it when fn succeeds and the
// provider saved it. Calls made with a context already inside Update join that unit.
// Callbacks registered with shared.AfterCommit run only once the unit has been stored.
func (s *Store) Update(ctx context.Context, fn func(context.Context, *Snapshot) error) error {
	if u, ok := ctx.Value(unitKey{}).(*unit); ok {
		return fn(ctx, u.snap)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.current.Load().Clone()
	uctx, flush := shared.WithCommitHooks(context.WithValue(ctx, unitKey{}, &unit{snap: work}))
	if err := fn(uctx, work); err != nil {
		return err
	}
	work.SavedAt = s.clock().UTC()
	if err := s.provider.Save(ctx, work); err != nil {
		return fmt.Errorf("store: persist snapshot: %w", err)
	}
	s.current.Store(work)
	flush()
	return nil
}

// View exposes the snapshot visible to ctx. Callers must not modify it.
func (s *Store) View(ctx context.Context) *Snapshot {
	if u, ok := ctx.Value(unitKey{}).(*unit); ok {
		return u.snap
	}
	return s.current.Load()
}

// Snapshot returns a deep copy of the committed state.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load().Clone()
}

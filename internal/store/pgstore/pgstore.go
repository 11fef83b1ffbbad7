// Package pgstore persists snapshots as JSONB rows in PostgreSQL.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ambrevelours/av-suite/internal/platform/db"
	"github.com/ambrevelours/av-suite/internal/store"
)

// DefaultKey names the row holding the snapshot.
const DefaultKey = "default"

const schema = `CREATE TABLE IF NOT EXISTS app_snapshots (
	key        TEXT PRIMARY KEY,
	version    INTEGER NOT NULL,
	body       JSONB NOT NULL,
	saved_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const selectSnapshot = `SELECT body FROM app_snapshots WHERE key = $1`

const upsertSnapshot = `INSERT INTO app_snapshots (key, version, body, saved_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (key) DO UPDATE SET version = EXCLUDED.version, body = EXCLUDED.body, saved_at = EXCLUDED.saved_at`

// Provider stores the snapshot in the app_snapshots table.
type Provider struct {
	pool *pgxpool.Pool
	key  string
}

// New returns a provider bound to key.
func New(pool *pgxpool.Pool, key string) *Provider {
	if key == "" {
		key = DefaultKey
	}
	return &Provider{pool: pool, key: key}
}

// EnsureSchema creates the snapshot table when missing.
func (p *Provider) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("pgstore: ensure schema: %w", err)
	}
	return nil
}

// Load implements store.Provider.
func (p *Provider) Load(ctx context.Context) (*store.Snapshot, error) {
	var body []byte
	err := p.pool.QueryRow(ctx, selectSnapshot, p.key).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: load %s: %w", p.key, err)
	}
	return store.Decode(body)
}

// Save implements store.Provider.
func (p *Provider) Save(ctx context.Context, s *store.Snapshot) error {
	body, err := store.Encode(s)
	if err != nil {
		return err
	}
	return db.WithTx(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertSnapshot, p.key, s.Version, body, s.SavedAt); err != nil {
			return fmt.Errorf("pgstore: save %s: %w", p.key, err)
		}
		return nil
	})
}

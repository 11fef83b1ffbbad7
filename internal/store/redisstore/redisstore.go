// Package redisstore persists snapshots under a single Redis key.
package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ambrevelours/av-suite/internal/store"
)

// DefaultKey is used when no key is configured.
const DefaultKey = "avsuite:snapshot"

// Provider stores the encoded snapshot in Redis.
type Provider struct {
	client *redis.Client
	key    string
}

// New returns a provider bound to key.
func New(client *redis.Client, key string) *Provider {
	if key == "" {
		key = DefaultKey
	}
	return &Provider{client: client, key: key}
}

// Load implements store.Provider.
func (p *Provider) Load(ctx context.Context) (*store.Snapshot, error) {
	data, err := p.client.Get(ctx, p.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("redisstore: get %s: %w", p.key, err)
	}
	return store.Decode(data)
}

// Save implements store.Provider.
func (p *Provider) Save(ctx context.Context, s *store.Snapshot) error {
	data, err := store.Encode(s)
	if err != nil {
		return err
	}
	if err := p.client.Set(ctx, p.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redisstore: set %s: %w", p.key, err)
	}
	return nil
}

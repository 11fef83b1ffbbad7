package store

import (
	"context"
	"sync"
)

// MemoryProvider keeps the encoded snapshot in process memory.
type MemoryProvider struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

// NewMemoryProvider returns an empty provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{}
}

// Load implements Provider.
func (p *MemoryProvider) Load(ctx context.Context) (*Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.data == nil {
		return nil, ErrNoSnapshot
	}
	return Decode(p.data)
}

// Save implements Provider.
func (p *MemoryProvider) Save(ctx context.Context, s *Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data = data
	p.saves++
	return nil
}

// Saves reports how many snapshots were written.
func (p *MemoryProvider) Saves() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saves
}

package crm

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	leads   map[string]Lead
	clients map[string]Client
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{leads: make(map[string]Lead), clients: make(map[string]Client)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListLeads(ctx context.Context) ([]Lead, error) {
	out := make([]Lead, 0, len(r.leads))
	for _, l := range r.leads {
		out = append(out, l)
	}
	return out, nil
}

func (r *memoryRepo) ListClients(ctx context.Context) ([]Client, error) {
	out := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out, nil
}

func (tx *memoryTx) GetLead(ctx context.Context, id string) (Lead, error) {
	l, ok := tx.repo.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return l, nil
}

func (tx *memoryTx) UpsertLead(ctx context.Context, l Lead) error {
	tx.repo.leads[l.ID] = l
	return nil
}

func (tx *memoryTx) DeleteLead(ctx context.Context, id string) error {
	if _, ok := tx.repo.leads[id]; !ok {
		return ErrNotFound
	}
	delete(tx.repo.leads, id)
	return nil
}

func (tx *memoryTx) UpsertClient(ctx context.Context, c Client) error {
	tx.repo.clients[c.ID] = c
	return nil
}

func day(d int) *time.Time {
	t := time.Date(2025, 3, d, 15, 0, 0, 0, time.UTC)
	return &t
}

func TestSaveAndDeleteLead(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	lead, err := svc.SaveLead(ctx, Lead{Name: " Noura K. ", Value: decimal.NewFromInt(85000)})
	require.NoError(t, err)
	require.Equal(t, "Noura K.", lead.Name)
	require.Equal(t, LeadNew, lead.Status)
	require.NotEmpty(t, lead.ID)

	lead.Status = LeadQualified
	updated, err := svc.SaveLead(ctx, lead)
	require.NoError(t, err)
	require.Equal(t, lead.CreatedAt, updated.CreatedAt)

	_, err = svc.SaveLead(ctx, Lead{Name: "X", Status: "Unknown"})
	require.ErrorIs(t, err, ErrValidation)

	require.NoError(t, svc.DeleteLead(ctx, lead.ID))
	require.ErrorIs(t, svc.DeleteLead(ctx, lead.ID), ErrNotFound)
}

func TestDueBy(t *testing.T) {
	leads := []Lead{
		{ID: "a", NextFollowUp: day(14)},
		{ID: "b", NextFollowUp: day(10)},
		{ID: "c", NextFollowUp: day(15)},
		{ID: "d"},
	}
	due := DueBy(leads, time.Date(2025, 3, 14, 8, 0, 0, 0, time.UTC))
	require.Len(t, due, 2)
	require.Equal(t, "b", due[0].ID)
	require.Equal(t, "a", due[1].ID)
}

func TestSummarise(t *testing.T) {
	leads := []Lead{
		{Status: LeadNew, Value: decimal.NewFromInt(140000)},
		{Status: LeadContacted, Value: decimal.NewFromInt(85000)},
		{Status: LeadQualified, Value: decimal.NewFromInt(72000)},
		{Status: LeadWon, Value: decimal.NewFromInt(1000000)},
	}
	p := Summarise(leads)
	require.True(t, p.Value.Equal(decimal.NewFromInt(297000)))
	require.Equal(t, 1, p.Counts[LeadWon])
}

func TestSaveClient(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	c, err := svc.SaveClient(context.Background(), Client{Name: "Client Comptoir"})
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)

	_, err = svc.SaveClient(context.Background(), Client{})
	require.ErrorIs(t, err, ErrValidation)
}

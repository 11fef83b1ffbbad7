package crm

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ambrevelours/av-suite/internal/money"
	"github.com/ambrevelours/av-suite/internal/shared"
)

// RepositoryPort abstracts lead and client persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListLeads(ctx context.Context) ([]Lead, error)
	ListClients(ctx context.Context) ([]Client, error)
}

// TxRepository exposes CRM writes.
type TxRepository interface {
	GetLead(ctx context.Context, id string) (Lead, error)
	UpsertLead(ctx context.Context, l Lead) error
	DeleteLead(ctx context.Context, id string) error
	UpsertClient(ctx context.Context, c Client) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service manages prospects and clients.
type Service struct {
	repo     RepositoryPort
	audit    AuditPort
	validate *validator.Validate
	now      func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, validate: validator.New(), now: time.Now}
}

// ListLeads returns all leads.
func (s *Service) ListLeads(ctx context.Context) ([]Lead, error) {
	return s.repo.ListLeads(ctx)
}

// ListClients returns all clients.
func (s *Service) ListClients(ctx context.Context) ([]Client, error) {
	return s.repo.ListClients(ctx)
}

// SaveLead creates or updates a lead.
func (s *Service) SaveLead(ctx context.Context, input Lead) (Lead, error) {
	input.Name = strings.TrimSpace(input.Name)
	if input.Status == "" {
		input.Status = LeadNew
	}
	if err := s.validate.Struct(input); err != nil {
		return Lead{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if input.Value.IsNegative() {
		return Lead{}, fmt.Errorf("%w: value must be >= 0", ErrValidation)
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if input.ID == "" {
			input.ID = uuid.NewString()
			input.CreatedAt = s.now().UTC()
		} else if existing, err := tx.GetLead(ctx, input.ID); err == nil {
			input.CreatedAt = existing.CreatedAt
		}
		return tx.UpsertLead(ctx, input)
	})
	if err != nil {
		return Lead{}, err
	}
	s.recordAudit(ctx, "LEAD_SAVE", "lead", input.ID)
	return input, nil
}

// DeleteLead removes a lead.
func (s *Service) DeleteLead(ctx context.Context, id string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.DeleteLead(ctx, id)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "LEAD_DELETE", "lead", id)
	return nil
}

// SaveClient creates or updates a client.
func (s *Service) SaveClient(ctx context.Context, input Client) (Client, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := s.validate.Struct(input); err != nil {
		return Client{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if input.ID == "" {
		input.ID = uuid.NewString()
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.UpsertClient(ctx, input)
	})
	if err != nil {
		return Client{}, err
	}
	s.recordAudit(ctx, "CLIENT_SAVE", "client", input.ID)
	return input, nil
}

// LeadsDue returns leads whose follow-up day is on or before today, oldest first.
func (s *Service) LeadsDue(ctx context.Context, today time.Time) ([]Lead, error) {
	leads, err := s.repo.ListLeads(ctx)
	if err != nil {
		return nil, err
	}
	return DueBy(leads, today), nil
}

// Pipeline counts leads per stage and sums the value of open ones.
func (s *Service) Pipeline(ctx context.Context) (Pipeline, error) {
	leads, err := s.repo.ListLeads(ctx)
	if err != nil {
		return Pipeline{}, err
	}
	return Summarise(leads), nil
}

// DueBy filters leads due on or before the day of today.
func DueBy(leads []Lead, today time.Time) []Lead {
	y, m, d := today.UTC().Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	var out []Lead
	for _, l := range leads {
		if l.NextFollowUp != nil && l.NextFollowUp.UTC().Before(end) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].NextFollowUp.Before(*out[j].NextFollowUp) })
	return out
}

// Summarise builds the pipeline view.
func Summarise(leads []Lead) Pipeline {
	p := Pipeline{Counts: make(map[LeadStatus]int, len(Statuses))}
	for _, l := range leads {
		p.Counts[l.Status]++
	}
	p.Value = money.Sum(leads, func(l Lead) decimal.Decimal {
		if !l.Status.Open() {
			return decimal.Zero
		}
		return l.Value
	})
	return p
}

func (s *Service) recordAudit(ctx context.Context, action, entity, id string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: entity, EntityID: id})
}

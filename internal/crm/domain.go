package crm

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// LeadStatus is a pipeline stage.
type LeadStatus string

const (
	LeadNew       LeadStatus = "Nouveau"
	LeadContacted LeadStatus = "Contacté"
	LeadQualified LeadStatus = "Qualifié"
	LeadWon       LeadStatus = "Gagné"
	LeadLost      LeadStatus = "Perdu"
)

// Statuses lists pipeline stages in display order.
var Statuses = []LeadStatus{LeadNew, LeadContacted, LeadQualified, LeadWon, LeadLost}

// Open reports whether the lead still counts towards pipeline value.
func (s LeadStatus) Open() bool {
	return s == LeadNew || s == LeadContacted || s == LeadQualified
}

// Tags offered by default.
var Tags = []string{"Prospect", "VIP", "Fidèle", "Influenceur", "Grossiste"}

type Lead struct {
	ID           string          `json:"id"`
	Name         string          `json:"name" validate:"required,max=200"`
	Instagram    string          `json:"instagram,omitempty" validate:"max=100"`
	City         string          `json:"city,omitempty" validate:"max=100"`
	Source       string          `json:"source,omitempty" validate:"max=100"`
	Status       LeadStatus      `json:"status" validate:"omitempty,oneof=Nouveau Contacté Qualifié Gagné Perdu"`
	Tags         []string        `json:"tags,omitempty"`
	Interests    []string        `json:"interests,omitempty"`
	Value        decimal.Decimal `json:"value"`
	NextFollowUp *time.Time      `json:"next_follow_up,omitempty"`
	Notes        string          `json:"notes,omitempty" validate:"max=2000"`
	CreatedAt    time.Time       `json:"created_at"`
}

type Client struct {
	ID    string   `json:"id"`
	Name  string   `json:"name" validate:"required,max=200"`
	Tags  []string `json:"tags,omitempty"`
	City  string   `json:"city,omitempty" validate:"max=100"`
	Phone string   `json:"phone,omitempty" validate:"max=50"`
}

// Pipeline summarises leads per stage.
type Pipeline struct {
	Counts map[LeadStatus]int `json:"counts"`
	Value  decimal.Decimal    `json:"value"`
}

var (
	ErrNotFound   = errors.New("crm: not found")
	ErrValidation = errors.New("crm: validation error")
)

// Package store holds the application state as a single snapshot, applies mutations
// copy-on-write and persists every committed snapshot through a Provider.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ambrevelours/av-suite/internal/crm"
	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/masterdata"
	"github.com/ambrevelours/av-suite/internal/procurement"
	"github.com/ambrevelours/av-suite/internal/returns"
	"github.com/ambrevelours/av-suite/internal/sales"
)

// SchemaVersion is bumped whenever the snapshot layout changes incompatibly.
const SchemaVersion = 1

// ErrNoSnapshot is returned by providers that hold no state yet.
var ErrNoSnapshot = errors.New("store: no snapshot")

// Snapshot is the full application state.
type Snapshot struct {
	Version   int                         `json:"version"`
	SavedAt   time.Time                   `json:"saved_at"`
	NextSeq   int64                       `json:"next_seq"`
	Settings  masterdata.Settings         `json:"settings"`
	Products  []masterdata.Product        `json:"products"`
	Suppliers []masterdata.Supplier       `json:"suppliers"`
	Leads     []crm.Lead                  `json:"leads"`
	Clients   []crm.Client                `json:"clients"`
	Orders    []sales.Order               `json:"orders"`
	POs       []procurement.PurchaseOrder `json:"purchase_orders"`
	Returns   []returns.Return            `json:"returns"`
	Movements []inventory.Movement        `json:"stock_movements"`
}

// Clone deep-copies the snapshot so a unit of work never touches committed state.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	c := *s
	c.Products = append([]masterdata.Product(nil), s.Products...)
	c.Suppliers = append([]masterdata.Supplier(nil), s.Suppliers...)
	c.Returns = append([]returns.Return(nil), s.Returns...)
	c.Movements = append([]inventory.Movement(nil), s.Movements...)

	c.Leads = make([]crm.Lead, len(s.Leads))
	for i, l := range s.Leads {
		c.Leads[i] = cloneLead(l)
	}
	c.Clients = make([]crm.Client, len(s.Clients))
	for i, cl := range s.Clients {
		cl.Tags = append([]string(nil), cl.Tags...)
		c.Clients[i] = cl
	}
	c.Orders = make([]sales.Order, len(s.Orders))
	for i, o := range s.Orders {
		c.Orders[i] = cloneOrder(o)
	}
	c.POs = make([]procurement.PurchaseOrder, len(s.POs))
	for i, po := range s.POs {
		c.POs[i] = clonePO(po)
	}
	return &c
}

func cloneLead(l crm.Lead) crm.Lead {
	l.Tags = append([]string(nil), l.Tags...)
	l.Interests = append([]string(nil), l.Interests...)
	if l.NextFollowUp != nil {
		t := *l.NextFollowUp
		l.NextFollowUp = &t
	}
	return l
}

func cloneOrder(o sales.Order) sales.Order {
	o.Lines = append([]sales.OrderLine(nil), o.Lines...)
	o.Payments = append([]sales.Payment(nil), o.Payments...)
	return o
}

func clonePO(po procurement.PurchaseOrder) procurement.PurchaseOrder {
	po.Lines = append([]procurement.POLine(nil), po.Lines...)
	if po.ReceivedAt != nil {
		t := *po.ReceivedAt
		po.ReceivedAt = &t
	}
	return po
}

// Encode serialises a snapshot.
func Encode(s *Snapshot) ([]byte, error) {
	if s == nil {
		return nil, errors.New("store: nil snapshot")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("store: encode snapshot: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot and rejects unknown schema versions.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("store: decode snapshot: %w", err)
	}
	if s.Version > SchemaVersion {
		return nil, fmt.Errorf("store: snapshot version %d is newer than %d", s.Version, SchemaVersion)
	}
	if s.Version == 0 {
		s.Version = SchemaVersion
	}
	return &s, nil
}

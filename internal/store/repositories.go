package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/ambrevelours/av-suite/internal/crm"
	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/masterdata"
	"github.com/ambrevelours/av-suite/internal/procurement"
	"github.com/ambrevelours/av-suite/internal/returns"
	"github.com/ambrevelours/av-suite/internal/sales"
)

// Reader serves the read side of every module port from the snapshot visible to ctx.
type Reader struct {
	store *Store
}

func (r Reader) view(ctx context.Context) *Snapshot {
	return r.store.View(ctx)
}

func (r Reader) ListProducts(ctx context.Context) ([]masterdata.Product, error) {
	return append([]masterdata.Product(nil), r.view(ctx).Products...), nil
}

func (r Reader) GetProduct(ctx context.Context, id string) (masterdata.Product, error) {
	return findProduct(r.view(ctx), id)
}

func (r Reader) ListSuppliers(ctx context.Context) ([]masterdata.Supplier, error) {
	return append([]masterdata.Supplier(nil), r.view(ctx).Suppliers...), nil
}

func (r Reader) GetSettings(ctx context.Context) (masterdata.Settings, error) {
	return r.view(ctx).Settings, nil
}

func (r Reader) ListMovements(ctx context.Context, filter inventory.MovementFilter) ([]inventory.Movement, error) {
	snap := r.view(ctx)
	out := make([]inventory.Movement, 0, len(snap.Movements))
	for _, m := range snap.Movements {
		if filter.Match(m) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r Reader) GetPO(ctx context.Context, id string) (procurement.PurchaseOrder, error) {
	return findPO(r.view(ctx), id)
}

func (r Reader) ListPOs(ctx context.Context) ([]procurement.PurchaseOrder, error) {
	snap := r.view(ctx)
	out := make([]procurement.PurchaseOrder, 0, len(snap.POs))
	for i := len(snap.POs) - 1; i >= 0; i-- {
		out = append(out, clonePO(snap.POs[i]))
	}
	return out, nil
}

func (r Reader) GetOrder(ctx context.Context, id string) (sales.Order, error) {
	return findOrder(r.view(ctx), id)
}

func (r Reader) ListOrders(ctx context.Context) ([]sales.Order, error) {
	snap := r.view(ctx)
	out := make([]sales.Order, 0, len(snap.Orders))
	for i := len(snap.Orders) - 1; i >= 0; i-- {
		out = append(out, cloneOrder(snap.Orders[i]))
	}
	return out, nil
}

func (r Reader) ListReturns(ctx context.Context) ([]returns.Return, error) {
	snap := r.view(ctx)
	out := make([]returns.Return, 0, len(snap.Returns))
	for i := len(snap.Returns) - 1; i >= 0; i-- {
		out = append(out, snap.Returns[i])
	}
	return out, nil
}

func (r Reader) ListLeads(ctx context.Context) ([]crm.Lead, error) {
	snap := r.view(ctx)
	out := make([]crm.Lead, 0, len(snap.Leads))
	for _, l := range snap.Leads {
		out = append(out, cloneLead(l))
	}
	return out, nil
}

func (r Reader) ListClients(ctx context.Context) ([]crm.Client, error) {
	return append([]crm.Client(nil), r.view(ctx).Clients...), nil
}

// tx mutates the working copy of a unit of work. It satisfies every module's TxRepository.
type tx struct {
	snap *Snapshot
}

func (t tx) GetProduct(ctx context.Context, id string) (masterdata.Product, error) {
	return findProduct(t.snap, id)
}

func (t tx) InsertProduct(ctx context.Context, p masterdata.Product) error {
	if _, err := findProduct(t.snap, p.ID); err == nil {
		return fmt.Errorf("store: product %s already exists", p.ID)
	}
	t.snap.Products = append(t.snap.Products, p)
	return nil
}

func (t tx) UpdateProduct(ctx context.Context, p masterdata.Product) error {
	for i := range t.snap.Products {
		if t.snap.Products[i].ID == p.ID {
			t.snap.Products[i] = p
			return nil
		}
	}
	return fmt.Errorf("%w: product %s", masterdata.ErrNotFound, p.ID)
}

func (t tx) GetSupplier(ctx context.Context, id string) (masterdata.Supplier, error) {
	for _, s := range t.snap.Suppliers {
		if s.ID == id {
			return s, nil
		}
	}
	return masterdata.Supplier{}, fmt.Errorf("%w: supplier %s", masterdata.ErrNotFound, id)
}

func (t tx) UpsertSupplier(ctx context.Context, s masterdata.Supplier) error {
	for i := range t.snap.Suppliers {
		if t.snap.Suppliers[i].ID == s.ID {
			t.snap.Suppliers[i] = s
			return nil
		}
	}
	t.snap.Suppliers = append(t.snap.Suppliers, s)
	return nil
}

func (t tx) SaveSettings(ctx context.Context, s masterdata.Settings) error {
	t.snap.Settings = s
	return nil
}

func (t tx) AppendMovement(ctx context.Context, m inventory.Movement) (inventory.Movement, error) {
	t.snap.NextSeq++
	m.Seq = t.snap.NextSeq
	t.snap.Movements = append(t.snap.Movements, m)
	return m, nil
}

func (t tx) GetPO(ctx context.Context, id string) (procurement.PurchaseOrder, error) {
	return findPO(t.snap, id)
}

func (t tx) CountPOs(ctx context.Context) (int, error) {
	return len(t.snap.POs), nil
}

func (t tx) POByNumber(ctx context.Context, number string) (procurement.PurchaseOrder, bool, error) {
	for _, po := range t.snap.POs {
		if po.Number == number {
			return clonePO(po), true, nil
		}
	}
	return procurement.PurchaseOrder{}, false, nil
}

func (t tx) InsertPO(ctx context.Context, po procurement.PurchaseOrder) error {
	t.snap.POs = append(t.snap.POs, clonePO(po))
	return nil
}

func (t tx) UpdatePO(ctx context.Context, po procurement.PurchaseOrder) error {
	for i := range t.snap.POs {
		if t.snap.POs[i].ID == po.ID {
			t.snap.POs[i] = clonePO(po)
			return nil
		}
	}
	return fmt.Errorf("%w: purchase order %s", procurement.ErrNotFound, po.ID)
}

func (t tx) GetOrder(ctx context.Context, id string) (sales.Order, error) {
	return findOrder(t.snap, id)
}

func (t tx) CountOrders(ctx context.Context) (int, error) {
	return len(t.snap.Orders), nil
}

func (t tx) InsertOrder(ctx context.Context, o sales.Order) error {
	t.snap.Orders = append(t.snap.Orders, cloneOrder(o))
	return nil
}

func (t tx) UpdateOrder(ctx context.Context, o sales.Order) error {
	for i := range t.snap.Orders {
		if t.snap.Orders[i].ID == o.ID {
			t.snap.Orders[i] = cloneOrder(o)
			return nil
		}
	}
	return fmt.Errorf("%w: order %s", sales.ErrNotFound, o.ID)
}

func (t tx) InsertReturn(ctx context.Context, r returns.Return) error {
	t.snap.Returns = append(t.snap.Returns, r)
	return nil
}

func (t tx) GetLead(ctx context.Context, id string) (crm.Lead, error) {
	for _, l := range t.snap.Leads {
		if l.ID == id {
			return cloneLead(l), nil
		}
	}
	return crm.Lead{}, fmt.Errorf("%w: lead %s", crm.ErrNotFound, id)
}

func (t tx) UpsertLead(ctx context.Context, l crm.Lead) error {
	l = cloneLead(l)
	for i := range t.snap.Leads {
		if t.snap.Leads[i].ID == l.ID {
			t.snap.Leads[i] = l
			return nil
		}
	}
	t.snap.Leads = append(t.snap.Leads, l)
	return nil
}

func (t tx) DeleteLead(ctx context.Context, id string) error {
	for i := range t.snap.Leads {
		if t.snap.Leads[i].ID == id {
			t.snap.Leads = append(t.snap.Leads[:i], t.snap.Leads[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: lead %s", crm.ErrNotFound, id)
}

func (t tx) UpsertClient(ctx context.Context, c crm.Client) error {
	c.Tags = append([]string(nil), c.Tags...)
	for i := range t.snap.Clients {
		if t.snap.Clients[i].ID == c.ID {
			t.snap.Clients[i] = c
			return nil
		}
	}
	t.snap.Clients = append(t.snap.Clients, c)
	return nil
}

func findProduct(snap *Snapshot, id string) (masterdata.Product, error) {
	for _, p := range snap.Products {
		if p.ID == id {
			return p, nil
		}
	}
	return masterdata.Product{}, fmt.Errorf("%w: product %s", masterdata.ErrNotFound, id)
}

func findPO(snap *Snapshot, id string) (procurement.PurchaseOrder, error) {
	for _, po := range snap.POs {
		if po.ID == id {
			return clonePO(po), nil
		}
	}
	return procurement.PurchaseOrder{}, fmt.Errorf("%w: purchase order %s", procurement.ErrNotFound, id)
}

func findOrder(snap *Snapshot, id string) (sales.Order, error) {
	for _, o := range snap.Orders {
		if o.ID == id {
			return cloneOrder(o), nil
		}
	}
	return sales.Order{}, fmt.Errorf("%w: order %s", sales.ErrNotFound, id)
}

// MasterdataRepository implements masterdata.RepositoryPort.
type MasterdataRepository struct{ Reader }

// WithTx implements masterdata.RepositoryPort.
func (r MasterdataRepository) WithTx(ctx context.Context, fn func(context.Context, masterdata.TxRepository) error) error {
	return r.store.Update(ctx, func(ctx context.Context, snap *Snapshot) error { return fn(ctx, tx{snap: snap}) })
}

// InventoryRepository implements inventory.RepositoryPort.
type InventoryRepository struct{ Reader }

// WithTx implements inventory.RepositoryPort.
func (r InventoryRepository) WithTx(ctx context.Context, fn func(context.Context, inventory.TxRepository) error) error {
	return r.store.Update(ctx, func(ctx context.Context, snap *Snapshot) error { return fn(ctx, tx{snap: snap}) })
}

// ProcurementRepository implements procurement.RepositoryPort.
type ProcurementRepository struct{ Reader }

// WithTx implements procurement.RepositoryPort.
func (r ProcurementRepository) WithTx(ctx context.Context, fn func(context.Context, procurement.TxRepository) error) error {
	return r.store.Update(ctx, func(ctx context.Context, snap *Snapshot) error { return fn(ctx, tx{snap: snap}) })
}

// SalesRepository implements sales.RepositoryPort.
type SalesRepository struct{ Reader }

// WithTx implements sales.RepositoryPort.
func (r SalesRepository) WithTx(ctx context.Context, fn func(context.Context, sales.TxRepository) error) error {
	return r.store.Update(ctx, func(ctx context.Context, snap *Snapshot) error { return fn(ctx, tx{snap: snap}) })
}

// ReturnsRepository implements returns.RepositoryPort.
type ReturnsRepository struct{ Reader }

// WithTx implements returns.RepositoryPort.
func (r ReturnsRepository) WithTx(ctx context.Context, fn func(context.Context, returns.TxRepository) error) error {
	return r.store.Update(ctx, func(ctx context.Context, snap *Snapshot) error { return fn(ctx, tx{snap: snap}) })
}

// CRMRepository implements crm.RepositoryPort.
type CRMRepository struct{ Reader }

// WithTx implements crm.RepositoryPort.
func (r CRMRepository) WithTx(ctx context.Context, fn func(context.Context, crm.TxRepository) error) error {
	return r.store.Update(ctx, func(ctx context.Context, snap *Snapshot) error { return fn(ctx, tx{snap: snap}) })
}

// Repositories bundles the adapters of one store.
type Repositories struct {
	Masterdata  MasterdataRepository
	Inventory   InventoryRepository
	Procurement ProcurementRepository
	Sales       SalesRepository
	Returns     ReturnsRepository
	CRM         CRMRepository
	Replenish   Reader
}

// Repositories returns adapters bound to s.
func (s *Store) Repositories() Repositories {
	r := Reader{store: s}
	return Repositories{
		Masterdata:  MasterdataRepository{r},
		Inventory:   InventoryRepository{r},
		Procurement: ProcurementRepository{r},
		Sales:       SalesRepository{r},
		Returns:     ReturnsRepository{r},
		CRM:         CRMRepository{r},
		Replenish:   r,
	}
}

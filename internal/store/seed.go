package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ambrevelours/av-suite/internal/crm"
	"github.com/ambrevelours/av-suite/internal/inventory"
	"github.com/ambrevelours/av-suite/internal/masterdata"
	"github.com/ambrevelours/av-suite/internal/sales"
)

var seedNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://ambrevelours.example/av-suite/seed"))

// SeedID derives the stable identifier of a seeded record.
func SeedID(kind, key string) string {
	return uuid.NewSHA1(seedNamespace, []byte(kind+":"+key)).String()
}

// Seed builds the default dataset: two products, three leads, one client, one delivered
// order, one supplier and the opening ledger that explains the seeded stock.
func Seed(now time.Time) *Snapshot {
	now = now.UTC()
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	p1 := masterdata.Product{
		ID:             SeedID("product", "p1"),
		SKU:            "OJAR-WW-70",
		Name:           "OJAR Wood Whisper 70ml",
		Brand:          "OJAR",
		Family:         "Ambré boisé",
		VolumeML:       70,
		PriceRetail:    decimal.NewFromInt(85000),
		PriceWholesale: decimal.NewFromInt(78000),
		TaxRate:        decimal.RequireFromString("0.18"),
		Stock:          6,
		CMP:            decimal.NewFromInt(42000),
		Min:            3,
		Target:         10,
		LeadTimeDays:   14,
		MOQ:            6,
	}
	p2 := masterdata.Product{
		ID:             SeedID("product", "p2"),
		SKU:            "XJ-EP-100",
		Name:           "Xerjoff Erba Pura 100ml",
		Brand:          "Xerjoff",
		Family:         "Hespéridé gourmand",
		VolumeML:       100,
		PriceRetail:    decimal.NewFromInt(140000),
		PriceWholesale: decimal.NewFromInt(125000),
		TaxRate:        decimal.RequireFromString("0.18"),
		Stock:          4,
		CMP:            decimal.NewFromInt(70000),
		Min:            2,
		Target:         8,
		LeadTimeDays:   21,
		MOQ:            4,
	}

	lead := func(key, name, ig, city, source string, status crm.LeadStatus, tag, interest string, value int64, notes string) crm.Lead {
		due := today
		return crm.Lead{
			ID:           SeedID("lead", key),
			Name:         name,
			Instagram:    ig,
			City:         city,
			Source:       source,
			Status:       status,
			Tags:         []string{tag},
			Interests:    []string{interest},
			Value:        decimal.NewFromInt(value),
			NextFollowUp: &due,
			Notes:        notes,
			CreatedAt:    today,
		}
	}

	order := sales.Order{
		ID:         SeedID("order", "CMD-0001"),
		Number:     "CMD-0001",
		Date:       today,
		ClientName: "Client Comptoir",
		Status:     sales.OrderStatusDelivered,
		Channel:    sales.ChannelBoutique,
		Discount:   decimal.Zero,
		Shipping:   decimal.NewFromInt(2000),
		Lines: []sales.OrderLine{{
			ProductID: p1.ID,
			Name:      p1.Name,
			Qty:       1,
			UnitPrice: p1.PriceRetail,
			CogsUnit:  p1.CMP,
		}},
		Payments: []sales.Payment{{Mode: sales.DefaultPayMode, Amount: p1.PriceRetail.Add(decimal.NewFromInt(2000)), Date: today}},
	}

	movements := []inventory.Movement{
		{ID: SeedID("movement", "opening:p1"), Seq: 1, Date: today, ProductID: p1.ID, Type: inventory.MovementAdjustment, Qty: p1.Stock + 1, UnitCost: p1.CMP, Ref: inventory.RefOpening},
		{ID: SeedID("movement", "opening:p2"), Seq: 2, Date: today, ProductID: p2.ID, Type: inventory.MovementAdjustment, Qty: p2.Stock, UnitCost: p2.CMP, Ref: inventory.RefOpening},
		{ID: SeedID("movement", "CMD-0001:p1"), Seq: 3, Date: today, ProductID: p1.ID, Type: inventory.MovementExit, Qty: 1, UnitCost: p1.CMP, Ref: order.Number},
	}

	return &Snapshot{
		Version:  SchemaVersion,
		NextSeq:  int64(len(movements)),
		Settings: masterdata.DefaultSettings(),
		Products: []masterdata.Product{p1, p2},
		Suppliers: []masterdata.Supplier{{
			ID:       SeedID("supplier", "istanbul"),
			Name:     "Fournisseur Istanbul",
			Contact:  "mehmet@exemple.com",
			LeadDays: 14,
			MOQ:      6,
			Currency: "EUR",
		}},
		Leads: []crm.Lead{
			lead("noura", "Noura K.", "@nourak_", "Abidjan", "DM Instagram", crm.LeadContacted, "Prospect", p1.Name, 85000,
				"Aime boisés/vanillés. Proposer Wood Whisper + Vanille Fatale."),
			lead("yann", "Yann B.", "@yannbiz", "Abidjan", "Story", crm.LeadQualified, "VIP", "YSL La Nuit de l’Homme", 72000,
				"Parfum soir, sillage modéré."),
			lead("aicha", "Aïcha D.", "@aicha.fragrance", "Cocody", "Referral", crm.LeadNew, "Influenceur", p2.Name, 140000,
				"Aime agrumes sucrés."),
		},
		Clients:   []crm.Client{{ID: SeedID("client", "comptoir"), Name: "Client Comptoir", Tags: []string{"Retail"}, City: "Abidjan"}},
		Orders:    []sales.Order{order},
		Movements: movements,
	}
}

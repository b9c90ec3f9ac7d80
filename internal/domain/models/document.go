package models

import "time"

// DateLayout is the canonical day format used across the stored document.
const DateLayout = "2006-01-02"

// SchemaVersion identifies the remote document layout this build writes.
const SchemaVersion = "2.0"

// Metadata carries document bookkeeping, including the per-entity ID sequences.
type Metadata struct {
	Version     string         `json:"version"`
	LastUpdated string         `json:"lastUpdated"`
	NextIDs     map[string]int `json:"nextIds"`
}

// Document is the full remote JSON database: one metadata block plus eight
// entity collections. It is always read and written as a single unit.
type Document struct {
	Metadata       Metadata        `json:"metadata"`
	Containers     []Container     `json:"containers"`
	Products       []Product       `json:"products"`
	Sales          []Sale          `json:"sales"`
	Expenses       []Expense       `json:"expenses"`
	Partners       []Partner       `json:"partners"`
	Withdrawals    []Withdrawal    `json:"withdrawals"`
	CashFlows      []CashFlow      `json:"cashFlows"`
	CashInjections []CashInjection `json:"cashInjections"`
}

// CollectionNames lists every entity array the document must carry, in the
// order they appear on the wire.
var CollectionNames = []string{
	"containers", "products", "sales", "expenses",
	"partners", "withdrawals", "cashFlows", "cashInjections",
}

// NewEmptyDocument builds a fresh document with all collections present and
// every ID sequence starting at 1.
func NewEmptyDocument() *Document {
	doc := &Document{
		Metadata: Metadata{
			Version:     SchemaVersion,
			LastUpdated: time.Now().UTC().Format(time.RFC3339),
			NextIDs:     make(map[string]int),
		},
	}
	for _, name := range CollectionNames {
		if name != "containers" {
			doc.Metadata.NextIDs[name] = 1
		}
	}
	doc.EnsureCollections()
	return doc
}

// EnsureCollections guarantees that every entity array and the NextIDs map are
// non-nil so the encoded document always carries all eight collections.
func (d *Document) EnsureCollections() {
	if d.Containers == nil {
		d.Containers = []Container{}
	}
	if d.Products == nil {
		d.Products = []Product{}
	}
	if d.Sales == nil {
		d.Sales = []Sale{}
	}
	if d.Expenses == nil {
		d.Expenses = []Expense{}
	}
	if d.Partners == nil {
		d.Partners = []Partner{}
	}
	if d.Withdrawals == nil {
		d.Withdrawals = []Withdrawal{}
	}
	if d.CashFlows == nil {
		d.CashFlows = []CashFlow{}
	}
	if d.CashInjections == nil {
		d.CashInjections = []CashInjection{}
	}
	if d.Metadata.NextIDs == nil {
		d.Metadata.NextIDs = make(map[string]int)
	}
}

// Normalize migrates legacy field spellings once at load time so business
// logic only ever sees the canonical fields. Older documents stored the
// product unit cost under costPerUnit; newer ones use costPerKg.
func (d *Document) Normalize() {
	d.EnsureCollections()
	for i := range d.Products {
		p := &d.Products[i]
		if p.CostPerKg == 0 && p.LegacyCostPerUnit != 0 {
			p.CostPerKg = p.LegacyCostPerUnit
		}
		p.LegacyCostPerUnit = p.CostPerKg
	}
	if d.Metadata.Version == "" {
		d.Metadata.Version = SchemaVersion
	}
}

// Touch refreshes the last-updated stamp. Callers invoke it right before a
// remote write.
func (d *Document) Touch(now time.Time) {
	d.Metadata.LastUpdated = now.UTC().Format(time.RFC3339)
}

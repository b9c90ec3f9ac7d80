package models

// Product is a catalog entry tracked in bags of a fixed weight.
//
// CostPerKg is the canonical weighted-average unit cost. LegacyCostPerUnit is
// the pre-2.0 spelling of the same value; Document.Normalize migrates it on
// load and keeps it mirrored on write so older clients stay readable.
type Product struct {
	ID                int     `json:"id"`
	Name              string  `json:"name"`
	Category          string  `json:"category"`
	CurrentStock      int     `json:"currentStock"`
	CostPerKg         float64 `json:"costPerKg"`
	LegacyCostPerUnit float64 `json:"costPerUnit,omitempty"`
	BagWeight         float64 `json:"bagWeight"`
	Description       string  `json:"description,omitempty"`
	AvgSellingPrice   float64 `json:"avgSellingPrice"`
	TotalSold         int     `json:"totalSold"`
}

// StockKg converts the bag count into total kilograms on hand.
func (p *Product) StockKg() float64 {
	return float64(p.CurrentStock) * p.BagWeight
}

// StockValue is the inventory valuation of this product at its current
// weighted-average cost.
func (p *Product) StockValue() float64 {
	return p.StockKg() * p.CostPerKg
}

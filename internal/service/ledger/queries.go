package ledger

import (
	"sort"

	"stockbook/internal/domain/models"
)

// FinancialSummary aggregates revenue, expenses, and profit, optionally over a
// date range.
type FinancialSummary struct {
	Revenue        float64 `json:"revenue"`
	Expenses       float64 `json:"expenses"`
	GrossProfit    float64 `json:"grossProfit"`
	NetProfit      float64 `json:"netProfit"`
	SalesCount     int     `json:"salesCount"`
	InventoryValue float64 `json:"inventoryValue"`
}

// ProductRanking is one row of the top-sellers report.
type ProductRanking struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	UnitsSold int     `json:"unitsSold"`
	Revenue   float64 `json:"revenue"`
	Profit    float64 `json:"profit"`
}

// Containers returns a copy of the container collection.
func (s *Service) Containers() []models.Container {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Container(nil), s.doc.Containers...)
}

// Products returns a copy of the product catalog.
func (s *Service) Products() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Product(nil), s.doc.Products...)
}

// Sales returns a copy of the sale history.
func (s *Service) Sales() []models.Sale {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Sale(nil), s.doc.Sales...)
}

// Expenses returns a copy of the expense records.
func (s *Service) Expenses() []models.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Expense(nil), s.doc.Expenses...)
}

// Partners returns a copy of the partner records.
func (s *Service) Partners() []models.Partner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Partner(nil), s.doc.Partners...)
}

// Withdrawals returns a copy of the withdrawal records.
func (s *Service) Withdrawals() []models.Withdrawal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Withdrawal(nil), s.doc.Withdrawals...)
}

// CashInjections returns a copy of the capital-injection records.
func (s *Service) CashInjections() []models.CashInjection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CashInjection(nil), s.doc.CashInjections...)
}

// CashFlows returns a copy of the daily reconciliation ledger.
func (s *Service) CashFlows() []models.CashFlow {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.CashFlow(nil), s.doc.CashFlows...)
}

// InventoryValuation sums stock-on-hand at weighted-average cost.
func (s *Service) InventoryValuation() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, p := range s.doc.Products {
		total += p.StockValue()
	}
	return total
}

// Summary aggregates financial figures. Empty from/to bounds mean "all time";
// bounds are inclusive YYYY-MM-DD strings, which compare correctly as text.
func (s *Service) Summary(from, to string) FinancialSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	inRange := func(date string) bool {
		if from != "" && date < from {
			return false
		}
		if to != "" && date > to {
			return false
		}
		return true
	}

	var out FinancialSummary
	for _, sale := range s.doc.Sales {
		if !inRange(sale.Date) {
			continue
		}
		out.Revenue += sale.TotalAmount
		out.GrossProfit += sale.Profit
		out.SalesCount++
	}
	for _, e := range s.doc.Expenses {
		if inRange(e.Date) {
			out.Expenses += e.Amount
		}
	}
	out.NetProfit = out.GrossProfit - out.Expenses
	for _, p := range s.doc.Products {
		out.InventoryValue += p.StockValue()
	}
	return out
}

// LowStock lists products at or below the given bag threshold.
func (s *Service) LowStock(threshold int) []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []models.Product
	for _, p := range s.doc.Products {
		if p.CurrentStock <= threshold {
			out = append(out, p)
		}
	}
	return out
}

// TopSellingProducts ranks products by units sold, descending, capped at
// limit rows.
func (s *Service) TopSellingProducts(limit int) []ProductRanking {
	s.mu.Lock()
	defer s.mu.Unlock()

	byProduct := make(map[int]*ProductRanking)
	for _, sale := range s.doc.Sales {
		r, ok := byProduct[sale.ProductID]
		if !ok {
			r = &ProductRanking{ProductID: sale.ProductID, Name: sale.ProductName}
			byProduct[sale.ProductID] = r
		}
		r.UnitsSold += sale.Quantity
		r.Revenue += sale.TotalAmount
		r.Profit += sale.Profit
	}

	out := make([]ProductRanking, 0, len(byProduct))
	for _, r := range byProduct {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UnitsSold != out[j].UnitsSold {
			return out[i].UnitsSold > out[j].UnitsSold
		}
		return out[i].ProductID < out[j].ProductID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

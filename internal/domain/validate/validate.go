// Package validate holds the pure business-rule predicates run before any
// ledger mutation. Functions here take a record, return a Result, and never
// touch shared state.
package validate

import (
	"fmt"
	"math"
	"time"

	"stockbook/internal/domain/models"
)

// AmountTolerance is the absolute slack allowed when checking the stored
// monetary identities against their formulas.
const AmountTolerance = 0.01

// Result reports whether a record passed validation and, if not, every rule it
// broke.
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

func newResult(errs []string) Result {
	return Result{IsValid: len(errs) == 0, Errors: errs}
}

func validDate(value string) bool {
	_, err := time.Parse(models.DateLayout, value)
	return err == nil
}

// Container checks an import shipment record and all of its line items.
func Container(c models.Container) Result {
	var errs []string
	if c.ID == "" {
		errs = append(errs, "container id is required")
	}
	if c.Supplier == "" {
		errs = append(errs, "supplier is required")
	}
	if !validDate(c.PurchaseDate) {
		errs = append(errs, "purchaseDate must be a valid YYYY-MM-DD date")
	}
	if c.ShippingDate != "" && !validDate(c.ShippingDate) {
		errs = append(errs, "shippingDate must be a valid YYYY-MM-DD date")
	}
	if c.ArrivalDate != "" && !validDate(c.ArrivalDate) {
		errs = append(errs, "arrivalDate must be a valid YYYY-MM-DD date")
	}
	if c.ShippingCost < 0 {
		errs = append(errs, "shippingCost must not be negative")
	}
	if c.CustomsCost < 0 {
		errs = append(errs, "customsCost must not be negative")
	}
	if len(c.Products) == 0 {
		errs = append(errs, "container must hold at least one product line")
	}
	for i, p := range c.Products {
		if p.ProductName == "" {
			errs = append(errs, fmt.Sprintf("products[%d]: productName is required", i))
		}
		if p.BagQuantity <= 0 {
			errs = append(errs, fmt.Sprintf("products[%d]: bagQuantity must be positive", i))
		}
		if p.CostPerKg <= 0 {
			errs = append(errs, fmt.Sprintf("products[%d]: costPerKg must be positive", i))
		}
		if p.BagWeight != 20 && p.BagWeight != 25 {
			errs = append(errs, fmt.Sprintf("products[%d]: bagWeight must be 20 or 25", i))
		}
	}
	return newResult(errs)
}

// Product checks a catalog record.
func Product(p models.Product) Result {
	var errs []string
	if p.Name == "" {
		errs = append(errs, "name is required")
	}
	if p.CurrentStock < 0 {
		errs = append(errs, "currentStock must not be negative")
	}
	if p.CostPerKg < 0 {
		errs = append(errs, "costPerKg must not be negative")
	}
	if p.BagWeight != 20 && p.BagWeight != 25 {
		errs = append(errs, "bagWeight must be 20 or 25")
	}
	return newResult(errs)
}

// Sale checks a sale record, including the two stored-value identities:
// totalAmount = quantity*pricePerUnit and profit = (price-cost)*quantity,
// both within AmountTolerance.
func Sale(s models.Sale) Result {
	var errs []string
	if s.ProductID <= 0 {
		errs = append(errs, "productId is required")
	}
	if s.Quantity <= 0 {
		errs = append(errs, "quantity must be positive")
	}
	if s.PricePerUnit <= 0 {
		errs = append(errs, "pricePerUnit must be positive")
	}
	if !validDate(s.Date) {
		errs = append(errs, "date must be a valid YYYY-MM-DD date")
	}
	if expected := float64(s.Quantity) * s.PricePerUnit; math.Abs(s.TotalAmount-expected) > AmountTolerance {
		errs = append(errs, fmt.Sprintf("totalAmount %.2f does not match quantity*pricePerUnit %.2f", s.TotalAmount, expected))
	}
	if expected := (s.PricePerUnit - s.CostPerUnit) * float64(s.Quantity); math.Abs(s.Profit-expected) > AmountTolerance {
		errs = append(errs, fmt.Sprintf("profit %.2f does not match (price-cost)*quantity %.2f", s.Profit, expected))
	}
	return newResult(errs)
}

// Expense checks a cash-outflow record against the closed category set.
func Expense(e models.Expense) Result {
	var errs []string
	if !models.IsExpenseCategory(e.Category) {
		errs = append(errs, fmt.Sprintf("category %q is not allowed", e.Category))
	}
	if e.Description == "" {
		errs = append(errs, "description is required")
	}
	if e.Amount < 0 {
		errs = append(errs, "amount must not be negative")
	}
	if !validDate(e.Date) {
		errs = append(errs, "date must be a valid YYYY-MM-DD date")
	}
	return newResult(errs)
}

// Partner checks an equity-holder record.
func Partner(p models.Partner) Result {
	var errs []string
	if p.Name == "" {
		errs = append(errs, "name is required")
	}
	if p.OwnershipPercent < 0 || p.OwnershipPercent > 100 {
		errs = append(errs, "ownershipPercent must be between 0 and 100")
	}
	if p.CapitalAccount.InitialInvestment < 0 {
		errs = append(errs, "initialInvestment must not be negative")
	}
	return newResult(errs)
}

// Withdrawal checks a partner cash-withdrawal record.
func Withdrawal(w models.Withdrawal) Result {
	var errs []string
	if w.PartnerID <= 0 {
		errs = append(errs, "partnerId is required")
	}
	if w.Amount <= 0 {
		errs = append(errs, "amount must be positive")
	}
	if !validDate(w.Date) {
		errs = append(errs, "date must be a valid YYYY-MM-DD date")
	}
	return newResult(errs)
}

// CashInjection checks a capital-injection record.
func CashInjection(ci models.CashInjection) Result {
	var errs []string
	if ci.Amount <= 0 {
		errs = append(errs, "amount must be positive")
	}
	if !validDate(ci.Date) {
		errs = append(errs, "date must be a valid YYYY-MM-DD date")
	}
	return newResult(errs)
}

// DataIntegrity scans a whole document for cross-record damage: orphaned
// foreign keys, negative stock, and duplicate IDs. It is an offline
// consistency check and is never run automatically.
func DataIntegrity(doc *models.Document) Result {
	var errs []string

	productIDs := make(map[int]bool, len(doc.Products))
	for _, p := range doc.Products {
		if productIDs[p.ID] {
			errs = append(errs, fmt.Sprintf("duplicate product id %d", p.ID))
		}
		productIDs[p.ID] = true
		if p.CurrentStock < 0 {
			errs = append(errs, fmt.Sprintf("product %d (%s) has negative stock %d", p.ID, p.Name, p.CurrentStock))
		}
	}

	containerIDs := make(map[string]bool, len(doc.Containers))
	for _, c := range doc.Containers {
		if containerIDs[c.ID] {
			errs = append(errs, fmt.Sprintf("duplicate container id %s", c.ID))
		}
		containerIDs[c.ID] = true
		for _, line := range c.Products {
			if !productIDs[line.ProductID] {
				errs = append(errs, fmt.Sprintf("container %s references unknown product %d", c.ID, line.ProductID))
			}
		}
	}

	saleIDs := make(map[int]bool, len(doc.Sales))
	for _, s := range doc.Sales {
		if saleIDs[s.ID] {
			errs = append(errs, fmt.Sprintf("duplicate sale id %d", s.ID))
		}
		saleIDs[s.ID] = true
		if !productIDs[s.ProductID] {
			errs = append(errs, fmt.Sprintf("sale %d references unknown product %d", s.ID, s.ProductID))
		}
	}

	for _, e := range doc.Expenses {
		if e.ContainerID != "" && !containerIDs[e.ContainerID] {
			errs = append(errs, fmt.Sprintf("expense %d references unknown container %s", e.ID, e.ContainerID))
		}
	}

	partnerIDs := make(map[int]bool, len(doc.Partners))
	for _, p := range doc.Partners {
		partnerIDs[p.ID] = true
	}
	for _, w := range doc.Withdrawals {
		if !partnerIDs[w.PartnerID] {
			errs = append(errs, fmt.Sprintf("withdrawal %d references unknown partner %d", w.ID, w.PartnerID))
		}
	}

	return newResult(errs)
}

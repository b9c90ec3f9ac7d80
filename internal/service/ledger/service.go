// Package ledger is the authoritative in-memory owner of the business
// collections. Every mutation validates first, keeps the stock and
// referential invariants, and marks the document dirty so the sync layer
// knows a remote write is pending. Methods are mutex-guarded and
// run-to-completion; there is exactly one writer per process.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"stockbook/internal/domain/models"
	"stockbook/internal/domain/validate"
)

// Domain failures surfaced to callers. HTTP handlers map these to status
// codes.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateID       = errors.New("duplicate id")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrHasSales          = errors.New("record is referenced by sales")
	ErrReferenced        = errors.New("record is referenced by other records")
	ErrInvalid           = errors.New("validation failed")
	ErrImmutableLines    = errors.New("container product lines cannot be edited; delete and re-create the container")
)

// ID sequence keys inside Metadata.NextIDs.
const (
	seqProducts       = "products"
	seqSales          = "sales"
	seqExpenses       = "expenses"
	seqPartners       = "partners"
	seqWithdrawals    = "withdrawals"
	seqCashFlows      = "cashFlows"
	seqCashInjections = "cashInjections"
)

// Service mutates the document under a single lock. Unsaved-change tracking
// is a generation counter rather than a bare flag: gen advances on every
// mutation and savedGen records the generation the last persisted snapshot
// was taken at, so a mutation landing while a save is in flight keeps the
// document dirty.
type Service struct {
	mu       sync.Mutex
	doc      *models.Document
	gen      uint64
	savedGen uint64
	logger   *zap.Logger
	now      func() time.Time
}

// NewService starts with an empty document; call Load once the remote file
// has been fetched.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		doc:    models.NewEmptyDocument(),
		logger: logger,
		now:    time.Now,
	}
}

// Load replaces the in-memory document, normalizing it first. The document
// starts clean because the new state mirrors the remote file.
func (s *Service) Load(doc *models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc == nil {
		doc = models.NewEmptyDocument()
	}
	doc.Normalize()
	s.doc = doc
	s.gen++
	s.savedGen = s.gen
	s.logger.Info("document loaded",
		zap.Int("products", len(doc.Products)),
		zap.Int("containers", len(doc.Containers)),
		zap.Int("sales", len(doc.Sales)))
}

// ImportDocument swaps in a merged document (see the backup package) and
// marks it dirty so the next sync persists the merge.
func (s *Service) ImportDocument(doc *models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc.Normalize()
	s.doc = doc
	s.gen++
}

// Reset drops all state back to an empty document. Registered as a disconnect
// callback with the sync orchestrator.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = models.NewEmptyDocument()
	s.gen++
	s.savedGen = s.gen
}

// Snapshot returns a deep copy of the document, safe to hand to the sync
// layer while mutations continue, together with the generation it was taken
// at. Pass the generation to MarkSaved once the snapshot has been persisted.
func (s *Service) Snapshot() (*models.Document, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneDocument(s.doc), s.gen
}

// Dirty reports whether there are mutations not yet persisted remotely.
func (s *Service) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen != s.savedGen
}

// MarkSaved records that the snapshot taken at gen was persisted. Mutations
// made after that snapshot keep the document dirty.
func (s *Service) MarkSaved(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedGen = gen
}

func cloneDocument(doc *models.Document) *models.Document {
	raw, err := json.Marshal(doc)
	if err != nil {
		// The document is built from plain values; this cannot fail at runtime.
		panic(fmt.Sprintf("clone document: %v", err))
	}
	clone := &models.Document{}
	if err := json.Unmarshal(raw, clone); err != nil {
		panic(fmt.Sprintf("clone document: %v", err))
	}
	clone.EnsureCollections()
	return clone
}

// nextID hands out the next numeric ID for the given sequence and advances it
// in the same locked section as the insert that consumes it.
func (s *Service) nextID(seq string) int {
	id := s.doc.Metadata.NextIDs[seq]
	if id < 1 {
		id = 1
	}
	s.doc.Metadata.NextIDs[seq] = id + 1
	return id
}

func invalid(res validate.Result) error {
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(res.Errors, "; "))
}

// --- Containers -------------------------------------------------------------

// AddContainer appends an import shipment and applies each line item to the
// product catalog: unknown products are created, known ones get their stock
// incremented and their weighted-average cost re-blended.
func (s *Service) AddContainer(c models.Container) (*models.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res := validate.Container(c); !res.IsValid {
		return nil, invalid(res)
	}
	for _, existing := range s.doc.Containers {
		if existing.ID == c.ID {
			return nil, fmt.Errorf("%w: container %s", ErrDuplicateID, c.ID)
		}
	}

	for i := range c.Products {
		s.applyContainerLine(&c.Products[i])
	}
	c.TotalCost = c.ComputeTotalCost()

	s.doc.Containers = append(s.doc.Containers, c)
	s.gen++
	s.logger.Info("container added", zap.String("id", c.ID), zap.Int("lines", len(c.Products)))
	return &c, nil
}

// applyContainerLine receives one line item into the catalog. A line with no
// ProductID (or one that no longer resolves) creates a new product.
func (s *Service) applyContainerLine(line *models.ContainerProduct) {
	p := s.findProduct(line.ProductID)
	if p == nil {
		id := s.nextID(seqProducts)
		s.doc.Products = append(s.doc.Products, models.Product{
			ID:                id,
			Name:              line.ProductName,
			CurrentStock:      line.BagQuantity,
			CostPerKg:         line.CostPerKg,
			LegacyCostPerUnit: line.CostPerKg,
			BagWeight:         line.BagWeight,
		})
		line.ProductID = id
		return
	}

	line.ProductName = p.Name
	existingKg := p.StockKg()
	incomingKg := float64(line.BagQuantity) * line.BagWeight
	if totalKg := existingKg + incomingKg; totalKg > 0 {
		p.CostPerKg = (existingKg*p.CostPerKg + incomingKg*line.CostPerKg) / totalKg
		p.LegacyCostPerUnit = p.CostPerKg
	}
	p.CurrentStock += line.BagQuantity
}

// UpdateContainer edits shipment metadata. Product lines are an immutable
// receipt: once stock and costing have been applied, changing the lines would
// leave the catalog out of step, so any line change is rejected.
func (s *Service) UpdateContainer(id string, updated models.Container) (*models.Container, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.findContainer(id)
	if existing == nil {
		return nil, fmt.Errorf("%w: container %s", ErrNotFound, id)
	}

	if len(updated.Products) > 0 && !sameLines(existing.Products, updated.Products) {
		return nil, ErrImmutableLines
	}

	merged := *existing
	merged.Supplier = updated.Supplier
	merged.PurchaseDate = updated.PurchaseDate
	merged.ShippingDate = updated.ShippingDate
	merged.ArrivalDate = updated.ArrivalDate
	merged.InvoiceNumber = updated.InvoiceNumber
	merged.ShippingCost = updated.ShippingCost
	merged.CustomsCost = updated.CustomsCost
	merged.TotalCost = merged.ComputeTotalCost()

	if res := validate.Container(merged); !res.IsValid {
		return nil, invalid(res)
	}

	*existing = merged
	s.gen++
	return existing, nil
}

func sameLines(a, b []models.ContainerProduct) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// DeleteContainer removes a shipment and fully reverses its stock and cost
// effects. It is blocked while any contained product has sale history.
// Products that this reversal leaves at zero stock and that nothing else
// references are dropped from the catalog.
func (s *Service) DeleteContainer(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var target *models.Container
	idx := -1
	for i := range s.doc.Containers {
		if s.doc.Containers[i].ID == id {
			target = &s.doc.Containers[i]
			idx = i
			break
		}
	}
	if target == nil {
		return fmt.Errorf("%w: container %s", ErrNotFound, id)
	}

	for _, line := range target.Products {
		if s.productHasSales(line.ProductID) {
			return fmt.Errorf("%w: product %d has recorded sales", ErrHasSales, line.ProductID)
		}
	}
	for _, line := range target.Products {
		if line.BagQuantity > s.stockOf(line.ProductID) {
			return fmt.Errorf("%w: product %d stock below received quantity", ErrInsufficientStock, line.ProductID)
		}
	}

	for _, line := range target.Products {
		s.reverseContainerLine(line, id)
	}

	s.doc.Containers = append(s.doc.Containers[:idx], s.doc.Containers[idx+1:]...)
	s.gen++
	s.logger.Info("container deleted", zap.String("id", id))
	return nil
}

func (s *Service) reverseContainerLine(line models.ContainerProduct, containerID string) {
	p := s.findProduct(line.ProductID)
	if p == nil {
		return
	}

	removedKg := float64(line.BagQuantity) * line.BagWeight
	remainingKg := p.StockKg() - removedKg
	if remainingKg > 0 {
		blended := (p.StockKg()*p.CostPerKg - removedKg*line.CostPerKg) / remainingKg
		if blended >= 0 {
			p.CostPerKg = blended
			p.LegacyCostPerUnit = blended
		}
	}
	p.CurrentStock -= line.BagQuantity

	if p.CurrentStock == 0 && !s.productHasSales(p.ID) && !s.productInOtherContainer(p.ID, containerID) {
		s.removeProduct(p.ID)
	}
}

func (s *Service) productInOtherContainer(productID int, exceptContainer string) bool {
	for _, c := range s.doc.Containers {
		if c.ID == exceptContainer {
			continue
		}
		for _, line := range c.Products {
			if line.ProductID == productID {
				return true
			}
		}
	}
	return false
}

// --- Products ---------------------------------------------------------------

// AddProduct inserts a catalog record with a sequence-assigned ID.
func (s *Service) AddProduct(p models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res := validate.Product(p); !res.IsValid {
		return nil, invalid(res)
	}

	p.ID = s.nextID(seqProducts)
	p.LegacyCostPerUnit = p.CostPerKg
	s.doc.Products = append(s.doc.Products, p)
	s.gen++
	return &p, nil
}

// UpdateProduct replaces the editable fields of a catalog record.
func (s *Service) UpdateProduct(id int, updated models.Product) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.findProduct(id)
	if existing == nil {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}

	updated.ID = id
	updated.LegacyCostPerUnit = updated.CostPerKg
	if res := validate.Product(updated); !res.IsValid {
		return nil, invalid(res)
	}

	*existing = updated
	s.gen++
	return existing, nil
}

// DeleteProduct removes a catalog record unless sales reference it.
func (s *Service) DeleteProduct(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findProduct(id) == nil {
		return fmt.Errorf("%w: product %d", ErrNotFound, id)
	}
	if s.productHasSales(id) {
		return fmt.Errorf("%w: product %d", ErrHasSales, id)
	}
	s.removeProduct(id)
	s.gen++
	return nil
}

func (s *Service) findProduct(id int) *models.Product {
	if id == 0 {
		return nil
	}
	for i := range s.doc.Products {
		if s.doc.Products[i].ID == id {
			return &s.doc.Products[i]
		}
	}
	return nil
}

func (s *Service) findContainer(id string) *models.Container {
	for i := range s.doc.Containers {
		if s.doc.Containers[i].ID == id {
			return &s.doc.Containers[i]
		}
	}
	return nil
}

func (s *Service) removeProduct(id int) {
	for i := range s.doc.Products {
		if s.doc.Products[i].ID == id {
			s.doc.Products = append(s.doc.Products[:i], s.doc.Products[i+1:]...)
			return
		}
	}
}

func (s *Service) productHasSales(id int) bool {
	for _, sale := range s.doc.Sales {
		if sale.ProductID == id {
			return true
		}
	}
	return false
}

func (s *Service) stockOf(id int) int {
	if p := s.findProduct(id); p != nil {
		return p.CurrentStock
	}
	return 0
}

// --- Sales ------------------------------------------------------------------

// AddSale records a sale: checks stock, snapshots the per-bag cost from the
// product's current weighted average, derives totals, decrements stock.
func (s *Service) AddSale(sale models.Sale) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.findProduct(sale.ProductID)
	if p == nil {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, sale.ProductID)
	}
	if sale.Quantity > p.CurrentStock {
		return nil, fmt.Errorf("%w: have %d bags of %s, requested %d", ErrInsufficientStock, p.CurrentStock, p.Name, sale.Quantity)
	}

	sale.ProductName = p.Name
	sale.CostPerUnit = p.CostPerKg * p.BagWeight
	sale.TotalAmount = float64(sale.Quantity) * sale.PricePerUnit
	sale.Profit = (sale.PricePerUnit - sale.CostPerUnit) * float64(sale.Quantity)

	if res := validate.Sale(sale); !res.IsValid {
		return nil, invalid(res)
	}

	sale.ID = s.nextID(seqSales)
	s.doc.Sales = append(s.doc.Sales, sale)
	p.CurrentStock -= sale.Quantity
	s.refreshProductSalesStats(p)
	s.gen++
	s.logger.Info("sale recorded",
		zap.Int("id", sale.ID),
		zap.Int("product", sale.ProductID),
		zap.Int("quantity", sale.Quantity))
	return &sale, nil
}

// UpdateSale restores the prior quantity to stock, checks the new quantity
// fits, recomputes totals, and re-applies the decrement. On any failure the
// restored stock is rolled back so the document is unchanged.
func (s *Service) UpdateSale(id int, updated models.Sale) (*models.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *models.Sale
	for i := range s.doc.Sales {
		if s.doc.Sales[i].ID == id {
			existing = &s.doc.Sales[i]
			break
		}
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: sale %d", ErrNotFound, id)
	}

	oldProduct := s.findProduct(existing.ProductID)
	if oldProduct != nil {
		oldProduct.CurrentStock += existing.Quantity
	}
	rollback := func() {
		if oldProduct != nil {
			oldProduct.CurrentStock -= existing.Quantity
		}
	}

	if updated.ProductID == 0 {
		updated.ProductID = existing.ProductID
	}
	p := s.findProduct(updated.ProductID)
	if p == nil {
		rollback()
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, updated.ProductID)
	}
	if updated.Quantity > p.CurrentStock {
		rollback()
		return nil, fmt.Errorf("%w: have %d bags of %s, requested %d", ErrInsufficientStock, p.CurrentStock, p.Name, updated.Quantity)
	}

	updated.ID = id
	updated.ProductName = p.Name
	updated.CostPerUnit = p.CostPerKg * p.BagWeight
	updated.TotalAmount = float64(updated.Quantity) * updated.PricePerUnit
	updated.Profit = (updated.PricePerUnit - updated.CostPerUnit) * float64(updated.Quantity)
	if res := validate.Sale(updated); !res.IsValid {
		rollback()
		return nil, invalid(res)
	}

	p.CurrentStock -= updated.Quantity
	*existing = updated
	if oldProduct != nil && oldProduct.ID != p.ID {
		s.refreshProductSalesStats(oldProduct)
	}
	s.refreshProductSalesStats(p)
	s.gen++
	return existing, nil
}

// DeleteSale removes the record and restores its quantity to stock.
func (s *Service) DeleteSale(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Sales {
		if s.doc.Sales[i].ID != id {
			continue
		}
		sale := s.doc.Sales[i]
		s.doc.Sales = append(s.doc.Sales[:i], s.doc.Sales[i+1:]...)
		if p := s.findProduct(sale.ProductID); p != nil {
			p.CurrentStock += sale.Quantity
			s.refreshProductSalesStats(p)
		}
		s.gen++
		return nil
	}
	return fmt.Errorf("%w: sale %d", ErrNotFound, id)
}

// refreshProductSalesStats recomputes the derived TotalSold and
// AvgSellingPrice fields from the sale history.
func (s *Service) refreshProductSalesStats(p *models.Product) {
	var sold int
	var revenue float64
	for _, sale := range s.doc.Sales {
		if sale.ProductID == p.ID {
			sold += sale.Quantity
			revenue += sale.TotalAmount
		}
	}
	p.TotalSold = sold
	if sold > 0 {
		p.AvgSellingPrice = revenue / float64(sold)
	} else {
		p.AvgSellingPrice = 0
	}
}

// --- Expenses ---------------------------------------------------------------

// AddExpense inserts a validated cash outflow.
func (s *Service) AddExpense(e models.Expense) (*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res := validate.Expense(e); !res.IsValid {
		return nil, invalid(res)
	}
	if e.ContainerID != "" && s.findContainer(e.ContainerID) == nil {
		return nil, fmt.Errorf("%w: container %s", ErrNotFound, e.ContainerID)
	}

	e.ID = s.nextID(seqExpenses)
	s.doc.Expenses = append(s.doc.Expenses, e)
	s.gen++
	return &e, nil
}

// UpdateExpense replaces an expense record after re-validation.
func (s *Service) UpdateExpense(id int, updated models.Expense) (*models.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Expenses {
		if s.doc.Expenses[i].ID != id {
			continue
		}
		updated.ID = id
		if res := validate.Expense(updated); !res.IsValid {
			return nil, invalid(res)
		}
		s.doc.Expenses[i] = updated
		s.gen++
		return &s.doc.Expenses[i], nil
	}
	return nil, fmt.Errorf("%w: expense %d", ErrNotFound, id)
}

// DeleteExpense removes an expense record.
func (s *Service) DeleteExpense(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Expenses {
		if s.doc.Expenses[i].ID == id {
			s.doc.Expenses = append(s.doc.Expenses[:i], s.doc.Expenses[i+1:]...)
			s.gen++
			return nil
		}
	}
	return fmt.Errorf("%w: expense %d", ErrNotFound, id)
}

// --- Partners, withdrawals, injections --------------------------------------

// AddPartner inserts an equity holder. Partners are only ever user-entered;
// nothing in the system fabricates them.
func (s *Service) AddPartner(p models.Partner) (*models.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res := validate.Partner(p); !res.IsValid {
		return nil, invalid(res)
	}

	p.ID = s.nextID(seqPartners)
	s.doc.Partners = append(s.doc.Partners, p)
	s.gen++
	return &p, nil
}

// UpdatePartner replaces a partner record.
func (s *Service) UpdatePartner(id int, updated models.Partner) (*models.Partner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Partners {
		if s.doc.Partners[i].ID != id {
			continue
		}
		updated.ID = id
		if res := validate.Partner(updated); !res.IsValid {
			return nil, invalid(res)
		}
		s.doc.Partners[i] = updated
		s.gen++
		return &s.doc.Partners[i], nil
	}
	return nil, fmt.Errorf("%w: partner %d", ErrNotFound, id)
}

// DeletePartner removes a partner unless withdrawals reference them.
func (s *Service) DeletePartner(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range s.doc.Withdrawals {
		if w.PartnerID == id {
			return fmt.Errorf("%w: partner %d has withdrawals", ErrReferenced, id)
		}
	}
	for i := range s.doc.Partners {
		if s.doc.Partners[i].ID == id {
			s.doc.Partners = append(s.doc.Partners[:i], s.doc.Partners[i+1:]...)
			s.gen++
			return nil
		}
	}
	return fmt.Errorf("%w: partner %d", ErrNotFound, id)
}

func (s *Service) findPartner(id int) *models.Partner {
	for i := range s.doc.Partners {
		if s.doc.Partners[i].ID == id {
			return &s.doc.Partners[i]
		}
	}
	return nil
}

// AddWithdrawal records a partner taking cash out and bumps their capital
// account's running total.
func (s *Service) AddWithdrawal(w models.Withdrawal) (*models.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res := validate.Withdrawal(w); !res.IsValid {
		return nil, invalid(res)
	}

	partner := s.findPartner(w.PartnerID)
	if partner == nil {
		return nil, fmt.Errorf("%w: partner %d", ErrNotFound, w.PartnerID)
	}

	w.ID = s.nextID(seqWithdrawals)
	s.doc.Withdrawals = append(s.doc.Withdrawals, w)
	partner.CapitalAccount.TotalWithdrawn += w.Amount
	s.gen++
	return &w, nil
}

// UpdateWithdrawal replaces a withdrawal record and re-adjusts the affected
// capital accounts by the amount delta. When the withdrawal moves between
// partners, the old partner's running total drops and the new one's rises.
func (s *Service) UpdateWithdrawal(id int, updated models.Withdrawal) (*models.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing *models.Withdrawal
	for i := range s.doc.Withdrawals {
		if s.doc.Withdrawals[i].ID == id {
			existing = &s.doc.Withdrawals[i]
			break
		}
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: withdrawal %d", ErrNotFound, id)
	}

	if updated.PartnerID == 0 {
		updated.PartnerID = existing.PartnerID
	}
	if res := validate.Withdrawal(updated); !res.IsValid {
		return nil, invalid(res)
	}
	partner := s.findPartner(updated.PartnerID)
	if partner == nil {
		return nil, fmt.Errorf("%w: partner %d", ErrNotFound, updated.PartnerID)
	}

	if prev := s.findPartner(existing.PartnerID); prev != nil {
		prev.CapitalAccount.TotalWithdrawn -= existing.Amount
	}
	partner.CapitalAccount.TotalWithdrawn += updated.Amount

	updated.ID = id
	*existing = updated
	s.gen++
	return existing, nil
}

// DeleteWithdrawal removes a withdrawal and reverses the partner's running
// total.
func (s *Service) DeleteWithdrawal(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.Withdrawals {
		if s.doc.Withdrawals[i].ID != id {
			continue
		}
		w := s.doc.Withdrawals[i]
		s.doc.Withdrawals = append(s.doc.Withdrawals[:i], s.doc.Withdrawals[i+1:]...)
		if p := s.findPartner(w.PartnerID); p != nil {
			p.CapitalAccount.TotalWithdrawn -= w.Amount
		}
		s.gen++
		return nil
	}
	return fmt.Errorf("%w: withdrawal %d", ErrNotFound, id)
}

// AddCashInjection records capital added to the business.
func (s *Service) AddCashInjection(ci models.CashInjection) (*models.CashInjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if res := validate.CashInjection(ci); !res.IsValid {
		return nil, invalid(res)
	}

	ci.ID = s.nextID(seqCashInjections)
	s.doc.CashInjections = append(s.doc.CashInjections, ci)
	s.gen++
	return &ci, nil
}

// UpdateCashInjection replaces a capital-injection record after re-validation.
func (s *Service) UpdateCashInjection(id int, updated models.CashInjection) (*models.CashInjection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.CashInjections {
		if s.doc.CashInjections[i].ID != id {
			continue
		}
		updated.ID = id
		if res := validate.CashInjection(updated); !res.IsValid {
			return nil, invalid(res)
		}
		s.doc.CashInjections[i] = updated
		s.gen++
		return &s.doc.CashInjections[i], nil
	}
	return nil, fmt.Errorf("%w: cash injection %d", ErrNotFound, id)
}

// DeleteCashInjection removes a capital-injection record.
func (s *Service) DeleteCashInjection(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.CashInjections {
		if s.doc.CashInjections[i].ID == id {
			s.doc.CashInjections = append(s.doc.CashInjections[:i], s.doc.CashInjections[i+1:]...)
			s.gen++
			return nil
		}
	}
	return fmt.Errorf("%w: cash injection %d", ErrNotFound, id)
}

// --- Cash flows -------------------------------------------------------------

// ReplaceCashFlows swaps in a rebuilt daily ledger. Records are keyed by
// date: a rebuilt day keeps the ID its stored record already had, so
// repeated rebuilds of unchanged input leave the stored rows identical and
// only genuinely new dates consume the sequence. Used by the finance
// rebuild.
func (s *Service) ReplaceCashFlows(flows []models.CashFlow) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idByDate := make(map[string]int, len(s.doc.CashFlows))
	for _, cf := range s.doc.CashFlows {
		idByDate[cf.Date] = cf.ID
	}
	for i := range flows {
		if id, ok := idByDate[flows[i].Date]; ok {
			flows[i].ID = id
		} else {
			flows[i].ID = s.nextID(seqCashFlows)
		}
	}
	s.doc.CashFlows = flows
	s.gen++
}

// ReconcileCashFlow records a physically counted balance against a day's
// theoretical one.
func (s *Service) ReconcileCashFlow(date string, actualBalance float64, by, notes string) (*models.CashFlow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.doc.CashFlows {
		cf := &s.doc.CashFlows[i]
		if cf.Date != date {
			continue
		}
		cf.ActualBalance = actualBalance
		cf.Discrepancy = actualBalance - cf.TheoreticalBalance
		cf.Reconciled = true
		cf.ReconciledAt = s.now().UTC().Format(time.RFC3339)
		cf.ReconciledBy = by
		cf.Notes = notes
		s.gen++
		return cf, nil
	}
	return nil, fmt.Errorf("%w: cash flow for %s", ErrNotFound, date)
}

package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockbook/internal/domain/models"
	"stockbook/internal/service/ledger"
)

// LedgerHandler exposes CRUD over the business collections.
type LedgerHandler struct {
	ledger *ledger.Service
	logger *zap.Logger
}

// NewLedgerHandler constructs the ledger HTTP adapter.
func NewLedgerHandler(ledgerSvc *ledger.Service, logger *zap.Logger) *LedgerHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerHandler{ledger: ledgerSvc, logger: logger}
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be numeric"})
		return 0, false
	}
	return id, true
}

// --- Containers -------------------------------------------------------------

func (h *LedgerHandler) ListContainers(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Containers())
}

func (h *LedgerHandler) CreateContainer(c *gin.Context) {
	var body models.Container
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid container payload"})
		return
	}
	created, err := h.ledger.AddContainer(body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *LedgerHandler) UpdateContainer(c *gin.Context) {
	var body models.Container
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid container payload"})
		return
	}
	updated, err := h.ledger.UpdateContainer(c.Param("id"), body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *LedgerHandler) DeleteContainer(c *gin.Context) {
	if err := h.ledger.DeleteContainer(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Products ---------------------------------------------------------------

func (h *LedgerHandler) ListProducts(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Products())
}

func (h *LedgerHandler) CreateProduct(c *gin.Context) {
	var body models.Product
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}
	created, err := h.ledger.AddProduct(body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *LedgerHandler) UpdateProduct(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var body models.Product
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}
	updated, err := h.ledger.UpdateProduct(id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *LedgerHandler) DeleteProduct(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteProduct(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Sales ------------------------------------------------------------------

func (h *LedgerHandler) ListSales(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Sales())
}

func (h *LedgerHandler) CreateSale(c *gin.Context) {
	var body models.Sale
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sale payload"})
		return
	}
	created, err := h.ledger.AddSale(body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *LedgerHandler) UpdateSale(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var body models.Sale
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sale payload"})
		return
	}
	updated, err := h.ledger.UpdateSale(id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *LedgerHandler) DeleteSale(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteSale(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Expenses ---------------------------------------------------------------

func (h *LedgerHandler) ListExpenses(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Expenses())
}

func (h *LedgerHandler) CreateExpense(c *gin.Context) {
	var body models.Expense
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense payload"})
		return
	}
	created, err := h.ledger.AddExpense(body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *LedgerHandler) UpdateExpense(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var body models.Expense
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense payload"})
		return
	}
	updated, err := h.ledger.UpdateExpense(id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *LedgerHandler) DeleteExpense(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteExpense(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Partners, withdrawals, injections --------------------------------------

func (h *LedgerHandler) ListPartners(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Partners())
}

func (h *LedgerHandler) CreatePartner(c *gin.Context) {
	var body models.Partner
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid partner payload"})
		return
	}
	created, err := h.ledger.AddPartner(body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *LedgerHandler) UpdatePartner(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var body models.Partner
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid partner payload"})
		return
	}
	updated, err := h.ledger.UpdatePartner(id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *LedgerHandler) DeletePartner(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeletePartner(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LedgerHandler) ListWithdrawals(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Withdrawals())
}

func (h *LedgerHandler) CreateWithdrawal(c *gin.Context) {
	var body models.Withdrawal
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal payload"})
		return
	}
	created, err := h.ledger.AddWithdrawal(body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *LedgerHandler) UpdateWithdrawal(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var body models.Withdrawal
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal payload"})
		return
	}
	updated, err := h.ledger.UpdateWithdrawal(id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *LedgerHandler) DeleteWithdrawal(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteWithdrawal(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *LedgerHandler) ListCashInjections(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.CashInjections())
}

func (h *LedgerHandler) CreateCashInjection(c *gin.Context) {
	var body models.CashInjection
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cash injection payload"})
		return
	}
	created, err := h.ledger.AddCashInjection(body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *LedgerHandler) UpdateCashInjection(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var body models.CashInjection
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cash injection payload"})
		return
	}
	updated, err := h.ledger.UpdateCashInjection(id, body)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *LedgerHandler) DeleteCashInjection(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	if err := h.ledger.DeleteCashInjection(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Reports ----------------------------------------------------------------

// Summary aggregates financials over an optional from/to date range.
func (h *LedgerHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Summary(c.Query("from"), c.Query("to")))
}

// LowStock lists products at or below the threshold query parameter
// (default 5 bags).
func (h *LedgerHandler) LowStock(c *gin.Context) {
	threshold := 5
	if raw := c.Query("threshold"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			threshold = v
		}
	}
	c.JSON(http.StatusOK, h.ledger.LowStock(threshold))
}

// TopProducts ranks products by units sold.
func (h *LedgerHandler) TopProducts(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}
	c.JSON(http.StatusOK, h.ledger.TopSellingProducts(limit))
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockbook/internal/domain/validate"
	"stockbook/internal/service/finance"
	"stockbook/internal/service/ledger"
)

// FinanceHandler exposes the cash-flow ledger and the integrity scan.
type FinanceHandler struct {
	ledger  *ledger.Service
	finance *finance.Rebuilder
	logger  *zap.Logger
}

// NewFinanceHandler constructs the finance HTTP adapter.
func NewFinanceHandler(ledgerSvc *ledger.Service, rebuilder *finance.Rebuilder, logger *zap.Logger) *FinanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FinanceHandler{ledger: ledgerSvc, finance: rebuilder, logger: logger}
}

// ListCashFlows returns the daily reconciliation ledger.
func (h *FinanceHandler) ListCashFlows(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.CashFlows())
}

// Rebuild reconstructs the whole cash-flow ledger from the transactional
// collections and swaps it in.
func (h *FinanceHandler) Rebuild(c *gin.Context) {
	doc, _ := h.ledger.Snapshot()
	flows := h.finance.Rebuild(finance.Input{
		Containers:     doc.Containers,
		Sales:          doc.Sales,
		Expenses:       doc.Expenses,
		Withdrawals:    doc.Withdrawals,
		CashInjections: doc.CashInjections,
	})
	h.ledger.ReplaceCashFlows(flows)
	c.JSON(http.StatusOK, gin.H{"days": len(flows), "cashFlows": flows})
}

type reconcileRequest struct {
	Date          string  `json:"date" binding:"required"`
	ActualBalance float64 `json:"actualBalance"`
	ReconciledBy  string  `json:"reconciledBy"`
	Notes         string  `json:"notes"`
}

// Reconcile records a physically counted balance for a day.
func (h *FinanceHandler) Reconcile(c *gin.Context) {
	var req reconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reconcile payload"})
		return
	}

	cf, err := h.ledger.ReconcileCashFlow(req.Date, req.ActualBalance, req.ReconciledBy, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cf)
}

// Integrity runs the offline consistency scan over the whole document.
func (h *FinanceHandler) Integrity(c *gin.Context) {
	doc, _ := h.ledger.Snapshot()
	result := validate.DataIntegrity(doc)
	status := http.StatusOK
	if !result.IsValid {
		h.logger.Warn("integrity scan found problems", zap.Int("findings", len(result.Errors)))
	}
	c.JSON(status, result)
}

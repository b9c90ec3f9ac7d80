package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockbook/internal/domain/models"
	"stockbook/internal/service/backup"
	"stockbook/internal/service/ledger"
)

// BackupHandler serves snapshot export and import.
type BackupHandler struct {
	ledger *ledger.Service
	logger *zap.Logger
}

// NewBackupHandler constructs the backup HTTP adapter.
func NewBackupHandler(ledgerSvc *ledger.Service, logger *zap.Logger) *BackupHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackupHandler{ledger: ledgerSvc, logger: logger}
}

// Export downloads the current document as a snapshot file.
func (h *BackupHandler) Export(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="stockbook-backup.json"`)
	doc, _ := h.ledger.Snapshot()
	c.JSON(http.StatusOK, doc)
}

// Import merges an uploaded snapshot into the live document. Every imported
// record gets a fresh ID and relational references follow the remap; the
// result is held in memory as unsaved changes until the next sync.
func (h *BackupHandler) Import(c *gin.Context) {
	var snapshot models.Document
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid snapshot payload"})
		return
	}
	snapshot.Normalize()

	merged, _ := h.ledger.Snapshot()
	summary := backup.Merge(merged, &snapshot, h.logger.Named("svc.backup"))
	h.ledger.ImportDocument(merged)

	h.logger.Info("snapshot imported",
		zap.Int("products", summary.Products),
		zap.Int("sales", summary.Sales))
	c.JSON(http.StatusOK, gin.H{"imported": summary})
}

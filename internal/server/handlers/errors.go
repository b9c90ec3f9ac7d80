package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stockbook/internal/repository/github"
	"stockbook/internal/service/ledger"
	syncsvc "stockbook/internal/service/sync"
)

// respondError maps domain and remote-store failures onto HTTP statuses. The
// errorType field mirrors the remote client's classification so the UI can
// key its messaging off it.
func respondError(c *gin.Context, err error) {
	var apiErr *github.APIError
	if errors.As(err, &apiErr) {
		status := http.StatusBadGateway
		if apiErr.Type == github.ErrConflict {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{
			"error":     apiErr.Message,
			"errorType": string(apiErr.Type),
			"status":    apiErr.Status,
		})
		return
	}

	switch {
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrDuplicateID),
		errors.Is(err, ledger.ErrHasSales),
		errors.Is(err, ledger.ErrReferenced),
		errors.Is(err, ledger.ErrImmutableLines):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ledger.ErrInsufficientStock):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, syncsvc.ErrNotConnected):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

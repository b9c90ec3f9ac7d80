package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockbook/internal/service/ledger"
	syncsvc "stockbook/internal/service/sync"
	"stockbook/pkg/vault"
)

// SyncHandler exposes the connection lifecycle and manual fetch/save actions.
type SyncHandler struct {
	orch   *syncsvc.Orchestrator
	ledger *ledger.Service
	logger *zap.Logger
}

// NewSyncHandler constructs the sync HTTP adapter.
func NewSyncHandler(orch *syncsvc.Orchestrator, ledgerSvc *ledger.Service, logger *zap.Logger) *SyncHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncHandler{orch: orch, ledger: ledgerSvc, logger: logger}
}

type connectRequest struct {
	Owner          string             `json:"owner" binding:"required"`
	Repo           string             `json:"repo" binding:"required"`
	Token          string             `json:"token"`
	EncryptedToken string             `json:"encryptedToken"`
	Password       string             `json:"password"`
	Fingerprint    *vault.Fingerprint `json:"fingerprint"`
}

// Connect verifies the repository, loads the remote document into the ledger,
// and hands back a sealed token for the client to store. The clear token is
// kept only in process memory.
func (h *SyncHandler) Connect(c *gin.Context) {
	var req connectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	key, keyErr := h.credentialKey(req)

	token := req.Token
	if token == "" && req.EncryptedToken != "" {
		if keyErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": keyErr.Error()})
			return
		}
		opened, err := vault.Open(key, req.EncryptedToken)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stored credential could not be decrypted"})
			return
		}
		token = opened
	}
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either token or encryptedToken is required"})
		return
	}

	info, err := h.orch.Connect(c.Request.Context(), req.Owner, req.Repo, token)
	if err != nil {
		h.logger.Warn("connect failed", zap.String("owner", req.Owner), zap.String("repo", req.Repo), zap.Error(err))
		respondError(c, err)
		return
	}

	fetched, err := h.orch.FetchData(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	h.ledger.Load(fetched.Document)

	resp := gin.H{
		"repository": info,
		"status":     h.orch.Status(),
		"isNewFile":  fetched.IsNewFile,
	}
	if req.Token != "" && keyErr == nil {
		sealed, sealErr := vault.Seal(key, req.Token)
		if sealErr == nil {
			resp["encryptedToken"] = sealed
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SyncHandler) credentialKey(req connectRequest) ([]byte, error) {
	switch {
	case req.Password != "":
		return vault.KeyFromPassword(req.Password), nil
	case req.Fingerprint != nil:
		return vault.KeyFromFingerprint(*req.Fingerprint), nil
	default:
		return nil, errors.New("password or fingerprint required to handle credentials")
	}
}

// Disconnect tears the connection down and clears dependent state through the
// registered callbacks.
func (h *SyncHandler) Disconnect(c *gin.Context) {
	h.orch.Disconnect()
	c.JSON(http.StatusOK, gin.H{"status": h.orch.Status()})
}

// Status reports the connection and sync state.
func (h *SyncHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.orch.Status())
}

// Fetch re-reads the remote document and replaces the in-memory ledger.
// Unsaved local mutations are rejected unless discard is set.
func (h *SyncHandler) Fetch(c *gin.Context) {
	if h.ledger.Dirty() && c.Query("discard") != "true" {
		c.JSON(http.StatusConflict, gin.H{"error": "unsaved local changes; pass discard=true to drop them"})
		return
	}

	res, err := h.orch.FetchData(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	h.ledger.Load(res.Document)
	c.JSON(http.StatusOK, gin.H{
		"isNewFile": res.IsNewFile,
		"wasEmpty":  res.WasEmpty,
		"document":  res.Document,
	})
}

type saveRequest struct {
	CommitMessage string `json:"commitMessage"`
}

// Save persists the current ledger document under the cached revision token.
// A 409 response means the remote file changed underneath us; the client
// decides between re-fetching and force-saving.
func (h *SyncHandler) Save(c *gin.Context) {
	var req saveRequest
	_ = c.ShouldBindJSON(&req)
	if req.CommitMessage == "" {
		req.CommitMessage = "Update inventory data"
	}

	doc, gen := h.ledger.Snapshot()
	commit, err := h.orch.SaveData(c.Request.Context(), doc, req.CommitMessage)
	if err != nil {
		respondError(c, err)
		return
	}
	h.ledger.MarkSaved(gen)
	c.JSON(http.StatusOK, gin.H{"commit": commit})
}

// ForceSave overwrites the remote file regardless of its current revision.
// This is the recovery path for corrupted or conflicting remote state.
func (h *SyncHandler) ForceSave(c *gin.Context) {
	var req saveRequest
	_ = c.ShouldBindJSON(&req)
	if req.CommitMessage == "" {
		req.CommitMessage = "Force overwrite inventory data"
	}

	doc, gen := h.ledger.Snapshot()
	commit, err := h.orch.ForceSaveData(c.Request.Context(), doc, req.CommitMessage)
	if err != nil {
		respondError(c, err)
		return
	}
	h.ledger.MarkSaved(gen)
	c.JSON(http.StatusOK, gin.H{"commit": commit})
}

type switchFileRequest struct {
	FileName string `json:"fileName" binding:"required"`
}

// SwitchFile changes the active data file and reloads the ledger from it.
func (h *SyncHandler) SwitchFile(c *gin.Context) {
	var req switchFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileName is required"})
		return
	}

	h.orch.SwitchFile(req.FileName)
	res, err := h.orch.FetchData(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	h.ledger.Load(res.Document)
	c.JSON(http.StatusOK, gin.H{"fileName": req.FileName, "isNewFile": res.IsNewFile})
}

// RateLimit reports the remaining remote API quota.
func (h *SyncHandler) RateLimit(c *gin.Context) {
	rl, err := h.orch.RateLimit(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rl)
}

package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/userhub/backend/internal/metrics"
	"github.com/userhub/backend/internal/service"
	"github.com/userhub/backend/internal/types"
)

// AccountHandler serves the account deletion endpoint
type AccountHandler struct {
	accounts service.IAccountService
	metrics  metrics.Recorder
}

// NewAccountHandler creates a new AccountHandler instance
func NewAccountHandler(accounts service.IAccountService, recorder metrics.Recorder) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		metrics:  recorder,
	}
}

// DeleteAccount permanently deletes the caller's account after a password
// confirmation. The two deletion-specific auth failures get friendlier
// messages than the provider's own; everything else is surfaced as-is.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID, issuedAt, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req types.DeleteAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordDeletion(metrics.OutcomeRejected)
		c.JSON(http.StatusBadRequest, gin.H{"error": "please enter your password to confirm"})
		return
	}

	result, err := h.accounts.DeleteAccount(c.Request.Context(), userID, issuedAt, req.Password)
	if err != nil {
		h.metrics.RecordDeletion(metrics.OutcomeRejected)
		switch {
		case errors.Is(err, service.ErrWrongPassword):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "incorrect password, please try again"})
		case errors.Is(err, service.ErrRequiresRecentLogin):
			c.JSON(http.StatusForbidden, gin.H{"error": "please log out and log back in to delete your account"})
		default:
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
		}
		return
	}

	if result.BlobWarning != nil {
		// Best-effort: the picture blob survived, the account did not.
		log.Printf("[AccountHandler] profile picture deletion failed for %s: %v", userID, result.BlobWarning)
	}

	h.metrics.RecordDeletion(metrics.OutcomeOK)
	c.JSON(http.StatusOK, gin.H{"message": "your account has been deleted"})
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/userhub/backend/internal/metrics"
	"github.com/userhub/backend/internal/service"
	"github.com/userhub/backend/internal/types"
)

// AuthHandler serves the unauthenticated endpoints: signup and login
type AuthHandler struct {
	accounts service.IAccountService
	identity service.IIdentityService
	metrics  metrics.Recorder
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(accounts service.IAccountService, identity service.IIdentityService, recorder metrics.Recorder) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		identity: identity,
		metrics:  recorder,
	}
}

// Register handles account creation. A partial failure after the identity
// was created still surfaces an error: the identity exists without a
// profile document and the client sees the "no profile" state until it is
// repaired.
func (h *AuthHandler) Register(c *gin.Context) {
	var req types.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordSignup(metrics.OutcomeRejected)
		c.JSON(http.StatusBadRequest, gin.H{"error": "please fill in all fields"})
		return
	}

	result, err := h.accounts.Signup(c.Request.Context(), &req)
	if err != nil {
		if service.IsValidationError(err) || result == nil {
			h.metrics.RecordSignup(metrics.OutcomeRejected)
			c.JSON(statusForError(err), gin.H{"error": err.Error()})
			return
		}
		// Identity created, profile write failed.
		h.metrics.RecordSignup(metrics.OutcomeError)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.metrics.RecordSignup(metrics.OutcomeOK)
	c.JSON(http.StatusCreated, types.SessionResponse{
		UserID: result.User.ID.String(),
		Email:  result.User.Email,
		Token:  result.Token,
	})
}

// Login handles sign-in. The provider's error message is surfaced verbatim.
func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordLogin(metrics.OutcomeRejected)
		c.JSON(http.StatusBadRequest, gin.H{"error": "please enter both email and password"})
		return
	}

	user, token, err := h.identity.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordLogin(metrics.OutcomeRejected)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	h.metrics.RecordLogin(metrics.OutcomeOK)
	c.JSON(http.StatusOK, types.SessionResponse{
		UserID: user.ID.String(),
		Email:  user.Email,
		Token:  token,
	})
}

// RegisterRoutes registers the auth routes
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := router.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
	}
}

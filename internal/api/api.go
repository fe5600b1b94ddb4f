// Package api contains the gin handlers for the account lifecycle
// endpoints. Every handler catches its operation's failures at this
// boundary and reports a single user-facing message; nothing propagates
// further and nothing is retried.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/userhub/backend/internal/service"
)

// sessionFromContext pulls the authenticated session the auth middleware
// stored on the request
func sessionFromContext(c *gin.Context) (uuid.UUID, time.Time, bool) {
	rawID, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, time.Time{}, false
	}
	userID, ok := rawID.(uuid.UUID)
	if !ok {
		return uuid.Nil, time.Time{}, false
	}

	issuedAt := time.Time{}
	if raw, exists := c.Get("token_issued_at"); exists {
		if t, ok := raw.(time.Time); ok {
			issuedAt = t
		}
	}
	return userID, issuedAt, true
}

// statusForError maps service errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case service.IsValidationError(err):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrWeakPassword):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrDuplicateUsername),
		errors.Is(err, service.ErrEmailInUse):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrWrongPassword):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrRequiresRecentLogin):
		return http.StatusForbidden
	case errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrIdentityNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

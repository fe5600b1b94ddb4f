package api

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/userhub/backend/internal/metrics"
	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/service"
	"github.com/userhub/backend/internal/types"
)

// maxPictureSize bounds profile picture uploads to 10 MiB
const maxPictureSize = 10 << 20

// ProfileHandler serves the authenticated profile endpoints
type ProfileHandler struct {
	profiles service.IProfileService
	watcher  service.IProfileWatcher
	uploader service.ImageUploader
	identity service.IIdentityService
	metrics  metrics.Recorder
}

// NewProfileHandler creates a new ProfileHandler instance
func NewProfileHandler(profiles service.IProfileService, watcher service.IProfileWatcher, uploader service.ImageUploader, identity service.IIdentityService, recorder metrics.Recorder) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		watcher:  watcher,
		uploader: uploader,
		identity: identity,
		metrics:  recorder,
	}
}

// GetProfile returns the caller's profile document
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, _, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	profile, err := h.profiles.Get(c.Request.Context(), userID)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile applies a profile edit to the caller's document
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, _, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req types.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	profile, err := h.profiles.Update(c.Request.Context(), userID, &req)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UploadPicture replaces the caller's profile picture: the image goes to
// the external image host, then the returned URL and asset id are persisted
// into the profile document. The previous remote image is left in place.
func (h *ProfileHandler) UploadPicture(c *gin.Context) {
	userID, _, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.metrics.RecordUpload(metrics.OutcomeRejected)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image selected"})
		return
	}
	if fileHeader.Size > maxPictureSize {
		h.metrics.RecordUpload(metrics.OutcomeRejected)
		c.JSON(http.StatusBadRequest, gin.H{"error": "image too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.metrics.RecordUpload(metrics.OutcomeError)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read image"})
		return
	}
	defer func() { _ = file.Close() }()

	upload, err := h.uploader.Upload(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		h.metrics.RecordUpload(metrics.OutcomeError)
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed: " + err.Error()})
		return
	}

	profile, err := h.profiles.SetPicture(c.Request.Context(), userID, upload.URL, upload.AssetID)
	if err != nil {
		h.metrics.RecordUpload(metrics.OutcomeError)
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	h.metrics.RecordUpload(metrics.OutcomeOK)
	c.JSON(http.StatusOK, profile)
}

// watchEvent is one SSE payload of the profile watch stream
type watchEvent struct {
	Profile *models.UserProfile `json:"profile,omitempty"`
	Exists  bool                `json:"exists"`
	Error   string              `json:"error,omitempty"`
}

// WatchProfile streams live snapshots of the caller's profile document as
// server-sent events. The watch is torn down when the client disconnects;
// a missing document streams as exists=false, never as an error.
func (h *ProfileHandler) WatchProfile(c *gin.Context) {
	userID, _, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	watch := h.watcher.Watch(c.Request.Context(), userID)
	defer watch.Cancel()

	h.metrics.WatchOpened()
	defer h.metrics.WatchClosed()

	c.Stream(func(w io.Writer) bool {
		snap, open := <-watch.Snapshots()
		if !open {
			return false
		}

		ev := watchEvent{
			Profile: snap.Profile,
			Exists:  snap.Profile != nil,
		}
		if snap.Err != nil {
			ev.Error = snap.Err.Error()
		}
		c.SSEvent("profile", ev)
		return true
	})
}

// Logout ends the caller's session
func (h *ProfileHandler) Logout(c *gin.Context) {
	userID, _, ok := sessionFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if err := h.identity.SignOut(c.Request.Context(), userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out successfully"})
}

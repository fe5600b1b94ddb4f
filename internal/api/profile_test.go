package api

import (
	"bufio"
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/userhub/backend/internal/mocks"
	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/pubsub"
	"github.com/userhub/backend/internal/service"
	"github.com/userhub/backend/internal/types"
)

// sessionInjector stands in for the auth middleware
func sessionInjector(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("email", "alice@example.com")
		c.Set("token_issued_at", time.Now())
		c.Next()
	}
}

type profileFixture struct {
	router   *gin.Engine
	userID   uuid.UUID
	profiles *mocks.MockProfileService
	uploader *mocks.MockUploader
	identity *mocks.MockIdentityService
	watcher  *service.ProfileWatcher
	broker   *pubsub.MemoryBroker
}

func setupProfileTest(t *testing.T) *profileFixture {
	gin.SetMode(gin.TestMode)
	f := &profileFixture{
		userID:   uuid.New(),
		profiles: new(mocks.MockProfileService),
		uploader: new(mocks.MockUploader),
		identity: new(mocks.MockIdentityService),
		broker:   pubsub.NewMemoryBroker(),
	}
	f.watcher = service.NewProfileWatcher(f.profiles, f.broker)

	handler := NewProfileHandler(f.profiles, f.watcher, f.uploader, f.identity, newTestRecorder())
	f.router = gin.New()
	group := f.router.Group("/api/v1")
	group.Use(sessionInjector(f.userID))
	group.GET("/profile", handler.GetProfile)
	group.GET("/profile/watch", handler.WatchProfile)
	group.PUT("/profile", handler.UpdateProfile)
	group.POST("/profile/picture", handler.UploadPicture)
	group.POST("/profile/logout", handler.Logout)
	return f
}

func TestGetProfile(t *testing.T) {
	f := setupProfileTest(t)

	f.profiles.On("Get", mock.Anything, f.userID).Return(&models.UserProfile{
		ID:       f.userID,
		Name:     "Alice",
		Username: "alice",
	}, nil)

	req := httptest.NewRequest("GET", "/api/v1/profile", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var profile models.UserProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	assert.Equal(t, "alice", profile.Username)
}

func TestGetProfileNotFound(t *testing.T) {
	f := setupProfileTest(t)

	f.profiles.On("Get", mock.Anything, f.userID).Return(nil, service.ErrProfileNotFound)

	req := httptest.NewRequest("GET", "/api/v1/profile", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProfile(t *testing.T) {
	f := setupProfileTest(t)

	updated := &models.UserProfile{ID: f.userID, Name: "Alice Smith", Username: "asmith"}
	f.profiles.On("Update", mock.Anything, f.userID, &types.UpdateProfileRequest{
		Name:         "Alice Smith",
		Username:     "asmith",
		MobileNumber: "07700900001",
	}).Return(updated, nil)

	req := httptest.NewRequest("PUT", "/api/v1/profile", strings.NewReader(`{
		"name": "Alice Smith",
		"username": "asmith",
		"mobile_number": "07700900001"
	}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUpdateProfileValidationError(t *testing.T) {
	f := setupProfileTest(t)

	// Empty fields reach the service, which rejects them.
	f.profiles.On("Update", mock.Anything, f.userID, mock.Anything).
		Return(nil, &service.ValidationError{Message: "all fields are required"})

	req := httptest.NewRequest("PUT", "/api/v1/profile", strings.NewReader(`{
		"name": "",
		"username": "asmith",
		"mobile_number": "07700900001"
	}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func multipartUpload(t *testing.T, field, filename string, size int) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), size))
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return &body, writer.FormDataContentType()
}

func TestUploadPicture(t *testing.T) {
	f := setupProfileTest(t)

	f.uploader.On("Upload", mock.Anything, "avatar.jpg", mock.Anything).Return(&service.UploadResult{
		URL:     "https://images.example.com/a.jpg",
		AssetID: "asset-1",
	}, nil)
	f.profiles.On("SetPicture", mock.Anything, f.userID, "https://images.example.com/a.jpg", "asset-1").
		Return(&models.UserProfile{ID: f.userID, PictureURL: "https://images.example.com/a.jpg"}, nil)

	body, contentType := multipartUpload(t, "file", "avatar.jpg", 1024)
	req := httptest.NewRequest("POST", "/api/v1/profile/picture", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	f.profiles.AssertExpectations(t)
}

func TestUploadPictureMissingFile(t *testing.T) {
	f := setupProfileTest(t)

	body, contentType := multipartUpload(t, "image", "avatar.jpg", 1024)
	req := httptest.NewRequest("POST", "/api/v1/profile/picture", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.uploader.AssertNotCalled(t, "Upload")
}

func TestUploadPictureTooLarge(t *testing.T) {
	f := setupProfileTest(t)

	body, contentType := multipartUpload(t, "file", "avatar.jpg", maxPictureSize+1)
	req := httptest.NewRequest("POST", "/api/v1/profile/picture", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.uploader.AssertNotCalled(t, "Upload")
}

func TestUploadPictureHostFailure(t *testing.T) {
	f := setupProfileTest(t)

	f.uploader.On("Upload", mock.Anything, "avatar.jpg", mock.Anything).
		Return(nil, assert.AnError)

	body, contentType := multipartUpload(t, "file", "avatar.jpg", 1024)
	req := httptest.NewRequest("POST", "/api/v1/profile/picture", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	f.profiles.AssertNotCalled(t, "SetPicture")
}

func TestWatchProfileStreamsSnapshots(t *testing.T) {
	f := setupProfileTest(t)

	f.profiles.On("Get", mock.Anything, f.userID).Return(&models.UserProfile{
		ID:       f.userID,
		Username: "alice",
	}, nil)

	server := httptest.NewServer(f.router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/profile/watch")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/event-stream")

	// The initial snapshot arrives without any write happening.
	reader := bufio.NewReader(resp.Body)
	var event, data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "event:") {
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		}
		if strings.HasPrefix(line, "data:") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			break
		}
	}

	assert.Equal(t, "profile", event)
	var ev struct {
		Exists  bool                `json:"exists"`
		Profile *models.UserProfile `json:"profile"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.True(t, ev.Exists)
	require.NotNil(t, ev.Profile)
	assert.Equal(t, "alice", ev.Profile.Username)
}

func TestWatchProfileMissingDocument(t *testing.T) {
	f := setupProfileTest(t)

	f.profiles.On("Get", mock.Anything, f.userID).Return(nil, service.ErrProfileNotFound)

	server := httptest.NewServer(f.router)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/profile/watch")
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	var data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "data:") {
			data = strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			break
		}
	}

	// A missing document is a "no profile" snapshot, not an error.
	var ev struct {
		Exists bool   `json:"exists"`
		Error  string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &ev))
	assert.False(t, ev.Exists)
	assert.Empty(t, ev.Error)
}

func TestLogout(t *testing.T) {
	f := setupProfileTest(t)

	f.identity.On("SignOut", mock.Anything, f.userID).Return(nil)

	req := httptest.NewRequest("POST", "/api/v1/profile/logout", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	f.identity.AssertExpectations(t)
}

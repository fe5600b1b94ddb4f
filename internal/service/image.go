package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	"github.com/userhub/backend/config"
)

// UploadResult carries what the image host returns for a stored image: a
// public URL and the host's own asset identifier, both persisted into the
// profile document.
type UploadResult struct {
	URL     string
	AssetID string
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// CloudinaryService uploads images to the Cloudinary unsigned-upload API.
// Uploads are single-shot: no retry, no resumable uploads.
type CloudinaryService struct {
	cloudName    string
	uploadPreset string
	apiBase      string
	client       *http.Client
}

// NewCloudinaryService creates a new CloudinaryService instance
func NewCloudinaryService(cfg *config.Config) (*CloudinaryService, error) {
	if cfg.CloudinaryCloudName == "" || cfg.CloudinaryUploadPreset == "" {
		return nil, fmt.Errorf("CLOUDINARY_CLOUD_NAME and CLOUDINARY_UPLOAD_PRESET must be set")
	}

	apiBase := os.Getenv("CLOUDINARY_API_BASE")
	if apiBase == "" {
		apiBase = "https://api.cloudinary.com/v1_1"
	}

	return &CloudinaryService{
		cloudName:    cfg.CloudinaryCloudName,
		uploadPreset: cfg.CloudinaryUploadPreset,
		apiBase:      apiBase,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Upload sends the image as a multipart form with the configured upload
// preset and returns the hosted image's public URL and asset id.
func (s *CloudinaryService) Upload(ctx context.Context, fileName string, data io.Reader) (*UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if err := writer.WriteField("upload_preset", s.uploadPreset); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	uploadURL := fmt.Sprintf("%s/%s/image/upload", s.apiBase, s.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result cloudinaryResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("[CloudinaryService] upload failed with status %d: %s", resp.StatusCode, string(respBody))
		if result.Error.Message != "" {
			return nil, fmt.Errorf("upload failed: %s", result.Error.Message)
		}
		return nil, fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	if result.SecureURL == "" {
		return nil, fmt.Errorf("no image URL in upload response")
	}

	return &UploadResult{
		URL:     result.SecureURL,
		AssetID: result.PublicID,
	}, nil
}

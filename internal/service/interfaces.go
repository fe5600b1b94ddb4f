package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/types"
)

// IIdentityService defines the identity provider operations the API layer
// consumes
type IIdentityService interface {
	CreateIdentity(ctx context.Context, email, password string) (*models.User, string, error)
	SignIn(ctx context.Context, email, password string) (*models.User, string, error)
	Reauthenticate(ctx context.Context, userID uuid.UUID, issuedAt time.Time, password string) error
	DeleteIdentity(ctx context.Context, userID uuid.UUID) error
	SignOut(ctx context.Context, userID uuid.UUID) error
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IProfileService defines the profile store operations the API layer
// consumes
type IProfileService interface {
	Get(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	Update(ctx context.Context, id uuid.UUID, req *types.UpdateProfileRequest) (*models.UserProfile, error)
	SetPicture(ctx context.Context, id uuid.UUID, url, assetID string) (*models.UserProfile, error)
}

// IAccountService defines the orchestrated lifecycle operations
type IAccountService interface {
	Signup(ctx context.Context, req *types.SignupRequest) (*SignupResult, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID, issuedAt time.Time, password string) (*DeleteResult, error)
}

// ImageUploader uploads an image to the external image host
type ImageUploader interface {
	Upload(ctx context.Context, fileName string, data io.Reader) (*UploadResult, error)
}

// IProfileWatcher opens live profile watches
type IProfileWatcher interface {
	Watch(ctx context.Context, profileID uuid.UUID) *Watch
}

var (
	_ IIdentityService = (*IdentityService)(nil)
	_ IProfileService  = (*ProfileService)(nil)
	_ IAccountService  = (*AccountService)(nil)
	_ ImageUploader    = (*CloudinaryService)(nil)
	_ IProfileWatcher  = (*ProfileWatcher)(nil)
)

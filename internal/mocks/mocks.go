// Package mocks contains testify mocks for the service interfaces.
package mocks

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/service"
	"github.com/userhub/backend/internal/types"
)

// MockIdentityService is a mock implementation of the IIdentityService interface
type MockIdentityService struct {
	mock.Mock
}

func (m *MockIdentityService) CreateIdentity(ctx context.Context, email, password string) (*models.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}

func (m *MockIdentityService) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).(*models.User), args.String(1), args.Error(2)
}

func (m *MockIdentityService) Reauthenticate(ctx context.Context, userID uuid.UUID, issuedAt time.Time, password string) error {
	args := m.Called(ctx, userID, issuedAt, password)
	return args.Error(0)
}

func (m *MockIdentityService) DeleteIdentity(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockIdentityService) SignOut(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockIdentityService) ValidateToken(token string) (*types.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenClaims), args.Error(1)
}

// MockProfileService is a mock implementation of the profile store
type MockProfileService struct {
	mock.Mock
}

func (m *MockProfileService) Get(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockProfileService) Create(ctx context.Context, profile *models.UserProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockProfileService) Update(ctx context.Context, id uuid.UUID, req *types.UpdateProfileRequest) (*models.UserProfile, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockProfileService) SetPicture(ctx context.Context, id uuid.UUID, url, assetID string) (*models.UserProfile, error) {
	args := m.Called(ctx, id, url, assetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockProfileService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProfileService) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockProfileService) UsernameExists(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

// MockAccountService is a mock implementation of the IAccountService interface
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Signup(ctx context.Context, req *types.SignupRequest) (*service.SignupResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SignupResult), args.Error(1)
}

func (m *MockAccountService) DeleteAccount(ctx context.Context, userID uuid.UUID, issuedAt time.Time, password string) (*service.DeleteResult, error) {
	args := m.Called(ctx, userID, issuedAt, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DeleteResult), args.Error(1)
}

// MockUploader is a mock implementation of the ImageUploader interface
type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, fileName string, data io.Reader) (*service.UploadResult, error) {
	args := m.Called(ctx, fileName, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

// MockBlobStore is a mock implementation of the BlobStore interface
type MockBlobStore struct {
	mock.Mock
}

func (m *MockBlobStore) DeleteByURL(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

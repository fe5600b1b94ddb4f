package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/types"
)

// identityProvider is the slice of IdentityService the account operations use
type identityProvider interface {
	CreateIdentity(ctx context.Context, email, password string) (*models.User, string, error)
	Reauthenticate(ctx context.Context, userID uuid.UUID, issuedAt time.Time, password string) error
	DeleteIdentity(ctx context.Context, userID uuid.UUID) error
}

// profileStore is the slice of ProfileService the account operations use
type profileStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	Create(ctx context.Context, profile *models.UserProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
	EmailExists(ctx context.Context, email string) (bool, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// BlobStore removes stored blobs by the public URL previously handed out
type BlobStore interface {
	DeleteByURL(ctx context.Context, url string) error
}

// SignupResult is the outcome of a successful (or partially successful)
// signup: the identity exists and a session token was issued. Profile may
// be nil when the profile write failed after identity creation.
type SignupResult struct {
	User    *models.User
	Token   string
	Profile *models.UserProfile
}

// DeleteResult reports a completed account deletion. BlobWarning carries a
// best-effort picture-blob deletion failure; the caller chooses to log it,
// it never fails the deletion.
type DeleteResult struct {
	BlobWarning error
}

// AccountService orchestrates the multi-step account lifecycle operations:
// signup and account deletion. Each step is a separate remote call with no
// compensation on partial failure; the known gaps (username check-then-write
// race, orphaned identity when identity deletion fails after the profile is
// gone) are deliberate and documented rather than patched.
type AccountService struct {
	identity identityProvider
	profiles profileStore
	blobs    BlobStore
}

// NewAccountService creates a new AccountService instance
func NewAccountService(identity identityProvider, profiles profileStore, blobs BlobStore) *AccountService {
	return &AccountService{
		identity: identity,
		profiles: profiles,
		blobs:    blobs,
	}
}

// Signup validates the form, checks email and username against existing
// profile documents, creates the identity and finally writes the profile
// document keyed by the new identity id.
//
// When the profile write fails the identity already exists and is signed
// in; the result carries the session alongside the error so the caller can
// surface both. Watches on the new id emit "no profile" until repaired.
func (s *AccountService) Signup(ctx context.Context, req *types.SignupRequest) (*SignupResult, error) {
	if req.Email == "" || req.Password == "" || req.ConfirmPassword == "" ||
		req.Name == "" || req.Username == "" || req.MobileNumber == "" {
		return nil, validationErrorf("please fill in all fields")
	}
	if req.Password != req.ConfirmPassword {
		return nil, validationErrorf("passwords do not match")
	}

	taken, err := s.profiles.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateEmail
	}

	taken, err = s.profiles.UsernameExists(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateUsername
	}

	user, token, err := s.identity.CreateIdentity(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		ID:           user.ID,
		Name:         req.Name,
		Email:        user.Email,
		Username:     req.Username,
		MobileNumber: req.MobileNumber,
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return &SignupResult{User: user, Token: token}, err
	}

	return &SignupResult{User: user, Token: token, Profile: profile}, nil
}

// DeleteAccount re-authenticates the caller, deletes the stored profile
// picture blob best-effort, then the profile document, then the identity.
// An error from a later step leaves the earlier deletions in place.
func (s *AccountService) DeleteAccount(ctx context.Context, userID uuid.UUID, issuedAt time.Time, password string) (*DeleteResult, error) {
	if password == "" {
		return nil, validationErrorf("please enter your password to confirm")
	}

	if err := s.identity.Reauthenticate(ctx, userID, issuedAt, password); err != nil {
		return nil, err
	}

	result := &DeleteResult{}

	profile, err := s.profiles.Get(ctx, userID)
	switch {
	case err == nil && profile.PictureURL != "":
		if err := s.blobs.DeleteByURL(ctx, profile.PictureURL); err != nil {
			result.BlobWarning = err
		}
	case err != nil && !errors.Is(err, ErrProfileNotFound):
		return nil, err
	}

	if err := s.profiles.Delete(ctx, userID); err != nil {
		return nil, err
	}

	if err := s.identity.DeleteIdentity(ctx, userID); err != nil {
		// Orphaned identity: the profile is gone but the identity
		// remains. Not repaired here.
		return nil, err
	}

	return result, nil
}

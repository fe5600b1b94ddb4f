package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/pubsub"
	"github.com/userhub/backend/internal/types"
)

// ProfileService is the profile document store. Every write publishes a
// change event so open watches observe it; publish failures are logged and
// never fail the write itself.
type ProfileService struct {
	db     *gorm.DB
	broker pubsub.Broker
}

// NewProfileService creates a new ProfileService instance
func NewProfileService(db *gorm.DB, broker pubsub.Broker) *ProfileService {
	return &ProfileService{
		db:     db,
		broker: broker,
	}
}

// Get retrieves the profile document keyed by the identity id
func (s *ProfileService) Get(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := s.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Create writes a new profile document. The id must already be set to the
// owning identity's id.
func (s *ProfileService) Create(ctx context.Context, profile *models.UserProfile) error {
	if err := s.db.WithContext(ctx).Create(profile).Error; err != nil {
		return err
	}
	s.publish(ctx, profile.ID, pubsub.EventUpdated)
	return nil
}

// Update applies a partial update with name, username and mobile number.
// All three fields are required; username uniqueness is not re-checked here
// (it is only checked at signup).
func (s *ProfileService) Update(ctx context.Context, id uuid.UUID, req *types.UpdateProfileRequest) (*models.UserProfile, error) {
	if req.Name == "" || req.Username == "" || req.MobileNumber == "" {
		return nil, validationErrorf("all fields are required")
	}

	updates := map[string]interface{}{
		"name":          req.Name,
		"username":      req.Username,
		"mobile_number": req.MobileNumber,
		"updated_at":    time.Now(),
	}

	result := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrProfileNotFound
	}

	s.publish(ctx, id, pubsub.EventUpdated)
	return s.Get(ctx, id)
}

// SetPicture persists a freshly uploaded picture's public URL and asset id.
// The previous remote image, if any, is not deleted here.
func (s *ProfileService) SetPicture(ctx context.Context, id uuid.UUID, url, assetID string) (*models.UserProfile, error) {
	updates := map[string]interface{}{
		"picture_url":      url,
		"picture_asset_id": assetID,
		"updated_at":       time.Now(),
	}

	result := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrProfileNotFound
	}

	s.publish(ctx, id, pubsub.EventUpdated)
	return s.Get(ctx, id)
}

// Delete removes the profile document
func (s *ProfileService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.db.WithContext(ctx).Delete(&models.UserProfile{}, "id = ?", id).Error; err != nil {
		return err
	}
	s.publish(ctx, id, pubsub.EventDeleted)
	return nil
}

// EmailExists reports whether any profile document carries the given email
func (s *ProfileService) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// UsernameExists reports whether any profile document carries the given
// username. This check is not transactional with any subsequent write.
func (s *ProfileService) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.UserProfile{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *ProfileService) publish(ctx context.Context, id uuid.UUID, kind pubsub.EventKind) {
	if err := s.broker.Publish(ctx, pubsub.Event{ProfileID: id, Kind: kind}); err != nil {
		log.Printf("[ProfileService] failed to publish %s event for %s: %v", kind, id, err)
	}
}

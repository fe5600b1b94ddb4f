package models

import (
	"time"

	"github.com/google/uuid"
)

// UserProfile is the per-user profile document. Its primary key is the
// owning identity's id, never a separate surrogate.
//
// Username carries no unique index: uniqueness is checked by the signup
// operation before the identity is created, and that check is not
// transactional with the write. Two concurrent signups can both pass it.
type UserProfile struct {
	ID             uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	Name           string    `gorm:"size:100;not null" json:"name"`
	Email          string    `gorm:"size:255;not null" json:"email"`
	Username       string    `gorm:"size:50;not null" json:"username"`
	MobileNumber   string    `gorm:"size:30;not null" json:"mobile_number"`
	PictureURL     string    `gorm:"size:255" json:"picture_url,omitempty"`
	PictureAssetID string    `gorm:"size:255" json:"picture_asset_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

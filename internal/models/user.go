package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the identity record owned by the identity provider. Profile data
// lives in UserProfile; the two share the same id.
type User struct {
	ID           uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
}

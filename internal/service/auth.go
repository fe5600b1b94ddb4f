package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/userhub/backend/internal/models"
	"github.com/userhub/backend/internal/session"
	"github.com/userhub/backend/internal/types"
)

const minPasswordLength = 6

// IdentityService is the identity provider: it owns identity records,
// issues session tokens and drives the session observer on every
// sign-in, sign-out and identity deletion.
type IdentityService struct {
	db           *gorm.DB
	jwtSecret    string
	tokenTTL     time.Duration
	reauthWindow time.Duration
	observer     *session.Observer
}

// NewIdentityService creates a new IdentityService instance
func NewIdentityService(db *gorm.DB, jwtSecret string, reauthWindow time.Duration, observer *session.Observer) *IdentityService {
	return &IdentityService{
		db:           db,
		jwtSecret:    jwtSecret,
		tokenTTL:     24 * time.Hour,
		reauthWindow: reauthWindow,
		observer:     observer,
	}
}

// CreateIdentity registers a new identity and signs it in. The session
// observer is notified before the caller gets the result, mirroring the
// provider's behavior of establishing a session as a side effect of
// identity creation.
func (s *IdentityService) CreateIdentity(ctx context.Context, email, password string) (*models.User, string, error) {
	if len(password) < minPasswordLength {
		return nil, "", ErrWeakPassword
	}

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, "", ErrEmailInUse
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashed),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, "", err
	}

	token, err := s.GenerateToken(&user)
	if err != nil {
		return nil, "", err
	}

	s.observer.Notify(&session.Session{UserID: user.ID, Email: user.Email})
	return &user, token, nil
}

// SignIn authenticates an identity and issues a session token
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*models.User, string, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateToken(&user)
	if err != nil {
		return nil, "", err
	}

	s.observer.Notify(&session.Session{UserID: user.ID, Email: user.Email})
	return &user, token, nil
}

// Reauthenticate confirms the caller's password ahead of a destructive
// operation. A correct password with a session older than the re-auth
// window still fails: the user has to sign out and back in.
func (s *IdentityService) Reauthenticate(ctx context.Context, userID uuid.UUID, issuedAt time.Time, password string) error {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIdentityNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return ErrWrongPassword
	}

	if time.Since(issuedAt) > s.reauthWindow {
		return ErrRequiresRecentLogin
	}
	return nil
}

// DeleteIdentity removes the identity record and ends the session
func (s *IdentityService) DeleteIdentity(ctx context.Context, userID uuid.UUID) error {
	result := s.db.WithContext(ctx).Delete(&models.User{}, "id = ?", userID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrIdentityNotFound
	}

	s.observer.Notify(nil)
	return nil
}

// SignOut ends the current session. Tokens are not revoked server side;
// the observer transition is what downstream consumers key off.
func (s *IdentityService) SignOut(ctx context.Context, userID uuid.UUID) error {
	s.observer.Notify(nil)
	return nil
}

// GenerateToken issues a signed session token for the given identity
func (s *IdentityService) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &types.TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
		UserID: user.ID,
		Email:  user.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ValidateToken parses and verifies a session token
func (s *IdentityService) ValidateToken(tokenString string) (*types.TokenClaims, error) {
	claims := &types.TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

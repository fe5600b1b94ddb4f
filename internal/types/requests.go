package types

// SignupRequest represents the request body for creating an account
type SignupRequest struct {
	Email           string `json:"email" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	Name            string `json:"name" binding:"required"`
	Username        string `json:"username" binding:"required"`
	MobileNumber    string `json:"mobile_number" binding:"required"`
}

// LoginRequest represents the request body for signing in
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest represents the request body for editing a profile.
// All three fields are required; profile edits are full-form submissions.
type UpdateProfileRequest struct {
	Name         string `json:"name"`
	Username     string `json:"username"`
	MobileNumber string `json:"mobile_number"`
}

// DeleteAccountRequest carries the password confirmation for account deletion
type DeleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// SessionResponse is returned by signup and login
type SessionResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

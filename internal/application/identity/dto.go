package identity

import (
	"time"

	"github.com/google/uuid"
)

// LoginInput contains the credentials of a login attempt
type LoginInput struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=72"`
	IP       string `json:"-"`
}

// RefreshTokenInput contains the refresh token to rotate
type RefreshTokenInput struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput identifies the tokens to revoke
type LogoutInput struct {
	AccessTokenJTI string        `json:"-"`
	AccessTokenTTL time.Duration `json:"-"`
	RefreshToken   string        `json:"refresh_token"`
}

// AdminInfo describes the logged-in administrator
type AdminInfo struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// TokenResult is an issued token pair
type TokenResult struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

// LoginResult is the outcome of a successful login
type LoginResult struct {
	TokenResult
	Admin AdminInfo `json:"admin"`
}

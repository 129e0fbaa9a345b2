package identity

import (
	"regexp"
	"strings"
	"time"

	"github.com/japabox/storefront/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Password cost for bcrypt
const bcryptCost = 12

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-.]+$`)

// ErrInvalidCredentials hides whether the username or the password was wrong
var ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Usuário ou senha inválidos")

// AdminUser is a back-office operator
type AdminUser struct {
	shared.BaseAggregateRoot
	Username       string     `gorm:"type:varchar(100);not null;uniqueIndex"`
	PasswordHash   string     `gorm:"type:varchar(100);not null"`
	Active         bool       `gorm:"not null;default:true"`
	FailedAttempts int        `gorm:"not null;default:0"`
	LockedUntil    *time.Time `gorm:""`
	LastLoginAt    *time.Time `gorm:""`
	LastLoginIP    string     `gorm:"type:varchar(45)"`
}

// TableName returns the table name for GORM
func (AdminUser) TableName() string {
	return "admin_users"
}

// NewAdminUser creates an active admin with a hashed password
func NewAdminUser(username, password string) (*AdminUser, error) {
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	u := &AdminUser{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Username:          strings.ToLower(strings.TrimSpace(username)),
		Active:            true,
	}
	if err := u.SetPassword(password); err != nil {
		return nil, err
	}
	u.Version = 1
	return u, nil
}

// SetPassword replaces the password hash
func (u *AdminUser) SetPassword(password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return shared.WrapDomainError("PASSWORD_HASH_ERROR", "Failed to hash password", err)
	}
	u.PasswordHash = string(hash)
	u.UpdatedAt = time.Now()
	u.IncrementVersion()
	return nil
}

// VerifyPassword verifies if the provided password matches
func (u *AdminUser) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// IsLocked reports whether a lock is in effect at now
func (u *AdminUser) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// CanLogin returns true if the admin is active and not locked
func (u *AdminUser) CanLogin(now time.Time) bool {
	return u.Active && !u.IsLocked(now)
}

// RecordLoginSuccess records a successful login
func (u *AdminUser) RecordLoginSuccess(ip string, now time.Time) {
	u.LastLoginAt = &now
	u.LastLoginIP = ip
	u.FailedAttempts = 0
	u.LockedUntil = nil
	u.UpdatedAt = now
	u.IncrementVersion()
}

// RecordLoginFailure counts a failed attempt and locks the account after
// maxAttempts. Returns true if the account was locked.
func (u *AdminUser) RecordLoginFailure(maxAttempts int, lockDuration time.Duration, now time.Time) bool {
	u.FailedAttempts++
	u.UpdatedAt = now
	u.IncrementVersion()
	if maxAttempts > 0 && u.FailedAttempts >= maxAttempts {
		until := now.Add(lockDuration)
		u.LockedUntil = &until
		u.FailedAttempts = 0
		return true
	}
	return false
}

func validateUsername(username string) error {
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		return shared.NewDomainError("INVALID_USERNAME", "Username must be at least 3 characters")
	}
	if len(username) > 100 {
		return shared.NewDomainError("INVALID_USERNAME", "Username cannot exceed 100 characters")
	}
	if !usernamePattern.MatchString(username) {
		return shared.NewDomainError("INVALID_USERNAME", "Username can only contain letters, numbers, underscores, hyphens, and dots")
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 72 bytes")
	}
	return nil
}

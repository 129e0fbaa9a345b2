package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/japabox/storefront/internal/domain/identity"
	"github.com/japabox/storefront/internal/domain/shared"
	"github.com/japabox/storefront/internal/infrastructure/auth"
	"go.uber.org/zap"
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Maximum failed login attempts before lock
	LockDuration     time.Duration // How long to lock account after max attempts
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

var (
	errAccountLocked   = shared.NewDomainError("ACCOUNT_LOCKED", "Conta bloqueada temporariamente. Tente novamente mais tarde")
	errAccountInactive = shared.NewDomainError("ACCOUNT_INACTIVE", "Conta desativada")
	errTokenExpired    = shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
	errTokenInvalid    = shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	errTokenRevoked    = shared.NewDomainError("TOKEN_REVOKED", "Token has been revoked")
)

// AuthService handles administrator authentication
type AuthService struct {
	adminRepo  identity.AdminUserRepository
	jwtService *auth.JWTService
	blacklist  auth.TokenBlacklist
	config     AuthServiceConfig
	now        func() time.Time
	logger     *zap.Logger
}

// NewAuthService creates a new authentication service. A nil blacklist makes
// logout a client-side operation.
func NewAuthService(
	adminRepo identity.AdminUserRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		adminRepo:  adminRepo,
		jwtService: jwtService,
		blacklist:  blacklist,
		config:     config,
		now:        time.Now,
		logger:     logger,
	}
}

// Bootstrap creates the first administrator when none exists. It is a no-op
// once any admin is stored or when no credentials are configured.
func (s *AuthService) Bootstrap(ctx context.Context, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}
	count, err := s.adminRepo.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	admin, err := identity.NewAdminUser(username, password)
	if err != nil {
		return false, err
	}
	if err := s.adminRepo.Save(ctx, admin); err != nil {
		return false, err
	}
	s.logger.Info("Bootstrap administrator created", zap.String("username", admin.Username))
	return true, nil
}

// Login authenticates an administrator and returns tokens
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	now := s.now()
	admin, err := s.adminRepo.FindByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Login for unknown username", zap.String("username", input.Username))
			return nil, identity.ErrInvalidCredentials
		}
		return nil, err
	}

	if !admin.CanLogin(now) {
		if admin.IsLocked(now) {
			s.logger.Warn("Login attempt for locked account", zap.String("username", admin.Username))
			return nil, errAccountLocked
		}
		return nil, errAccountInactive
	}

	if !admin.VerifyPassword(input.Password) {
		locked := admin.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration, now)
		if err := s.adminRepo.Save(ctx, admin); err != nil {
			s.logger.Error("Failed to update admin after login failure", zap.Error(err))
		}
		if locked {
			s.logger.Warn("Account locked after too many failed attempts",
				zap.String("username", admin.Username),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, errAccountLocked
		}
		s.logger.Warn("Invalid password attempt",
			zap.String("username", admin.Username),
			zap.Int("failed_attempts", admin.FailedAttempts))
		return nil, identity.ErrInvalidCredentials
	}

	pair, err := s.jwtService.GenerateTokenPair(admin.ID, admin.Username)
	if err != nil {
		return nil, shared.WrapDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens", err)
	}

	admin.RecordLoginSuccess(input.IP, now)
	if err := s.adminRepo.Save(ctx, admin); err != nil {
		// the tokens are valid either way
		s.logger.Error("Failed to update admin after successful login", zap.Error(err))
	}

	s.logger.Info("Admin logged in",
		zap.String("username", admin.Username),
		zap.String("admin_id", admin.ID.String()))

	return &LoginResult{
		TokenResult: toTokenResult(pair),
		Admin: AdminInfo{
			ID:          admin.ID,
			Username:    admin.Username,
			LastLoginAt: admin.LastLoginAt,
		},
	}, nil
}

// RefreshToken rotates a refresh token. The presented token is revoked so
// it can be used only once.
func (s *AuthService) RefreshToken(ctx context.Context, input RefreshTokenInput) (*TokenResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		s.logger.Warn("Refresh token validation failed", zap.Error(err))
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, errTokenExpired
		}
		return nil, errTokenInvalid
	}
	if err := s.checkRevoked(ctx, claims.ID); err != nil {
		return nil, err
	}

	adminID, err := claims.GetUserUUID()
	if err != nil {
		return nil, errTokenInvalid
	}
	admin, err := s.adminRepo.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, errTokenInvalid
		}
		return nil, err
	}
	if !admin.CanLogin(s.now()) {
		return nil, errAccountInactive
	}

	pair, err := s.jwtService.GenerateTokenPair(admin.ID, admin.Username)
	if err != nil {
		return nil, shared.WrapDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens", err)
	}
	s.revoke(ctx, claims.ID, claims.GetRemainingTTL())

	result := toTokenResult(pair)
	return &result, nil
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if s.blacklist == nil {
		return nil
	}
	s.revoke(ctx, input.AccessTokenJTI, input.AccessTokenTTL)
	if input.RefreshToken != "" {
		if claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken); err == nil {
			s.revoke(ctx, claims.ID, claims.GetRemainingTTL())
		}
	}
	return nil
}

// GetCurrentAdmin returns the authenticated administrator
func (s *AuthService) GetCurrentAdmin(ctx context.Context, id uuid.UUID) (*AdminInfo, error) {
	admin, err := s.adminRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &AdminInfo{ID: admin.ID, Username: admin.Username, LastLoginAt: admin.LastLoginAt}, nil
}

func (s *AuthService) checkRevoked(ctx context.Context, jti string) error {
	if s.blacklist == nil || jti == "" {
		return nil
	}
	revoked, err := s.blacklist.IsBlacklisted(ctx, jti)
	if err != nil {
		return err
	}
	if revoked {
		return errTokenRevoked
	}
	return nil
}

func (s *AuthService) revoke(ctx context.Context, jti string, ttl time.Duration) {
	if s.blacklist == nil || jti == "" || ttl <= 0 {
		return
	}
	if err := s.blacklist.AddToBlacklist(ctx, jti, ttl); err != nil {
		s.logger.Error("Failed to blacklist token", zap.String("jti", jti), zap.Error(err))
	}
}

func toTokenResult(pair *auth.TokenPair) TokenResult {
	return TokenResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}

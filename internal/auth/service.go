package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/filekeep/server/internal/repo"
)

// DefaultDeviceID is recorded when the client declares no device string.
const DefaultDeviceID = "unknown"

// Credentials is the result of a successful signup or signin.
type Credentials struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

// AuthService orchestrates signup, signin, token rotation and logout
type AuthService struct {
	userRepo      repo.UserRepo
	refreshRepo   repo.RefreshTokenRepo
	blacklistRepo repo.BlacklistRepo
	jwtService    *JWTService
	hasher        *PasswordHasher
	refreshTTL    time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repo.UserRepo,
	refreshRepo repo.RefreshTokenRepo,
	blacklistRepo repo.BlacklistRepo,
	jwtService *JWTService,
	hasher *PasswordHasher,
	refreshTTL time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		refreshRepo:   refreshRepo,
		blacklistRepo: blacklistRepo,
		jwtService:    jwtService,
		hasher:        hasher,
		refreshTTL:    refreshTTL,
	}
}

// RefreshTokenExpiry returns the expiry for a refresh token minted now.
// Set once at creation and never extended.
func (s *AuthService) RefreshTokenExpiry() time.Time {
	return time.Now().Add(s.refreshTTL)
}

// SignUp creates a new user and opens its first session. The identifier
// must be an email address or a phone number.
func (s *AuthService) SignUp(ctx context.Context, id, password, deviceID string) (*Credentials, error) {
	if id == "" || password == "" {
		return nil, ErrMissingField
	}
	if err := ValidateIdentifier(id); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, id); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.userRepo.Create(ctx, id, hash)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.openSession(ctx, user.ID, deviceID)
}

// SignIn verifies credentials and opens a new session. Unknown user and
// wrong password are deliberately the same error.
func (s *AuthService) SignIn(ctx context.Context, id, password, deviceID string) (*Credentials, error) {
	if id == "" || password == "" {
		return nil, ErrMissingField
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return s.openSession(ctx, user.ID, deviceID)
}

// openSession mints an access/refresh token pair and persists the refresh
// row. Repeat logins from the same device stack up rows; nothing here
// deduplicates them.
func (s *AuthService) openSession(ctx context.Context, userID, deviceID string) (*Credentials, error) {
	if deviceID == "" {
		deviceID = DefaultDeviceID
	}

	accessToken, err := s.jwtService.SignAccessToken(userID, deviceID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	if _, err := s.refreshRepo.Create(ctx, userID, refreshToken, deviceID, s.RefreshTokenExpiry()); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &Credentials{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RotateAccessToken exchanges a refresh token for a fresh access token
// bound to the session's stored {userID, deviceID}. The refresh token
// itself is neither rotated nor extended, and an expired row is rejected
// but left in place for the cleanup sweep.
func (s *AuthService) RotateAccessToken(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrMissingField
	}

	rt, err := s.refreshRepo.FindByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", fmt.Errorf("find refresh token: %w", err)
	}
	if rt.ExpiresAt.Before(time.Now()) {
		return "", ErrInvalidRefreshToken
	}

	accessToken, err := s.jwtService.SignAccessToken(rt.UserID, rt.DeviceID)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return accessToken, nil
}

// Logout revokes the presented access token and deletes every refresh
// token the device holds for the user. The caller has already passed the
// authentication gate, so the raw token is known-valid.
func (s *AuthService) Logout(ctx context.Context, userID, deviceID, rawToken string) error {
	if rawToken != "" {
		claims, err := s.jwtService.VerifyAccessToken(rawToken)
		if err != nil {
			return fmt.Errorf("decode access token: %w", err)
		}
		if _, err := s.blacklistRepo.Create(ctx, rawToken, claims.ExpiresAt.Time); err != nil {
			return fmt.Errorf("blacklist access token: %w", err)
		}
	}

	if userID != "" && deviceID != "" {
		if _, err := s.refreshRepo.DeleteByUserAndDevice(ctx, userID, deviceID); err != nil {
			return fmt.Errorf("delete refresh tokens: %w", err)
		}
	}
	return nil
}

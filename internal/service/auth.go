package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bookstore/internal/models"
	"github.com/Skotchmaster/bookstore/internal/repo"
	pkg_hash "github.com/Skotchmaster/bookstore/pkg/hash"
	"github.com/Skotchmaster/bookstore/pkg/logging"
	"github.com/Skotchmaster/bookstore/pkg/tokens"
)

type AuthService struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
}

func (s *AuthService) Register(ctx context.Context, username, password string) (*models.User, error) {
	return s.createUser(ctx, username, password, RoleUser)
}

// EnsureAdmin creates the bootstrap admin account unless the username is taken.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	_, err := s.createUser(ctx, username, password, RoleAdmin)
	if errors.Is(err, ErrConflict) {
		return nil
	}
	return err
}

func (s *AuthService) createUser(ctx context.Context, username, password, role string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", username)

	if err := required("username", username); err != nil {
		return nil, err
	}
	if err := required("password", password); err != nil {
		return nil, err
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	user := &models.User{Username: username, PasswordHash: pwHash, Role: role}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "reason", "user already exist")
			return nil, fmt.Errorf("%w: user already exist", ErrConflict)
		}
		return nil, classify(err)
	}
	l.Info("register_success", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", username)

	user, err := s.Repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "reason", "unknown user")
			return nil, ErrInvalidCredentials
		}
		return nil, classify(err)
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "reason", "wrong password")
		return nil, ErrInvalidCredentials
	}

	pair, next, err := s.issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.AddRefreshToken(ctx, next); err != nil {
		return nil, classify(err)
	}
	l.Info("login_success", "user_id", user.ID)
	return pair, nil
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued. A token can be rotated only once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*tokens.Pair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh")

	claims, err := tokens.RefreshClaimsFromToken(refreshToken, s.RefreshSecret)
	if err != nil {
		l.Warn("refresh_failed", "reason", "invalid token", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidRefreshToken)
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user is gone", ErrInvalidRefreshToken)
		}
		return nil, classify(err)
	}

	pair, next, err := s.issue(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.RotateRefreshToken(ctx, claims.ID, pkg_hash.Sha256Hex(refreshToken), next); err != nil {
		if errors.Is(err, repo.ErrTokenRevoked) {
			l.Warn("refresh_failed", "reason", "token expired, revoked or unknown", "jti", claims.ID)
			return nil, fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
		}
		return nil, classify(err)
	}
	l.Info("refresh_success", "user_id", user.ID)
	return pair, nil
}

// LogOut revokes the refresh token. An empty token is a no-op.
func (s *AuthService) LogOut(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return classify(s.Repo.RevokeRefreshToken(ctx, pkg_hash.Sha256Hex(refreshToken)))
}

func (s *AuthService) issue(userID uuid.UUID, role string) (*tokens.Pair, *models.RefreshToken, error) {
	now := time.Now()
	accessExp := now.Add(tokens.AccessTTL)
	refreshExp := now.Add(tokens.RefreshTTL)

	access, err := tokens.CreateAccessToken(s.JWTSecret, userID.String(), role, accessExp)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sign access token: %v", ErrUnavailable, err)
	}
	refresh, jti, err := tokens.CreateRefreshToken(s.RefreshSecret, userID.String(), refreshExp)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sign refresh token: %v", ErrUnavailable, err)
	}

	pair := &tokens.Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
		Role:         role,
	}
	stored := &models.RefreshToken{
		Token:     pkg_hash.Sha256Hex(refresh),
		UserID:    userID,
		JTI:       jti,
		ExpiresAt: refreshExp.Unix(),
	}
	return pair, stored, nil
}

package user

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-contacts-api/internal/domain"
	s3infra "github.com/go-contacts-api/internal/infrastructure/s3"
	"golang.org/x/crypto/bcrypt"
)

const (
	fieldAvatar       = "avatar"
	fieldPasswordHash = "password_hash"
	fieldRefreshToken = "refresh_token"
)

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

type Service interface {
	UpdateAvatar(ctx context.Context, u *domain.User, filename string, r io.Reader) (*domain.User, error)
	ChangePassword(ctx context.Context, u *domain.User, req ChangePasswordRequest) error
}

type userStore interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type userCache interface {
	Set(ctx context.Context, u *domain.User, ttl time.Duration) error
	Invalidate(ctx context.Context, email string) error
}

type avatarStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
}

type service struct {
	repo     userStore
	cache    userCache
	avatars  avatarStore
	cacheTTL time.Duration
}

type ServiceDeps struct {
	UserRepo    userStore
	Cache       userCache
	AvatarStore avatarStore
	CacheTTL    time.Duration
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.UserRepo,
		cache:    deps.Cache,
		avatars:  deps.AvatarStore,
		cacheTTL: deps.CacheTTL,
	}
}

// UpdateAvatar uploads the image and points the user record at it. The cached
// snapshot is refreshed best-effort so subsequent requests see the new URL.
func (s *service) UpdateAvatar(ctx context.Context, u *domain.User, filename string, r io.Reader) (*domain.User, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
	default:
		return nil, fmt.Errorf("unsupported avatar format %q: %w", ext, domain.ErrBadRequest)
	}

	key := "avatars/" + u.UserID + ext
	url, err := s.avatars.Upload(ctx, key, r, s3infra.ContentTypeFor(filename))
	if err != nil {
		return nil, fmt.Errorf("avatar upload: %w", err)
	}
	if err := s.repo.Update(ctx, u.UserID, map[string]interface{}{fieldAvatar: url}); err != nil {
		return nil, err
	}
	updated, err := s.repo.Get(ctx, u.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, updated, s.cacheTTL); err != nil {
		slog.Warn("failed to refresh cached user after avatar change", "email", u.Email, "err", err)
	}
	return updated, nil
}

// ChangePassword verifies the current password before storing a new hash.
// The stored refresh token is revoked so live sessions must log in again.
func (s *service) ChangePassword(ctx context.Context, u *domain.User, req ChangePasswordRequest) error {
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fmt.Errorf("password change: %w", domain.ErrInvalidPassword)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		fieldPasswordHash: string(hash),
		fieldRefreshToken: "",
	}
	if err := s.repo.Update(ctx, u.UserID, updates); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, u.Email); err != nil {
		slog.Warn("failed to invalidate cached user after password change", "email", u.Email, "err", err)
	}
	return nil
}

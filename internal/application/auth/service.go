package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-contacts-api/internal/domain"
	jwtinfra "github.com/go-contacts-api/internal/infrastructure/jwt"
	pkgtoken "github.com/go-contacts-api/internal/pkg/token"
	"golang.org/x/crypto/bcrypt"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldConfirmed    = "confirmed"
	fieldRefreshToken = "refresh_token"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RequestEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type Service interface {
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.User, error)
	Login(ctx context.Context, req LoginRequest) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, user *domain.User) error
	Authenticate(ctx context.Context, bearer string) (*domain.User, error)
	RequestConfirmEmail(ctx context.Context, email string) error
	ConfirmEmail(ctx context.Context, emailToken string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
}

type userCache interface {
	Get(ctx context.Context, email string) (*domain.User, error)
	Set(ctx context.Context, u *domain.User, ttl time.Duration) error
	Invalidate(ctx context.Context, email string) error
}

type tokenProvider interface {
	CreateAccessToken(email string) (string, error)
	CreateRefreshToken(email string) (string, error)
	CreateEmailToken(email string) (string, error)
	Decode(token, expectedScope string) (string, error)
}

type mailSender interface {
	SendEmail(to, subject, body string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, subject, message string) error
}

type idGenerator func() string

type service struct {
	repo     userStore
	cache    userCache
	tokens   tokenProvider
	mailer   mailSender
	events   eventPublisher
	cacheTTL time.Duration
	baseURL  string
	newID    idGenerator
}

type ServiceDeps struct {
	UserRepo   userStore
	Cache      userCache
	Tokens     tokenProvider
	Mailer     mailSender
	Events     eventPublisher
	CacheTTL   time.Duration
	AppBaseURL string
	NewID      idGenerator
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:     deps.UserRepo,
		cache:    deps.Cache,
		tokens:   deps.Tokens,
		mailer:   deps.Mailer,
		events:   deps.Events,
		cacheTTL: deps.CacheTTL,
		baseURL:  deps.AppBaseURL,
		newID:    deps.NewID,
	}
}

// Signup creates an unconfirmed user. The confirmation email and the signup
// event are both best-effort: a mailer or broker outage never fails signup.
func (s *service) Signup(ctx context.Context, req domain.SignupRequest) (*domain.User, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	if _, err := s.repo.GetByUsername(ctx, req.Username); err == nil {
		return nil, fmt.Errorf("username already taken: %w", domain.ErrConflict)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       s.newID(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Confirmed:    false,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, u); err != nil {
		return nil, err
	}

	s.sendConfirmationEmail(u)
	s.publishEvent(ctx, "user.signup", u.Email)
	return u, nil
}

// Login verifies credentials and issues a fresh access/refresh pair. The new
// refresh fingerprint overwrites the stored one, revoking any earlier pair.
func (s *service) Login(ctx context.Context, req LoginRequest) (*TokenPair, error) {
	u, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("login failed: %w", domain.ErrInvalidEmail)
	}
	if !u.Confirmed {
		return nil, fmt.Errorf("login failed: %w", domain.ErrNotConfirmed)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("login failed: %w", domain.ErrInvalidPassword)
	}
	return s.issuePair(ctx, u)
}

// Refresh validates a refresh token against the stored fingerprint and rotates
// the pair. A superseded token clears the fingerprint on file, so a stolen old
// token cannot be retried indefinitely.
func (s *service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	email, err := s.tokens.Decode(refreshToken, jwtinfra.ScopeRefresh)
	if err != nil {
		return nil, fmt.Errorf("refresh rejected: %w", domain.ErrUnauthorized)
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("refresh rejected: %w", domain.ErrUnauthorized)
	}
	if u.RefreshToken != pkgtoken.Fingerprint(refreshToken) {
		if err := s.repo.Update(ctx, u.UserID, map[string]interface{}{fieldRefreshToken: ""}); err != nil {
			slog.Warn("failed to clear superseded refresh token", "user_id", u.UserID, "err", err)
		}
		return nil, fmt.Errorf("refresh token superseded: %w", domain.ErrUnauthorized)
	}
	return s.issuePair(ctx, u)
}

// Logout revokes the stored refresh token and drops the cached snapshot.
func (s *service) Logout(ctx context.Context, user *domain.User) error {
	if err := s.repo.Update(ctx, user.UserID, map[string]interface{}{fieldRefreshToken: ""}); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, user.Email); err != nil {
		slog.Warn("failed to invalidate cached user on logout", "email", user.Email, "err", err)
	}
	return nil
}

// Authenticate resolves a bearer token to its user. The cache is consulted
// first; on a miss the store is queried and the snapshot cached best-effort.
// An unconfirmed user still authenticates — confirmation gates login only.
func (s *service) Authenticate(ctx context.Context, bearer string) (*domain.User, error) {
	email, err := s.tokens.Decode(bearer, jwtinfra.ScopeAccess)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", domain.ErrUnauthorized)
	}
	if u, err := s.cache.Get(ctx, email); err == nil {
		return u, nil
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("unknown subject: %w", domain.ErrUnauthorized)
	}
	if err := s.cache.Set(ctx, u, s.cacheTTL); err != nil {
		slog.Warn("failed to cache authenticated user", "email", email, "err", err)
	}
	return u, nil
}

// RequestConfirmEmail re-sends the confirmation email. An unknown address is
// silently ignored so the endpoint cannot be used to enumerate accounts.
func (s *service) RequestConfirmEmail(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil
	}
	if u.Confirmed {
		return fmt.Errorf("email already confirmed: %w", domain.ErrConflict)
	}
	tok, err := s.tokens.CreateEmailToken(u.Email)
	if err != nil {
		return err
	}
	return s.mailer.SendEmail(u.Email, "Confirm your email", s.confirmationBody(u.Username, tok))
}

// ConfirmEmail flips the confirmed flag for the token's subject.
// Confirming an already-confirmed account is a no-op success.
func (s *service) ConfirmEmail(ctx context.Context, emailToken string) error {
	email, err := s.tokens.Decode(emailToken, jwtinfra.ScopeEmail)
	if err != nil {
		return err
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("verification error: %w", domain.ErrUnauthorized)
	}
	if u.Confirmed {
		return nil
	}
	if err := s.repo.Update(ctx, u.UserID, map[string]interface{}{fieldConfirmed: true}); err != nil {
		return err
	}
	s.publishEvent(ctx, "user.confirmed", u.Email)
	return nil
}

func (s *service) issuePair(ctx context.Context, u *domain.User) (*TokenPair, error) {
	access, err := s.tokens.CreateAccessToken(u.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.CreateRefreshToken(u.Email)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{fieldRefreshToken: pkgtoken.Fingerprint(refresh)}
	if err := s.repo.Update(ctx, u.UserID, updates); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: "bearer"}, nil
}

func (s *service) sendConfirmationEmail(u *domain.User) {
	tok, err := s.tokens.CreateEmailToken(u.Email)
	if err != nil {
		slog.Warn("failed to mint confirmation token", "email", u.Email, "err", err)
		return
	}
	if err := s.mailer.SendEmail(u.Email, "Confirm your email", s.confirmationBody(u.Username, tok)); err != nil {
		slog.Warn("failed to send confirmation email", "email", u.Email, "err", err)
	}
}

func (s *service) confirmationBody(username, tok string) string {
	return fmt.Sprintf("Hi %s,\n\nConfirm your email by opening:\n%s/v1/auth/confirmed_email/%s\n", username, s.baseURL, tok)
}

func (s *service) publishEvent(ctx context.Context, subject, message string) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, subject, message); err != nil {
		slog.Warn("failed to publish account event", "subject", subject, "err", err)
	}
}

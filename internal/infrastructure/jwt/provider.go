package jwtinfra

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/go-contacts-api/internal/config"
	"github.com/go-contacts-api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Token scopes. A token minted with one scope is rejected when presented for
// any other: an access token can never be replayed as a refresh token.
const (
	ScopeAccess  = "access"
	ScopeRefresh = "refresh"
	ScopeEmail   = "email"
)

// Claims holds the JWT payload fields. Subject is the user email.
type Claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Provider signs and verifies RS256 JWTs with per-scope expiry windows.
// Access tokens are short-lived to limit the blast radius of theft; refresh
// tokens are long-lived to keep re-login friction low.
type Provider struct {
	privateKey    *rsa.PrivateKey
	publicKey     *rsa.PublicKey
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	emailExpiry   time.Duration
}

func NewProvider(cfg *config.Config) (*Provider, error) {
	privBytes, err := os.ReadFile(cfg.JWTPrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privKey, err := jwt.ParseRSAPrivateKeyFromPEM(privBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	pubBytes, err := os.ReadFile(cfg.JWTPublicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	pubKey, err := jwt.ParseRSAPublicKeyFromPEM(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Provider{
		privateKey:    privKey,
		publicKey:     pubKey,
		accessExpiry:  cfg.AccessTokenExpiry,
		refreshExpiry: cfg.RefreshTokenExpiry,
		emailExpiry:   cfg.EmailTokenExpiry,
	}, nil
}

func (p *Provider) CreateAccessToken(email string) (string, error) {
	return p.sign(email, ScopeAccess, p.accessExpiry)
}

func (p *Provider) CreateRefreshToken(email string) (string, error) {
	return p.sign(email, ScopeRefresh, p.refreshExpiry)
}

// CreateEmailToken mints the one-time token embedded in confirmation links.
func (p *Provider) CreateEmailToken(email string) (string, error) {
	return p.sign(email, ScopeEmail, p.emailExpiry)
}

func (p *Provider) sign(email, scope string, expiry time.Duration) (string, error) {
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(p.privateKey)
}

// Decode verifies the token and returns its subject (user email).
// Returns domain.ErrInvalidToken on bad signature, expiry, or scope mismatch.
func (p *Provider) Decode(tokenStr, expectedScope string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return p.publicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", domain.ErrInvalidToken)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("invalid claims: %w", domain.ErrInvalidToken)
	}
	if claims.Scope != expectedScope {
		return "", fmt.Errorf("token scope %q cannot be used for %q: %w", claims.Scope, expectedScope, domain.ErrInvalidToken)
	}
	return claims.Subject, nil
}

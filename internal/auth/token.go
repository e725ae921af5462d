package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fieldnotes/sightings/internal/apperr"
	"github.com/fieldnotes/sightings/internal/identity"
)

// Claims are the typed assertions carried inside a bearer token.
type Claims struct {
	jwt.RegisteredClaims
	UserCode string        `json:"uid"`
	Name     string        `json:"name"`
	Role     identity.Role `json:"role"`
}

// TokenService issues and verifies signed bearer tokens. It holds no mutable
// state: the secret is fixed at construction and shared by all goroutines.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService builds a token service around the process-wide signing secret.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue signs a token asserting the user's identity and role for the
// configured validity window.
func (s *TokenService) Issue(user identity.User) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserCode,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserCode: user.UserCode,
		Name:     user.Name,
		Role:     user.Role,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify checks signature and expiry and returns fully-typed claims. Tokens
// carrying a role outside the known set are rejected here rather than left
// for downstream code to interpret.
func (s *TokenService) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Expired("token expired")
		}
		return nil, apperr.InvalidCredential("invalid token")
	}
	if !parsed.Valid {
		return nil, apperr.InvalidCredential("invalid token")
	}
	if _, err := identity.ParseRole(string(claims.Role)); err != nil {
		return nil, apperr.InvalidCredential("invalid token")
	}
	return claims, nil
}

// Renew verifies the presented token and re-issues it with a fresh validity
// window. Claims are copied forward without consulting the store, so a role
// change or deactivation only takes effect once the current token expires.
func (s *TokenService) Renew(token string) (string, error) {
	claims, err := s.Verify(token)
	if err != nil {
		return "", err
	}
	return s.Issue(identity.User{
		UserCode: claims.UserCode,
		Name:     claims.Name,
		Role:     claims.Role,
	})
}

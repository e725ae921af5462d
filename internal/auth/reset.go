package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldnotes/sightings/internal/apperr"
	"github.com/fieldnotes/sightings/internal/identity"
	"github.com/fieldnotes/sightings/internal/notification"
)

const resetTokenBytes = 32

// envelopeClaims wrap a raw reset token for out-of-band delivery. The
// envelope carries its own expiry, independent of the stored token's.
type envelopeClaims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	ResetToken string `json:"rst"`
}

// ResetService manages the single-use password recovery tokens.
type ResetService struct {
	repo        identity.Repository
	mailer      notification.Mailer
	secret      []byte
	envelopeTTL time.Duration
	resetTTL    time.Duration
	baseURL     string
	logger      *slog.Logger
}

// ResetConfig collects the knobs for a ResetService.
type ResetConfig struct {
	Secret      string
	EnvelopeTTL time.Duration
	ResetTTL    time.Duration
	BaseURL     string
}

// NewResetService builds a reset service.
func NewResetService(repo identity.Repository, mailer notification.Mailer, cfg ResetConfig, logger *slog.Logger) *ResetService {
	return &ResetService{
		repo:        repo,
		mailer:      mailer,
		secret:      []byte(cfg.Secret),
		envelopeTTL: cfg.EnvelopeTTL,
		resetTTL:    cfg.ResetTTL,
		baseURL:     cfg.BaseURL,
		logger:      logger,
	}
}

// Initiate starts a password reset for the account registered under email.
// An unknown email is reported as success so callers cannot enumerate
// accounts. For a known account it overwrites any previous outstanding
// token, then mails a link carrying the signed envelope.
func (s *ResetService) Initiate(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			s.logger.Debug("reset requested for unknown email", "email", email)
			return nil
		}
		return apperr.Transient("could not look up user", err)
	}

	raw, err := randomToken()
	if err != nil {
		return apperr.Transient("could not generate reset token", err)
	}

	expiry := time.Now().Add(s.resetTTL)
	if err := s.repo.SetResetToken(ctx, user.ID, raw, expiry); err != nil {
		return apperr.Transient("could not store reset token", err)
	}

	envelope, err := s.seal(email, raw)
	if err != nil {
		return apperr.Transient("could not sign reset envelope", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, envelope)
	body := fmt.Sprintf("Hello %s,\n\nA password reset was requested for your account. "+
		"Follow the link below within the next hour to choose a new password:\n\n%s\n\n"+
		"If you did not request this, you can ignore this message.\n", user.Name, link)
	if err := s.mailer.Send(ctx, user.Email, "Password reset", body); err != nil {
		return apperr.Transient("could not send reset email", err)
	}

	s.logger.Info("reset token issued", "user_code", user.UserCode)
	return nil
}

// Redeem consumes the envelope and sets a new password. Both layers must
// pass: the envelope's own signature and expiry, then the stored token's
// match and expiry. Consumption clears the stored pair in the same
// conditional update that writes the new hash, so the token can never
// validate twice.
func (s *ResetService) Redeem(ctx context.Context, envelope, newPassword string) error {
	claims := &envelopeClaims{}
	parsed, err := jwt.ParseWithClaims(envelope, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return apperr.InvalidCredential("invalid or expired reset link")
	}

	user, err := s.repo.FindByEmail(ctx, claims.Email)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		return apperr.Transient("could not look up user", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperr.Transient("could not hash password", err)
	}

	err = s.repo.UpdatePasswordAndClearReset(ctx, user.ID, string(hash), claims.ResetToken)
	switch {
	case err == nil:
		s.logger.Info("password reset completed", "user_code", user.UserCode)
		return nil
	case errors.Is(err, identity.ErrTokenMismatch):
		return apperr.TokenMismatch("reset token already used or superseded")
	case errors.Is(err, identity.ErrResetExpired):
		return apperr.Expired("reset token expired")
	case errors.Is(err, identity.ErrNotFound):
		return apperr.NotFound("user not found")
	default:
		return apperr.Transient("could not update password", err)
	}
}

func (s *ResetService) seal(email, raw string) (string, error) {
	now := time.Now()
	claims := envelopeClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.envelopeTTL)),
		},
		Email:      email,
		ResetToken: raw,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func randomToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

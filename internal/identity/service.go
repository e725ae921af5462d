package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fieldnotes/sightings/internal/apperr"
)

const minPasswordLength = 8

// ValidatePassword enforces the minimum password policy. Handlers map a
// failure to a plain 400; it never reaches the store.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}

// Service manages account lifecycle and credential verification.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RegisterInput carries the fields needed to create an account.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
}

// Register creates an active member account with a hashed password and a
// freshly generated public user code.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	user := User{
		UserCode:     uuid.New().String(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: string(hash),
		Role:         RoleMember,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, &user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return User{}, apperr.Conflict("email already registered")
		}
		return User{}, apperr.Transient("could not create user", err)
	}

	return user, nil
}

// Authenticate verifies email/password credentials. Unknown email, wrong
// password and inactive account all produce the same error so a caller
// cannot probe which accounts exist.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperr.InvalidCredential("invalid credentials")
		}
		return User{}, apperr.Transient("could not look up user", err)
	}

	if !user.Active {
		return User{}, apperr.InvalidCredential("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, apperr.InvalidCredential("invalid credentials")
	}

	return user, nil
}

// SetRole assigns a new role to the user identified by user code.
func (s *Service) SetRole(ctx context.Context, code string, role Role) (User, error) {
	user, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, apperr.NotFound("user not found")
		}
		return User{}, apperr.Transient("could not look up user", err)
	}
	if err := s.repo.UpdateRole(ctx, user.ID, role); err != nil {
		return User{}, apperr.Transient("could not update role", err)
	}
	user.Role = role
	return user, nil
}

package identity

import (
	"context"
	"testing"
	"time"

	"github.com/fieldnotes/sightings/internal/apperr"
)

func TestRegisterAndAuthenticate(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Name: "Alice", Password: "password1"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Role != RoleMember {
		t.Fatalf("expected member role, got %s", user.Role)
	}
	if user.UserCode == "" {
		t.Fatal("expected a user code")
	}
	if user.PasswordHash == "password1" {
		t.Fatal("password stored in plaintext")
	}

	authed, err := svc.Authenticate(ctx, "a@x.com", "password1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != user.ID {
		t.Fatalf("expected user %d, got %d", user.ID, authed.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Name: "Alice", Password: "password1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Name: "Other", Password: "password2"})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Name: "Alice", Password: "password1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Authenticate(ctx, "a@x.com", "wrong"); apperr.KindOf(err) != apperr.KindInvalidCredential {
		t.Fatalf("expected invalid credential for bad password, got %v", err)
	}
	// Unknown email yields the identical error so accounts cannot be probed.
	if _, err := svc.Authenticate(ctx, "nobody@x.com", "password1"); apperr.KindOf(err) != apperr.KindInvalidCredential {
		t.Fatalf("expected invalid credential for unknown email, got %v", err)
	}
}

func TestAuthenticateInactiveUser(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	svc := NewService(repo)
	if _, err := svc.Register(ctx, RegisterInput{Email: "a@x.com", Name: "Alice", Password: "password1"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	mr := repo.(*memoryRepository)
	mr.mu.Lock()
	mr.users["a@x.com"].Active = false
	mr.mu.Unlock()

	if _, err := svc.Authenticate(ctx, "a@x.com", "password1"); apperr.KindOf(err) != apperr.KindInvalidCredential {
		t.Fatalf("expected invalid credential for inactive user, got %v", err)
	}
}

func TestUpdatePasswordAndClearResetSingleUse(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	user := &User{UserCode: "code-1", Email: "a@x.com", Name: "Alice", PasswordHash: "h", Role: RoleMember, Active: true}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SetResetToken(ctx, user.ID, "tok", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("set reset token: %v", err)
	}

	if err := repo.UpdatePasswordAndClearReset(ctx, user.ID, "h2", "tok"); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	if err := repo.UpdatePasswordAndClearReset(ctx, user.ID, "h3", "tok"); err != ErrTokenMismatch {
		t.Fatalf("expected mismatch on second redeem, got %v", err)
	}

	got, err := repo.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.PasswordHash != "h2" {
		t.Fatalf("expected hash h2, got %s", got.PasswordHash)
	}
	if got.ResetToken != nil || got.ResetExpiration != nil {
		t.Fatal("reset fields not cleared")
	}
}

func TestUpdatePasswordAndClearResetExpired(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	user := &User{UserCode: "code-1", Email: "a@x.com", Name: "Alice", PasswordHash: "h", Role: RoleMember, Active: true}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.SetResetToken(ctx, user.ID, "tok", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("set reset token: %v", err)
	}

	if err := repo.UpdatePasswordAndClearReset(ctx, user.ID, "h2", "tok"); err != ErrResetExpired {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"member", "validator", "admin"} {
		if _, err := ParseRole(valid); err != nil {
			t.Fatalf("parse %s: %v", valid, err)
		}
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/fieldnotes/sightings/internal/apperr"
	"github.com/fieldnotes/sightings/internal/identity"
	"github.com/fieldnotes/sightings/internal/logging"
)

type captureMailer struct {
	to      string
	subject string
	body    string
	fail    bool
}

func (m *captureMailer) Send(_ context.Context, to, subject, body string) error {
	if m.fail {
		return errors.New("relay unavailable")
	}
	m.to = to
	m.subject = subject
	m.body = body
	return nil
}

// envelope pulls the signed envelope out of the mailed reset link.
func (m *captureMailer) envelope(t *testing.T) string {
	t.Helper()
	idx := strings.Index(m.body, "token=")
	if idx < 0 {
		t.Fatalf("no token in mail body: %q", m.body)
	}
	rest := m.body[idx+len("token="):]
	if end := strings.IndexAny(rest, " \n"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func newResetFixture(t *testing.T, envelopeTTL time.Duration) (identity.Repository, *captureMailer, *ResetService) {
	t.Helper()
	repo := identity.NewMemoryRepository()
	mailer := &captureMailer{}
	svc := NewResetService(repo, mailer, ResetConfig{
		Secret:      "secret",
		EnvelopeTTL: envelopeTTL,
		ResetTTL:    time.Hour,
		BaseURL:     "http://localhost:8080",
	}, logging.Discard())
	return repo, mailer, svc
}

func registerUser(t *testing.T, repo identity.Repository, email, password string) identity.User {
	t.Helper()
	user, err := identity.NewService(repo).Register(context.Background(), identity.RegisterInput{
		Email:    email,
		Name:     "Alice",
		Password: password,
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func TestInitiateAndRedeem(t *testing.T) {
	repo, mailer, svc := newResetFixture(t, 15*time.Minute)
	ctx := context.Background()
	registerUser(t, repo, "a@x.com", "password1")

	if err := svc.Initiate(ctx, "a@x.com"); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if mailer.to != "a@x.com" {
		t.Fatalf("mail went to %q", mailer.to)
	}

	stored, _ := repo.FindByEmail(ctx, "a@x.com")
	if stored.ResetToken == nil || stored.ResetExpiration == nil {
		t.Fatal("reset fields not set")
	}

	if err := svc.Redeem(ctx, mailer.envelope(t), "password2"); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	stored, _ = repo.FindByEmail(ctx, "a@x.com")
	if stored.ResetToken != nil || stored.ResetExpiration != nil {
		t.Fatal("reset fields not cleared after redemption")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password2")); err != nil {
		t.Fatal("new password does not verify")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("password1")); err == nil {
		t.Fatal("old password still verifies")
	}
}

func TestInitiateUnknownEmailSucceeds(t *testing.T) {
	_, mailer, svc := newResetFixture(t, 15*time.Minute)

	if err := svc.Initiate(context.Background(), "nobody@x.com"); err != nil {
		t.Fatalf("expected success for unknown email, got %v", err)
	}
	if mailer.to != "" {
		t.Fatal("mail sent for unknown email")
	}
}

func TestRedeemTwice(t *testing.T) {
	repo, mailer, svc := newResetFixture(t, 15*time.Minute)
	ctx := context.Background()
	registerUser(t, repo, "a@x.com", "password1")

	if err := svc.Initiate(ctx, "a@x.com"); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	envelope := mailer.envelope(t)

	if err := svc.Redeem(ctx, envelope, "password2"); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	err := svc.Redeem(ctx, envelope, "password3")
	if apperr.KindOf(err) != apperr.KindTokenMismatch {
		t.Fatalf("expected token mismatch on second redeem, got %v", err)
	}
}

func TestSecondInitiateSupersedesFirst(t *testing.T) {
	repo, mailer, svc := newResetFixture(t, 15*time.Minute)
	ctx := context.Background()
	registerUser(t, repo, "a@x.com", "password1")

	if err := svc.Initiate(ctx, "a@x.com"); err != nil {
		t.Fatalf("first initiate: %v", err)
	}
	first := mailer.envelope(t)

	if err := svc.Initiate(ctx, "a@x.com"); err != nil {
		t.Fatalf("second initiate: %v", err)
	}
	second := mailer.envelope(t)

	if err := svc.Redeem(ctx, first, "password2"); apperr.KindOf(err) != apperr.KindTokenMismatch {
		t.Fatalf("expected first envelope to be superseded, got %v", err)
	}
	if err := svc.Redeem(ctx, second, "password2"); err != nil {
		t.Fatalf("latest envelope should redeem: %v", err)
	}
}

func TestRedeemExpiredEnvelope(t *testing.T) {
	repo, mailer, svc := newResetFixture(t, -time.Minute)
	ctx := context.Background()
	registerUser(t, repo, "a@x.com", "password1")

	if err := svc.Initiate(ctx, "a@x.com"); err != nil {
		t.Fatalf("initiate: %v", err)
	}

	// The stored token is still valid for an hour, but the envelope has
	// already lapsed; both layers must pass.
	err := svc.Redeem(ctx, mailer.envelope(t), "password2")
	if apperr.KindOf(err) != apperr.KindInvalidCredential {
		t.Fatalf("expected invalid credential for expired envelope, got %v", err)
	}
}

func TestRedeemUnknownUser(t *testing.T) {
	repo, mailer, svc := newResetFixture(t, 15*time.Minute)
	ctx := context.Background()
	registerUser(t, repo, "a@x.com", "password1")

	if err := svc.Initiate(ctx, "a@x.com"); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	envelope := mailer.envelope(t)

	// Redeem against a store that no longer has the user.
	empty := identity.NewMemoryRepository()
	stale := NewResetService(empty, mailer, ResetConfig{
		Secret:      "secret",
		EnvelopeTTL: 15 * time.Minute,
		ResetTTL:    time.Hour,
		BaseURL:     "http://localhost:8080",
	}, logging.Discard())
	if err := stale.Redeem(ctx, envelope, "password2"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestInitiateDeliveryFailure(t *testing.T) {
	repo, mailer, svc := newResetFixture(t, 15*time.Minute)
	mailer.fail = true
	registerUser(t, repo, "a@x.com", "password1")

	err := svc.Initiate(context.Background(), "a@x.com")
	if apperr.KindOf(err) != apperr.KindTransient {
		t.Fatalf("expected transient delivery error, got %v", err)
	}
}

func TestConcurrentRedeemSingleWinner(t *testing.T) {
	repo, mailer, svc := newResetFixture(t, 15*time.Minute)
	ctx := context.Background()
	registerUser(t, repo, "a@x.com", "password1")

	if err := svc.Initiate(ctx, "a@x.com"); err != nil {
		t.Fatalf("initiate: %v", err)
	}
	envelope := mailer.envelope(t)

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			results <- svc.Redeem(ctx, envelope, "password2")
		}()
	}

	var wins, losses int
	for i := 0; i < 2; i++ {
		if err := <-results; err == nil {
			wins++
		} else {
			losses++
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("expected exactly one winner, got %d wins %d losses", wins, losses)
	}
}

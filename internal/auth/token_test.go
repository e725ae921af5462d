package auth

import (
	"testing"
	"time"

	"github.com/fieldnotes/sightings/internal/apperr"
	"github.com/fieldnotes/sightings/internal/identity"
)

func testUser() identity.User {
	return identity.User{
		UserCode: "code-1",
		Email:    "a@x.com",
		Name:     "Alice",
		Role:     identity.RoleMember,
		Active:   true,
	}
}

func TestIssueAndVerify(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, err := svc.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserCode != "code-1" {
		t.Fatalf("expected user code code-1, got %s", claims.UserCode)
	}
	if claims.Role != identity.RoleMember {
		t.Fatalf("expected member role, got %s", claims.Role)
	}
	if claims.Name != "Alice" {
		t.Fatalf("expected name Alice, got %s", claims.Name)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	svc := NewTokenService("secret", -time.Minute)

	token, err := svc.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = svc.Verify(token)
	if apperr.KindOf(err) != apperr.KindExpired {
		t.Fatalf("expected expired, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewTokenService("secret-a", time.Hour)
	verifier := NewTokenService("secret-b", time.Hour)

	token, err := issuer.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := verifier.Verify(token); apperr.KindOf(err) != apperr.KindInvalidCredential {
		t.Fatalf("expected invalid credential, got %v", err)
	}
}

func TestVerifyMalformedToken(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	if _, err := svc.Verify("not.a.token"); apperr.KindOf(err) != apperr.KindInvalidCredential {
		t.Fatalf("expected invalid credential, got %v", err)
	}
}

func TestRenew(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, err := svc.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	fresh, err := svc.Renew(token)
	if err != nil {
		t.Fatalf("renew: %v", err)
	}

	claims, err := svc.Verify(fresh)
	if err != nil {
		t.Fatalf("verify renewed: %v", err)
	}
	if claims.UserCode != "code-1" || claims.Role != identity.RoleMember {
		t.Fatalf("renewed claims differ: %+v", claims)
	}
}

func TestRenewExpiredToken(t *testing.T) {
	expired := NewTokenService("secret", -time.Minute)
	token, err := expired.Issue(testUser())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc := NewTokenService("secret", time.Hour)
	if _, err := svc.Renew(token); apperr.KindOf(err) != apperr.KindExpired {
		t.Fatalf("expected expired on renew, got %v", err)
	}
}

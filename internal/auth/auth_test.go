package auth

import (
	"errors"
	"testing"
	"time"

	"testmaker-service/internal/domain"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("Pass4Test")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := CheckPassword(hash, "Pass4Test"); err != nil {
		t.Fatalf("expected matching password to verify, got %v", err)
	}
	if err := CheckPassword(hash, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	user := domain.User{
		ID:       "user-1",
		UserName: "Andrew",
		Roles:    []string{domain.RoleRegisteredUser, domain.RoleAdministrator},
	}

	raw, err := issuer.Issue(user)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	identity, err := issuer.Parse(raw)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if identity.UserID != "user-1" || identity.UserName != "Andrew" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if !identity.IsAdmin() {
		t.Fatalf("expected roles to survive the round trip, got %v", identity.Roles)
	}
}

func TestTokenExpiry(t *testing.T) {
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenIssuerWithClock("test-secret", time.Hour, func() time.Time { return issued })

	raw, err := issuer.Issue(domain.User{ID: "user-1", UserName: "Andrew"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	fresh := NewTokenIssuerWithClock("test-secret", time.Hour, func() time.Time { return issued.Add(30 * time.Minute) })
	if _, err := fresh.Parse(raw); err != nil {
		t.Fatalf("expected token valid before expiry, got %v", err)
	}

	late := NewTokenIssuerWithClock("test-secret", time.Hour, func() time.Time { return issued.Add(2 * time.Hour) })
	if _, err := late.Parse(raw); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	raw, err := issuer.Issue(domain.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	other := NewTokenIssuer("another-secret", time.Hour)
	if _, err := other.Parse(raw); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected signature check to fail, got %v", err)
	}
}

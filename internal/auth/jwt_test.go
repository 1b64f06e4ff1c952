package auth

import (
	"strings"
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	raw, err := m.GenerateAccessToken("admin", "admin")

	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := m.VerifyAccessToken(raw)

	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	if claims.Username != "admin" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if claims.JTI == "" {
		t.Fatal("expected a jti")
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m := &Manager{secret: []byte("test-secret"), accessTTL: -time.Minute}

	raw, err := m.GenerateAccessToken("admin", "admin")

	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = m.VerifyAccessToken(raw)

	if err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	m := NewManager("test-secret", time.Hour)
	other := NewManager("other-secret", time.Hour)

	raw, err := m.GenerateAccessToken("admin", "admin")

	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	_, err = other.VerifyAccessToken(raw)

	if err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	m := NewManager("test-secret", time.Hour)

	raw, err := m.GenerateAccessToken("admin", "admin")

	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	parts := strings.Split(raw, ".")
	parts[1] = parts[1] + "x"

	_, err = m.VerifyAccessToken(strings.Join(parts, "."))

	if err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

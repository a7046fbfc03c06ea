package authtoken

import (
	"testing"
	"time"
)

func TestManager_IssueAndValidate(t *testing.T) {
	m := NewManager(&Config{
		Enabled:   true,
		SecretKey: "test-secret-key",
		Issuer:    "test-issuer",
		TokenTTL:  time.Minute,
	})

	token, err := m.Issue("gateway-svc")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	claims, err := m.Validate(token)
	if err != nil {
		t.Fatalf("failed to validate token: %v", err)
	}
	if claims.ServiceName != "gateway-svc" {
		t.Errorf("expected service name 'gateway-svc', got %s", claims.ServiceName)
	}
	if claims.Issuer != "test-issuer" {
		t.Errorf("expected issuer 'test-issuer', got %s", claims.Issuer)
	}
}

func TestManager_ValidateRejectsWrongSecret(t *testing.T) {
	m1 := NewManager(&Config{Enabled: true, SecretKey: "secret-a", TokenTTL: time.Minute})
	m2 := NewManager(&Config{Enabled: true, SecretKey: "secret-b", TokenTTL: time.Minute})

	token, err := m1.Issue("dispatcher")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	if _, err := m2.Validate(token); err == nil {
		t.Error("expected validation to fail with mismatched secret")
	}
}

func TestManager_ValidateRejectsExpired(t *testing.T) {
	m := NewManager(&Config{Enabled: true, SecretKey: "test-secret-key", TokenTTL: -time.Minute})

	token, err := m.Issue("gateway-svc")
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	if _, err := m.Validate(token); err == nil {
		t.Error("expected validation to fail for expired token")
	}
}

package auth

import (
	"errors"
	"testing"
	"time"

	"remod3/internal/domain"
)

var testSecret = []byte("test-secret")

func TestIssueAndParseToken(t *testing.T) {
	token, err := IssueToken(testSecret, "user-1", "alice", "admin", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	claims, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "user-1")
	}
	if claims.Username != "alice" {
		t.Errorf("Username = %q, want %q", claims.Username, "alice")
	}
	if claims.Role != "admin" {
		t.Errorf("Role = %q, want %q", claims.Role, "admin")
	}
}

func TestParseTokenFailures(t *testing.T) {
	valid, err := IssueToken(testSecret, "user-1", "alice", "user", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	expired, err := IssueToken(testSecret, "user-1", "alice", "user", -time.Minute)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	tests := []struct {
		name   string
		secret []byte
		token  string
	}{
		{name: "wrong secret", secret: []byte("other-secret"), token: valid},
		{name: "expired token", secret: testSecret, token: expired},
		{name: "garbage token", secret: testSecret, token: "not.a.token"},
		{name: "empty token", secret: testSecret, token: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.secret, tt.token)
			if !errors.Is(err, domain.ErrUnauthorized) {
				t.Errorf("ParseToken returned %v, want ErrUnauthorized", err)
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword("hunter22", hash) {
		t.Error("CheckPassword rejected the correct password")
	}
	if CheckPassword("hunter23", hash) {
		t.Error("CheckPassword accepted a wrong password")
	}
}

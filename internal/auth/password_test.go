package auth_test

import (
	"testing"

	"github.com/snakeworld/internal/auth"
)

func TestHashPassword(t *testing.T) {
	hash := auth.HashPassword("password123")

	// Hex-encoded SHA-256
	if len(hash) != 64 {
		t.Errorf("hash length = %d, want 64", len(hash))
	}
	if hash == "password123" {
		t.Error("password stored in the clear")
	}

	// Unsalted scheme: same input, same digest
	if auth.HashPassword("password123") != hash {
		t.Error("hashing is not deterministic")
	}
	if auth.HashPassword("password124") == hash {
		t.Error("different passwords produced the same hash")
	}
}

func TestVerifyPassword(t *testing.T) {
	hash := auth.HashPassword("password123")

	if !auth.VerifyPassword("password123", hash) {
		t.Error("correct password rejected")
	}
	if auth.VerifyPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
	if auth.VerifyPassword("password123", "") {
		t.Error("empty stored hash accepted")
	}
}

func TestNewToken(t *testing.T) {
	a, b := auth.NewToken(), auth.NewToken()
	if a == "" || b == "" {
		t.Fatal("empty token")
	}
	if a == b {
		t.Error("tokens are not unique")
	}
}

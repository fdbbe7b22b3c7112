package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Secr3tPw!")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hash == "Secr3tPw!" {
		t.Fatal("hash must not equal plaintext")
	}
	if !VerifyPassword("Secr3tPw!", hash) {
		t.Fatal("expected matching password to verify")
	}
	if VerifyPassword("wrong-password", hash) {
		t.Fatal("expected non-matching password to fail")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	if VerifyPassword("whatever", "") {
		t.Fatal("expected empty hash to fail verification")
	}
	if VerifyPassword("whatever", "not-a-bcrypt-hash") {
		t.Fatal("expected malformed hash to fail verification, not panic")
	}
}

func TestIsStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"":                                  false,
		"short":                             false,
		"1234567":                           false,
		"12345678":                          true,
		"Secr3tPw!":                         true,
		strings.Repeat("a", MinPasswordLength): true,
	}
	for password, expected := range cases {
		if got := IsStrongPassword(password); got != expected {
			t.Fatalf("IsStrongPassword(%q)=%v, want %v", password, got, expected)
		}
	}
}

package internal

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewNumericCodeLengthAndAlphabet(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := NewNumericCode(6)
		if err != nil {
			t.Fatalf("NewNumericCode failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		if strings.Trim(code, "0123456789") != "" {
			t.Fatalf("non-digit in %q", code)
		}
	}

	if _, err := NewNumericCode(2); err == nil {
		t.Fatal("expected error for too few digits")
	}
}

func TestNewVerificationCodeIsUppercaseBase36(t *testing.T) {
	code, err := NewVerificationCode(12)
	if err != nil {
		t.Fatalf("NewVerificationCode failed: %v", err)
	}
	if len(code) != 12 {
		t.Fatalf("expected 12 chars, got %q", code)
	}
	if strings.Trim(code, base36Alphabet) != "" {
		t.Fatalf("unexpected character in %q", code)
	}
}

func TestRefreshTokenCarriesUserID(t *testing.T) {
	userID := uuid.NewString()

	first, err := NewRefreshToken(userID)
	if err != nil {
		t.Fatalf("NewRefreshToken failed: %v", err)
	}
	second, err := NewRefreshToken(userID)
	if err != nil {
		t.Fatalf("NewRefreshToken failed: %v", err)
	}
	if first == second {
		t.Fatal("expected distinct tokens for the same user")
	}

	got, err := DecodeRefreshToken(first)
	if err != nil {
		t.Fatalf("DecodeRefreshToken failed: %v", err)
	}
	if got != userID {
		t.Fatalf("expected %s, got %s", userID, got)
	}
	if HashToken(first) == HashToken(second) {
		t.Fatal("expected distinct token hashes")
	}
}

func TestEncodeRefreshTokenRejectsNonUUID(t *testing.T) {
	var secret [32]byte
	if _, err := EncodeRefreshToken("user-1", secret); err == nil {
		t.Fatal("expected error for non-uuid user id")
	}
}

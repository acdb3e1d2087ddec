package authutil

import (
	"strings"
	"testing"
)

func TestValidatePassword_Valid(t *testing.T) {
	validPasswords := []string{
		"secure123",
		"MyP@ssw0rd",
		"abcdef1",
	}

	for _, pw := range validPasswords {
		if err := ValidatePassword(pw); err != nil {
			t.Errorf("expected %q to be valid, got error: %v", pw, err)
		}
	}
}

func TestValidatePassword_TooShort(t *testing.T) {
	for _, pw := range []string{"", "a", "abcde"} {
		if err := ValidatePassword(pw); err != ErrPasswordTooShort {
			t.Errorf("expected ErrPasswordTooShort for %q, got %v", pw, err)
		}
	}
}

func TestValidatePassword_TooLong(t *testing.T) {
	if err := ValidatePassword(strings.Repeat("a", 129)); err != ErrPasswordTooLong {
		t.Errorf("expected ErrPasswordTooLong, got %v", err)
	}
	if err := ValidatePassword(strings.Repeat("a", 128)); err != nil {
		t.Errorf("expected password at max length to be valid, got %v", err)
	}
}

func TestValidatePassword_CommonCaseInsensitive(t *testing.T) {
	for _, pw := range []string{"password", "PASSWORD", "Qwerty", "ILoveYou", "letmein"} {
		if err := ValidatePassword(pw); err != ErrPasswordCommon {
			t.Errorf("expected ErrPasswordCommon for %q, got %v", pw, err)
		}
	}
}

func TestHashPassword_Valid(t *testing.T) {
	password := "SecurePassword123"

	hash, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "" || hash == password {
		t.Errorf("unexpected hash %q", hash)
	}
}

func TestHashPassword_DifferentHashesForSamePassword(t *testing.T) {
	hash1, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	hash2, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	// bcrypt uses random salt
	if hash1 == hash2 {
		t.Error("expected different hashes for same password")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !CheckPassword("correct horse", hash) {
		t.Error("expected correct password to match")
	}
	if CheckPassword("wrong horse", hash) {
		t.Error("expected incorrect password not to match")
	}
	if CheckPassword("correct horse", "not-a-hash") {
		t.Error("expected invalid hash not to match")
	}
}

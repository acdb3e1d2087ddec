// internal/app/system/authutil/authutil.go
package authutil

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
)

var (
	ErrPasswordTooShort = errors.New("password must be at least 6 characters")
	ErrPasswordTooLong  = errors.New("password must be at most 128 characters")
	ErrPasswordCommon   = errors.New("password is too common")
)

var commonPasswords = map[string]bool{
	"123456":    true,
	"1234567":   true,
	"12345678":  true,
	"123456789": true,
	"password":  true,
	"qwerty":    true,
	"abc123":    true,
	"iloveyou":  true,
	"letmein":   true,
	"football":  true,
	"monkey":    true,
	"dragon":    true,
	"welcome":   true,
	"retro123":  true,
}

// PasswordRules is shown next to password inputs.
const PasswordRules = "At least 6 characters. Avoid common passwords."

// ValidatePassword checks length and rejects well-known passwords.
func ValidatePassword(pw string) error {
	n := utf8.RuneCountInString(pw)
	if n < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if n > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if commonPasswords[strings.ToLower(pw)] {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword returns the bcrypt hash of pw.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(pw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

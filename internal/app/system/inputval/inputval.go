// Package inputval validates and normalizes user-supplied fields before
// they reach a store.
package inputval

import (
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dalemusser/retroboard/internal/app/system/htmlsanitize"
)

const (
	MaxNameLen     = 100
	MaxCardTextLen = 2000
)

var (
	ErrEmpty    = errors.New("value is required")
	ErrTooLong  = errors.New("value is too long")
	ErrBadColor = errors.New("color must be #rgb, #rrggbb or #rrggbbaa")
)

var colorRE = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Name strips markup from a room or category name, trims it and checks
// its length.
func Name(s string) (string, error) {
	s = strings.TrimSpace(htmlsanitize.StripTags(s))
	return bounded(s, MaxNameLen)
}

// CardText trims card text and checks its length. Markup is kept; it is
// sanitized when rendered.
func CardText(s string) (string, error) {
	return bounded(strings.TrimSpace(s), MaxCardTextLen)
}

// Color normalizes an optional category color. Blank input means "no
// color" and returns nil.
func Color(s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	c := strings.TrimSpace(*s)
	if c == "" {
		return nil, nil
	}
	if !colorRE.MatchString(c) {
		return nil, ErrBadColor
	}
	c = strings.ToLower(c)
	return &c, nil
}

// CategoryNames splits newline-separated form input into names, dropping
// blank lines. Each name is validated with Name.
func CategoryNames(s string) ([]string, error) {
	var out []string
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n, err := Name(line)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// IsValidEmail reports whether s is a bare address (no display name).
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(s, "@")
	local, domain := s[:at], s[at+1:]
	for _, part := range []string{local, domain} {
		if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") || strings.Contains(part, "..") {
			return false
		}
	}
	return true
}

var authMethods = []string{"trust", "password", "google"}

// IsValidAuthMethod reports whether m is a supported sign-in method.
func IsValidAuthMethod(m string) bool {
	m = strings.ToLower(strings.TrimSpace(m))
	for _, am := range authMethods {
		if m == am {
			return true
		}
	}
	return false
}

// AllowedAuthMethodsList returns the supported sign-in methods.
func AllowedAuthMethodsList() []string {
	out := make([]string, len(authMethods))
	copy(out, authMethods)
	return out
}

func bounded(s string, max int) (string, error) {
	if s == "" {
		return "", ErrEmpty
	}
	if utf8.RuneCountInString(s) > max {
		return "", ErrTooLong
	}
	return s, nil
}

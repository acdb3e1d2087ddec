package inputval

import (
	"errors"
	"strings"
	"testing"
)

func TestName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{"Bugs", "Bugs", nil},
		{"  Went well  ", "Went well", nil},
		{"<b>Ideas</b>", "Ideas", nil},
		{"Q&A", "Q&A", nil},
		{"", "", ErrEmpty},
		{"   ", "", ErrEmpty},
		{"<script>x</script>", "", ErrEmpty},
		{strings.Repeat("a", MaxNameLen), strings.Repeat("a", MaxNameLen), nil},
		{strings.Repeat("a", MaxNameLen+1), "", ErrTooLong},
		{strings.Repeat("é", MaxNameLen), strings.Repeat("é", MaxNameLen), nil},
	}

	for _, tt := range tests {
		got, err := Name(tt.in)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("Name(%q) err = %v, want %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCardText(t *testing.T) {
	got, err := CardText("  fix <b>X</b>\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "fix <b>X</b>" {
		t.Errorf("got %q, markup should be kept and whitespace trimmed", got)
	}

	if _, err := CardText(" \n\t"); !errors.Is(err, ErrEmpty) {
		t.Errorf("blank text: got %v, want ErrEmpty", err)
	}
	if _, err := CardText(strings.Repeat("x", MaxCardTextLen+1)); !errors.Is(err, ErrTooLong) {
		t.Errorf("long text: got %v, want ErrTooLong", err)
	}
}

func TestColor(t *testing.T) {
	ptr := func(s string) *string { return &s }

	tests := []struct {
		in      *string
		want    string // "" means nil
		wantErr bool
	}{
		{nil, "", false},
		{ptr(""), "", false},
		{ptr("   "), "", false},
		{ptr("#fff"), "#fff", false},
		{ptr("#FF8800"), "#ff8800", false},
		{ptr(" #ff880080 "), "#ff880080", false},
		{ptr("red"), "", true},
		{ptr("#ff88"), "", true},
		{ptr("ff8800"), "", true},
		{ptr("#gggggg"), "", true},
	}

	for _, tt := range tests {
		got, err := Color(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("Color(%v) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if tt.want == "" {
			if got != nil {
				t.Errorf("Color(%v) = %q, want nil", tt.in, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("Color(%v) = %v, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCategoryNames(t *testing.T) {
	got, err := CategoryNames("Went well\r\n\n  Bugs \nIdeas\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Went well", "Bugs", "Ideas"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if got, err := CategoryNames(""); err != nil || len(got) != 0 {
		t.Errorf("empty input: got %v, %v", got, err)
	}
	if _, err := CategoryNames(strings.Repeat("a", MaxNameLen+1)); !errors.Is(err, ErrTooLong) {
		t.Errorf("long name: got %v, want ErrTooLong", err)
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name@example.com", true},
		{"user+tag@example.com", true},
		{"user@localhost", true},

		{"", false},
		{"   ", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{".user@example.com", false},
		{"user..name@example.com", false},
		{"user@example..com", false},
		{"User Name <user@example.com>", false},
		{"user @example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidAuthMethod(t *testing.T) {
	for _, m := range []string{"trust", "password", "google", " Google ", "TRUST"} {
		if !IsValidAuthMethod(m) {
			t.Errorf("IsValidAuthMethod(%q) = false, want true", m)
		}
	}
	for _, m := range []string{"", "internal", "clever", "saml"} {
		if IsValidAuthMethod(m) {
			t.Errorf("IsValidAuthMethod(%q) = true, want false", m)
		}
	}
	if got := AllowedAuthMethodsList(); len(got) != 3 || got[0] != "trust" {
		t.Errorf("AllowedAuthMethodsList() = %v", got)
	}
}

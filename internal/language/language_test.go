package language

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalize(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"", "English"},
		{"  english ", "English"},
		{"KANADA", "Kannada"},
		{"telgu", "Telugu"},
		{"Japanese", "Japanese"},
		{"  Brazilian   Portuguese!! ", "Brazilian Portuguese"},
		{"...", "English"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeClampsLongNamesOnRuneBoundary(t *testing.T) {
	t.Parallel()
	long := strings.Repeat("తెలుగు", 20)
	got := Normalize(long)
	if n := len([]rune(got)); n != maxNameLen {
		t.Fatalf("clamped to %d runes, want %d", n, maxNameLen)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("clamp split a rune: %q", got)
	}
}

func TestExtractRequested(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"summarize in Arabic", "Arabic"},
		{"please give the summary in hindi for me", "Hindi"},
		{"respond into Spanish please", "Spanish"},
		{"language: German", "German"},
		{"what is the main point", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := ExtractRequested(tc.in); got != tc.want {
			t.Errorf("ExtractRequested(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

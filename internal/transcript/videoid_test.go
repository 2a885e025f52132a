package transcript

import (
	"errors"
	"testing"
)

func TestExtractVideoID(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/live/dQw4w9WgXcQ?feature=share", "dQw4w9WgXcQ"},
		{"check this out https://youtu.be/dQw4w9WgXcQ!", "dQw4w9WgXcQ"},
		{"dQw4w9WgXcQ", "dQw4w9WgXcQ"},
	}
	for _, tc := range cases {
		got, err := ExtractVideoID(tc.in)
		if err != nil {
			t.Errorf("ExtractVideoID(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ExtractVideoID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestExtractVideoIDRejectsGarbage(t *testing.T) {
	t.Parallel()
	for _, in := range []string{
		"https://www.youtube.com/watch?v=short",
		"https://www.youtube.com/",
		"just some words",
		"",
	} {
		if _, err := ExtractVideoID(in); !errors.Is(err, ErrInvalidVideoReference) {
			t.Errorf("ExtractVideoID(%q) should fail with ErrInvalidVideoReference", in)
		}
	}
}

func TestLooksLikeVideoLink(t *testing.T) {
	t.Parallel()
	if !LooksLikeVideoLink("see https://youtu.be/abc") {
		t.Errorf("youtu.be link not detected")
	}
	if LooksLikeVideoLink("what is the main point?") {
		t.Errorf("plain question misdetected as link")
	}
}

package transcript

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidVideoReference means the text looked like a video link but no
// valid video id could be parsed from it.
var ErrInvalidVideoReference = errors.New("invalid video reference")

var (
	videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	urlPattern     = regexp.MustCompile(`https?://\S+`)
	idInPathKinds  = map[string]bool{"shorts": true, "embed": true, "live": true}
)

// LooksLikeVideoLink reports whether the text mentions a YouTube URL at all.
func LooksLikeVideoLink(text string) bool {
	return strings.Contains(text, "youtube.com") || strings.Contains(text, "youtu.be")
}

// ExtractVideoID pulls a video id out of a URL, or a message containing one.
func ExtractVideoID(text string) (string, error) {
	raw := strings.TrimSpace(text)
	if m := urlPattern.FindString(raw); m != "" {
		raw = strings.TrimRight(m, `).,!?"'`)
	}
	if id := fromURL(raw); id != "" {
		return id, nil
	}
	if videoIDPattern.MatchString(raw) {
		return raw, nil
	}
	return "", ErrInvalidVideoReference
}

func fromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	if v := u.Query().Get("v"); v != "" && videoIDPattern.MatchString(v) {
		return v
	}

	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if strings.HasSuffix(host, "youtu.be") && len(parts) > 0 && videoIDPattern.MatchString(parts[0]) {
		return parts[0]
	}
	if len(parts) >= 2 && idInPathKinds[parts[0]] && videoIDPattern.MatchString(parts[1]) {
		return parts[1]
	}
	return ""
}

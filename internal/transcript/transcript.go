package transcript

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrTranscriptUnavailable means no source produced a single usable line.
var ErrTranscriptUnavailable = errors.New("transcript unavailable")

// SourceType records which extraction path produced the payload.
type SourceType string

const (
	SourceCaptions  SourceType = "captions"
	SourceExtracted SourceType = "extracted"
)

// Line is one timestamped transcript line, ordered by playback position.
// Duplicate wording across different offsets is valid.
type Line struct {
	Offset time.Duration `json:"offset"`
	Text   string        `json:"text"`
}

// Payload is the normalized transcript held in a session; at most one is
// active per user at a time.
type Payload struct {
	VideoID        string     `json:"video_id"`
	VideoTitle     string     `json:"video_title"`
	PlainText      string     `json:"plain_text"`
	Lines          []Line     `json:"lines"`
	SourceLanguage string     `json:"source_language"`
	SourceType     SourceType `json:"source_type"`
	Truncated      bool       `json:"truncated"`
}

// RawTranscript is what a fetch path hands to the normalizer: either timed
// cues or a plain text blob with an optional total duration.
type RawTranscript struct {
	Cues           []Cue
	PlainText      string
	Duration       time.Duration
	SourceLanguage string
	SourceType     SourceType
	VideoTitle     string
}

// Cue is a caption entry with source-provided timing.
type Cue struct {
	Start time.Duration
	Text  string
}

// Limits caps normalization output.
type Limits struct {
	MaxChars int
	MaxLines int
}

// FormatOffset renders a playback offset as mm:ss, or hh:mm:ss past an hour.
func FormatOffset(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// ParseOffset parses mm:ss or hh:mm:ss back into a duration.
func ParseOffset(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("malformed offset %q", s)
	}
	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("malformed offset %q", s)
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, nil
}

var citationPattern = regexp.MustCompile(`\[(\d{1,2}:\d{2}(?::\d{2})?)\]`)

// Citations extracts every [mm:ss] / [hh:mm:ss] offset cited in text.
func Citations(text string) []time.Duration {
	var out []time.Duration
	for _, m := range citationPattern.FindAllStringSubmatch(text, -1) {
		d, err := ParseOffset(m[1])
		if err != nil {
			continue
		}
		out = append(out, d)
	}
	return out
}

var sentencePattern = regexp.MustCompile(`(?s)[^.!?\n]+[.!?]?`)

// Normalize turns a raw transcript into a Payload, preserving caption-level
// timing when present and otherwise segmenting plain text by sentence with
// offsets spread across the known duration. The plain text is hard-capped at
// limits.MaxChars; lines are decimated by even stride sampling when their
// aggregate exceeds the cap, keeping temporal coverage over density.
func Normalize(raw RawTranscript, limits Limits) (*Payload, error) {
	var lines []Line
	switch {
	case len(raw.Cues) > 0:
		lines = make([]Line, 0, len(raw.Cues))
		for _, cue := range raw.Cues {
			text := collapse(cue.Text)
			if text == "" {
				continue
			}
			lines = append(lines, Line{Offset: cue.Start, Text: text})
		}
	case strings.TrimSpace(raw.PlainText) != "":
		lines = segmentPlainText(raw.PlainText, raw.Duration)
	}
	if len(lines) == 0 {
		return nil, ErrTranscriptUnavailable
	}

	plain := strings.TrimSpace(raw.PlainText)
	if plain == "" {
		parts := make([]string, len(lines))
		for i, ln := range lines {
			parts[i] = ln.Text
		}
		plain = strings.Join(parts, " ")
	}

	truncated := false
	if limits.MaxChars > 0 && len(plain) > limits.MaxChars {
		plain = truncateRunes(plain, limits.MaxChars)
		truncated = true
	}
	if limits.MaxLines > 0 && len(lines) > limits.MaxLines {
		lines = decimate(lines, limits.MaxLines)
		truncated = true
	}
	if limits.MaxChars > 0 {
		if kept := fitLines(lines, limits.MaxChars); kept < len(lines) {
			lines = decimate(lines, kept)
			truncated = true
		}
	}

	lang := raw.SourceLanguage
	if lang == "" {
		lang = "Unknown"
	}
	title := raw.VideoTitle
	if title == "" {
		title = "Unknown Title"
	}
	return &Payload{
		VideoTitle:     title,
		PlainText:      plain,
		Lines:          lines,
		SourceLanguage: lang,
		SourceType:     raw.SourceType,
		Truncated:      truncated,
	}, nil
}

// fitLines reports how many evenly sampled lines fit the char budget.
func fitLines(lines []Line, maxChars int) int {
	total := 0
	for _, ln := range lines {
		total += len(ln.Text) + 1
	}
	if total <= maxChars {
		return len(lines)
	}
	avg := total / len(lines)
	if avg == 0 {
		avg = 1
	}
	kept := maxChars / avg
	if kept < 1 {
		kept = 1
	}
	if kept > len(lines) {
		kept = len(lines)
	}
	return kept
}

// decimate keeps n lines by even stride sampling, always including the
// first line so the opening of the video stays retrievable.
func decimate(lines []Line, n int) []Line {
	if n >= len(lines) || n <= 0 {
		return lines
	}
	out := make([]Line, 0, n)
	stride := float64(len(lines)) / float64(n)
	for i := 0; i < n; i++ {
		out = append(out, lines[int(float64(i)*stride)])
	}
	return out
}

func segmentPlainText(text string, total time.Duration) []Line {
	sentences := sentencePattern.FindAllString(text, -1)
	var cleaned []string
	for _, s := range sentences {
		s = collapse(s)
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	// Without cue timing, offsets are approximations: spread sentences
	// evenly over the known duration, or index by seconds when unknown.
	perLine := time.Second
	if total > 0 && len(cleaned) > 1 {
		perLine = total / time.Duration(len(cleaned))
	}
	lines := make([]Line, len(cleaned))
	for i, s := range cleaned {
		lines[i] = Line{Offset: time.Duration(i) * perLine, Text: s}
	}
	return lines
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most max bytes, backing off to the previous rune
// boundary so multi-byte text never ends in a partial character.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// FullLines renders the payload as the canonical "[mm:ss] text" listing.
func FullLines(p *Payload) string {
	if p == nil || len(p.Lines) == 0 {
		return ""
	}
	var b strings.Builder
	for i, ln := range p.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[" + FormatOffset(ln.Offset) + "] " + ln.Text)
	}
	return b.String()
}

// TimelineMarkers samples up to max lines as "- mm:ss | snippet" markers for
// summarization prompts.
func TimelineMarkers(p *Payload, max int) string {
	if p == nil || len(p.Lines) == 0 || max <= 0 {
		return ""
	}
	stride := len(p.Lines) / max
	if stride < 1 {
		stride = 1
	}
	var markers []string
	for i := 0; i < len(p.Lines) && len(markers) < max; i += stride {
		ln := p.Lines[i]
		snippet := truncateRunes(ln.Text, 110)
		markers = append(markers, "- "+FormatOffset(ln.Offset)+" | "+snippet)
	}
	return strings.Join(markers, "\n")
}

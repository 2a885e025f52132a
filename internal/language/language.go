// Package language normalizes output-language names and spots inline
// language requests ("summarize in Arabic") in free-form messages.
package language

import (
	"regexp"
	"sort"
	"strings"
)

const Default = "English"

const maxNameLen = 40

var aliases = map[string]string{
	"english": "English",
	"hindi":   "Hindi",
	"kannada": "Kannada",
	"kanada":  "Kannada",
	"tamil":   "Tamil",
	"telugu":  "Telugu",
	"telgu":   "Telugu",
	"french":  "French",
	"spanish": "Spanish",
	"german":  "German",
}

// Examples lists the canonical alias targets for help text.
func Examples() []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range aliases {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// Normalize maps a user-supplied language name onto a clean output tag.
// Unknown languages pass through trimmed; empty input falls back to Default.
func Normalize(lang string) string {
	cleaned := strings.TrimSpace(lang)
	if cleaned == "" {
		return Default
	}
	if alias, ok := aliases[strings.ToLower(cleaned)]; ok {
		return alias
	}
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	cleaned = strings.Trim(cleaned, " .,:;!?")
	if cleaned == "" {
		return Default
	}
	return clampName(cleaned)
}

// clampName caps a language name at maxNameLen runes so multi-byte scripts
// are never cut mid-character.
func clampName(name string) string {
	runes := []rune(name)
	if len(runes) > maxNameLen {
		return string(runes[:maxNameLen])
	}
	return name
}

var requestPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:summari[sz]e|summary|answer|respond|reply)\s+(?:in|into)\s+([^\n,.!?;:]{2,50})`),
	regexp.MustCompile(`(?i)\b(?:in|into)\s+([^\n,.!?;:]{2,50})`),
	regexp.MustCompile(`(?i)\blanguage\s*[:=]?\s*([^\n,.!?;:]{2,50})`),
}

var trailingClause = regexp.MustCompile(`(?i)\b(?:for|with|using|please|and)\b`)

// ExtractRequested returns the language named inline in text, or "" when no
// request is present.
func ExtractRequested(text string) string {
	source := strings.TrimSpace(text)
	if source == "" {
		return ""
	}
	for _, pattern := range requestPatterns {
		m := pattern.FindStringSubmatch(source)
		if m == nil {
			continue
		}
		candidate := strings.Join(strings.Fields(m[1]), " ")
		if loc := trailingClause.FindStringIndex(candidate); loc != nil {
			candidate = candidate[:loc[0]]
		}
		candidate = strings.Trim(candidate, " .,:;!?")
		if candidate == "" {
			continue
		}
		if alias, ok := aliases[strings.ToLower(candidate)]; ok {
			return alias
		}
		return clampName(candidate)
	}
	return ""
}

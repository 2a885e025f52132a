package summary

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/openclaw/tubebrief/internal/transcript"
)

var requiredLabels = []string{LabelTitle, LabelKeyPoints, LabelTimestamps, LabelTakeaway}

var (
	keyPointPattern  = regexp.MustCompile(`^\s*[1-5][.)]\s*(.+)$`)
	markerPattern    = regexp.MustCompile(`^\s*-\s*(.+)$`)
	timeTokenPattern = regexp.MustCompile(`\b(\d{1,2}:\d{2}(?::\d{2})?)\b`)
)

// Parse checks the four-section contract (each label present exactly once,
// in any order, key points non-empty) and extracts the Draft.
func Parse(text string) (*Draft, error) {
	for _, label := range requiredLabels {
		switch strings.Count(text, label) {
		case 0:
			return nil, fmt.Errorf("%w: missing section %q", ErrSummaryFormatInvalid, label)
		case 1:
		default:
			return nil, fmt.Errorf("%w: duplicate section %q", ErrSummaryFormatInvalid, label)
		}
	}

	sections := splitSections(text)

	draft := &Draft{
		VideoTitle:   strings.TrimSpace(sections[LabelTitle]),
		CoreTakeaway: strings.TrimSpace(sections[LabelTakeaway]),
	}
	if draft.VideoTitle == "" {
		return nil, fmt.Errorf("%w: empty video title", ErrSummaryFormatInvalid)
	}
	if draft.CoreTakeaway == "" {
		return nil, fmt.Errorf("%w: empty core takeaway", ErrSummaryFormatInvalid)
	}

	for _, line := range strings.Split(sections[LabelKeyPoints], "\n") {
		if m := keyPointPattern.FindStringSubmatch(line); m != nil {
			point := strings.TrimSpace(m[1])
			if point != "" {
				draft.KeyPoints = append(draft.KeyPoints, point)
			}
		}
	}
	if len(draft.KeyPoints) == 0 {
		return nil, fmt.Errorf("%w: no key points", ErrSummaryFormatInvalid)
	}
	if len(draft.KeyPoints) > 5 {
		return nil, fmt.Errorf("%w: %d key points, max 5", ErrSummaryFormatInvalid, len(draft.KeyPoints))
	}

	for _, line := range strings.Split(sections[LabelTimestamps], "\n") {
		m := markerPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		entry := strings.TrimSpace(m[1])
		marker := Marker{Label: entry}
		if tok := timeTokenPattern.FindString(entry); tok != "" {
			if off, err := transcript.ParseOffset(tok); err == nil {
				marker.Offset = off
			}
		}
		draft.Timestamps = append(draft.Timestamps, marker)
	}

	return draft, nil
}

// splitSections slices the text into label -> body, tolerating any section
// order. Labels are assumed unique (checked by Parse).
func splitSections(text string) map[string]string {
	type cut struct {
		label string
		start int // index just past the label
	}
	var cuts []cut
	for _, label := range requiredLabels {
		if idx := strings.Index(text, label); idx >= 0 {
			cuts = append(cuts, cut{label: label, start: idx + len(label)})
		}
	}
	// order by position
	for i := 0; i < len(cuts); i++ {
		for j := i + 1; j < len(cuts); j++ {
			if cuts[j].start < cuts[i].start {
				cuts[i], cuts[j] = cuts[j], cuts[i]
			}
		}
	}
	out := make(map[string]string, len(cuts))
	for i, c := range cuts {
		end := len(text)
		if i+1 < len(cuts) {
			end = cuts[i+1].start - len(cuts[i+1].label)
		}
		out[c.label] = text[c.start:end]
	}
	return out
}

// Render writes a Draft back into the canonical text form.
func (d *Draft) Render() string {
	var b strings.Builder
	b.WriteString(LabelTitle + "\n" + d.VideoTitle + "\n")
	b.WriteString(LabelKeyPoints + "\n")
	for i, p := range d.KeyPoints {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	b.WriteString(LabelTimestamps + "\n")
	if len(d.Timestamps) == 0 {
		b.WriteString("- Approximate timing not clearly available\n")
	}
	for _, m := range d.Timestamps {
		if m.Offset > 0 && !timeTokenPattern.MatchString(m.Label) {
			fmt.Fprintf(&b, "- %s - %s\n", m.Label, transcript.FormatOffset(m.Offset))
		} else {
			fmt.Fprintf(&b, "- %s\n", m.Label)
		}
	}
	b.WriteString(LabelTakeaway + "\n" + d.CoreTakeaway)
	return b.String()
}

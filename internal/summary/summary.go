// Package summary compresses a normalized transcript into the structured
// four-section summary, chunking long transcripts and enforcing the output
// schema with a single bounded repair pass.
package summary

import (
	"errors"
	"time"

	"github.com/openclaw/tubebrief/internal/transcript"
)

var (
	// ErrSummarizationFailed means every chunk compression call failed
	// even after retry; nothing was left to merge.
	ErrSummarizationFailed = errors.New("summarization failed")

	// ErrSummaryFormatInvalid means the draft failed schema validation and
	// the one allowed repair attempt did not fix it.
	ErrSummaryFormatInvalid = errors.New("summary format invalid")
)

// Style selects the output emphasis. Every style is validated against the
// same four-section contract.
type Style string

const (
	StyleSummary      Style = "summary"
	StyleDeepDive     Style = "deepdive"
	StyleActionPoints Style = "actionpoints"
	StyleResearch     Style = "research"
)

// The four required section labels.
const (
	LabelTitle      = "Video Title:"
	LabelKeyPoints  = "5 Key Points:"
	LabelTimestamps = "Important Timestamps:"
	LabelTakeaway   = "Core Takeaway:"
)

// Marker is one entry under Important Timestamps.
type Marker struct {
	Offset time.Duration
	Label  string
}

// Draft is the parsed, schema-conformant summary.
type Draft struct {
	VideoTitle   string
	KeyPoints    []string
	Timestamps   []Marker
	CoreTakeaway string
}

// Chunk partitions lines into contiguous pieces whose rendered text stays
// within budgetChars, never splitting a line; a single over-budget line
// becomes its own chunk. At most maxChunks pieces are returned (the
// transcript is already length-capped upstream, this is a final guard).
func Chunk(lines []transcript.Line, budgetChars, maxChunks int) [][]transcript.Line {
	if len(lines) == 0 {
		return nil
	}
	if budgetChars <= 0 {
		return [][]transcript.Line{lines}
	}

	var chunks [][]transcript.Line
	var current []transcript.Line
	size := 0
	for _, ln := range lines {
		cost := len(ln.Text) + 12 // rendered "[hh:mm:ss] " prefix and newline
		if len(current) > 0 && size+cost > budgetChars {
			chunks = append(chunks, current)
			current = nil
			size = 0
		}
		current = append(current, ln)
		size += cost
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	if maxChunks > 0 && len(chunks) > maxChunks {
		chunks = chunks[:maxChunks]
	}
	return chunks
}

func renderLines(lines []transcript.Line) string {
	return transcript.FullLines(&transcript.Payload{Lines: lines})
}

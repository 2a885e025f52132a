package summary

import (
	"strings"
	"testing"
	"time"

	"github.com/openclaw/tubebrief/internal/transcript"
)

func makeLines(n, textLen int) []transcript.Line {
	lines := make([]transcript.Line, n)
	for i := range lines {
		lines[i] = transcript.Line{
			Offset: time.Duration(i) * 10 * time.Second,
			Text:   strings.Repeat("x", textLen),
		}
	}
	return lines
}

func TestChunkNeverSplitsLines(t *testing.T) {
	t.Parallel()
	lines := makeLines(40, 50)
	chunks := Chunk(lines, 300, 0)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		for _, ln := range c {
			if len(ln.Text) != 50 {
				t.Fatalf("line was split: %q", ln.Text)
			}
			total++
		}
	}
	if total != len(lines) {
		t.Fatalf("chunking lost lines: %d, want %d", total, len(lines))
	}
}

func TestChunkRespectsBudget(t *testing.T) {
	t.Parallel()
	lines := makeLines(30, 40)
	budget := 250
	for _, c := range Chunk(lines, budget, 0) {
		size := 0
		for _, ln := range c {
			size += len(ln.Text) + 12
		}
		if len(c) > 1 && size > budget {
			t.Fatalf("chunk of %d lines exceeds budget: %d > %d", len(c), size, budget)
		}
	}
}

func TestChunkSingleOverBudgetLine(t *testing.T) {
	t.Parallel()
	lines := []transcript.Line{
		{Text: strings.Repeat("a", 500)},
		{Text: "short"},
	}
	chunks := Chunk(lines, 100, 0)
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}
	if len(chunks[0]) != 1 || len(chunks[0][0].Text) != 500 {
		t.Fatalf("over-budget line not isolated: %d lines in first chunk", len(chunks[0]))
	}
}

func TestChunkCapsAtMaxChunks(t *testing.T) {
	t.Parallel()
	lines := makeLines(100, 60)
	chunks := Chunk(lines, 200, 3)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
}

func TestChunkEmptyInput(t *testing.T) {
	t.Parallel()
	if got := Chunk(nil, 100, 6); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
}

func TestChunkZeroBudgetReturnsEverything(t *testing.T) {
	t.Parallel()
	lines := makeLines(5, 10)
	chunks := Chunk(lines, 0, 6)
	if len(chunks) != 1 || len(chunks[0]) != 5 {
		t.Fatalf("unexpected chunking with zero budget: %d chunks", len(chunks))
	}
}

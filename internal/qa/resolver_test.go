package qa

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/openclaw/tubebrief/provider"
	"github.com/openclaw/tubebrief/session"
)

type stubCompleter struct {
	mu      sync.Mutex
	prompts []string
	reqs    []provider.Request
	reply   string
	err     error
}

func (s *stubCompleter) Complete(_ context.Context, req provider.Request) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, req.Prompt)
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubCompleter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func TestResolveQueryEmptyHistoryPassthrough(t *testing.T) {
	t.Parallel()
	stub := &stubCompleter{reply: "should not be used"}
	got := ResolveQuery(context.Background(), stub, "what is a goroutine?", nil, "", "English")
	if got != "what is a goroutine?" {
		t.Fatalf("got %q", got)
	}
	if stub.calls() != 0 {
		t.Fatalf("completion called %d times with empty history", stub.calls())
	}
}

func TestResolveQueryRewritesWithHistory(t *testing.T) {
	t.Parallel()
	stub := &stubCompleter{reply: "How does the Go scheduler preempt goroutines?"}
	history := []session.QATurn{{Question: "what is the scheduler?", Answer: "It assigns goroutines to threads [01:10]."}}

	got := ResolveQuery(context.Background(), stub, "how does it preempt them?", history, "", "English")
	if got != "How does the Go scheduler preempt goroutines?" {
		t.Fatalf("got %q", got)
	}
	if stub.calls() != 1 {
		t.Fatalf("calls = %d, want 1", stub.calls())
	}
	if !strings.Contains(stub.prompts[0], "what is the scheduler?") {
		t.Errorf("prompt missing history:\n%s", stub.prompts[0])
	}
}

func TestResolveQueryFallsBackOnProviderError(t *testing.T) {
	t.Parallel()
	stub := &stubCompleter{err: &provider.Error{Kind: provider.Unreachable}}
	history := []session.QATurn{{Question: "q", Answer: "a"}}

	got := ResolveQuery(context.Background(), stub, "and that one?", history, "", "English")
	if got != "and that one?" {
		t.Fatalf("got %q, want raw question on provider failure", got)
	}
}

func TestResolveQueryKeepsOneLine(t *testing.T) {
	t.Parallel()
	stub := &stubCompleter{reply: "Resolved question here\nAnd some extra commentary."}
	history := []session.QATurn{{Question: "q", Answer: "a"}}

	got := ResolveQuery(context.Background(), stub, "that?", history, "", "English")
	if got != "Resolved question here" {
		t.Fatalf("got %q", got)
	}
}

func TestFormatHistoryBounds(t *testing.T) {
	t.Parallel()
	var history []session.QATurn
	for i := 0; i < 8; i++ {
		history = append(history, session.QATurn{Question: "question", Answer: "answer"})
	}
	out := FormatHistory(history)
	if n := strings.Count(out, "Q: "); n != recentQAMaxTurns {
		t.Fatalf("formatted %d turns, want %d", n, recentQAMaxTurns)
	}

	if got := FormatHistory(nil); got != "None" {
		t.Fatalf("empty history = %q, want None", got)
	}
}

package qa

import (
	"context"
	"testing"
	"time"

	"github.com/openclaw/tubebrief/internal/transcript"
	"github.com/openclaw/tubebrief/provider"
)

func testGate(stub *stubCompleter) *Gate {
	return NewGate(stub, provider.RetryPolicy{MaxAttempts: 2, Backoff: time.Millisecond}, 0)
}

func someEvidence() []Evidence {
	return []Evidence{
		{Line: transcript.Line{Offset: 75 * time.Second, Text: "the scheduler preempts long-running goroutines"}, Score: 3},
		{Line: transcript.Line{Offset: 130 * time.Second, Text: "preemption happens at function calls"}, Score: 2},
	}
}

func TestGateEmptyEvidenceRefusesWithoutCalls(t *testing.T) {
	t.Parallel()
	stub := &stubCompleter{reply: "should not run"}
	got, err := testGate(stub).Answer(context.Background(), "q", "q", nil, "", "", "English")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !got.Refused || got.Text != RefusalText {
		t.Fatalf("got %+v, want refusal", got)
	}
	if stub.calls() != 0 {
		t.Fatalf("completion called %d times with empty evidence", stub.calls())
	}
}

func TestGateAcceptsCitedAnswer(t *testing.T) {
	t.Parallel()
	stub := &stubCompleter{reply: "Goroutines are preempted by the scheduler [01:15]."}
	got, err := testGate(stub).Answer(context.Background(), "q", "q", someEvidence(), "", "", "English")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if got.Refused {
		t.Fatalf("valid citation refused: %+v", got)
	}
	if len(got.Citations) != 1 || got.Citations[0] != 75*time.Second {
		t.Fatalf("citations = %v", got.Citations)
	}
}

func TestGateRefusesUncitedAnswer(t *testing.T) {
	t.Parallel()
	stub := &stubCompleter{reply: "Goroutines are preempted by the scheduler."}
	got, err := testGate(stub).Answer(context.Background(), "q", "q", someEvidence(), "", "", "English")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !got.Refused || got.Text != RefusalText {
		t.Fatalf("uncited answer passed the gate: %+v", got)
	}
}

func TestGateRefusesWhollyOnAnyBadCitation(t *testing.T) {
	t.Parallel()
	// one valid citation, one fabricated
	stub := &stubCompleter{reply: "Preemption [01:15] was introduced in Go 1.14 [55:00]."}
	got, err := testGate(stub).Answer(context.Background(), "q", "q", someEvidence(), "", "", "English")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !got.Refused {
		t.Fatalf("partially fabricated citations passed the gate: %+v", got)
	}
}

func TestGateCarriesTokenCap(t *testing.T) {
	t.Parallel()
	stub := &stubCompleter{reply: "Preemption happens at function calls [02:10]."}
	gate := NewGate(stub, provider.RetryPolicy{MaxAttempts: 1, Backoff: time.Millisecond}, 512)
	if _, err := gate.Answer(context.Background(), "q", "q", someEvidence(), "", "", "English"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if len(stub.reqs) != 1 || stub.reqs[0].MaxTokens != 512 {
		t.Fatalf("reqs = %+v, want one request with MaxTokens 512", stub.reqs)
	}
}

func TestGatePassesThroughModelRefusal(t *testing.T) {
	t.Parallel()
	stub := &stubCompleter{reply: RefusalText}
	got, err := testGate(stub).Answer(context.Background(), "q", "q", someEvidence(), "", "", "English")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !got.Refused || got.Text != RefusalText {
		t.Fatalf("got %+v", got)
	}
}

func TestGatePropagatesProviderError(t *testing.T) {
	t.Parallel()
	stub := &stubCompleter{err: &provider.Error{Kind: provider.Unauthorized}}
	_, err := testGate(stub).Answer(context.Background(), "q", "q", someEvidence(), "", "", "English")
	if provider.KindOf(err) != provider.Unauthorized {
		t.Fatalf("err = %v, want unauthorized provider error", err)
	}
}

func TestGateRefusesEmptyCompletion(t *testing.T) {
	t.Parallel()
	stub := &stubCompleter{reply: "   "}
	got, err := testGate(stub).Answer(context.Background(), "q", "q", someEvidence(), "", "", "English")
	if err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if !got.Refused {
		t.Fatalf("empty completion passed the gate: %+v", got)
	}
}

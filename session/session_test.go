package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/openclaw/tubebrief/internal/transcript"
)

func TestSetTranscriptResetsContext(t *testing.T) {
	t.Parallel()
	sess := New("u1")
	sess.LastSummary = "old summary"
	sess.QAHistory = []QATurn{{Question: "q", Answer: "a"}}

	sess.SetTranscript(&transcript.Payload{
		VideoTitle: "New Video",
		Lines:      []transcript.Line{{Offset: 0, Text: "hello"}},
	})

	if sess.LastSummary != "" {
		t.Errorf("last summary must be cleared on new transcript")
	}
	if len(sess.QAHistory) != 0 {
		t.Errorf("qa history must be cleared on new transcript")
	}
	if sess.Transcript == nil || sess.Transcript.VideoTitle != "New Video" {
		t.Errorf("payload not installed")
	}
}

func TestAppendTurnEvictsOldest(t *testing.T) {
	t.Parallel()
	const capacity = 8
	sess := New("u1")
	for i := 0; i < capacity+3; i++ {
		sess.AppendTurn(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i), capacity)
	}
	if len(sess.QAHistory) != capacity {
		t.Fatalf("history length %d, want %d", len(sess.QAHistory), capacity)
	}
	if sess.QAHistory[0].Question != "q3" {
		t.Errorf("oldest turn not evicted: %q", sess.QAHistory[0].Question)
	}
	if sess.QAHistory[capacity-1].Question != fmt.Sprintf("q%d", capacity+2) {
		t.Errorf("newest turn missing: %q", sess.QAHistory[capacity-1].Question)
	}
}

func TestNewSessionDefaults(t *testing.T) {
	t.Parallel()
	sess := New("u42")
	if sess.Language != "English" {
		t.Errorf("default language = %q", sess.Language)
	}
	if sess.Transcript != nil || sess.LastSummary != "" || len(sess.QAHistory) != 0 {
		t.Errorf("fresh session must be empty")
	}
	if !sess.UpdatedAt.Equal(time.Time{}) {
		t.Errorf("UpdatedAt is set by the store, not the constructor")
	}
}

// Package session holds the durable per-user record of active video context
// and conversation history, behind a keyed get/put store contract.
package session

import (
	"context"
	"time"

	"github.com/openclaw/tubebrief/internal/transcript"
)

// QATurn is one question/answer exchange kept for follow-up resolution.
type QATurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Session is the full per-user state. At most one transcript payload is
// active at a time; replacing it resets the summary and history.
type Session struct {
	UserID      string              `json:"user_id"`
	Language    string              `json:"language"`
	Transcript  *transcript.Payload `json:"transcript,omitempty"`
	LastSummary string              `json:"last_summary,omitempty"`
	QAHistory   []QATurn            `json:"qa_history,omitempty"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// New returns the default session handed out for unknown users.
func New(userID string) Session {
	return Session{UserID: userID, Language: "English"}
}

// SetTranscript installs a new active payload. New video means new context:
// the cached summary and the Q&A history are cleared in the same step.
func (s *Session) SetTranscript(p *transcript.Payload) {
	s.Transcript = p
	s.LastSummary = ""
	s.QAHistory = nil
}

// AppendTurn records a Q&A turn, evicting the oldest once capacity is hit.
func (s *Session) AppendTurn(question, answer string, capacity int) {
	s.QAHistory = append(s.QAHistory, QATurn{Question: question, Answer: answer})
	if capacity > 0 && len(s.QAHistory) > capacity {
		s.QAHistory = s.QAHistory[len(s.QAHistory)-capacity:]
	}
}

// Store is the keyed session store contract.
//
// Get never fails on a missing key: it returns the default session so a
// first message from a new user needs no special casing. Put is a
// replace-or-insert of the full record and is idempotent under retry.
// Update is the serialized read-modify-write commit point: implementations
// must serialize Update calls for the same user so two in-flight messages
// cannot interleave, while different users proceed in parallel. Callers keep
// external network calls outside Update.
type Store interface {
	Get(ctx context.Context, userID string) (Session, error)
	Put(ctx context.Context, userID string, sess Session) error
	Update(ctx context.Context, userID string, apply func(*Session) error) error
}

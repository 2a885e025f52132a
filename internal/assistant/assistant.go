// Package assistant routes user messages through the conversation pipeline:
// commands, link ingestion, summaries, and grounded question answering. Each
// message is one unit of work: session read, external calls, then a single
// serialized session commit.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/openclaw/tubebrief/internal/language"
	"github.com/openclaw/tubebrief/internal/metrics"
	"github.com/openclaw/tubebrief/internal/qa"
	"github.com/openclaw/tubebrief/internal/summary"
	"github.com/openclaw/tubebrief/internal/transcript"
	"github.com/openclaw/tubebrief/provider"
	"github.com/openclaw/tubebrief/session"
)

// User-facing replies for pipeline failures. Raw internal errors never reach
// the user.
const (
	msgNeedLink            = "Please send a YouTube link first."
	msgNeedText            = "Please send a message."
	msgInvalidLink         = "Invalid YouTube URL."
	msgTranscriptFailed    = "Could not fetch a transcript for this video. Try another public video."
	msgSummaryFailed       = "Summary generation failed. Please try again."
	msgQuotaExceeded       = "The language service quota is exhausted. Please try again later."
	msgBadCredentials      = "The language service rejected our credentials. Please contact the operator."
	msgProviderUnreachable = "The language service is unreachable right now. Please try again."
	msgTruncated           = "Transcript is very long. Using a capped transcript window for reliable processing."
)

// Config carries the per-pipeline bounds the assistant hands to each stage.
type Config struct {
	DefaultLanguage string
	Limits          transcript.Limits
	Summary         summary.Options
	Retriever       qa.RetrieverConfig
	HistoryDepth    int
}

// Assistant wires the pipeline stages together behind a single entry point.
type Assistant struct {
	store     session.Store
	completer provider.Completer
	fetcher   transcript.Fetcher
	engine    *summary.Engine
	gate      *qa.Gate
	cfg       Config
	logger    *log.Logger
}

func New(store session.Store, completer provider.Completer, fetcher transcript.Fetcher, cfg Config) *Assistant {
	if cfg.DefaultLanguage == "" {
		cfg.DefaultLanguage = language.Default
	}
	if cfg.HistoryDepth <= 0 {
		cfg.HistoryDepth = 8
	}
	return &Assistant{
		store:     store,
		completer: completer,
		fetcher:   fetcher,
		engine:    summary.NewEngine(completer, cfg.Summary),
		gate:      qa.NewGate(completer, cfg.Summary.Retry, cfg.Summary.MaxTokens),
		cfg:       cfg,
		logger:    log.New(log.Writer(), "[ASSIST] ", log.LstdFlags),
	}
}

// HandleMessage processes one user message and returns the reply text. All
// pipeline failures map to fixed graceful messages; the returned error is
// non-nil only for session-store failures.
func (a *Assistant) HandleMessage(ctx context.Context, userID, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return msgNeedText, nil
	}

	sess, err := a.store.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("session get: %w", err)
	}
	lang := sess.Language
	if lang == "" {
		lang = a.cfg.DefaultLanguage
	}

	if strings.HasPrefix(text, "/") {
		return a.handleCommand(ctx, userID, sess, text, lang)
	}

	// Inline language requests ("summarize in Tamil") switch the session
	// language before anything else runs.
	if requested := language.ExtractRequested(text); requested != "" {
		if err := a.setLanguage(ctx, userID, requested); err != nil {
			return "", err
		}
		lang = requested
		lowered := strings.ToLower(text)
		switch {
		case strings.Contains(lowered, "summar"):
			if sess.Transcript == nil {
				return msgNeedLink, nil
			}
			reply, err := a.summarize(ctx, userID, sess, summary.StyleSummary, lang)
			if err != nil {
				return "", err
			}
			return "Language set to " + requested + ".\n\n" + reply, nil
		case lowered == "in "+strings.ToLower(requested),
			lowered == "language "+strings.ToLower(requested):
			return "Language set to " + requested + ".", nil
		}
	}

	// Research trigger phrases produce a research brief rather than a QA turn.
	if sess.Transcript != nil && isResearchTrigger(text) {
		return a.summarize(ctx, userID, sess, summary.StyleResearch, lang)
	}

	if transcript.LooksLikeVideoLink(text) {
		return a.ingestLink(ctx, userID, text, lang)
	}

	if sess.Transcript != nil {
		return a.answerQuestion(ctx, userID, sess, text, lang)
	}
	return msgNeedLink, nil
}

var researchTriggers = []string{"research brief", "key insights", "extract insights"}

func isResearchTrigger(text string) bool {
	lowered := strings.ToLower(text)
	for _, trigger := range researchTriggers {
		if strings.Contains(lowered, trigger) {
			return true
		}
	}
	return false
}

func (a *Assistant) handleCommand(ctx context.Context, userID string, sess session.Session, text, lang string) (string, error) {
	cmd, args, _ := strings.Cut(text, " ")
	args = strings.TrimSpace(args)

	switch strings.ToLower(cmd) {
	case "/start":
		return startText(), nil
	case "/languages":
		return "Any language name or script works as output.\nUse: /setlang <language>\nExamples: " +
			strings.Join(language.Examples(), ", "), nil
	case "/setlang":
		if args == "" {
			return "Usage: /setlang <language>\nExample: /setlang Japanese", nil
		}
		normalized := language.Normalize(args)
		if err := a.setLanguage(ctx, userID, normalized); err != nil {
			return "", err
		}
		return "Language set to " + normalized + ".", nil
	case "/fulltranscript":
		if sess.Transcript == nil {
			return msgNeedLink, nil
		}
		return transcript.FullLines(sess.Transcript), nil
	case "/summary":
		return a.requireTranscript(ctx, userID, sess, summary.StyleSummary, lang)
	case "/deepdive":
		return a.requireTranscript(ctx, userID, sess, summary.StyleDeepDive, lang)
	case "/actionpoints":
		return a.requireTranscript(ctx, userID, sess, summary.StyleActionPoints, lang)
	case "/research":
		return a.requireTranscript(ctx, userID, sess, summary.StyleResearch, lang)
	case "/english", "/hindi", "/kannada", "/kanada", "/tamil", "/telugu", "/telgu":
		normalized := language.Normalize(strings.TrimPrefix(strings.ToLower(cmd), "/"))
		if err := a.setLanguage(ctx, userID, normalized); err != nil {
			return "", err
		}
		return "Language set to " + normalized + ".", nil
	default:
		return "Unknown command. Send /start for help.", nil
	}
}

func (a *Assistant) requireTranscript(ctx context.Context, userID string, sess session.Session, style summary.Style, lang string) (string, error) {
	if sess.Transcript == nil {
		return msgNeedLink, nil
	}
	return a.summarize(ctx, userID, sess, style, lang)
}

// summarize runs the compression engine and, for the plain summary style,
// caches the result on the session for follow-up resolution.
func (a *Assistant) summarize(ctx context.Context, userID string, sess session.Session, style summary.Style, lang string) (string, error) {
	out, err := a.engine.Generate(ctx, sess.Transcript, style, lang)
	if err != nil {
		a.logger.Printf("user=%s style=%s summary failed: %v", userID, style, err)
		return gracefulMessage(err), nil
	}
	if style == summary.StyleSummary {
		err := a.store.Update(ctx, userID, func(s *session.Session) error {
			s.LastSummary = out
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("session update: %w", err)
		}
	}
	return out, nil
}

// ingestLink fetches and normalizes the transcript, generates the initial
// summary, and commits the new context in one serialized session write.
func (a *Assistant) ingestLink(ctx context.Context, userID, text, lang string) (string, error) {
	videoID, err := transcript.ExtractVideoID(text)
	if err != nil {
		return gracefulMessage(err), nil
	}

	raw, err := a.fetcher.Fetch(ctx, videoID)
	if err != nil {
		a.logger.Printf("user=%s video=%s fetch failed: %v", userID, videoID, err)
		return gracefulMessage(err), nil
	}
	payload, err := transcript.Normalize(raw, a.cfg.Limits)
	if err != nil {
		return gracefulMessage(err), nil
	}
	payload.VideoID = videoID

	sum, sumErr := a.engine.Generate(ctx, payload, summary.StyleSummary, lang)

	// The payload commits even when summarization failed: the transcript is
	// usable for /fulltranscript and Q&A regardless.
	err = a.store.Update(ctx, userID, func(s *session.Session) error {
		s.SetTranscript(payload)
		if sumErr == nil {
			s.LastSummary = sum
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("session update: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Video Title: %s (source: %s)\n", payload.VideoTitle, payload.SourceType)
	if payload.Truncated {
		b.WriteString(msgTruncated + "\n")
	}
	b.WriteString("\n")
	if sumErr != nil {
		a.logger.Printf("user=%s video=%s auto-summary failed: %v", userID, videoID, sumErr)
		b.WriteString("Transcript fetched. " + gracefulMessage(sumErr))
	} else {
		b.WriteString(sum)
	}
	return b.String(), nil
}

// answerQuestion runs the grounded QA protocol and appends the turn to the
// session history when an answer passed the gate.
func (a *Assistant) answerQuestion(ctx context.Context, userID string, sess session.Session, question, lang string) (string, error) {
	recentQA := qa.FormatHistory(sess.QAHistory)
	resolved := qa.ResolveQuery(ctx, a.completer, question, sess.QAHistory, sess.LastSummary, lang)
	evidence := qa.Retrieve(resolved, sess.Transcript.Lines, a.cfg.Retriever)

	answer, err := a.gate.Answer(ctx, question, resolved, evidence, recentQA, sess.LastSummary, lang)
	if err != nil {
		a.logger.Printf("user=%s answer failed: %v", userID, err)
		return gracefulMessage(err), nil
	}
	if answer.Refused {
		metrics.RefusalsTotal.Inc()
		return answer.Text, nil
	}

	err = a.store.Update(ctx, userID, func(s *session.Session) error {
		s.AppendTurn(question, answer.Text, a.cfg.HistoryDepth)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("session update: %w", err)
	}
	return answer.Text, nil
}

func (a *Assistant) setLanguage(ctx context.Context, userID, lang string) error {
	err := a.store.Update(ctx, userID, func(s *session.Session) error {
		s.Language = lang
		return nil
	})
	if err != nil {
		return fmt.Errorf("session update: %w", err)
	}
	return nil
}

// gracefulMessage maps pipeline errors onto the fixed user-facing replies.
func gracefulMessage(err error) string {
	if kind := provider.KindOf(err); kind != "" {
		metrics.ProviderErrorsTotal.WithLabelValues(string(kind)).Inc()
		switch kind {
		case provider.Unauthorized:
			return msgBadCredentials
		case provider.RateLimited:
			return msgQuotaExceeded
		default:
			return msgProviderUnreachable
		}
	}
	switch {
	case errors.Is(err, transcript.ErrInvalidVideoReference):
		return msgInvalidLink
	case errors.Is(err, transcript.ErrTranscriptUnavailable):
		return msgTranscriptFailed
	case errors.Is(err, summary.ErrSummarizationFailed),
		errors.Is(err, summary.ErrSummaryFormatInvalid):
		return msgSummaryFailed
	default:
		return "Something went wrong. Please try again."
	}
}

func startText() string {
	return "Welcome to TubeBrief!\n\n" +
		"1) Send a YouTube link\n" +
		"2) Ask questions about that video\n" +
		"3) Change language: 'summarize in Arabic' or /setlang Arabic\n" +
		"4) Use /fulltranscript to read the full line-by-line transcript\n" +
		"5) Use /deepdive, /actionpoints, or /research for other report styles\n\n" +
		"Examples: " + strings.Join(language.Examples(), ", ")
}

package qa

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openclaw/tubebrief/internal/transcript"
	"github.com/openclaw/tubebrief/provider"
)

// RefusalText is the exact no-coverage reply. It is the designed terminal
// outcome when grounding fails, never an error.
const RefusalText = "This topic is not covered in the video."

// Answer is the gate's final verdict.
type Answer struct {
	Text      string
	Citations []time.Duration
	Refused   bool
}

func refusal() Answer {
	return Answer{Text: RefusalText, Refused: true}
}

// Gate generates answers constrained to retrieved evidence and validates
// every citation against that evidence before letting the text through.
type Gate struct {
	completer provider.Completer
	retry     provider.RetryPolicy
	maxTokens int
}

// NewGate builds a gate over the given completer. maxTokens caps each answer
// completion; zero means provider default.
func NewGate(completer provider.Completer, retry provider.RetryPolicy, maxTokens int) *Gate {
	return &Gate{completer: completer, retry: retry, maxTokens: maxTokens}
}

// Answer runs the two-sided grounding protocol:
//
//  1. empty evidence short-circuits to the refusal with no completion call;
//  2. the completion is constrained to the evidence lines and must cite them;
//  3. an answer with no citations, or with any citation whose offset is not
//     in the evidence, is discarded wholesale and replaced by the refusal.
//
// Provider errors propagate so the caller can render a graceful message.
func (g *Gate) Answer(ctx context.Context, originalQuestion, resolvedQuery string, evidence []Evidence, recentQA, summaryContext, lang string) (Answer, error) {
	if len(evidence) == 0 {
		return refusal(), nil
	}

	prompt := answerPrompt(originalQuestion, resolvedQuery, evidence, recentQA, summaryContext, lang)
	var text string
	err := g.retry.Do(ctx, func(ctx context.Context) error {
		out, err := g.completer.Complete(ctx, provider.Request{Prompt: prompt, Temperature: 0.1, MaxTokens: g.maxTokens})
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	if err != nil {
		return Answer{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" || text == RefusalText {
		return refusal(), nil
	}

	cited := transcript.Citations(text)
	if len(cited) == 0 {
		return refusal(), nil
	}
	allowed := make(map[time.Duration]struct{}, len(evidence))
	for _, e := range evidence {
		allowed[e.Line.Offset] = struct{}{}
	}
	for _, c := range cited {
		if _, ok := allowed[c]; !ok {
			return refusal(), nil
		}
	}
	return Answer{Text: text, Citations: cited}, nil
}

func answerPrompt(originalQuestion, resolvedQuery string, evidence []Evidence, recentQA, summaryContext, lang string) string {
	history := ""
	if strings.TrimSpace(recentQA) != "" && recentQA != "None" {
		history = "\nRecent Q&A Context (for follow-up references only):\n" + recentQA + "\n"
	}
	summarySection := ""
	if strings.TrimSpace(summaryContext) != "" {
		summarySection = "\nRecent Video Summary Context:\n" + summaryContext + "\n"
	}

	return fmt.Sprintf(`You are a strict multilingual assistant.

Rules:
- Answer only from information grounded in the provided transcript excerpts.
- You may use Recent Q&A Context and Recent Video Summary Context only to resolve references like "that", "this point", or pronouns.
- Do not invent facts not supported by transcript evidence.
- If there is partial evidence, answer with the best available evidence and mention uncertainty briefly.
- If the answer is not present at all, respond exactly:
"%s"
- Include 1-2 inline evidence citations using timestamps from the transcript lines, e.g. [03:15].
- Keep the answer concise and factual.
- Respond strictly in %s.

Original Question:
%s

Resolved Question:
%s
%s%s
Relevant Transcript Excerpts:
%s`, RefusalText, lang, originalQuestion, resolvedQuery, history, summarySection, renderEvidence(evidence))
}

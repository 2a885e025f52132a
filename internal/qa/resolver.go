package qa

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/openclaw/tubebrief/provider"
	"github.com/openclaw/tubebrief/session"
)

// ResolveQuery rewrites a follow-up question into a self-contained query
// using only the recent Q&A turns and the cached summary. It never consults
// the transcript. With no history the question passes through unchanged and
// no completion call is made; on provider failure the raw question is used.
func ResolveQuery(ctx context.Context, completer provider.Completer, question string, history []session.QATurn, summaryContext, lang string) string {
	question = strings.TrimSpace(question)
	if question == "" || len(history) == 0 {
		return question
	}

	prompt := fmt.Sprintf(`You rewrite user follow-up questions for transcript search.

Rules:
- If the question is already clear, return it unchanged.
- If the question uses references (that/this/it/second point), rewrite it into a self-contained question.
- Use recent context only to resolve references, not to add new facts.
- Return exactly one line in %s.

Question:
%s

Recent Q&A:
%s

Recent Summary:
%s`, lang, question, FormatHistory(history), orNone(summaryContext))

	resolved, err := completer.Complete(ctx, provider.Request{Prompt: prompt, Temperature: 0})
	if err != nil {
		log.Printf("[QA] query resolution failed, using raw question: %v", err)
		return question
	}
	resolved = strings.TrimSpace(resolved)
	if resolved == "" {
		return question
	}
	// Keep the one-line contract even if the model rambles.
	if idx := strings.IndexByte(resolved, '\n'); idx >= 0 {
		resolved = strings.TrimSpace(resolved[:idx])
	}
	return resolved
}

const (
	recentQAMaxTurns = 4
	recentQAMaxChars = 1400
)

// FormatHistory renders the most recent turns as a bounded Q/A context block
// for prompts, or "None" when nothing usable remains.
func FormatHistory(history []session.QATurn) string {
	if len(history) == 0 {
		return "None"
	}
	start := len(history) - recentQAMaxTurns
	if start < 0 {
		start = 0
	}
	var blocks []string
	size := 0
	for _, turn := range history[start:] {
		q := strings.TrimSpace(turn.Question)
		a := strings.TrimSpace(turn.Answer)
		if q == "" || a == "" {
			continue
		}
		block := "Q: " + q + "\nA: " + a + "\n"
		if size+len(block) > recentQAMaxChars {
			break
		}
		blocks = append(blocks, block)
		size += len(block)
	}
	if len(blocks) == 0 {
		return "None"
	}
	return strings.TrimSpace(strings.Join(blocks, "\n"))
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "None"
	}
	return s
}

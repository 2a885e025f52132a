package summary

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/openclaw/tubebrief/internal/transcript"
	"github.com/openclaw/tubebrief/provider"
)

const degradedNote = "Note: parts of the transcript could not be compressed; some detail may be missing."

// Options bounds the compression engine. Temperature applies to the
// user-facing generation calls (direct and merge); the chunk-note and repair
// stages always run colder for determinism. MaxTokens caps every call; zero
// means provider default.
type Options struct {
	ChunkChars       int
	MaxChunks        int
	ChunkConcurrency int
	Temperature      float32
	MaxTokens        int
	Retry            provider.RetryPolicy
}

// Engine turns a transcript payload into a validated structured summary.
type Engine struct {
	completer provider.Completer
	opts      Options
	logger    *log.Logger
}

func NewEngine(completer provider.Completer, opts Options) *Engine {
	if opts.ChunkConcurrency <= 0 {
		opts.ChunkConcurrency = 3
	}
	if opts.Retry.MaxAttempts <= 0 {
		opts.Retry.MaxAttempts = 2
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.2
	}
	return &Engine{
		completer: completer,
		opts:      opts,
		logger:    log.New(log.Writer(), "[SUMMARY] ", log.LstdFlags),
	}
}

// Generate runs the full pipeline: chunk, compress each chunk, merge, and
// validate (with one repair attempt). Single-chunk transcripts skip the
// chunk/merge split and summarize directly.
func (e *Engine) Generate(ctx context.Context, p *transcript.Payload, style Style, lang string) (string, error) {
	chunks := Chunk(p.Lines, e.opts.ChunkChars, e.opts.MaxChunks)
	if len(chunks) == 0 {
		return "", transcript.ErrTranscriptUnavailable
	}

	var draftText string
	degraded := false
	if len(chunks) == 1 {
		text, err := e.complete(ctx, directPrompt(p, renderLines(chunks[0]), style, lang), e.opts.Temperature)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrSummarizationFailed, err)
		}
		draftText = text
	} else {
		notes, failed, err := e.compressChunks(ctx, p, chunks, lang)
		if err != nil {
			return "", err
		}
		degraded = failed > 0
		text, err := e.complete(ctx, mergePrompt(p, notes, style, lang, degraded), e.opts.Temperature)
		if err != nil {
			return "", fmt.Errorf("%w: merge: %v", ErrSummarizationFailed, err)
		}
		draftText = text
	}

	draft, err := Parse(draftText)
	if err != nil {
		e.logger.Printf("draft failed validation, attempting repair: %v", err)
		repaired, repairErr := e.complete(ctx, repairPrompt(p, draftText, lang), 0)
		if repairErr != nil {
			return "", fmt.Errorf("%w: repair call: %v", ErrSummaryFormatInvalid, repairErr)
		}
		draft, err = Parse(repaired)
		if err != nil {
			// Fail closed: a non-conformant summary never reaches the user.
			return "", err
		}
	}

	out := draft.Render()
	if degraded {
		out = degradedNote + "\n\n" + out
	}
	return out, nil
}

// compressChunks runs the per-chunk note calls concurrently under the
// configured limit. Each call gets one retry with backoff; chunks that
// still fail are tolerated as long as at least one note survives.
func (e *Engine) compressChunks(ctx context.Context, p *transcript.Payload, chunks [][]transcript.Line, lang string) ([]string, int, error) {
	notes := make([]string, len(chunks))
	var mu sync.Mutex
	failed := 0
	var lastErr error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.ChunkConcurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			prompt := chunkPrompt(p, renderLines(chunk), i+1, len(chunks), lang)
			text, err := e.complete(gctx, prompt, 0.1)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				e.logger.Printf("chunk %d/%d compression failed: %v", i+1, len(chunks), err)
				failed++
				lastErr = err
				if provider.KindOf(err) == provider.Unauthorized {
					return err // no point compressing the remaining chunks
				}
				return nil
			}
			notes[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	if failed == len(chunks) {
		return nil, 0, fmt.Errorf("%w: all %d chunks failed: %v", ErrSummarizationFailed, len(chunks), lastErr)
	}

	kept := make([]string, 0, len(notes))
	for _, n := range notes {
		if n != "" {
			kept = append(kept, n)
		}
	}
	return kept, failed, nil
}

// complete is the single provider call site, with the bounded retry policy.
func (e *Engine) complete(ctx context.Context, prompt string, temperature float32) (string, error) {
	var out string
	err := e.opts.Retry.Do(ctx, func(ctx context.Context) error {
		text, err := e.completer.Complete(ctx, provider.Request{Prompt: prompt, Temperature: temperature, MaxTokens: e.opts.MaxTokens})
		if err != nil {
			return err
		}
		out = text
		return nil
	})
	return out, err
}

func styleInstruction(style Style) string {
	switch style {
	case StyleDeepDive:
		return "Emphasize strategic insights, risks and limitations, and practical recommendations drawn from the transcript."
	case StyleActionPoints:
		return "Emphasize concrete, execution-ready action items with suggested priority, derived from the transcript."
	case StyleResearch:
		return "Emphasize core insights, evidence snapshots with approximate timing, and open questions worth investigating."
	default:
		return "Emphasize the most important facts, claims, and conclusions of the video."
	}
}

func sectionContract() string {
	return fmt.Sprintf(`Output format (exact sections, each label exactly once):
%s
%s
1.
2.
3.
4.
5.
%s
- Topic - Approx Timestamp
%s`, LabelTitle, LabelKeyPoints, LabelTimestamps, LabelTakeaway)
}

func directPrompt(p *transcript.Payload, lines string, style Style, lang string) string {
	return fmt.Sprintf(`You are a multilingual video-analysis assistant.

Rules:
- Use only the transcript lines provided.
- Do not invent claims, names, entities, or timestamps.
- If timing is uncertain, mark it as "approx".
- %s
- Respond strictly in %s.

Detected transcript language: %s
Video title: %s

Timeline Markers:
%s

%s

Transcript:
%s`, styleInstruction(style), lang, p.SourceLanguage, p.VideoTitle,
		transcript.TimelineMarkers(p, 20), sectionContract(), lines)
}

func chunkPrompt(p *transcript.Payload, lines string, idx, total int, lang string) string {
	return fmt.Sprintf(`You are a transcript compression assistant.
Respond strictly in %s.
Use only the transcript chunk below.

Video title: %s
Chunk: %d/%d

Return concise notes:
- 6 key facts from this chunk
- 2 notable timestamps in [mm:ss] form copied from the chunk lines
- 2 important claims or examples

Transcript Chunk:
%s`, lang, p.VideoTitle, idx, total, lines)
}

func mergePrompt(p *transcript.Payload, notes []string, style Style, lang string, degraded bool) string {
	gap := ""
	if degraded {
		gap = "\nSome portions of the transcript were unavailable; briefly note that some detail may be missing.\n"
	}
	return fmt.Sprintf(`You are a multilingual video-analysis assistant.

Rules:
- Use only the chunk notes below.
- Preserve all four required sections.
- Select timestamps only from timestamps present in the chunk notes.
- Do not invent claims, names, entities, or timestamps.
- %s
- Respond strictly in %s.
%s
Video title: %s

%s

Chunk Notes:
%s`, styleInstruction(style), lang, gap, p.VideoTitle, sectionContract(), strings.Join(notes, "\n\n"))
}

func repairPrompt(p *transcript.Payload, draft, lang string) string {
	return fmt.Sprintf(`Reformat the draft summary into the exact structure below.
Respond strictly in %s.
Return the complete corrected summary with every section present, using only material already in the draft. Do not invent facts.

%s

Video title to use:
%s

Draft Summary:
%s`, lang, sectionContract(), p.VideoTitle, draft)
}

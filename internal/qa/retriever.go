// Package qa implements the grounded question-answering protocol: query
// resolution against recent history, lexical evidence retrieval over the
// timestamped lines, and the citation-validated answer gate.
package qa

import (
	"regexp"
	"sort"
	"strings"

	"github.com/openclaw/tubebrief/internal/transcript"
)

// stopwords are dropped before overlap scoring; question words carry no
// lexical signal about the topic.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "and": {}, "or": {}, "is": {}, "are": {},
	"to": {}, "in": {}, "of": {}, "for": {}, "on": {}, "with": {}, "this": {},
	"that": {}, "it": {}, "be": {}, "as": {}, "at": {}, "by": {}, "from": {},
	"what": {}, "when": {}, "where": {}, "why": {}, "how": {},
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Tokenize lowercases, splits on non-word runes, and drops stopwords and
// single-character tokens.
func Tokenize(text string) []string {
	var out []string
	for _, tok := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, skip := stopwords[tok]; skip {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(text) {
		set[tok] = struct{}{}
	}
	return set
}

// Evidence is one transcript line selected as relevant to a query.
type Evidence struct {
	Line  transcript.Line
	Score int
}

// RetrieverConfig bounds the evidence set.
type RetrieverConfig struct {
	TopK       int
	MinOverlap int
}

// Retrieve ranks lines by distinct-term overlap with the query, ties broken
// by earlier time offset, and returns at most TopK lines scoring at least
// MinOverlap. An empty result is the designed no-coverage signal, not an
// error.
func Retrieve(query string, lines []transcript.Line, cfg RetrieverConfig) []Evidence {
	if cfg.TopK <= 0 {
		cfg.TopK = 12
	}
	if cfg.MinOverlap <= 0 {
		cfg.MinOverlap = 1
	}

	qTokens := tokenSet(query)
	if len(qTokens) == 0 {
		return nil
	}

	var scored []Evidence
	for _, ln := range lines {
		overlap := 0
		for tok := range tokenSet(ln.Text) {
			if _, ok := qTokens[tok]; ok {
				overlap++
			}
		}
		if overlap >= cfg.MinOverlap {
			scored = append(scored, Evidence{Line: ln, Score: overlap})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Line.Offset < scored[j].Line.Offset
	})
	if len(scored) > cfg.TopK {
		scored = scored[:cfg.TopK]
	}
	return scored
}

// renderEvidence writes the evidence lines in the same "[mm:ss] text" form
// the answer prompt asks the model to cite from.
func renderEvidence(ev []Evidence) string {
	var b strings.Builder
	for i, e := range ev {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[" + transcript.FormatOffset(e.Line.Offset) + "] " + e.Line.Text)
	}
	return b.String()
}

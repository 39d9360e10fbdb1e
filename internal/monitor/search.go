package monitor

import (
	"sort"
	"strings"

	"orderdesk/internal/model"
)

// Tokens splits a search query into lowercase tokens on whitespace.
func Tokens(query string) []string {
	fields := strings.Fields(query)
	toks := make([]string, 0, len(fields))
	for _, f := range fields {
		toks = append(toks, strings.ToLower(f))
	}
	return toks
}

// HighlightSpan marks a matched range of a symbol, half-open [Start, End).
type HighlightSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Match is one order row that satisfied the query, with the symbol
// ranges the tokens hit.
type Match struct {
	Row   model.OrderRecord `json:"row"`
	Spans []HighlightSpan   `json:"spans"`
}

// FilterBucket keeps the rows of one bucket whose symbol contains every
// token, case-insensitively. An empty query matches everything with no
// highlights.
func FilterBucket(rows []model.OrderRecord, tokens []string) []Match {
	matches := make([]Match, 0, len(rows))
	for _, r := range rows {
		spans, ok := matchSymbol(r.Symbol, tokens)
		if !ok {
			continue
		}
		matches = append(matches, Match{Row: r, Spans: spans})
	}
	return matches
}

// matchSymbol reports whether every token occurs in the symbol and
// returns the merged highlight spans covering all occurrences of all
// tokens.
func matchSymbol(symbol string, tokens []string) ([]HighlightSpan, bool) {
	if len(tokens) == 0 {
		return nil, true
	}
	lower := strings.ToLower(symbol)
	var spans []HighlightSpan
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if !strings.Contains(lower, tok) {
			return nil, false
		}
		for from := 0; ; {
			i := strings.Index(lower[from:], tok)
			if i < 0 {
				break
			}
			start := from + i
			spans = append(spans, HighlightSpan{Start: start, End: start + len(tok)})
			from = start + 1
		}
	}
	return mergeSpans(spans), true
}

// mergeSpans sorts spans and coalesces overlapping or touching ranges.
func mergeSpans(spans []HighlightSpan) []HighlightSpan {
	if len(spans) == 0 {
		return nil
	}
	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})
	out := spans[:1]
	for _, s := range spans[1:] {
		last := &out[len(out)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

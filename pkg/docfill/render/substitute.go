package render

import (
	"slices"
	"strings"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
)

// span is a run's half-open byte range within the concatenated paragraph text.
type span struct {
	start, end int
	style      RunStyle
}

// occurrence is a known token found in the original paragraph text.
type occurrence struct {
	start, end int
	value      string
	anchor     RunStyle
}

// Substitute replaces the placeholders in a paragraph given as runs and returns the
// segments that make up the new paragraph. The input slice is not modified.
//
// When the concatenated text holds no token, each run is rewritten on its own and the result
// has exactly one segment per input run. Otherwise the paragraph is rebuilt from scratch and
// the result never contains an empty segment.
func Substitute(runs []Segment, values catalog.Values) []Segment {
	original := Text(runs)
	if !HasPlaceholder(original) {
		return substituteRuns(runs, values)
	}

	spans := layout(runs)
	if len(spans) == 0 {
		return nil
	}

	var occs []occurrence
	for _, loc := range tokenPattern.FindAllStringIndex(original, -1) {
		value, ok := values[original[loc[0]:loc[1]]]
		if !ok {
			continue
		}
		occs = append(occs, occurrence{
			start:  loc[0],
			end:    loc[1],
			value:  value,
			anchor: styleAt(spans, loc[0]),
		})
	}
	slices.SortFunc(occs, func(a, b occurrence) int { return a.start - b.start })

	var out []Segment
	pos := 0
	for _, occ := range occs {
		if occ.start > pos {
			out = appendGap(out, original, pos, occ.start, spans)
		}
		if occ.value != "" {
			out = append(out, Segment{Text: occ.value, Style: occ.anchor})
		}
		pos = occ.end
	}
	if pos < len(original) {
		out = appendGap(out, original, pos, len(original), spans)
	}
	return out
}

// substituteRuns is the fast path: values are replaced inside each run, then any token left
// over is removed.
func substituteRuns(runs []Segment, values catalog.Values) []Segment {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k != "" {
			keys = append(keys, k)
		}
	}
	// longest first so a key never clobbers a longer key containing it
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})

	out := make([]Segment, len(runs))
	for i, run := range runs {
		text := run.Text
		for _, k := range keys {
			text = strings.ReplaceAll(text, k, values[k])
		}
		text = tokenPattern.ReplaceAllStringFunc(text, func(tok string) string {
			if _, ok := values[tok]; ok {
				return tok
			}
			return ""
		})
		out[i] = Segment{Text: text, Style: run.Style}
	}
	return out
}

// appendGap emits the literal text original[start:end] lying between two known tokens.
//
// Unknown tokens inside the gap are deleted. If that leaves the output text a different
// length from the original slice, character positions no longer line up with the runs and
// the whole gap takes the style found at its start. Otherwise the gap is split on run
// boundaries and neighbouring pieces with equal styles are merged.
func appendGap(out []Segment, original string, start, end int, spans []span) []Segment {
	gap := original[start:end]
	text := tokenPattern.ReplaceAllString(gap, "")
	if text == "" {
		return out
	}
	if len(text) != len(gap) {
		return append(out, Segment{Text: text, Style: styleAt(spans, start)})
	}

	var pieces []Segment
	for _, s := range spans {
		lo, hi := max(s.start, start), min(s.end, end)
		if lo >= hi {
			continue
		}
		piece := original[lo:hi]
		if n := len(pieces); n > 0 && pieces[n-1].Style == s.style {
			pieces[n-1].Text += piece
			continue
		}
		pieces = append(pieces, Segment{Text: piece, Style: s.style})
	}
	return append(out, pieces...)
}

// layout records the byte range of every non-empty run.
func layout(runs []Segment) []span {
	spans := make([]span, 0, len(runs))
	pos := 0
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		spans = append(spans, span{start: pos, end: pos + len(r.Text), style: r.Style})
		pos += len(r.Text)
	}
	return spans
}

// styleAt returns the style of the run covering byte offset pos, or the last run's style if
// pos lies past the end of the text.
func styleAt(spans []span, pos int) RunStyle {
	i, found := slices.BinarySearchFunc(spans, pos, func(s span, p int) int {
		switch {
		case s.end <= p:
			return -1
		case s.start > p:
			return 1
		}
		return 0
	})
	if found {
		return spans[i].style
	}
	return spans[len(spans)-1].style
}

// Changed reports whether out differs from in, i.e. whether the paragraph must be rewritten.
func Changed(in, out []Segment) bool {
	return !slices.Equal(in, out)
}

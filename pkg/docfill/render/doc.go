// Package render implements style-preserving placeholder substitution over runs of text.
//
// A paragraph reaches this package as an ordered list of Segments: the text of each run and
// the formatting it carries. Substitute returns the new list of segments for the paragraph
// after every {{TOKEN}} has been replaced. The package knows nothing about the container
// format; the compiler turns runs into segments and segments back into runs.
//
// # Structure Organization
//
//   - style.go: RunStyle, the comparable formatting record
//   - placeholder.go: token scanning and single-pass replacement
//   - substitute.go: the two-tier substitution algorithm
//
// # Substitution
//
// Word processors split runs at arbitrary edit points, so a token such as {{NAME}} is often
// spread over several runs. When the concatenated paragraph text contains no token at all
// every run is handled on its own and keeps its formatting untouched. Otherwise the paragraph
// is re-segmented:
//
//   - each known token becomes exactly one segment styled like the character the token
//     starts on (its anchor style)
//   - the literal text between tokens keeps the style of the run it came from, adjacent
//     pieces with equal styles merged
//   - tokens without a value are deleted
//
// Example:
//
//	plain := render.RunStyle{}
//	bold := render.RunStyle{Bold: true}
//	out := render.Substitute([]render.Segment{
//	    {Text: "Hello ", Style: plain},
//	    {Text: "{{NAME}}", Style: bold},
//	    {Text: "!", Style: plain},
//	}, catalog.Values{"{{NAME}}": "World"})
//	// out: "Hello " (plain), "World" (bold), "!" (plain)
package render

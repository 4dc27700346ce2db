package render

import (
	"regexp"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
)

// tokenPattern matches a placeholder: literal {{ and }} with no '}' between them.
var tokenPattern = regexp.MustCompile(`\{\{[^}]+\}\}`)

// HasPlaceholder reports whether text contains at least one placeholder token.
func HasPlaceholder(text string) bool {
	return tokenPattern.MatchString(text)
}

// ReplaceAll replaces every token in text with its value, or with nothing when values has no
// entry for it. It is the single-pass form used where no run styling exists.
func ReplaceAll(text string, values catalog.Values) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(tok string) string {
		return values[tok]
	})
}

package formula

import (
	"slices"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
)

// ResolveAll evaluates every formula field of fields against values and returns the augmented
// mapping. The input mapping is not modified.
//
// Formula fields are resolved once each, in ascending Order (catalogue order for ties). A
// formula sees the results of every formula resolved before it; a reference to a formula
// resolved later sees whatever value that placeholder held on input. There is no cycle
// detection. A formula that cannot be evaluated writes ErrorSentinel and the remaining
// fields are still resolved.
func ResolveAll(fields []catalog.Field, values catalog.Values) catalog.Values {
	result := values.Clone()
	for _, f := range formulaFields(fields) {
		result[f.Placeholder] = Evaluate(*f.Formula, result, f.DecimalPlaces)
	}
	return result
}

// Calculated returns only the values ResolveAll computes, keyed by placeholder.
func Calculated(fields []catalog.Field, values catalog.Values) catalog.Values {
	resolved := ResolveAll(fields, values)
	out := make(catalog.Values)
	for _, f := range formulaFields(fields) {
		out[f.Placeholder] = resolved[f.Placeholder]
	}
	return out
}

func formulaFields(fields []catalog.Field) []catalog.Field {
	var out []catalog.Field
	for _, f := range fields {
		if f.IsFormula() {
			out = append(out, f)
		}
	}
	slices.SortStableFunc(out, func(a, b catalog.Field) int {
		return a.Order - b.Order
	})
	return out
}

// Package formula computes the values of calculated fields.
//
// Formulas are flat arithmetic over placeholder tokens and numeric literals, e.g.
//
//	{{WEIGHT}}*{{PRICE}}-{{DISCOUNT}}
//
// Only + - * / are understood. Multiplication and division are reduced first, one leftmost
// pair at a time, then addition and subtraction the same way. Parentheses are not supported
// and a minus sign is only ever part of a number literal or a binary operator.
package formula

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
)

// ErrorSentinel is the value written for a formula that cannot be evaluated.
const ErrorSentinel = "ОШИБКА"

var (
	placeholderPattern = regexp.MustCompile(`\{\{[^}]+\}\}`)
	whitespacePattern  = regexp.MustCompile(`\s+`)

	mulDivPattern = regexp.MustCompile(`(-?\d+(?:\.\d+)?)([*/])(-?\d+(?:\.\d+)?)`)
	addSubPattern = regexp.MustCompile(`(-?\d+(?:\.\d+)?)([+-])(-?\d+(?:\.\d+)?)`)
	numberPattern = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
)

// Evaluate substitutes the placeholders of expr from values, reduces the expression and
// formats the result. It never fails: malformed input yields ErrorSentinel.
func Evaluate(expr string, values catalog.Values, decimalPlaces *int) string {
	if strings.TrimSpace(expr) == "" {
		return ""
	}
	result, err := reduce(substitute(expr, values))
	if err != nil {
		return ErrorSentinel
	}
	return formatNumber(result, decimalPlaces)
}

// substitute replaces every placeholder with its numeric value. Missing and non-numeric
// values count as zero.
func substitute(expr string, values catalog.Values) string {
	return placeholderPattern.ReplaceAllStringFunc(expr, func(token string) string {
		n, err := strconv.ParseFloat(strings.TrimSpace(values[token]), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return "0"
		}
		return formatLiteral(n)
	})
}

// reduce evaluates a placeholder-free expression.
func reduce(expr string) (float64, error) {
	expr = whitespacePattern.ReplaceAllString(expr, "")
	expr = reduceAll(expr, mulDivPattern)
	expr = reduceAll(expr, addSubPattern)

	// the leftover must be a literal the patterns understand, not just anything ParseFloat takes
	if !numberPattern.MatchString(expr) {
		return 0, fmt.Errorf("formula: cannot reduce %q", expr)
	}
	result, err := strconv.ParseFloat(expr, 64)
	if err != nil {
		return 0, fmt.Errorf("formula: cannot reduce %q: %w", expr, err)
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, fmt.Errorf("formula: %q is not a finite number", expr)
	}
	return result, nil
}

// reduceAll repeatedly rewrites the leftmost "number op number" match with its value until
// pattern no longer matches.
func reduceAll(expr string, pattern *regexp.Regexp) string {
	for {
		m := pattern.FindStringSubmatchIndex(expr)
		if m == nil {
			return expr
		}
		start, leftStart := m[0], m[2]
		// A '-' directly after a digit is the operator of the enclosing expression, not the
		// sign of the left operand: keep it in front of the reduced value.
		if expr[leftStart] == '-' && leftStart > 0 && isDigit(expr[leftStart-1]) {
			start++
			leftStart++
		}
		left, err := strconv.ParseFloat(expr[leftStart:m[3]], 64)
		if err != nil {
			return expr
		}
		right, err := strconv.ParseFloat(expr[m[6]:m[7]], 64)
		if err != nil {
			return expr
		}
		value := apply(left, expr[m[4]], right)
		expr = expr[:start] + formatLiteral(value) + expr[m[1]:]
	}
}

func apply(left float64, op byte, right float64) float64 {
	switch op {
	case '+':
		return left + right
	case '-':
		return left - right
	case '*':
		return left * right
	case '/':
		if right == 0 {
			return 0
		}
		return left / right
	}
	return 0
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// formatLiteral renders an intermediate value so the reduction patterns can read it back.
func formatLiteral(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func formatNumber(n float64, decimalPlaces *int) string {
	if n == 0 {
		n = 0 // drop the sign of negative zero
	}
	switch {
	case decimalPlaces == nil:
		if n == math.Trunc(n) {
			return strconv.FormatFloat(n, 'f', 0, 64)
		}
		return fixed(n, 2)
	case *decimalPlaces <= 0:
		return strconv.FormatFloat(math.Floor(n+0.5), 'f', 0, 64)
	default:
		return fixed(n, *decimalPlaces)
	}
}

// fixed renders n with exactly places fraction digits, rounding half up on the shortest
// decimal representation of n (so 2.675 becomes "2.68", not "2.67").
func fixed(n float64, places int) string {
	digits := strconv.FormatFloat(math.Abs(n), 'f', -1, 64)
	intPart, frac, _ := strings.Cut(digits, ".")
	if len(frac) <= places {
		frac += strings.Repeat("0", places-len(frac))
	} else {
		roundUp := frac[places] >= '5'
		frac = frac[:places]
		if roundUp {
			intPart, frac = increment(intPart, frac)
		}
	}

	out := intPart
	if places > 0 {
		out += "." + frac
	}
	if n < 0 {
		out = "-" + out
	}
	return out
}

// increment adds one unit in the last place of the decimal number intPart.frac.
func increment(intPart, frac string) (string, string) {
	buf := []byte(intPart + frac)
	i := len(buf) - 1
	for ; i >= 0; i-- {
		if buf[i] < '9' {
			buf[i]++
			break
		}
		buf[i] = '0'
	}
	if i < 0 {
		buf = append([]byte{'1'}, buf...)
	}
	split := len(buf) - len(frac)
	return string(buf[:split]), string(buf[split:])
}

// Dependencies returns the distinct placeholder tokens referenced by expr, in order of first
// appearance.
func Dependencies(expr string) []string {
	var out []string
	for _, tok := range placeholderPattern.FindAllString(expr, -1) {
		if !slices.Contains(out, tok) {
			out = append(out, tok)
		}
	}
	return out
}

// IsCalculated reports whether f is a formula field with a non-blank body.
func IsCalculated(f catalog.Field) bool {
	return f.IsFormula() && strings.TrimSpace(*f.Formula) != ""
}

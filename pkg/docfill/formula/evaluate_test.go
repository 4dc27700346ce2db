package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
)

func intPtr(i int) *int { return &i }

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		formula  string
		values   catalog.Values
		decimals *int
		want     string
	}{
		{"addition", "{{A}}+{{B}}", catalog.Values{"{{A}}": "2", "{{B}}": "3"}, nil, "5"},
		{"division by zero", "{{A}}/{{B}}", catalog.Values{"{{A}}": "10", "{{B}}": "0"}, nil, "0"},
		{"fixed decimals", "{{A}}*2", catalog.Values{"{{A}}": "2.5"}, intPtr(1), "5.0"},
		{"fraction defaults to two digits", "{{A}}/3", catalog.Values{"{{A}}": "10"}, nil, "3.33"},
		{"integral result has no point", "{{A}}/4", catalog.Values{"{{A}}": "10"}, intPtr(0), "3"},
		{"zero decimals rounds half up", "{{A}}", catalog.Values{"{{A}}": "2.5"}, intPtr(0), "3"},
		{"zero decimals negative", "{{A}}", catalog.Values{"{{A}}": "-2.5"}, intPtr(0), "-2"},
		{"half up on decimal form", "{{A}}", catalog.Values{"{{A}}": "2.675"}, intPtr(2), "2.68"},
		{"rounding carries", "{{A}}", catalog.Values{"{{A}}": "9.996"}, intPtr(2), "10.00"},
		{"missing value is zero", "{{A}}+{{MISSING}}", catalog.Values{"{{A}}": "7"}, nil, "7"},
		{"non numeric value is zero", "{{A}}*{{B}}", catalog.Values{"{{A}}": "abc", "{{B}}": "4"}, nil, "0"},
		{"whitespace ignored", " {{A}} *  2 + 1 ", catalog.Values{"{{A}}": "3"}, nil, "7"},
		{"mul before add", "1+2*3", nil, nil, "7"},
		{"mul before sub", "1-2*3", nil, nil, "-5"},
		{"left to right division", "8/2/2", nil, nil, "2"},
		{"left to right subtraction", "10-2-3", nil, nil, "5"},
		{"negative literal operand", "10-2*-3", nil, nil, "16"},
		{"negative placeholder", "{{A}}-{{B}}", catalog.Values{"{{A}}": "3", "{{B}}": "-5"}, nil, "8"},
		{"negative result", "2-7", nil, nil, "-5"},
		{"single literal", "42", nil, nil, "42"},
		{"empty formula", "   ", nil, nil, ""},
		{"parentheses unsupported", "(1+2)*3", nil, nil, ErrorSentinel},
		{"dangling operator", "{{A}}+", catalog.Values{"{{A}}": "1"}, nil, ErrorSentinel},
		{"garbage", "abc", nil, nil, ErrorSentinel},
		{"exponent literal", "1e5+1", nil, nil, ErrorSentinel},
		{"exponent literal alone", "1e5", nil, nil, ErrorSentinel},
		{"hex literal", "0x10", nil, nil, ErrorSentinel},
		{"infinity word", "Inf", nil, nil, ErrorSentinel},
		{"leading plus", "+5", nil, nil, ErrorSentinel},
		{"exponent in a value is a plain number", "{{A}}+1", catalog.Values{"{{A}}": "1e2"}, nil, "101"},
		{"negative zero", "0*-1", nil, nil, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.formula, tt.values, tt.decimals))
		})
	}
}

func TestEvaluateMatchesTwoPassPrecedence(t *testing.T) {
	// Multiplicative operators are reduced left to right before any additive one.
	tests := map[string]string{
		"2*3+4*5":     "26",
		"2+3*4-6/2":   "11",
		"100/10*2":    "20",
		"1-1-1-1":     "-2",
		"3*-2+10":     "4",
		"5-10/4":      "2.50",
		"0.5*0.5+1.5": "1.75",
	}
	for expr, want := range tests {
		t.Run(expr, func(t *testing.T) {
			assert.Equal(t, want, Evaluate(expr, nil, nil))
		})
	}
}

func TestDependencies(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{"{{A}}*{{B}}+{{A}}", []string{"{{A}}", "{{B}}"}},
		{"{{B}} / {{A}}", []string{"{{B}}", "{{A}}"}},
		{"1+2", nil},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			assert.Equal(t, tt.want, Dependencies(tt.expr))
		})
	}
}

func TestIsCalculated(t *testing.T) {
	body := "{{A}}+1"
	blank := "  "
	assert.True(t, IsCalculated(catalog.Field{Type: catalog.TypeFormula, Formula: &body}))
	assert.False(t, IsCalculated(catalog.Field{Type: catalog.TypeFormula, Formula: &blank}))
	assert.False(t, IsCalculated(catalog.Field{Type: catalog.TypeFormula}))
	assert.False(t, IsCalculated(catalog.Field{Type: catalog.TypeText, Formula: &body}))
}

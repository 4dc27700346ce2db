package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var placeholderSyntax = regexp.MustCompile(`^\{\{[^{}]+\}\}$`)

// ValidationIssue is a single problem found in a catalogue.
type ValidationIssue struct {
	Field   string
	Message string
}

// ValidationError collects every issue found by Validate.
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation error"
	}
	if len(e.Issues) == 1 {
		return fmt.Sprintf("validation error: %s - %s", e.Issues[0].Field, e.Issues[0].Message)
	}

	parts := []string{fmt.Sprintf("%d validation issues:", len(e.Issues))}
	for _, issue := range e.Issues {
		parts = append(parts, fmt.Sprintf("  %s: %s", issue.Field, issue.Message))
	}
	return strings.Join(parts, "\n")
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("placeholder", func(fl validator.FieldLevel) bool {
		return placeholderSyntax.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks field and template records and the references between them.
func (c Catalog) Validate() error {
	v := newValidator()
	var issues []ValidationIssue

	addStructIssues := func(prefix string, err error) {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			issues = append(issues, ValidationIssue{Field: prefix, Message: err.Error()})
			return
		}
		for _, fe := range verrs {
			issues = append(issues, ValidationIssue{
				Field:   prefix + "." + fe.Field(),
				Message: fmt.Sprintf("failed %q check", fe.Tag()),
			})
		}
	}

	fieldIDs := make(map[string]bool, len(c.Fields))
	placeholders := make(map[string]bool, len(c.Fields))
	for i, f := range c.Fields {
		prefix := fmt.Sprintf("fields[%d]", i)
		if err := v.Struct(f); err != nil {
			addStructIssues(prefix, err)
		}
		if f.ID != "" && fieldIDs[f.ID] {
			issues = append(issues, ValidationIssue{Field: prefix + ".ID", Message: "duplicate field id " + f.ID})
		}
		fieldIDs[f.ID] = true
		if f.Placeholder != "" && placeholders[f.Placeholder] {
			issues = append(issues, ValidationIssue{Field: prefix + ".Placeholder", Message: "duplicate placeholder " + f.Placeholder})
		}
		placeholders[f.Placeholder] = true
		// a blank body is allowed and evaluates to an empty value; a missing one is a typo
		if f.Type == TypeFormula && f.Formula == nil {
			issues = append(issues, ValidationIssue{Field: prefix + ".Formula", Message: "formula field has no formula"})
		}
	}

	templateIDs := make(map[string]bool, len(c.Templates))
	for i, t := range c.Templates {
		prefix := fmt.Sprintf("templates[%d]", i)
		if err := v.Struct(t); err != nil {
			addStructIssues(prefix, err)
		}
		if t.ID != "" && templateIDs[t.ID] {
			issues = append(issues, ValidationIssue{Field: prefix + ".ID", Message: "duplicate template id " + t.ID})
		}
		templateIDs[t.ID] = true
		if t.FileName != "" && t.Kind() == KindUnknown {
			issues = append(issues, ValidationIssue{Field: prefix + ".FileName", Message: "unsupported template format " + t.FileName})
		}
		for _, id := range t.RequiredFieldIDs {
			if !fieldIDs[id] {
				issues = append(issues, ValidationIssue{Field: prefix + ".RequiredFieldIDs", Message: "unknown field id " + id})
			}
		}
	}

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/formula"
)

var errAborted = errors.New("aborted")

// question is one field to ask for.
type question struct {
	Field       catalog.Field
	Required    bool
	Default     string
	Suggestions []string
}

// prompter asks the user for field values. It is an interface so the fill flow can be tested
// without a terminal.
type prompter interface {
	Ask(q question) (string, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Ask(q question) (string, error) {
	message := q.Field.DisplayName
	if message == "" {
		message = q.Field.ID
	}

	var opts []survey.AskOpt
	if q.Required {
		opts = append(opts, survey.WithValidator(survey.Required))
	}
	if q.Field.Type == catalog.TypeNumber {
		opts = append(opts, survey.WithValidator(numeric))
	}

	var prompt survey.Prompt
	if q.Field.Type == catalog.TypeTextarea {
		prompt = &survey.Multiline{Message: message, Default: q.Default, Help: q.Field.Placeholder}
	} else {
		input := &survey.Input{Message: message, Default: q.Default, Help: q.Field.Placeholder}
		if len(q.Suggestions) > 0 {
			input.Suggest = func(toComplete string) []string {
				return matching(q.Suggestions, toComplete)
			}
		}
		prompt = input
	}

	var out string
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return "", errAborted
		}
		return "", err
	}
	return out, nil
}

func numeric(ans interface{}) error {
	s, _ := ans.(string)
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	return nil
}

// matching returns the suggestions containing prefix, ignoring case.
func matching(suggestions []string, prefix string) []string {
	prefix = strings.ToLower(prefix)
	var out []string
	for _, s := range suggestions {
		if strings.Contains(strings.ToLower(s), prefix) {
			out = append(out, s)
		}
	}
	return out
}

// askValues prompts for every non-formula field in order. Values already present in initial
// are offered as defaults; remembered values are offered as suggestions.
func askValues(p prompter, cat catalog.Catalog, t catalog.Template, initial catalog.Values, suggest func(fieldID string) []string) (catalog.Values, error) {
	values := initial.Clone()
	for _, f := range cat.SortedFields() {
		if formula.IsCalculated(f) {
			continue
		}
		q := question{
			Field:    f,
			Required: f.Required || t.Requires(f.ID),
			Default:  values[f.Placeholder],
		}
		if suggest != nil && f.RememberValues {
			q.Suggestions = suggest(f.ID)
			if q.Default == "" && len(q.Suggestions) > 0 {
				q.Default = q.Suggestions[0]
			}
		}
		answer, err := p.Ask(q)
		if err != nil {
			return nil, err
		}
		values[f.Placeholder] = answer
	}
	return values, nil
}

// inputsOf names the catalogue fields a formula field reads, as " (from a, b)".
func inputsOf(cat catalog.Catalog, f catalog.Field) string {
	if f.Formula == nil {
		return ""
	}
	var ids []string
	for _, token := range formula.Dependencies(*f.Formula) {
		if dep, ok := cat.FieldByPlaceholder(token); ok {
			ids = append(ids, dep.ID)
		} else {
			ids = append(ids, token)
		}
	}
	if len(ids) == 0 {
		return ""
	}
	return " (from " + strings.Join(ids, ", ") + ")"
}

func runFill(args []string, stdout io.Writer, p prompter) error {
	fs := flag.NewFlagSet("fill", flag.ContinueOnError)
	var opts commonOptions
	opts.register(fs)
	templateID := fs.String("template", "", "template `ID` (required)")
	asPDF := fs.Bool("pdf", false, "convert the document to PDF")
	out := fs.String("o", "", "output `file` (default: the template's download name)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *templateID == "" {
		return errors.New("fill: -template is required")
	}

	e, err := setup(&opts)
	if err != nil {
		return err
	}
	defer e.close()

	t, ok := e.catalog.TemplateByID(*templateID)
	if !ok {
		return fmt.Errorf("fill: unknown template %s", *templateID)
	}
	initial, err := opts.loadValues()
	if err != nil {
		return err
	}

	var suggest func(string) []string
	if e.history != nil {
		suggest = e.history.Values
	}
	values, err := askValues(p, e.catalog, t, initial, suggest)
	if err != nil {
		return err
	}

	calculated := formula.Calculated(e.catalog.Fields, values)
	for _, f := range e.catalog.SortedFields() {
		if v, ok := calculated[f.Placeholder]; ok {
			fmt.Fprintf(stdout, "%s = %s%s\n", f.Placeholder, v, inputsOf(e.catalog, f))
		}
	}
	return e.generate(stdout, t.ID, values, *asPDF, *out)
}

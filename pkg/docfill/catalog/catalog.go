// Package catalog holds the field catalogue and template descriptions that drive document
// generation.
//
// A Catalog is treated as an immutable snapshot for the duration of a generation call. Callers
// that edit configuration should build a new Catalog (or Clone an existing one) rather than
// mutate a Catalog another goroutine may be reading.
package catalog

import (
	"path/filepath"
	"slices"
	"strings"
)

// FieldType names the kind of input a field represents.
type FieldType string

const (
	TypeText     FieldType = "text"
	TypeNumber   FieldType = "number"
	TypeDate     FieldType = "date"
	TypeTextarea FieldType = "textarea"
	// TypeFormula fields are computed from other fields and never entered by hand.
	TypeFormula FieldType = "formula"
)

// Field describes one placeholder that templates may reference.
type Field struct {
	ID             string    `json:"id" yaml:"id" validate:"required"`
	Placeholder    string    `json:"placeholder" yaml:"placeholder" validate:"required,placeholder"`
	DisplayName    string    `json:"displayName" yaml:"displayName"`
	Type           FieldType `json:"fieldType" yaml:"fieldType" validate:"omitempty,oneof=text number date textarea formula"`
	Required       bool      `json:"required" yaml:"required"`
	Order          int       `json:"order" yaml:"order"`
	Formula        *string   `json:"formula,omitempty" yaml:"formula,omitempty"`
	RememberValues bool      `json:"rememberValues" yaml:"rememberValues"`
	DecimalPlaces  *int      `json:"decimalPlaces,omitempty" yaml:"decimalPlaces,omitempty" validate:"omitempty,min=0,max=15"`
}

// IsFormula reports whether the field is computed by the formula pipeline.
func (f Field) IsFormula() bool {
	return f.Type == TypeFormula && f.Formula != nil
}

// Kind is the container format of a template.
type Kind int

const (
	KindUnknown Kind = iota
	// KindDocument is a formatted-text container (.docx).
	KindDocument
	// KindSpreadsheet is a tabular container (.xlsx).
	KindSpreadsheet
)

func (k Kind) String() string {
	switch k {
	case KindDocument:
		return "docx"
	case KindSpreadsheet:
		return "xlsx"
	default:
		return "unknown"
	}
}

// KindOf derives the container kind from a file name.
func KindOf(fileName string) Kind {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".docx":
		return KindDocument
	case ".xlsx":
		return KindSpreadsheet
	default:
		return KindUnknown
	}
}

// Template describes a document template and the fields it cannot be generated without.
type Template struct {
	ID               string   `json:"id" yaml:"id" validate:"required"`
	FileName         string   `json:"fileName" yaml:"fileName" validate:"required"`
	DisplayName      string   `json:"displayName" yaml:"displayName"`
	DownloadPattern  string   `json:"downloadPattern" yaml:"downloadPattern"`
	RequiredFieldIDs []string `json:"requiredFieldIds" yaml:"requiredFieldIds"`
}

// Kind returns the container kind of the template file.
func (t Template) Kind() Kind {
	return KindOf(t.FileName)
}

// Requires reports whether fieldID is in the template's required list.
func (t Template) Requires(fieldID string) bool {
	return slices.Contains(t.RequiredFieldIDs, fieldID)
}

// Values maps a placeholder token (including its braces) to its string value.
type Values map[string]string

// Clone returns an independent copy of v. A nil mapping clones to an empty one.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Catalog is the full set of fields and templates known to the generator.
type Catalog struct {
	Fields    []Field    `json:"fields" yaml:"fields"`
	Templates []Template `json:"templates" yaml:"templates"`
}

// Clone returns a deep copy of the catalog.
func (c Catalog) Clone() Catalog {
	out := Catalog{
		Fields:    make([]Field, len(c.Fields)),
		Templates: make([]Template, len(c.Templates)),
	}
	for i, f := range c.Fields {
		if f.Formula != nil {
			formula := *f.Formula
			f.Formula = &formula
		}
		if f.DecimalPlaces != nil {
			dp := *f.DecimalPlaces
			f.DecimalPlaces = &dp
		}
		out.Fields[i] = f
	}
	for i, t := range c.Templates {
		t.RequiredFieldIDs = slices.Clone(t.RequiredFieldIDs)
		out.Templates[i] = t
	}
	return out
}

// TemplateByID returns the template with the given ID.
func (c Catalog) TemplateByID(id string) (Template, bool) {
	for _, t := range c.Templates {
		if t.ID == id {
			return t, true
		}
	}
	return Template{}, false
}

// FieldByID returns the field with the given ID.
func (c Catalog) FieldByID(id string) (Field, bool) {
	for _, f := range c.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// FieldByPlaceholder returns the field owning the given placeholder token.
func (c Catalog) FieldByPlaceholder(token string) (Field, bool) {
	for _, f := range c.Fields {
		if f.Placeholder == token {
			return f, true
		}
	}
	return Field{}, false
}

// SortedFields returns the fields in ascending Order, ties kept in catalogue order.
func (c Catalog) SortedFields() []Field {
	fields := slices.Clone(c.Fields)
	slices.SortStableFunc(fields, func(a, b Field) int {
		return a.Order - b.Order
	})
	return fields
}

// WithOptionalDefaults returns a copy of values in which every optional, non-formula field
// that has no value maps to the empty string, so its placeholder renders as nothing.
func (c Catalog) WithOptionalDefaults(t Template, values Values) Values {
	out := values.Clone()
	for _, f := range c.Fields {
		if f.Type == TypeFormula || t.Requires(f.ID) {
			continue
		}
		if _, ok := out[f.Placeholder]; !ok {
			out[f.Placeholder] = ""
		}
	}
	return out
}

// Missing returns the required fields of t that have no non-blank value.
// Required IDs that do not name a known field are ignored.
func (c Catalog) Missing(t Template, values Values) []Field {
	var missing []Field
	for _, id := range t.RequiredFieldIDs {
		f, ok := c.FieldByID(id)
		if !ok {
			continue
		}
		if strings.TrimSpace(values[f.Placeholder]) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Available returns the templates whose required fields are all filled in.
func (c Catalog) Available(values Values) []Template {
	var out []Template
	for _, t := range c.Templates {
		if len(c.Missing(t, values)) == 0 {
			out = append(out, t)
		}
	}
	return out
}

package docfill

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTemplateNotFound is returned for an unknown template ID or a template file the store
	// cannot find.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrUnsupportedFormat is returned for a template whose file is neither .docx nor .xlsx.
	ErrUnsupportedFormat = errors.New("unsupported template format")
	// ErrConversionUnavailable is returned when PDF output is requested but no converter is
	// configured or the converter's engine is not installed.
	ErrConversionUnavailable = errors.New("pdf conversion unavailable")
	// ErrConversionFailed is wrapped by every ConversionError.
	ErrConversionFailed = errors.New("pdf conversion failed")
)

// DocumentError represents an error during document operations
type DocumentError struct {
	Operation string
	Path      string
	Cause     error
}

func (e *DocumentError) Error() string {
	if e.Path != "" && e.Cause != nil {
		return fmt.Sprintf("document error during %s of '%s': %v", e.Operation, e.Path, e.Cause)
	} else if e.Path != "" {
		return fmt.Sprintf("document error during %s of '%s'", e.Operation, e.Path)
	} else if e.Cause != nil {
		return fmt.Sprintf("document error during %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("document error during %s", e.Operation)
}

func (e *DocumentError) Unwrap() error {
	return e.Cause
}

// NewDocumentError creates a new document error
func NewDocumentError(operation, path string, cause error) error {
	return &DocumentError{
		Operation: operation,
		Path:      path,
		Cause:     cause,
	}
}

// ConversionError describes a failed PDF conversion. It matches ErrConversionFailed with
// errors.Is, as well as its cause.
type ConversionError struct {
	SourceExt string
	Output    string // tail of the engine's output, if any
	Cause     error
}

func (e *ConversionError) Error() string {
	msg := fmt.Sprintf("conversion of %s to pdf failed", e.SourceExt)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += " (" + out + ")"
	}
	return msg
}

func (e *ConversionError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrConversionFailed}
	}
	return []error{ErrConversionFailed, e.Cause}
}

// EntryError records an archive entry that could not be produced.
type EntryError struct {
	TemplateID string
	PDF        bool
	Cause      error
}

func (e *EntryError) Error() string {
	variant := "document"
	if e.PDF {
		variant = "pdf"
	}
	return fmt.Sprintf("archive entry %s (%s): %v", e.TemplateID, variant, e.Cause)
}

func (e *EntryError) Unwrap() error {
	return e.Cause
}

// MultiError collects multiple errors
type MultiError struct {
	errors []error
}

// NewMultiError creates a new multi-error collector
func NewMultiError() *MultiError {
	return &MultiError{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collection (ignores nil errors)
func (m *MultiError) Add(err error) {
	if err != nil {
		m.errors = append(m.errors, err)
	}
}

// Len returns the number of errors
func (m *MultiError) Len() int {
	return len(m.errors)
}

// Err returns the multi-error or nil if empty
func (m *MultiError) Err() error {
	if len(m.errors) == 0 {
		return nil
	}
	if len(m.errors) == 1 {
		return m.errors[0]
	}
	return m
}

func (m *MultiError) Error() string {
	if len(m.errors) == 0 {
		return "no errors"
	}

	if len(m.errors) == 1 {
		return m.errors[0].Error()
	}

	var parts []string
	parts = append(parts, fmt.Sprintf("%d errors occurred:", len(m.errors)))
	for i, err := range m.errors {
		parts = append(parts, fmt.Sprintf("  [%d] %v", i+1, err))
	}
	return strings.Join(parts, "\n")
}

func (m *MultiError) Unwrap() []error {
	return m.errors
}

// IsDocumentError checks if an error is a document error
func IsDocumentError(err error) bool {
	var de *DocumentError
	return errors.As(err, &de)
}

// IsConversionError checks if an error is a conversion error
func IsConversionError(err error) bool {
	var ce *ConversionError
	return errors.As(err, &ce)
}

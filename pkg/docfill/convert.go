package docfill

import "context"

// Converter turns a compiled document into PDF. sourceExt is the extension of the source
// format including the dot (".docx" or ".xlsx").
//
// Implementations return an error matching ErrConversionUnavailable when the conversion
// engine is not installed and a *ConversionError when the engine fails.
type Converter interface {
	Convert(ctx context.Context, data []byte, sourceExt string) ([]byte, error)
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(ctx context.Context, data []byte, sourceExt string) ([]byte, error)

// Convert calls f.
func (f ConverterFunc) Convert(ctx context.Context, data []byte, sourceExt string) ([]byte, error) {
	return f(ctx, data, sourceExt)
}

// Package docfill fills {{PLACEHOLDER}} tokens in Word (.docx) and Excel (.xlsx) templates
// and bundles the results into archives.
//
// Templates are ordinary office documents in which the author has typed tokens such as
// {{CONTRACT_NUMBER}} or {{TOTAL}}. A catalogue describes the fields behind the tokens and
// the templates that use them; some fields are formulas computed from others.
//
// # Quick Start
//
//	cat, err := catalog.Load("catalog.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	gen := docfill.New(cat, docfill.NewDirStore("templates"))
//
//	values := catalog.Values{
//	    "{{CONTRACT_NUMBER}}": "C-2024-17",
//	    "{{WEIGHT}}":          "1250",
//	    "{{PRICE}}":           "3.40",
//	}
//
//	output, err := gen.Generate(ctx, "invoice", values, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("invoice.docx", output, 0644)
//
// # Generation Steps
//
// Generate and BuildArchive run the same steps for each template:
//
//  1. formula fields are resolved in ascending order (see package formula)
//  2. optional fields with no value are set to the empty string
//  3. the template bytes are loaded from the TemplateStore
//  4. every token is substituted (see packages render and xml for documents, excelize for
//     spreadsheets); a token with no value disappears
//  5. if requested, the result is converted to PDF by the configured Converter
//
// # Architecture
//
//   - catalog: fields, templates, loading and validation
//   - formula: the formula evaluator and pipeline
//   - render: style-preserving substitution over runs
//   - xml: streaming rewrite of WordprocessingML parts
//   - convert: the LibreOffice-backed Converter
//   - history: remembered field values
//
// # Error Handling
//
// Lookup and I/O failures come back as *DocumentError wrapping one of ErrTemplateNotFound,
// ErrUnsupportedFormat or the underlying error. PDF failures match ErrConversionUnavailable
// or ErrConversionFailed. Formula failures are never errors: the field gets the value
// formula.ErrorSentinel instead.
//
//	if errors.Is(err, docfill.ErrTemplateNotFound) {
//	    // unknown template ID or missing template file
//	}
//
// In archive mode failures only drop the affected entries; see Archive.Failures.
//
// # Thread Safety
//
// A Generator holds a private copy of its catalogue and keeps no per-call state, so it may
// be used from several goroutines at once. DirStore is safe for concurrent use.
package docfill

package docfill

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/formula"
)

// Generator produces documents from the templates of a catalogue.
//
// The catalogue is copied when the Generator is created and never changes afterwards, so a
// Generator may be shared by concurrent callers as long as its store and converter are safe
// for concurrent use. To apply a new catalogue, create a new Generator.
type Generator struct {
	catalog   catalog.Catalog
	store     TemplateStore
	converter Converter
	logger    *Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithConverter enables PDF output through c.
func WithConverter(c Converter) Option {
	return func(g *Generator) {
		g.converter = c
	}
}

// WithLogger sets the logger. The global logger is used otherwise.
func WithLogger(l *Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// New creates a Generator for cat reading template files from store.
func New(cat catalog.Catalog, store TemplateStore, opts ...Option) *Generator {
	g := &Generator{
		catalog: cat.Clone(),
		store:   store,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = GetLogger()
	}
	return g
}

// Catalog returns a copy of the generator's catalogue.
func (g *Generator) Catalog() catalog.Catalog {
	return g.catalog.Clone()
}

// CanConvert reports whether PDF output is configured.
func (g *Generator) CanConvert() bool {
	return g.converter != nil
}

// Available returns the templates whose required fields all have non-blank values.
func (g *Generator) Available(values catalog.Values) []catalog.Template {
	return g.catalog.Available(values)
}

// Calculate returns values with every formula field resolved.
func (g *Generator) Calculate(values catalog.Values) catalog.Values {
	return formula.ResolveAll(g.catalog.Fields, values)
}

// Prepare returns the values a template is compiled with: raw values, then formula results,
// then empty strings for optional fields that have no value.
func (g *Generator) Prepare(t catalog.Template, values catalog.Values) catalog.Values {
	return g.catalog.WithOptionalDefaults(t, g.Calculate(values))
}

// Generate compiles the template with the given ID. With asPDF the compiled document is
// converted to PDF.
//
// An unknown ID gives an error matching ErrTemplateNotFound. PDF output without a converter
// gives ErrConversionUnavailable.
func (g *Generator) Generate(ctx context.Context, templateID string, values catalog.Values, asPDF bool) ([]byte, error) {
	log := g.logger.WithFields(Fields{
		"request":  uuid.NewString(),
		"template": templateID,
	})

	t, ok := g.catalog.TemplateByID(templateID)
	if !ok {
		log.Warn("unknown template")
		return nil, NewDocumentError("lookup", templateID, ErrTemplateNotFound)
	}

	native, err := g.compileTemplate(ctx, log, t, g.Prepare(t, values))
	if err != nil {
		log.Error("generation failed: %v", err)
		return nil, err
	}
	if !asPDF {
		return native, nil
	}

	pdf, err := g.convert(ctx, log, t, native)
	if err != nil {
		log.Error("conversion failed: %v", err)
		return nil, err
	}
	return pdf, nil
}

// compileTemplate loads and compiles t with already prepared values.
func (g *Generator) compileTemplate(ctx context.Context, log *Logger, t catalog.Template, values catalog.Values) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := g.store.Load(t.FileName)
	if err != nil {
		return nil, err
	}

	out, stats, err := compile(t.Kind(), data, values)
	if err != nil {
		return nil, err
	}
	log.Debug("compiled %s in %s: %d parts, %d paragraphs, %d rewritten",
		t.FileName, time.Since(start), stats.Parts, stats.Paragraphs, stats.Rewritten)
	return out, nil
}

func (g *Generator) convert(ctx context.Context, log *Logger, t catalog.Template, native []byte) ([]byte, error) {
	if g.converter == nil {
		return nil, NewDocumentError("convert", t.FileName, ErrConversionUnavailable)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	pdf, err := g.converter.Convert(ctx, native, strings.ToLower(filepath.Ext(t.FileName)))
	if err != nil {
		return nil, err
	}
	log.Debug("converted %s to pdf in %s", t.FileName, time.Since(start))
	return pdf, nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/benjaminschreck/go-docfill/pkg/docfill"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/convert"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/history"
)

// commonOptions are the flags every command that reads a catalogue accepts. Empty values
// fall back to the DOCFILL_* environment.
type commonOptions struct {
	envFile   string
	catalog   string
	templates string
	history   string
	values    string
	set       valueFlags
}

func (o *commonOptions) register(fs *flag.FlagSet) {
	fs.StringVar(&o.envFile, "env", "", "`file` of DOCFILL_* variables to load (default .env if present)")
	fs.StringVar(&o.catalog, "catalog", "", "field and template catalogue (YAML or JSON)")
	fs.StringVar(&o.templates, "templates", "", "templates `directory`")
	fs.StringVar(&o.history, "history", "", "value history `file`")
	fs.StringVar(&o.values, "values", "", "`file` with placeholder values (YAML or JSON)")
	fs.Var(&o.set, "set", "placeholder value as {{TOKEN}}=value (repeatable)")
}

// valueFlags collects repeated -set flags.
type valueFlags []string

func (v *valueFlags) String() string {
	return strings.Join(*v, ",")
}

func (v *valueFlags) Set(s string) error {
	if !strings.Contains(s, "=") {
		return fmt.Errorf("expected {{TOKEN}}=value, got %q", s)
	}
	*v = append(*v, s)
	return nil
}

// env is everything a command needs, built from flags and the environment.
type env struct {
	config    *docfill.Config
	logger    *docfill.Logger
	catalog   catalog.Catalog
	generator *docfill.Generator
	history   *history.Store
}

func setup(opts *commonOptions) (*env, error) {
	var envFiles []string
	if opts.envFile != "" {
		envFiles = append(envFiles, opts.envFile)
	}
	if err := docfill.LoadDotEnv(envFiles...); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	config := docfill.ConfigFromEnvironment()
	if opts.catalog != "" {
		config.CatalogPath = opts.catalog
	}
	if opts.templates != "" {
		config.TemplatesDir = opts.templates
	}
	if opts.history != "" {
		config.HistoryFile = opts.history
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	docfill.SetGlobalConfig(config)
	logger := docfill.NewLoggerFromConfig(config)
	docfill.SetLogger(logger)

	cat, err := catalog.Load(config.CatalogPath)
	if err != nil {
		return nil, err
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	docfill.WithFields(docfill.Fields{
		"catalog":   config.CatalogPath,
		"templates": config.TemplatesDir,
	}).Debug("loaded %d fields and %d templates", len(cat.Fields), len(cat.Templates))

	store := docfill.NewDirStoreWithConfig(config.TemplatesDir, docfill.StoreConfig{
		MaxSize: config.CacheMaxSize,
		TTL:     config.CacheTTL,
	})
	genOpts := []docfill.Option{docfill.WithLogger(logger)}
	if config.PDFEnabled {
		genOpts = append(genOpts, docfill.WithConverter(convert.New(config)))
	}

	e := &env{
		config:    config,
		logger:    logger,
		catalog:   cat,
		generator: docfill.New(cat, store, genOpts...),
	}
	if config.HistoryFile != "" {
		e.history, err = history.Open(config.HistoryFile, logger)
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

// loadValues reads the -values file and applies the -set flags on top.
func (o *commonOptions) loadValues() (catalog.Values, error) {
	values := catalog.Values{}
	if o.values != "" {
		loaded, err := catalog.LoadValues(o.values)
		if err != nil {
			return nil, err
		}
		values = loaded
	}
	for _, kv := range o.set {
		k, v, _ := strings.Cut(kv, "=")
		values[strings.TrimSpace(k)] = v
	}
	return values, nil
}

// remember records the values in the history, if one is configured. Failures are logged.
func (e *env) remember(values catalog.Values) {
	if e.history == nil {
		return
	}
	if err := e.history.Remember(e.catalog, values); err != nil {
		docfill.Warn("could not save value history: %v", err)
	}
}

func (e *env) close() {
	_ = e.logger.Sync()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runGenerate(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	var opts commonOptions
	opts.register(fs)
	templateID := fs.String("template", "", "template `ID` (required)")
	asPDF := fs.Bool("pdf", false, "convert the document to PDF")
	out := fs.String("o", "", "output `file` (default: the template's download name)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *templateID == "" {
		return errors.New("generate: -template is required")
	}

	e, err := setup(&opts)
	if err != nil {
		return err
	}
	defer e.close()

	values, err := opts.loadValues()
	if err != nil {
		return err
	}
	return e.generate(stdout, *templateID, values, *asPDF, *out)
}

func (e *env) generate(stdout io.Writer, templateID string, values catalog.Values, asPDF bool, out string) error {
	t, ok := e.catalog.TemplateByID(templateID)
	if !ok {
		return docfill.NewDocumentError("lookup", templateID, docfill.ErrTemplateNotFound)
	}
	if missing := e.catalog.Missing(t, values); len(missing) > 0 {
		docfill.WithField("template", t.ID).Warn("missing required fields: %s", fieldIDs(missing))
	}

	ctx, cancel := signalContext()
	defer cancel()

	data, err := e.generator.Generate(ctx, templateID, values, asPDF)
	if err != nil {
		return err
	}

	if out == "" {
		out = docfill.DownloadName(t, e.generator.Prepare(t, values))
		if asPDF {
			out = docfill.PDFName(out)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}
	e.remember(values)
	docfill.Info("wrote %s for template %s", out, t.ID)
	fmt.Fprintf(stdout, "wrote %s (%d bytes)\n", out, len(data))
	return nil
}

func runArchive(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("archive", flag.ContinueOnError)
	var opts commonOptions
	opts.register(fs)
	out := fs.String("o", "", "output `file` (default: Documents_<contract number>.zip)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("archive: no templates given")
	}

	req, err := parseArchiveSpecs(fs.Args())
	if err != nil {
		return err
	}

	e, err := setup(&opts)
	if err != nil {
		return err
	}
	defer e.close()

	if req.Values, err = opts.loadValues(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	archive, err := e.generator.BuildArchive(ctx, req)
	if err != nil {
		return err
	}
	name := *out
	if name == "" {
		name = archive.Name
	}
	if err := os.WriteFile(name, archive.Data, 0o644); err != nil {
		return err
	}
	e.remember(req.Values)

	fmt.Fprintf(stdout, "wrote %s with %d entries\n", name, len(archive.Entries))
	for _, entry := range archive.Entries {
		fmt.Fprintf(stdout, "  %s\n", entry)
	}
	for _, failure := range archive.Failures {
		docfill.Error("archive entry skipped: %v", failure)
		fmt.Fprintf(stdout, "  skipped: %v\n", failure)
	}
	return nil
}

// parseArchiveSpecs turns arguments of the form ID, ID:pdf, ID:orig:pdf into a request.
// A bare ID selects the native document only; naming any variant selects exactly those.
func parseArchiveSpecs(specs []string) (docfill.ArchiveRequest, error) {
	req := docfill.ArchiveRequest{
		Originals: map[string]bool{},
		PDFs:      map[string]bool{},
	}
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		id := parts[0]
		if id == "" {
			return req, fmt.Errorf("archive: empty template id in %q", spec)
		}
		req.TemplateIDs = append(req.TemplateIDs, id)
		if len(parts) == 1 {
			continue
		}
		req.Originals[id] = false
		for _, variant := range parts[1:] {
			switch variant {
			case "orig", "original":
				req.Originals[id] = true
			case "pdf":
				req.PDFs[id] = true
			default:
				return req, fmt.Errorf("archive: unknown variant %q in %q", variant, spec)
			}
		}
	}
	return req, nil
}

func runCalc(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("calc", flag.ContinueOnError)
	var opts commonOptions
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := setup(&opts)
	if err != nil {
		return err
	}
	defer e.close()

	values, err := opts.loadValues()
	if err != nil {
		return err
	}
	data, err := catalog.MarshalValues(e.generator.Calculate(values))
	if err != nil {
		return err
	}
	_, err = stdout.Write(data)
	return err
}

func runTemplates(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("templates", flag.ContinueOnError)
	var opts commonOptions
	opts.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := setup(&opts)
	if err != nil {
		return err
	}
	defer e.close()

	values, err := opts.loadValues()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tFILE\tSTATUS")
	for _, t := range e.catalog.Templates {
		status := "ready"
		if missing := e.catalog.Missing(t, values); len(missing) > 0 {
			status = "missing " + fieldIDs(missing)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.FileName, status)
	}
	return tw.Flush()
}

func fieldIDs(fields []catalog.Field) string {
	ids := make([]string, len(fields))
	for i, f := range fields {
		ids[i] = f.ID
	}
	return strings.Join(ids, ", ")
}

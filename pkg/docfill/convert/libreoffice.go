// Package convert renders compiled documents to PDF with a headless LibreOffice.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/benjaminschreck/go-docfill/pkg/docfill"
)

// outputTail is how much of the engine's output is kept in a ConversionError.
const outputTail = 512

var supportedExts = map[string]bool{
	".docx": true,
	".xlsx": true,
}

var disableConfigOnce sync.Once

// LibreOffice converts documents by running soffice --headless --convert-to pdf.
// Each conversion gets its own scratch directory and LibreOffice profile, so concurrent
// conversions do not share state.
type LibreOffice struct {
	// Binary is the soffice executable, looked up in PATH when it has no directory.
	Binary string
	// Timeout bounds one conversion. Zero means the caller's context alone applies.
	Timeout time.Duration
	Logger  *docfill.Logger
}

// New creates a converter from the PDF settings of config.
func New(config *docfill.Config) *LibreOffice {
	return &LibreOffice{
		Binary:  config.SofficePath,
		Timeout: config.ConvertTimeout,
		Logger:  docfill.GetLogger(),
	}
}

// Available reports whether the soffice binary can be found.
func (c *LibreOffice) Available() bool {
	_, err := exec.LookPath(c.binary())
	return err == nil
}

func (c *LibreOffice) binary() string {
	if c.Binary == "" {
		return "soffice"
	}
	return c.Binary
}

func (c *LibreOffice) logger() *docfill.Logger {
	if c.Logger == nil {
		return docfill.GetLogger()
	}
	return c.Logger
}

// Convert implements docfill.Converter.
func (c *LibreOffice) Convert(ctx context.Context, data []byte, sourceExt string) ([]byte, error) {
	sourceExt = strings.ToLower(sourceExt)
	if !supportedExts[sourceExt] {
		return nil, &docfill.ConversionError{SourceExt: sourceExt, Cause: docfill.ErrUnsupportedFormat}
	}

	bin, err := exec.LookPath(c.binary())
	if err != nil {
		return nil, docfill.NewDocumentError("convert", c.binary(), fmt.Errorf("%w: %v", docfill.ErrConversionUnavailable, err))
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	dir, err := os.MkdirTemp("", "docfill-convert-*")
	if err != nil {
		return nil, &docfill.ConversionError{SourceExt: sourceExt, Cause: err}
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "document"+sourceExt)
	if err := os.WriteFile(input, data, 0o600); err != nil {
		return nil, &docfill.ConversionError{SourceExt: sourceExt, Cause: err}
	}
	profile := filepath.Join(dir, "profile")

	start := time.Now()
	cmd := exec.CommandContext(ctx, bin,
		"--headless",
		"--norestore",
		"-env:UserInstallation=file://"+filepath.ToSlash(profile),
		"--convert-to", "pdf",
		"--outdir", dir,
		input,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &docfill.ConversionError{SourceExt: sourceExt, Output: tail(output), Cause: err}
	}

	pdf, err := os.ReadFile(filepath.Join(dir, "document.pdf"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.New("no pdf produced")
		}
		return nil, &docfill.ConversionError{SourceExt: sourceExt, Output: tail(output), Cause: err}
	}

	pages, err := verify(pdf)
	if err != nil {
		return nil, &docfill.ConversionError{SourceExt: sourceExt, Output: tail(output), Cause: err}
	}
	c.logger().WithField("pages", pages).Debug("converted %s document (%d bytes) in %s", sourceExt, len(data), time.Since(start))
	return pdf, nil
}

// verify parses pdf and returns its page count.
func verify(pdf []byte) (int, error) {
	disableConfigOnce.Do(api.DisableConfigDir)

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdf), model.NewDefaultConfiguration())
	if err != nil {
		return 0, fmt.Errorf("invalid pdf: %w", err)
	}
	if ctx.PageCount == 0 {
		return 0, errors.New("invalid pdf: no pages")
	}
	return ctx.PageCount, nil
}

func tail(output []byte) string {
	output = bytes.TrimSpace(output)
	if len(output) > outputTail {
		output = output[len(output)-outputTail:]
	}
	return string(output)
}

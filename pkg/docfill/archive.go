package docfill

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
)

// ContractNumberPlaceholder names the value used in archive names.
const ContractNumberPlaceholder = "{{CONTRACT_NUMBER}}"

var (
	unsafeNameChars  = regexp.MustCompile(`[<>:"/\\|?*]`)
	nativeExtPattern = regexp.MustCompile(`\.(docx|xlsx)$`)
)

// ArchiveRequest selects the templates of a batch and the outputs wanted for each.
type ArchiveRequest struct {
	TemplateIDs []string
	Values      catalog.Values
	// Originals maps a template ID to whether its native document is included. Missing IDs
	// default to true.
	Originals map[string]bool
	// PDFs maps a template ID to whether a PDF rendition is included. Missing IDs default to
	// false.
	PDFs map[string]bool
}

func (r ArchiveRequest) wantOriginal(id string) bool {
	want, ok := r.Originals[id]
	return !ok || want
}

func (r ArchiveRequest) wantPDF(id string) bool {
	return r.PDFs[id]
}

// Archive is the result of BuildArchive.
type Archive struct {
	// Name is the suggested file name of the archive.
	Name string
	Data []byte
	// Entries lists the file names written, in order.
	Entries []string
	// Failures lists the outputs that were skipped.
	Failures []*EntryError
}

// Err returns the skipped outputs as one error, or nil if nothing failed.
func (a *Archive) Err() error {
	m := NewMultiError()
	for _, f := range a.Failures {
		m.Add(f)
	}
	return m.Err()
}

// BuildArchive produces a zip archive with the requested outputs of every template in the
// request. A template that fails is logged, recorded in Failures and left out; the archive
// holds whatever succeeded. The returned error is non-nil only if the archive itself could
// not be written.
func (g *Generator) BuildArchive(ctx context.Context, req ArchiveRequest) (*Archive, error) {
	log := g.logger.WithFields(Fields{
		"request":   uuid.NewString(),
		"templates": len(req.TemplateIDs),
	})

	archive := &Archive{Name: ArchiveName(req.Values)}
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	now := time.Now()

	fail := func(id string, pdf bool, err error) {
		log.Warn("skipping %s: %v", id, err)
		archive.Failures = append(archive.Failures, &EntryError{TemplateID: id, PDF: pdf, Cause: err})
	}
	add := func(name string, data []byte) error {
		name = uniqueName(name, archive.Entries)
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: now})
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		archive.Entries = append(archive.Entries, name)
		return nil
	}

	for _, id := range req.TemplateIDs {
		original, pdf := req.wantOriginal(id), req.wantPDF(id)
		if !original && !pdf {
			continue
		}

		t, ok := g.catalog.TemplateByID(id)
		if !ok {
			fail(id, false, NewDocumentError("lookup", id, ErrTemplateNotFound))
			continue
		}
		tlog := log.WithField("template", id)
		values := g.Prepare(t, req.Values)
		name := DownloadName(t, values)

		native, err := g.compileTemplate(ctx, tlog, t, values)
		if err != nil {
			fail(id, !original, err)
			continue
		}
		if original {
			if err := add(name, native); err != nil {
				return nil, NewDocumentError("write", name, err)
			}
		}
		if pdf {
			converted, err := g.convert(ctx, tlog, t, native)
			if err != nil {
				fail(id, true, err)
				continue
			}
			if err := add(PDFName(name), converted); err != nil {
				return nil, NewDocumentError("write", PDFName(name), err)
			}
		}
	}

	if err := zw.Close(); err != nil {
		return nil, NewDocumentError("write", archive.Name, err)
	}
	archive.Data = buf.Bytes()
	log.Info("archive %s: %d entries, %d skipped", archive.Name, len(archive.Entries), len(archive.Failures))
	return archive, nil
}

// DownloadName builds the file name of a generated document from the template's download
// pattern: every value's token is replaced literally, then characters that are unsafe in
// file names become '_'. A template without a pattern uses its file name.
func DownloadName(t catalog.Template, values catalog.Values) string {
	name := t.DownloadPattern
	if name == "" {
		name = t.FileName
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		if k != "" {
			keys = append(keys, k)
		}
	}
	// longest first so a key never clobbers a longer key containing it
	slices.SortFunc(keys, func(a, b string) int {
		if len(a) != len(b) {
			return len(b) - len(a)
		}
		return strings.Compare(a, b)
	})
	for _, k := range keys {
		name = strings.ReplaceAll(name, k, values[k])
	}
	return SanitizeFileName(name)
}

// SanitizeFileName replaces the characters <>:"/\|?* with '_'.
func SanitizeFileName(name string) string {
	return unsafeNameChars.ReplaceAllString(name, "_")
}

// PDFName returns the name of the PDF rendition of a document named name.
func PDFName(name string) string {
	if nativeExtPattern.MatchString(name) {
		return nativeExtPattern.ReplaceAllString(name, ".pdf")
	}
	return name + ".pdf"
}

// ArchiveName returns "Documents_<contract number>.zip", or "Documents.zip" when values has
// no contract number.
func ArchiveName(values catalog.Values) string {
	if n := strings.TrimSpace(values[ContractNumberPlaceholder]); n != "" {
		return SanitizeFileName("Documents_" + n + ".zip")
	}
	return "Documents.zip"
}

// uniqueName appends " (2)", " (3)"... before the extension until name is not in taken.
func uniqueName(name string, taken []string) string {
	if !slices.Contains(taken, name) {
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if !slices.Contains(taken, candidate) {
			return candidate
		}
	}
}

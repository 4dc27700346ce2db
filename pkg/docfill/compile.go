package docfill

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/render"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/xml"
)

// textPartPattern matches the parts of a DOCX package whose paragraphs are substituted.
var textPartPattern = regexp.MustCompile(`^word/(document|header\d+|footer\d+)\.xml$`)

// CompileStats describes the work done by a compilation.
type CompileStats struct {
	Parts      int // document parts or worksheets scanned
	Paragraphs int // paragraphs seen (documents only)
	Rewritten  int // run stretches or cells rewritten
}

// Compile substitutes values into a template and returns the new document in the template's
// own format. values must already hold every value the template should see; Compile does no
// formula resolution or defaulting.
func Compile(kind catalog.Kind, template []byte, values catalog.Values) ([]byte, error) {
	out, _, err := compile(kind, template, values)
	return out, err
}

func compile(kind catalog.Kind, template []byte, values catalog.Values) ([]byte, CompileStats, error) {
	switch kind {
	case catalog.KindDocument:
		return compileDocument(template, values)
	case catalog.KindSpreadsheet:
		return compileSpreadsheet(template, values)
	default:
		return nil, CompileStats{}, NewDocumentError("compile", kind.String(), ErrUnsupportedFormat)
	}
}

// compileDocument rewrites the body, header and footer parts of a DOCX package. Parts that
// need no change are copied without recompression.
func compileDocument(template []byte, values catalog.Values) ([]byte, CompileStats, error) {
	var stats CompileStats

	zr, err := zip.NewReader(bytes.NewReader(template), int64(len(template)))
	if err != nil {
		return nil, stats, NewDocumentError("read", "docx", err)
	}
	hasBody := false
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			hasBody = true
			break
		}
	}
	if !hasBody {
		return nil, stats, NewDocumentError("read", "docx", fmt.Errorf("not a valid DOCX file: missing word/document.xml"))
	}

	substitute := func(runs []render.Segment) []render.Segment {
		return render.Substitute(runs, values)
	}

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for _, file := range zr.File {
		if !textPartPattern.MatchString(file.Name) {
			if err := w.Copy(file); err != nil {
				return nil, stats, NewDocumentError("copy", file.Name, err)
			}
			continue
		}

		content, err := readPart(file)
		if err != nil {
			return nil, stats, err
		}
		rendered, partStats, err := xml.RewriteParagraphs(content, substitute)
		if err != nil {
			return nil, stats, NewDocumentError("render", file.Name, err)
		}
		stats.Parts++
		stats.Paragraphs += partStats.Paragraphs
		stats.Rewritten += partStats.Rewritten

		if partStats.Rewritten == 0 {
			if err := w.Copy(file); err != nil {
				return nil, stats, NewDocumentError("copy", file.Name, err)
			}
			continue
		}
		fw, err := w.CreateHeader(&zip.FileHeader{
			Name:     file.Name,
			Method:   zip.Deflate,
			Modified: file.Modified,
		})
		if err != nil {
			return nil, stats, NewDocumentError("write", file.Name, err)
		}
		if _, err := fw.Write(rendered); err != nil {
			return nil, stats, NewDocumentError("write", file.Name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, stats, NewDocumentError("write", "docx", err)
	}
	return buf.Bytes(), stats, nil
}

func readPart(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, NewDocumentError("open", file.Name, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		return nil, NewDocumentError("read", file.Name, err)
	}
	return content, nil
}

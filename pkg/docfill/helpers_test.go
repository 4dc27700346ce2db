package docfill

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles ` + wordNS + `><w:docDefaults/></w:styles>`

// createDOCXBytes builds a minimal DOCX package in memory. body is placed inside w:body;
// extra holds additional parts by name.
func createDOCXBytes(body string, extra map[string]string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	write := func(name, content string) {
		f, _ := w.Create(name)
		io.WriteString(f, content)
	}

	write("[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`)
	write("_rels/.rels", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`)
	write("word/document.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document `+wordNS+`><w:body>`+body+`</w:body></w:document>`)
	write("word/styles.xml", stylesXML)
	for name, content := range extra {
		write(name, content)
	}

	w.Close()
	return buf.Bytes()
}

// readZipPart returns the content of one entry of a zip archive.
func readZipPart(t *testing.T, data []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		require.NoError(t, err)
		defer rc.Close()
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		return string(content)
	}
	t.Fatalf("part %s not found", name)
	return ""
}

// zipNames lists the entry names of a zip archive in order.
func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	return names
}

// boldStyle is the style ID of the bold cell in createXLSXBytes.
var boldStyle int

// createXLSXBytes builds a two-sheet workbook with placeholders in string cells.
func createXLSXBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	var err error
	boldStyle, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	require.NoError(t, err)

	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Contract {{CONTRACT_NUMBER}}"))
	require.NoError(t, f.SetCellStyle("Sheet1", "A1", "A1", boldStyle))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", 42))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Total: {{TOTAL}} EUR"))
	require.NoError(t, f.SetCellValue("Sheet1", "A3", "no tokens"))

	_, err = f.NewSheet("Details")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Details", "C3", "[{{UNKNOWN}}]"))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

// testCatalog has a formatted-text and a tabular template plus one whose file is missing.
func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		Fields: []catalog.Field{
			{ID: "contract", Placeholder: "{{CONTRACT_NUMBER}}", Type: catalog.TypeText, Required: true, Order: 1},
			{ID: "weight", Placeholder: "{{WEIGHT}}", Type: catalog.TypeNumber, Order: 2},
			{ID: "price", Placeholder: "{{PRICE}}", Type: catalog.TypeNumber, Order: 3},
			{ID: "total", Placeholder: "{{TOTAL}}", Type: catalog.TypeFormula, Order: 4,
				Formula: strPtr("{{WEIGHT}}*{{PRICE}}"), DecimalPlaces: intPtr(2)},
			{ID: "notes", Placeholder: "{{NOTES}}", Type: catalog.TypeTextarea, Order: 5},
		},
		Templates: []catalog.Template{
			{ID: "invoice", FileName: "invoice.docx", DownloadPattern: "Invoice_{{CONTRACT_NUMBER}}.docx",
				RequiredFieldIDs: []string{"contract"}},
			{ID: "packing", FileName: "packing.xlsx", DownloadPattern: "Packing {{CONTRACT_NUMBER}}.xlsx"},
			{ID: "broken", FileName: "broken.docx", DownloadPattern: "Broken.docx"},
		},
	}
}

const invoiceBody = `<w:p><w:r><w:t xml:space="preserve">Contract </w:t></w:r>` +
	`<w:r><w:rPr><w:b/></w:rPr><w:t>{{CONTRACT_NUMBER}}</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t xml:space="preserve">Total: {{</w:t></w:r><w:r><w:t>TOTAL}}</w:t></w:r></w:p>` +
	`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Notes: {{NOTES}}.</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`

const invoiceHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:hdr ` + wordNS + `><w:p><w:r><w:t>Ref {{CONTRACT_NUMBER}}</w:t></w:r></w:p></w:hdr>`

func testStore(t *testing.T) MemoryStore {
	return MemoryStore{
		"invoice.docx": createDOCXBytes(invoiceBody, map[string]string{"word/header1.xml": invoiceHeader}),
		"packing.xlsx": createXLSXBytes(t),
	}
}

func testValues() catalog.Values {
	return catalog.Values{
		"{{CONTRACT_NUMBER}}": "C-17",
		"{{WEIGHT}}":          "2.5",
		"{{PRICE}}":           "4",
	}
}

package main

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/benjaminschreck/go-docfill/pkg/docfill"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/history"
)

const testCatalogYAML = `
fields:
  - id: contract
    placeholder: "{{CONTRACT_NUMBER}}"
    displayName: Contract number
    fieldType: text
    required: true
    rememberValues: true
    order: 1
  - id: weight
    placeholder: "{{WEIGHT}}"
    fieldType: number
    order: 2
  - id: price
    placeholder: "{{PRICE}}"
    fieldType: number
    order: 3
  - id: total
    placeholder: "{{TOTAL}}"
    fieldType: formula
    formula: "{{WEIGHT}}*{{PRICE}}"
    decimalPlaces: 2
    order: 4
templates:
  - id: letter
    fileName: letter.docx
    downloadPattern: "Letter_{{CONTRACT_NUMBER}}.docx"
    requiredFieldIds: [contract]
  - id: memo
    fileName: memo.docx
`

const letterDocument = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p><w:r><w:t>Contract {{CONTRACT_NUMBER}}, total {{TOTAL}}</w:t></w:r></w:p></w:body></w:document>`

func writeDOCX(t *testing.T, path, document string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(document))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// workspace prepares a catalogue, a templates directory and a values file, and points the
// DOCFILL_* environment at them.
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	templates := filepath.Join(dir, "templates")
	require.NoError(t, os.Mkdir(templates, 0o755))
	writeDOCX(t, filepath.Join(templates, "letter.docx"), letterDocument)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.yaml"), []byte(testCatalogYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "values.yaml"), []byte(`"{{WEIGHT}}": 2.5
"{{PRICE}}": 4
`), 0o644))

	t.Setenv("DOCFILL_CATALOG", filepath.Join(dir, "catalog.yaml"))
	t.Setenv("DOCFILL_TEMPLATES_DIR", templates)
	t.Setenv("DOCFILL_PDF_ENABLED", "false")
	t.Setenv("DOCFILL_LOG_LEVEL", "off")

	original := docfill.GetGlobalConfig()
	logger := docfill.GetLogger()
	t.Cleanup(func() {
		docfill.SetGlobalConfig(original)
		docfill.SetLogger(logger)
	})
	return dir
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run("version", nil, &out))
	assert.Equal(t, "docfill version "+version+"\n", out.String())

	assert.Error(t, run("frobnicate", nil, &out))
}

func TestCalc(t *testing.T) {
	dir := workspace(t)

	var out bytes.Buffer
	require.NoError(t, run("calc", []string{"-values", filepath.Join(dir, "values.yaml")}, &out))

	var got map[string]string
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, map[string]string{
		"{{WEIGHT}}": "2.5",
		"{{PRICE}}":  "4",
		"{{TOTAL}}":  "10.00",
	}, got)
}

func TestTemplates(t *testing.T) {
	dir := workspace(t)

	var out bytes.Buffer
	require.NoError(t, run("templates", []string{"-values", filepath.Join(dir, "values.yaml")}, &out))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "letter")
	assert.Contains(t, lines[1], "missing contract")
	assert.Contains(t, lines[2], "ready")
}

func TestGenerate(t *testing.T) {
	dir := workspace(t)
	historyFile := filepath.Join(dir, "history.yaml")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })

	var out bytes.Buffer
	err = run("generate", []string{
		"-template", "letter",
		"-values", filepath.Join(dir, "values.yaml"),
		"-set", "{{CONTRACT_NUMBER}}=C/9",
		"-history", historyFile,
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "wrote Letter_C_9.docx")

	data, err := os.ReadFile(filepath.Join(dir, "Letter_C_9.docx"))
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	var doc bytes.Buffer
	_, err = doc.ReadFrom(rc)
	require.NoError(t, err)
	assert.Contains(t, doc.String(), "Contract C/9, total 10.00")

	h, err := history.Open(historyFile, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"C/9"}, h.Values("contract"))
}

func TestGenerateWritesLogFile(t *testing.T) {
	dir := workspace(t)
	logFile := filepath.Join(dir, "docfill.log")
	t.Setenv("DOCFILL_LOG_LEVEL", "debug")
	t.Setenv("DOCFILL_LOG_FILE", logFile)

	var out bytes.Buffer
	target := filepath.Join(dir, "unsigned.docx")
	require.NoError(t, run("generate", []string{"-template", "letter", "-o", target}, &out))

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	logged := string(data)
	assert.Contains(t, logged, "loaded 4 fields and 2 templates")
	assert.Contains(t, logged, `"template":"letter"`)
	assert.Contains(t, logged, "missing required fields: contract")
	assert.Contains(t, logged, "wrote "+target+" for template letter")
}

func TestGenerateErrors(t *testing.T) {
	workspace(t)
	var out bytes.Buffer

	assert.ErrorContains(t, run("generate", nil, &out), "-template is required")

	err := run("generate", []string{"-template", "ghost", "-o", filepath.Join(t.TempDir(), "x.docx")}, &out)
	assert.ErrorIs(t, err, docfill.ErrTemplateNotFound)

	err = run("generate", []string{"-template", "memo", "-o", filepath.Join(t.TempDir(), "x.docx")}, &out)
	assert.ErrorIs(t, err, docfill.ErrTemplateNotFound)

	err = run("generate", []string{"-template", "letter", "-pdf", "-o", filepath.Join(t.TempDir(), "x.pdf")}, &out)
	assert.ErrorIs(t, err, docfill.ErrConversionUnavailable)
}

func TestArchive(t *testing.T) {
	dir := workspace(t)
	target := filepath.Join(dir, "out.zip")

	var out bytes.Buffer
	err := run("archive", []string{
		"-values", filepath.Join(dir, "values.yaml"),
		"-set", "{{CONTRACT_NUMBER}}=C-1",
		"-o", target,
		"letter", "memo",
	}, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "with 1 entries")
	assert.Contains(t, out.String(), "Letter_C-1.docx")
	assert.Contains(t, out.String(), "skipped: archive entry memo")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "Letter_C-1.docx", zr.File[0].Name)
}

func TestParseArchiveSpecs(t *testing.T) {
	req, err := parseArchiveSpecs([]string{"a", "b:pdf", "c:orig:pdf", "d:original"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c", "d"}, req.TemplateIDs)
	assert.Equal(t, map[string]bool{"b": false, "c": true, "d": true}, req.Originals)
	assert.Equal(t, map[string]bool{"b": true, "c": true}, req.PDFs)

	_, err = parseArchiveSpecs([]string{"a:docx"})
	assert.Error(t, err)
	_, err = parseArchiveSpecs([]string{":pdf"})
	assert.Error(t, err)
}

func TestValueFlags(t *testing.T) {
	var v valueFlags
	require.NoError(t, v.Set("{{A}}=1=2"))
	assert.Error(t, v.Set("{{A}}"))

	opts := commonOptions{set: v}
	values, err := opts.loadValues()
	require.NoError(t, err)
	assert.Equal(t, catalog.Values{"{{A}}": "1=2"}, values)
}

type scriptedPrompter struct {
	answers map[string]string
	asked   []question
	err     error
}

func (p *scriptedPrompter) Ask(q question) (string, error) {
	p.asked = append(p.asked, q)
	if p.err != nil {
		return "", p.err
	}
	return p.answers[q.Field.ID], nil
}

func TestAskValues(t *testing.T) {
	cat, err := catalog.Parse([]byte(testCatalogYAML), "test.yaml")
	require.NoError(t, err)
	letter, _ := cat.TemplateByID("letter")
	memo, _ := cat.TemplateByID("memo")

	p := &scriptedPrompter{answers: map[string]string{"contract": "C-5", "weight": "3", "price": "2"}}
	suggest := func(id string) []string {
		if id == "contract" {
			return []string{"C-4", "C-3"}
		}
		return nil
	}
	values, err := askValues(p, cat, letter, catalog.Values{"{{PRICE}}": "1"}, suggest)
	require.NoError(t, err)

	assert.Equal(t, catalog.Values{"{{CONTRACT_NUMBER}}": "C-5", "{{WEIGHT}}": "3", "{{PRICE}}": "2"}, values)
	require.Len(t, p.asked, 3)
	assert.Equal(t, "contract", p.asked[0].Field.ID)
	assert.True(t, p.asked[0].Required)
	assert.Equal(t, "C-4", p.asked[0].Default)
	assert.Equal(t, []string{"C-4", "C-3"}, p.asked[0].Suggestions)
	assert.Equal(t, "1", p.asked[2].Default)

	// required through the field itself, not only through the template
	p = &scriptedPrompter{}
	_, err = askValues(p, cat, memo, nil, nil)
	require.NoError(t, err)
	assert.True(t, p.asked[0].Required)
	assert.False(t, p.asked[1].Required)

	p = &scriptedPrompter{err: errAborted}
	_, err = askValues(p, cat, letter, nil, nil)
	assert.True(t, errors.Is(err, errAborted))
}

func TestFill(t *testing.T) {
	dir := workspace(t)
	target := filepath.Join(dir, "filled.docx")

	p := &scriptedPrompter{answers: map[string]string{"contract": "C-8", "weight": "1.5", "price": "2"}}
	var out bytes.Buffer
	require.NoError(t, runFill([]string{"-template", "letter", "-o", target}, &out, p))

	assert.Contains(t, out.String(), "{{TOTAL}} = 3.00 (from weight, price)")
	assert.Contains(t, out.String(), "wrote "+target)
	_, err := os.Stat(target)
	assert.NoError(t, err)
}

func TestInputsOf(t *testing.T) {
	cat, err := catalog.Parse([]byte(testCatalogYAML), "catalog.yaml")
	require.NoError(t, err)
	body := func(s string) *string { return &s }

	tests := []struct {
		name  string
		field catalog.Field
		want  string
	}{
		{"catalogue fields by id", catalog.Field{Formula: body("{{WEIGHT}}*{{PRICE}}+{{WEIGHT}}")}, " (from weight, price)"},
		{"unknown token kept", catalog.Field{Formula: body("{{TOTAL}}-{{DISCOUNT}}")}, " (from total, {{DISCOUNT}})"},
		{"constant", catalog.Field{Formula: body("2*3")}, ""},
		{"no formula", catalog.Field{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, inputsOf(cat, tt.field))
		})
	}
}

func TestNumericValidator(t *testing.T) {
	assert.NoError(t, numeric(""))
	assert.NoError(t, numeric(" 2.5 "))
	assert.Error(t, numeric("two"))
	assert.Equal(t, []string{"ACME Ltd"}, matching([]string{"ACME Ltd", "Globex"}, "acme"))
}

package docfill

import (
	"bytes"

	"github.com/xuri/excelize/v2"

	"github.com/benjaminschreck/go-docfill/pkg/docfill/catalog"
	"github.com/benjaminschreck/go-docfill/pkg/docfill/render"
)

// compileSpreadsheet replaces the placeholders of every string cell of every worksheet. A
// cell is rewritten as plain text and gets its original style back; formula, number and
// boolean cells are never touched.
func compileSpreadsheet(template []byte, values catalog.Values) ([]byte, CompileStats, error) {
	var stats CompileStats

	f, err := excelize.OpenReader(bytes.NewReader(template))
	if err != nil {
		return nil, stats, NewDocumentError("read", "xlsx", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		stats.Parts++
		rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, stats, NewDocumentError("read", sheet, err)
		}
		for r, row := range rows {
			for c, value := range row {
				if !render.HasPlaceholder(value) {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				if err != nil {
					return nil, stats, NewDocumentError("render", sheet, err)
				}
				ok, err := rewriteCell(f, sheet, cell, values)
				if err != nil {
					return nil, stats, NewDocumentError("render", sheet+"!"+cell, err)
				}
				if ok {
					stats.Rewritten++
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, stats, NewDocumentError("write", "xlsx", err)
	}
	return buf.Bytes(), stats, nil
}

// rewriteCell substitutes one string cell. It reports false for cells that are not plain
// strings.
func rewriteCell(f *excelize.File, sheet, cell string, values catalog.Values) (bool, error) {
	kind, err := f.GetCellType(sheet, cell)
	if err != nil {
		return false, err
	}
	if kind != excelize.CellTypeSharedString && kind != excelize.CellTypeInlineString {
		return false, nil
	}

	value, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return false, err
	}
	style, err := f.GetCellStyle(sheet, cell)
	if err != nil {
		return false, err
	}
	if err := f.SetCellStr(sheet, cell, render.ReplaceAll(value, values)); err != nil {
		return false, err
	}
	if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
		return false, err
	}
	return true, nil
}

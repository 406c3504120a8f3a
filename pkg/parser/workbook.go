package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"shiftload/pkg/config"
	"shiftload/pkg/schema"
)

// RosterWorkbook holds the three tables of a supervisor roster workbook.
type RosterWorkbook struct {
	Grid      schema.RosterGrid       `json:"grid"`
	Directory []schema.DirectoryEntry `json:"directory"`
	Codes     []schema.CodeRow        `json:"codes"`
}

// ReadRosterWorkbook reads the shift grid, employee directory and shift codification
// sheets. Cells are read as raw values so date headers arrive as serials rather than
// in whatever display format the author picked.
func ReadRosterWorkbook(r io.Reader, layout config.Workbook) (*RosterWorkbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open roster workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	gridRows, err := sheetRows(f, layout.GridSheet, "grid_sheet")
	if err != nil {
		return nil, err
	}
	dirRows, err := sheetRows(f, layout.DirectorySheet, "directory_sheet")
	if err != nil {
		return nil, err
	}
	codeRows, err := sheetRows(f, layout.CodesSheet, "codes_sheet")
	if err != nil {
		return nil, err
	}

	wb := &RosterWorkbook{}
	if wb.Grid, err = readGrid(gridRows, layout); err != nil {
		return nil, err
	}
	if wb.Directory, err = readDirectory(dirRows, layout); err != nil {
		return nil, err
	}
	if wb.Codes, err = readCodes(codeRows, layout); err != nil {
		return nil, err
	}
	return wb, nil
}

func sheetRows(f *excelize.File, name, key string) ([][]string, error) {
	sheet := findSheet(f, name)
	if sheet == "" {
		return nil, &StructuralError{
			Sheet: name,
			Err:   ErrMissingSheet,
			Hint:  fmt.Sprintf("workbook has sheets %s; check workbook.%s", quoteAll(f.GetSheetList()), key),
		}
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &StructuralError{Sheet: sheet, Err: err}
	}
	return rows, nil
}

// findSheet matches by exact name first, then ignoring case and accents.
func findSheet(f *excelize.File, name string) string {
	sheets := f.GetSheetList()
	for _, s := range sheets {
		if s == name {
			return s
		}
	}
	for _, s := range sheets {
		if schema.SameHeader(s, name) {
			return s
		}
	}
	return ""
}

func readGrid(rows [][]string, layout config.Workbook) (schema.RosterGrid, error) {
	hdr := layout.GridHeaderRow - 1
	if hdr < 0 || hdr >= len(rows) || allBlank(rows[hdr]) {
		return schema.RosterGrid{}, &StructuralError{
			Sheet: layout.GridSheet,
			Err:   ErrMissingHeader,
			Hint:  fmt.Sprintf("expected names and dates in row %d; check workbook.grid_header_row", layout.GridHeaderRow),
		}
	}

	headers := rows[hdr]
	grid := schema.RosterGrid{
		NameHeader:  strings.TrimSpace(headers[0]),
		DateHeaders: append([]string(nil), headers[1:]...),
	}

	for i := hdr + 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 || allBlank(row) {
			continue
		}
		shifts := make([]string, len(grid.DateHeaders))
		if len(row) > 1 {
			copy(shifts, row[1:])
		}
		grid.Rows = append(grid.Rows, schema.RosterRow{
			Name:      strings.TrimSpace(row[0]),
			Shifts:    shifts,
			SourceRow: i + 1,
		})
	}
	return grid, nil
}

func readDirectory(rows [][]string, layout config.Workbook) ([]schema.DirectoryEntry, error) {
	sheet := layout.DirectorySheet
	if len(rows) == 0 {
		return nil, &StructuralError{Sheet: sheet, Err: ErrMissingHeader, Hint: "the directory sheet is empty"}
	}
	headers := rows[0]
	cols := layout.Directory

	nameIdx, err := requireColumn(sheet, headers, cols.Name, schema.FieldDisplayName)
	if err != nil {
		return nil, err
	}
	idIdx, err := requireColumn(sheet, headers, cols.ID, schema.FieldID)
	if err != nil {
		return nil, err
	}
	unitIdx := columnIndex(headers, cols.Unit, schema.FieldUnit)
	managerIdx := columnIndex(headers, cols.Manager, schema.FieldManager)

	entries := make([]schema.DirectoryEntry, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		name := cell(row, nameIdx)
		id := cell(row, idIdx)
		if name == "" && id == "" {
			continue
		}
		entries = append(entries, schema.DirectoryEntry{
			ID:             id,
			DisplayName:    name,
			NormalizedName: schema.NormalizeText(name),
			Unit:           cell(row, unitIdx),
			Manager:        cell(row, managerIdx),
			SourceRow:      i + 1,
		})
	}
	return entries, nil
}

func readCodes(rows [][]string, layout config.Workbook) ([]schema.CodeRow, error) {
	sheet := layout.CodesSheet
	if len(rows) == 0 {
		return nil, &StructuralError{Sheet: sheet, Err: ErrMissingHeader, Hint: "the codification sheet is empty"}
	}
	headers := rows[0]

	shiftIdx, err := requireColumn(sheet, headers, layout.Codes.Shift, schema.FieldShift)
	if err != nil {
		return nil, err
	}
	codeIdx, err := requireColumn(sheet, headers, layout.Codes.Code, schema.FieldCode)
	if err != nil {
		return nil, err
	}

	codes := make([]schema.CodeRow, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		desc := cell(rows[i], shiftIdx)
		code := cell(rows[i], codeIdx)
		if desc == "" && code == "" {
			continue
		}
		codes = append(codes, schema.CodeRow{Description: desc, Code: code, SourceRow: i + 1})
	}
	return codes, nil
}

func requireColumn(sheet string, headers []string, want, field string) (int, error) {
	idx := columnIndex(headers, want, field)
	if idx < 0 {
		return -1, &StructuralError{
			Sheet:  sheet,
			Column: want,
			Err:    ErrMissingColumn,
			Hint:   fmt.Sprintf("headers are %s", quoteAll(headers)),
		}
	}
	return idx, nil
}

// columnIndex finds the configured header, falling back to header inference.
func columnIndex(headers []string, want, field string) int {
	if want != "" {
		for i, h := range headers {
			if h == want || schema.SameHeader(h, want) {
				return i
			}
		}
	}
	inferred := schema.InferMappings(headers)
	for i, h := range headers {
		if inferred[h] == field {
			return i
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func quoteAll(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

package parser

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"shiftload/pkg/schema"
)

// Template formats, in the order LoadTemplate tries them.
const (
	FormatXLSX      = "xlsx"
	FormatXLS       = "xls"
	FormatSemicolon = "csv;"
	FormatComma     = "csv,"
)

const maxTemplateRows = 1 << 16

// yearMonthRe matches what extrame/xls makes of a date-formatted cell.
var yearMonthRe = regexp.MustCompile(`^\d{4}\.(0[1-9]|1[0-2])$`)

// Template is the output contract: column headers in declared order.
type Template struct {
	Columns  []schema.TemplateColumn `json:"columns"`
	Format   string                  `json:"format"`
	Source   string                  `json:"source"`
	Warnings []ParseWarning          `json:"warnings,omitempty"`
}

// Headers returns the header texts in template order.
func (t *Template) Headers() []string {
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Header
	}
	return headers
}

type templateAttempt struct {
	format string
	load   func(data []byte) (*Template, error)
}

var templateAttempts = []templateAttempt{
	{FormatXLSX, loadXLSXTemplate},
	{FormatXLS, loadXLSTemplate},
	{FormatSemicolon, func(data []byte) (*Template, error) { return loadDelimitedTemplate(data, ';', true) }},
	{FormatComma, func(data []byte) (*Template, error) { return loadDelimitedTemplate(data, ',', false) }},
}

// LoadTemplate reads the template's header row, trying each format in turn. When all
// attempts fail the returned *TemplateError lists why each one did.
func LoadTemplate(data []byte, source string) (*Template, error) {
	if len(data) == 0 {
		return nil, &TemplateError{Source: source, Attempts: []AttemptError{{Format: "any", Err: errors.New("file is empty")}}}
	}

	var failures []AttemptError
	for _, attempt := range templateAttempts {
		tpl, err := runAttempt(attempt, data)
		if err != nil {
			failures = append(failures, AttemptError{Format: attempt.format, Err: err})
			if errors.Is(err, ErrTruncatedDateHeaders) {
				break
			}
			continue
		}
		tpl.Format = attempt.format
		tpl.Source = source
		return tpl, nil
	}
	return nil, &TemplateError{Source: source, Attempts: failures}
}

// runAttempt turns a reader panic on malformed input into an attempt error.
func runAttempt(attempt templateAttempt, data []byte) (tpl *Template, err error) {
	defer func() {
		if r := recover(); r != nil {
			tpl, err = nil, fmt.Errorf("reader panicked: %v", r)
		}
	}()
	return attempt.load(data)
}

func loadXLSXTemplate(data []byte) (*Template, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	display, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	idx := firstNonBlank(display)
	if idx < 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}
	var rawRow []string
	if idx < len(raw) {
		rawRow = raw[idx]
	}
	return &Template{Columns: columnsFrom(display[idx], rawRow)}, nil
}

func loadXLSTemplate(data []byte) (*Template, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	return xlsTemplate(workbook.ReadAllCells(maxTemplateRows))
}

func xlsTemplate(rows [][]string) (*Template, error) {
	idx := firstNonBlank(rows)
	if idx < 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}
	var truncated []string
	for _, h := range rows[idx] {
		if yearMonthRe.MatchString(strings.TrimSpace(h)) {
			truncated = append(truncated, h)
		}
	}
	if len(truncated) > 0 {
		return nil, fmt.Errorf("%w (headers %s)", ErrTruncatedDateHeaders, quoteAll(truncated))
	}
	return &Template{Columns: columnsFrom(rows[idx], nil)}, nil
}

func loadDelimitedTemplate(data []byte, sep rune, requireMultiColumn bool) (*Template, error) {
	table, err := ParseDelimited(data, sep)
	if err != nil {
		return nil, err
	}
	if requireMultiColumn && len(table.Headers) < 2 {
		return nil, fmt.Errorf("header row has a single column; not %q-separated", sep)
	}
	return &Template{Columns: columnsFrom(table.Headers, nil), Warnings: table.Warnings}, nil
}

func columnsFrom(headers, raw []string) []schema.TemplateColumn {
	cols := make([]schema.TemplateColumn, len(headers))
	for i, h := range headers {
		cols[i] = schema.TemplateColumn{Header: h}
		if i < len(raw) && raw[i] != h {
			cols[i].Probe = raw[i]
		}
	}
	return cols
}

func firstNonBlank(rows [][]string) int {
	for i, row := range rows {
		if !allBlank(row) {
			return i
		}
	}
	return -1
}

package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseWarning represents a non-fatal issue encountered during parsing.
type ParseWarning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Table is delimited text split into a header row and data rows. Every data row
// has exactly len(Headers) cells.
type Table struct {
	Headers  []string       `json:"headers"`
	Rows     [][]string     `json:"rows"`
	Encoding string         `json:"encoding"`
	Warnings []ParseWarning `json:"warnings"`
}

// ParseDelimited parses delimited text into a Table. Headers are kept verbatim apart
// from a stray BOM; rows with the wrong number of cells are padded or truncated and
// reported as warnings. A header-only input is valid.
func ParseDelimited(data []byte, sep rune) (*Table, error) {
	decoded, enc, err := DetectAndDecode(data)
	if err != nil {
		return nil, fmt.Errorf("encoding detection failed: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(decoded))
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file: no header row found")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimPrefix(h, "\ufeff")
	}
	if allBlank(headers) {
		return nil, fmt.Errorf("header row is blank")
	}

	table := &Table{Headers: headers, Encoding: enc}
	headerCount := len(headers)
	rowNum := 1

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++

		if err != nil {
			table.Warnings = append(table.Warnings, ParseWarning{
				Row:     rowNum,
				Message: fmt.Sprintf("parse error: %v", err),
			})
			continue
		}

		switch {
		case len(row) < headerCount:
			table.Warnings = append(table.Warnings, ParseWarning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; padding with empty values", len(row), headerCount),
			})
			padded := make([]string, headerCount)
			copy(padded, row)
			row = padded
		case len(row) > headerCount:
			table.Warnings = append(table.Warnings, ParseWarning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(row), headerCount),
			})
			row = row[:headerCount]
		}

		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

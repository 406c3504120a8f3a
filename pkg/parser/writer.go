package parser

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/xuri/excelize/v2"
)

// OutputOptions controls how output rows are rendered.
type OutputOptions struct {
	Format    string // csv or xlsx
	Delimiter rune
	Encoding  string
	Sheet     string
}

// RenderOutput renders headers and rows into the requested format.
func RenderOutput(opts OutputOptions, headers []string, rows [][]string) ([]byte, error) {
	switch strings.ToLower(opts.Format) {
	case "", "csv":
		return renderDelimited(opts, headers, rows)
	case "xlsx":
		return renderXLSX(opts, headers, rows)
	default:
		return nil, fmt.Errorf("unsupported output format %q", opts.Format)
	}
}

func renderDelimited(opts OutputOptions, headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if opts.Delimiter != 0 {
		w.Comma = opts.Delimiter
	} else {
		w.Comma = ';'
	}
	w.UseCRLF = true

	if err := w.Write(headers); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	enc, err := Encoder(opts.Encoding)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return buf.Bytes(), nil
	}
	encoded, err := enc.Bytes(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("encode output as %s: %w", opts.Encoding, err)
	}
	return encoded, nil
}

func renderXLSX(opts OutputOptions, headers []string, rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := opts.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return nil, err
		}
	}

	if err := setRow(f, sheet, 1, headers); err != nil {
		return nil, err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// setRow writes every value as a string cell so identifiers and codes keep their
// exact text.
func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	start, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, start, &cells)
}

// WriteFileAtomic writes data next to path and renames it into place, so a failed
// run never leaves a partial file behind.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(0o644); err != nil && runtime.GOOS != "windows" {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// WriteOutput renders rows and writes them to path atomically.
func WriteOutput(path string, opts OutputOptions, headers []string, rows [][]string) error {
	data, err := RenderOutput(opts, headers, rows)
	if err != nil {
		return fmt.Errorf("render output: %w", err)
	}
	if err := WriteFileAtomic(path, data); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}

package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type sheetFixture struct {
	name string
	rows [][]any
}

// buildXLSX writes the sheets in order into an in-memory workbook.
func buildXLSX(t *testing.T, sheets ...sheetFixture) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r, row := range s.rows {
			if len(row) == 0 {
				continue
			}
			cellRef, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := append([]any(nil), row...)
			require.NoError(t, f.SetSheetRow(s.name, cellRef, &values))
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

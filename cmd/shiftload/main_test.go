package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"shiftload/pkg/parser"
	"shiftload/pkg/report"
)

type sheet struct {
	name string
	rows [][]any
}

func writeWorkbook(t *testing.T, path string, sheets ...sheet) {
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
			ref, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			values := append([]any(nil), row...)
			require.NoError(t, f.SetSheetRow(s.name, ref, &values))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

func gridSheet(names ...[]any) sheet {
	rows := [][]any{{"Turnos semana 2"}, {}, {"Colaborador", "05/01/2026", "06/01/2026"}}
	return sheet{name: "Turnos Formato Supervisor", rows: append(rows, names...)}
}

func directorySheet() sheet {
	return sheet{name: "Base de Colaboradores", rows: [][]any{
		{"RUT", "Nombre del Colaborador", "Área", "Supervisor"},
		{"11111111-1", "Juan Perez", "Bodega", "Marta Rojas"},
		{"22222222-2", "Ana Soto", "Caja", "Marta Rojas"},
		{"33333333-3", "Ana Soto Rojas", "Caja", "Luis Mora"},
	}}
}

func codesSheet() sheet {
	return sheet{name: "Codificación de Turnos", rows: [][]any{
		{"Horario", "Sigla"},
		{"09:00 a 18:00", "M"},
		{"08:00 a 17:00", "T"},
	}}
}

type fixture struct {
	dir      string
	roster   string
	template string
}

func newFixture(t *testing.T, grid sheet) fixture {
	t.Helper()
	dir := t.TempDir()
	fx := fixture{
		dir:      dir,
		roster:   filepath.Join(dir, "turnos.xlsx"),
		template: filepath.Join(dir, "plantilla.csv"),
	}
	writeWorkbook(t, fx.roster, grid, directorySheet(), codesSheet())
	require.NoError(t, os.WriteFile(fx.template, []byte("RUT;Nombre;Área;05/01/2026;06/01/2026\r\n"), 0o644))
	return fx
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{in: strings.NewReader(stdin), out: &out}
	root := newRootCmd(a)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestConvert_Automated(t *testing.T) {
	fx := newFixture(t, gridSheet(
		[]any{"PEREZ, JUAN", "09:00 a 18:00", "libre"},
		[]any{"Soto Rojas", "08:00 a 17:00", "19:00 a 07:00"},
		[]any{"Pedro Gonzalez", "libre", "libre"},
	))
	outPath := filepath.Join(fx.dir, "carga.csv")
	reportPath := filepath.Join(fx.dir, "reporte.json")

	stdout, err := execute(t, "", "convert", "--roster", fx.roster, "--template", fx.template, "--out", outPath, "--report", reportPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "RUT;Nombre;Área;05/01/2026;06/01/2026\r\n"+
		"11111111-1;Juan Perez;Bodega;M;L\r\n"+
		"33333333-3;Ana Soto Rojas;Caja;T;\r\n", string(data))

	assert.Contains(t, stdout, "Wrote 2 rows to "+outPath)
	assert.Contains(t, stdout, "unmapped_shift")
	assert.Contains(t, stdout, "Pedro Gonzalez")

	raw, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var summary report.Summary
	require.NoError(t, json.Unmarshal(raw, &summary))
	assert.Equal(t, 2, summary.Counts.Rows)
	assert.Equal(t, 1, summary.Counts.Names.Unresolved)
	assert.True(t, summary.HasErrors())
}

func TestConvert_XLSXByExtension(t *testing.T) {
	fx := newFixture(t, gridSheet([]any{"Juan Perez", "09:00 a 18:00", "libre"}))
	outPath := filepath.Join(fx.dir, "carga.xlsx")

	_, err := execute(t, "", "convert", "--roster", fx.roster, "--template", fx.template, "--out", outPath)
	require.NoError(t, err)

	f, err := excelize.OpenFile(outPath)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows("Carga")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"RUT", "Nombre", "Área", "05/01/2026", "06/01/2026"},
		{"11111111-1", "Juan Perez", "Bodega", "M", "L"},
	}, rows)
}

func TestConvert_Interactive(t *testing.T) {
	fx := newFixture(t, gridSheet(
		[]any{"PEREZ, JUAN", "09:00 a 18:00", "libre"},
		[]any{"Soto Ana", "08:00 a 17:00", "libre"},
		[]any{"Pedro Gonzalez", "libre", "libre"},
	))
	outPath := filepath.Join(fx.dir, "carga.csv")

	stdout, err := execute(t, "rojas\n3\ns\n", "convert", "-i", "--roster", fx.roster, "--template", fx.template, "--out", outPath)
	require.NoError(t, err)

	assert.Contains(t, stdout, "2 names need a decision.")
	assert.Contains(t, stdout, `"Soto Ana" matches several employees: 22222222-2, 33333333-3`)
	assert.Contains(t, stdout, `"Pedro Gonzalez" has no match in the directory`)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "RUT;Nombre;Área;05/01/2026;06/01/2026\r\n"+
		"11111111-1;Juan Perez;Bodega;M;L\r\n"+
		"33333333-3;Ana Soto Rojas;Caja;T;L\r\n", string(data))
}

func TestConvert_InteractiveInputClosed(t *testing.T) {
	fx := newFixture(t, gridSheet([]any{"Soto Ana", "08:00 a 17:00", "libre"}))
	outPath := filepath.Join(fx.dir, "carga.csv")

	_, err := execute(t, "", "convert", "-i", "--roster", fx.roster, "--template", fx.template, "--out", outPath)
	assert.ErrorIs(t, err, errInputClosed)

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvert_MissingSheetWritesNothing(t *testing.T) {
	dir := t.TempDir()
	roster := filepath.Join(dir, "turnos.xlsx")
	writeWorkbook(t, roster, gridSheet([]any{"Juan Perez", "libre", "libre"}), directorySheet())
	template := filepath.Join(dir, "plantilla.csv")
	require.NoError(t, os.WriteFile(template, []byte("RUT;Nombre\n"), 0o644))
	outPath := filepath.Join(dir, "carga.csv")

	_, err := execute(t, "", "convert", "--roster", roster, "--template", template, "--out", outPath)
	require.Error(t, err)

	var structural *parser.StructuralError
	require.True(t, errors.As(err, &structural))
	assert.ErrorIs(t, err, parser.ErrMissingSheet)

	_, statErr := os.Stat(outPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestConvert_RejectsUnknownFormat(t *testing.T) {
	fx := newFixture(t, gridSheet([]any{"Juan Perez", "libre", "libre"}))

	_, err := execute(t, "", "convert", "--roster", fx.roster, "--template", fx.template, "--out", filepath.Join(fx.dir, "x.out"), "--format", "xls")
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestInspect(t *testing.T) {
	fx := newFixture(t, gridSheet([]any{"Juan Perez", "libre", "libre"}))

	stdout, err := execute(t, "", "inspect", "--template", fx.template, "--roster", fx.roster)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Template plantilla.csv (csv;), 5 columns")
	assert.Contains(t, stdout, "Directory: 3 entries, 3 usable")
	assert.Contains(t, stdout, "Codification: 3 shift keys")
	for _, want := range []string{"identifier", "name", "unit", "2026-01-05", "2026-01-06"} {
		assert.Contains(t, stdout, want)
	}
}

func TestInspect_TemplateOnly(t *testing.T) {
	fx := newFixture(t, gridSheet())

	stdout, err := execute(t, "", "inspect", "--template", fx.template)
	require.NoError(t, err)
	assert.Contains(t, stdout, "date")
	assert.NotContains(t, stdout, "Roster")
}

func TestConvert_UnknownFormatNamesNormalizedValue(t *testing.T) {
	fx := newFixture(t, gridSheet([]any{"Juan Perez", "libre", "libre"}))

	_, err := execute(t, "", "convert", "--roster", fx.roster, "--template", fx.template, "--out", filepath.Join(fx.dir, "x.out"), "--format", "ODS")
	assert.ErrorContains(t, err, `unsupported output format "ods"`)
}

package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftload/pkg/schema"
)

func TestLoadTemplate_Semicolon(t *testing.T) {
	tpl, err := LoadTemplate([]byte("RUT;Nombre;2026-01-05;Observación\r\n"), "plantilla.csv")
	require.NoError(t, err)

	assert.Equal(t, FormatSemicolon, tpl.Format)
	assert.Equal(t, []string{"RUT", "Nombre", "2026-01-05", "Observación"}, tpl.Headers())
}

func TestLoadTemplate_CommaFallsThroughSemicolon(t *testing.T) {
	tpl, err := LoadTemplate([]byte("RUT,Nombre,2026-01-05\n11111111-1,x,M\n"), "plantilla.csv")
	require.NoError(t, err)

	assert.Equal(t, FormatComma, tpl.Format)
	assert.Equal(t, []string{"RUT", "Nombre", "2026-01-05"}, tpl.Headers())
}

func TestLoadTemplate_HeadersKeptVerbatim(t *testing.T) {
	tpl, err := LoadTemplate([]byte("\xEF\xBB\xBFRUT ; Nombre;;Fecha 1\n"), "p.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"RUT ", " Nombre", "", "Fecha 1"}, tpl.Headers())
}

func TestLoadTemplate_Windows1252Text(t *testing.T) {
	// "Área" encoded as windows-1252.
	tpl, err := LoadTemplate([]byte("RUT;\xC1rea\n"), "p.csv")
	require.NoError(t, err)

	assert.Equal(t, []string{"RUT", "Área"}, tpl.Headers())
}

func TestLoadTemplate_XLSX(t *testing.T) {
	data := buildXLSX(t, sheetFixture{name: "Carga", rows: [][]any{
		{"RUT", "Nombre", time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), "2026-01-06"},
		{"11111111-1", "Juan"},
	}})

	tpl, err := LoadTemplate(data, "plantilla.xlsx")
	require.NoError(t, err)

	assert.Equal(t, FormatXLSX, tpl.Format)
	require.Len(t, tpl.Columns, 4)
	assert.Equal(t, "RUT", tpl.Columns[0].Header)
	assert.Equal(t, "2026-01-05", schema.NormalizeDate(tpl.Columns[2].ProbeValue()).Value)
	assert.Equal(t, "2026-01-06", tpl.Columns[3].ProbeValue())
}

func TestLoadTemplate_AllAttemptsFail(t *testing.T) {
	_, err := LoadTemplate([]byte("\n\n"), "roto.xls")

	var te *TemplateError
	require.True(t, errors.As(err, &te), "got %v", err)
	require.Len(t, te.Attempts, 4)
	assert.Equal(t, FormatXLSX, te.Attempts[0].Format)
	assert.Equal(t, FormatXLS, te.Attempts[1].Format)
	assert.Equal(t, FormatSemicolon, te.Attempts[2].Format)
	assert.Equal(t, FormatComma, te.Attempts[3].Format)
	assert.Contains(t, err.Error(), "roto.xls")
}

func TestLoadTemplate_Empty(t *testing.T) {
	_, err := LoadTemplate(nil, "vacio.csv")

	var te *TemplateError
	assert.True(t, errors.As(err, &te))
}

func TestXLSTemplate_TruncatedDateHeaders(t *testing.T) {
	_, err := xlsTemplate([][]string{
		{},
		{"RUT", "Nombre", "2026.01", "2026.01", "Observación"},
	})

	require.ErrorIs(t, err, ErrTruncatedDateHeaders)
	assert.Contains(t, err.Error(), `"2026.01"`)
}

func TestXLSTemplate_PlainHeaders(t *testing.T) {
	tpl, err := xlsTemplate([][]string{{"RUT", "Nombre", "05/01/2026", "2026.13", "v2026.01"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"RUT", "Nombre", "05/01/2026", "2026.13", "v2026.01"}, tpl.Headers())
}

func TestLoadTemplate_StopsAtTruncatedDateHeaders(t *testing.T) {
	saved := templateAttempts
	t.Cleanup(func() { templateAttempts = saved })

	textTried := false
	templateAttempts = []templateAttempt{
		{FormatXLS, func([]byte) (*Template, error) {
			return xlsTemplate([][]string{{"RUT", "2026.01"}})
		}},
		{FormatSemicolon, func([]byte) (*Template, error) {
			textTried = true
			return &Template{Columns: []schema.TemplateColumn{{Header: "garbage"}}}, nil
		}},
	}

	_, err := LoadTemplate([]byte("binary"), "plantilla.xls")

	var te *TemplateError
	require.True(t, errors.As(err, &te), "got %v", err)
	require.Len(t, te.Attempts, 1)
	assert.Equal(t, FormatXLS, te.Attempts[0].Format)
	assert.ErrorIs(t, err, ErrTruncatedDateHeaders)
	assert.False(t, textTried)
}

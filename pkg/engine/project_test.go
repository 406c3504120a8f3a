package engine

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"shiftload/pkg/schema"
)

func columns(headers ...string) []schema.TemplateColumn {
	cols := make([]schema.TemplateColumn, len(headers))
	for i, h := range headers {
		cols[i] = schema.TemplateColumn{Header: h}
	}
	return cols
}

func TestColumnRules_Classify(t *testing.T) {
	rules := NewColumnRules(schema.DefaultColumnKeywords())
	cols := append(columns("RUT Empleado", "Nombre Completo", "Área", "Supervisor directo", "2026-01-05", "Observación"),
		schema.TemplateColumn{Header: "lun 06", Probe: "46028"},
		schema.TemplateColumn{Header: "2026-02-01"},
	)

	got := rules.Classify(cols, []string{"2026-01-05", "2026-01-06"})

	want := []ColumnClass{
		{Header: "RUT Empleado", Kind: schema.ColumnIdentifier},
		{Header: "Nombre Completo", Kind: schema.ColumnName},
		{Header: "Área", Kind: schema.ColumnUnit},
		{Header: "Supervisor directo", Kind: schema.ColumnManager},
		{Header: "2026-01-05", Kind: schema.ColumnDate, DateKey: "2026-01-05"},
		{Header: "Observación", Kind: schema.ColumnUnknown},
		{Header: "lun 06", Kind: schema.ColumnDate, DateKey: "2026-01-06"},
		{Header: "2026-02-01", Kind: schema.ColumnUnknown},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Classify mismatch (-want +got):\n%s", diff)
	}
}

func TestColumnRules_DateBeforeKeywords(t *testing.T) {
	kw := schema.DefaultColumnKeywords()
	kw.Manager = append(kw.Manager, "ENE")
	rules := NewColumnRules(kw)

	got := rules.Classify(columns("07-ene-2026", "Gerencia Enero"), []string{"2026-01-07"})

	assert.Equal(t, schema.ColumnDate, got[0].Kind)
	assert.Equal(t, "2026-01-07", got[0].DateKey)
	assert.Equal(t, schema.ColumnManager, got[1].Kind)
}

func TestColumnRules_ProbeDateWinsOverHeader(t *testing.T) {
	rules := NewColumnRules(schema.DefaultColumnKeywords())
	// Serials shown with the month-first format 14: 46027 is 2026-01-05 and 46054 is
	// 2026-02-01.
	cols := []schema.TemplateColumn{
		{Header: "01-05-26", Probe: "46027"},
		{Header: "02-01-26", Probe: "46054"},
	}

	got := rules.Classify(cols, []string{"2026-05-01", "2026-01-02"})
	assert.Equal(t, schema.ColumnUnknown, got[0].Kind)
	assert.Equal(t, schema.ColumnUnknown, got[1].Kind)

	got = rules.Classify(cols, []string{"2026-01-05", "2026-02-01"})
	assert.Equal(t, ColumnClass{Header: "01-05-26", Kind: schema.ColumnDate, DateKey: "2026-01-05"}, got[0])
	assert.Equal(t, ColumnClass{Header: "02-01-26", Kind: schema.ColumnDate, DateKey: "2026-02-01"}, got[1])
}

func TestColumnRules_HeaderUsedWhenProbeIsNotADate(t *testing.T) {
	rules := NewColumnRules(schema.DefaultColumnKeywords())
	cols := []schema.TemplateColumn{{Header: "05/01/2026", Probe: "Fecha"}}

	got := rules.Classify(cols, []string{"2026-01-05"})
	assert.Equal(t, schema.ColumnDate, got[0].Kind)
	assert.Equal(t, "2026-01-05", got[0].DateKey)
}

func TestColumnRules_Kinds(t *testing.T) {
	var kinds []schema.ColumnKind
	for _, r := range NewColumnRules(schema.DefaultColumnKeywords()) {
		kinds = append(kinds, r.Kind())
	}
	assert.Equal(t, []schema.ColumnKind{
		schema.ColumnIdentifier,
		schema.ColumnDate,
		schema.ColumnName,
		schema.ColumnUnit,
		schema.ColumnManager,
		schema.ColumnUnknown,
	}, kinds)
}

func TestColumnRules_Project(t *testing.T) {
	idx := BuildDirectoryIndex([]schema.DirectoryEntry{
		{ID: "1", DisplayName: "Juan Pérez", Unit: "Bodega", Manager: "Marta Rojas"},
	})
	reshaped := &ReshapeResult{
		Dates: []string{"2026-01-05", "2026-01-06"},
		Order: []string{"1", "2"},
		Records: []schema.ShiftRecord{
			{ID: "1", DateKey: "2026-01-05", Code: "M"},
			{ID: "2", DateKey: "2026-01-06", Code: "T"},
			{ID: "1", DateKey: "2026-01-06", Code: ""},
		},
	}
	cols := columns("RUT", "Nombre", "Área", "Supervisor", "05/01/2026", "2026-01-06", "Extra", "RUT")

	rows := NewColumnRules(schema.DefaultColumnKeywords()).Project(cols, reshaped, idx)

	want := [][]string{
		{"1", "Juan Pérez", "Bodega", "Marta Rojas", "M", "", "", "1"},
		{"2", "", "", "", "", "T", "", "2"},
	}
	got := make([][]string, len(rows))
	for i, r := range rows {
		got[i] = r.Values
		assert.Len(t, r.Values, len(cols))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Project mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "2", rows[1].ID)
	assert.Equal(t, map[string]string{
		"RUT":        "1",
		"Nombre":     "Juan Pérez",
		"Área":       "Bodega",
		"Supervisor": "Marta Rojas",
		"05/01/2026": "M",
		"2026-01-06": "",
		"Extra":      "",
	}, rows[0].Map())
}

func TestColumnRules_ProjectWithoutRecords(t *testing.T) {
	rows := NewColumnRules(schema.DefaultColumnKeywords()).Project(columns("RUT"), &ReshapeResult{}, nil)
	assert.Empty(t, rows)
}

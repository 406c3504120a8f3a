package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftload/pkg/schema"
)

func entry(id, name string) schema.DirectoryEntry {
	return schema.DirectoryEntry{ID: id, DisplayName: name}
}

func testIndex() *DirectoryIndex {
	return BuildDirectoryIndex([]schema.DirectoryEntry{
		entry("11111111-1", "Juan Pérez"),
		entry("22222222-2", "Ana Soto"),
		entry("33333333-3", "Ana Soto Rojas"),
		entry("", "Sin Rut"),
	})
}

func TestBuildDirectoryIndex(t *testing.T) {
	idx := BuildDirectoryIndex([]schema.DirectoryEntry{
		entry("1", "Juan Pérez"),
		entry("", "Sin Rut"),
		entry("1", "Otro Juan"),
		entry("2", "JUAN PEREZ"),
	})

	assert.Equal(t, IndexStats{TotalRecords: 4, Indexed: 2, MissingID: 1, DuplicateIDs: 1, SharedNames: 1}, idx.Stats)
	assert.Equal(t, []string{"JUAN PEREZ"}, idx.Names)
	assert.Equal(t, []string{"1", "2"}, idx.idsForName("JUAN PEREZ"))
	assert.Equal(t, []string{"Juan Pérez (1)", "JUAN PEREZ (2)"}, idx.Options())

	e, ok := idx.Lookup("1")
	require.True(t, ok)
	assert.Equal(t, "Juan Pérez", e.DisplayName)
	_, ok = idx.Lookup("")
	assert.False(t, ok)
}

func TestResolve_Cascade(t *testing.T) {
	r := NewResolver(testIndex(), 0.7, nil)
	res := r.Resolve([]string{"PEREZ, JUAN", "ana soto", "Juan Peres", "Pedro Gonzalez", "  ", "PEREZ, JUAN"})

	assert.Equal(t, []string{"PEREZ, JUAN", "ana soto", "Juan Peres", "Pedro Gonzalez"}, res.Order)

	exact, _ := res.Get("PEREZ, JUAN")
	assert.Equal(t, OutcomeExact, exact.Kind)
	assert.Equal(t, "11111111-1", exact.ID)
	assert.True(t, exact.Resolved())

	ambiguous, _ := res.Get("ana soto")
	assert.Equal(t, OutcomeAmbiguous, ambiguous.Kind)
	assert.Empty(t, ambiguous.ID)
	assert.Equal(t, []string{"22222222-2", "33333333-3"}, ambiguous.Candidates)
	assert.False(t, ambiguous.Resolved())

	fuzzy, _ := res.Get("Juan Peres")
	assert.Equal(t, OutcomeFuzzy, fuzzy.Kind)
	assert.Equal(t, "11111111-1", fuzzy.ID)
	assert.InDelta(t, 0.9, fuzzy.Score, 1e-9)

	unresolved, _ := res.Get("Pedro Gonzalez")
	assert.Equal(t, OutcomeUnresolved, unresolved.Kind)

	assert.Equal(t, []string{"ana soto", "Pedro Gonzalez"}, res.Pending())
	assert.Equal(t, ResolveStats{Total: 4, Exact: 1, Fuzzy: 1, Ambiguous: 1, Unresolved: 1}, res.Stats())
}

func TestResolveStrict_NoFuzzyTier(t *testing.T) {
	r := NewResolver(testIndex(), 0.7, nil)
	res := r.ResolveStrict([]string{"Juan Peres", "Juan"})

	o, _ := res.Get("Juan Peres")
	assert.Equal(t, OutcomeUnresolved, o.Kind)
	o, _ = res.Get("Juan")
	assert.Equal(t, OutcomeExact, o.Kind)
}

func TestResolve_TokenPermutations(t *testing.T) {
	idx := BuildDirectoryIndex([]schema.DirectoryEntry{
		entry("1", "Juan Pérez"),
		entry("2", "María José Muñoz"),
		entry("3", "Pedro Rojas Lagos"),
	})
	r := NewResolver(idx, 0.7, nil)

	names := map[string][]string{
		"1": {"Juan Pérez", "PEREZ JUAN", "pérez, juan"},
		"2": {"MUÑOZ MARIA JOSE", "Jose Maria Munoz", "munoz, maría josé", "María Muñoz"},
		"3": {"LAGOS ROJAS PEDRO", "Rojas Pedro", "pedro lagos"},
	}
	for id, variants := range names {
		res := r.Resolve(variants)
		for _, v := range variants {
			o, ok := res.Get(v)
			require.True(t, ok, v)
			assert.Equal(t, OutcomeExact, o.Kind, v)
			assert.Equal(t, id, o.ID, v)
		}
	}
}

func TestResolve_SharedNameIsAmbiguous(t *testing.T) {
	idx := BuildDirectoryIndex([]schema.DirectoryEntry{
		entry("1", "Juan Pérez"),
		entry("2", "Juan Perez"),
	})
	res := NewResolver(idx, 0.7, nil).Resolve([]string{"Juan Perez", "Juan Peres"})

	for _, name := range []string{"Juan Perez", "Juan Peres"} {
		o, _ := res.Get(name)
		assert.Equal(t, OutcomeAmbiguous, o.Kind, name)
		assert.Equal(t, []string{"1", "2"}, o.Candidates, name)
	}
}

func TestResolve_FuzzyTieGoesToGreaterName(t *testing.T) {
	idx := BuildDirectoryIndex([]schema.DirectoryEntry{
		entry("d", "ABCD"),
		entry("e", "ABCE"),
	})
	res := NewResolver(idx, 0.7, nil).Resolve([]string{"ABCF"})

	o, _ := res.Get("ABCF")
	assert.Equal(t, OutcomeFuzzy, o.Kind)
	assert.Equal(t, "e", o.ID)
	assert.Equal(t, "ABCE", o.MatchedName)
}

func TestResolver_CutoffFallback(t *testing.T) {
	r := NewResolver(testIndex(), 0, nil)
	assert.Equal(t, DefaultFuzzyCutoff, r.fuzzyCutoff)
}

func TestResolver_Suggest(t *testing.T) {
	r := NewResolver(testIndex(), 0.7, nil)

	e, score, ok := r.Suggest("Pedro Gonzalez", 0.4)
	require.True(t, ok)
	assert.Equal(t, "11111111-1", e.ID)
	assert.Greater(t, score, 0.4)

	_, _, ok = r.Suggest("Ximena Valdes", 0.4)
	assert.False(t, ok)
}

func TestResolution_Corrections(t *testing.T) {
	idx := testIndex()
	res := NewResolver(idx, 0.7, nil).ResolveStrict([]string{"ana soto", "Pedro Gonzalez"})

	err := res.Apply([]Correction{
		{Name: "ana soto", ID: "33333333-3"},
		{Name: "Pedro Gonzalez", Skip: true},
	}, idx)
	require.NoError(t, err)

	o, _ := res.Get("ana soto")
	assert.Equal(t, OutcomeCorrected, o.Kind)
	assert.Equal(t, "33333333-3", o.ID)
	assert.True(t, o.Resolved())
	assert.Equal(t, []string{"22222222-2", "33333333-3"}, o.Candidates)

	o, _ = res.Get("Pedro Gonzalez")
	assert.Equal(t, OutcomeSkipped, o.Kind)
	assert.False(t, o.Resolved())
	assert.Empty(t, res.Pending())
}

func TestResolution_RejectsUnknownChoices(t *testing.T) {
	idx := testIndex()
	res := NewResolver(idx, 0.7, nil).ResolveStrict([]string{"ana soto"})

	err := res.Correct("ana soto", "99999999-9", idx)
	assert.ErrorIs(t, err, ErrUnknownIdentifier)

	err = res.Correct("nadie", "22222222-2", idx)
	assert.ErrorIs(t, err, ErrUnknownName)

	assert.ErrorIs(t, res.Skip("nadie"), ErrUnknownName)

	o, _ := res.Get("ana soto")
	assert.Equal(t, OutcomeAmbiguous, o.Kind)
}

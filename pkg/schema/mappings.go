package schema

import (
	"strings"
)

// ColumnKind is the meaning assigned to a template column.
type ColumnKind string

const (
	ColumnIdentifier ColumnKind = "identifier"
	ColumnDate       ColumnKind = "date"
	ColumnName       ColumnKind = "name"
	ColumnUnit       ColumnKind = "unit"
	ColumnManager    ColumnKind = "manager"
	ColumnUnknown    ColumnKind = "unknown"
)

// ColumnKeywords lists the header substrings that classify template columns.
// Matching is done on NormalizeText of both sides.
type ColumnKeywords struct {
	Identifier []string `yaml:"identifier" json:"identifier"`
	Name       []string `yaml:"name" json:"name"`
	Unit       []string `yaml:"unit" json:"unit"`
	Manager    []string `yaml:"manager" json:"manager"`
}

// DefaultColumnKeywords matches the headers of the payroll import templates.
func DefaultColumnKeywords() ColumnKeywords {
	return ColumnKeywords{
		Identifier: []string{"RUT", "EMPLEADO"},
		Name:       []string{"NOMBRE"},
		Unit:       []string{"AREA"},
		Manager:    []string{"SUPERVISOR"},
	}
}

// ContainsKeyword reports whether the normalized header contains any keyword.
func ContainsKeyword(header string, keywords []string) bool {
	h := NormalizeText(header)
	if h == "" {
		return false
	}
	for _, kw := range keywords {
		k := NormalizeText(kw)
		if k != "" && strings.Contains(h, k) {
			return true
		}
	}
	return false
}

// Source fields of the roster workbook's directory and codification sheets.
const (
	FieldID          = "id"
	FieldDisplayName = "displayName"
	FieldUnit        = "unit"
	FieldManager     = "manager"
	FieldShift       = "shift"
	FieldCode        = "code"
)

// HeaderMappings maps normalized header names to source fields.
var HeaderMappings = map[string]string{
	// Identifier
	"rut":        FieldID,
	"run":        FieldID,
	"dni":        FieldID,
	"id":         FieldID,
	"employeeid": FieldID,
	"idempleado": FieldID,

	// Display name
	"nombre":               FieldDisplayName,
	"nombredelcolaborador": FieldDisplayName,
	"nombrecolaborador":    FieldDisplayName,
	"nombrecompleto":       FieldDisplayName,
	"colaborador":          FieldDisplayName,
	"name":                 FieldDisplayName,
	"fullname":             FieldDisplayName,

	// Organizational unit
	"area":         FieldUnit,
	"unidad":       FieldUnit,
	"departamento": FieldUnit,
	"department":   FieldUnit,

	// Manager
	"supervisor": FieldManager,
	"jefe":       FieldManager,
	"jefatura":   FieldManager,
	"manager":    FieldManager,

	// Codification
	"horario": FieldShift,
	"turno":   FieldShift,
	"shift":   FieldShift,
	"sigla":   FieldCode,
	"codigo":  FieldCode,
	"code":    FieldCode,
}

// substringMappings is the fallback when no exact header matches.
// Order matters: more specific substrings come before generic ones.
var substringMappings = []struct {
	Substring string
	Target    string
}{
	{"rut", FieldID},
	{"idempleado", FieldID},
	{"employeeid", FieldID},
	{"nombre", FieldDisplayName},
	{"colaborador", FieldDisplayName},
	{"name", FieldDisplayName},
	{"area", FieldUnit},
	{"unidad", FieldUnit},
	{"depart", FieldUnit},
	{"supervisor", FieldManager},
	{"jef", FieldManager},
	{"manager", FieldManager},
	{"horario", FieldShift},
	{"turno", FieldShift},
	{"sigla", FieldCode},
	{"codigo", FieldCode},
}

// InferMappings takes sheet headers and returns header -> field:
//  1. Lowercase, drop accents, strip whitespace/underscores/hyphens/dots
//  2. Exact match against HeaderMappings
//  3. Substring match
//  4. No match -> left out
//
// Each field is assigned at most once, to the leftmost header claiming it.
func InferMappings(headers []string) map[string]string {
	result := make(map[string]string, len(headers))
	usedTargets := make(map[string]bool)

	for _, header := range headers {
		normalized := normalizeHeader(header)
		if normalized == "" {
			continue
		}

		if target, ok := HeaderMappings[normalized]; ok && !usedTargets[target] {
			result[header] = target
			usedTargets[target] = true
			continue
		}

		for _, sm := range substringMappings {
			if strings.Contains(normalized, sm.Substring) && !usedTargets[sm.Target] {
				result[header] = sm.Target
				usedTargets[sm.Target] = true
				break
			}
		}
	}

	return result
}

// SameHeader compares two headers ignoring case, accents and separators.
func SameHeader(a, b string) bool {
	na := normalizeHeader(a)
	return na != "" && na == normalizeHeader(b)
}

func normalizeHeader(header string) string {
	s := strings.ToLower(stripDiacritics(strings.TrimSpace(header)))
	return strings.NewReplacer(" ", "", "_", "", "-", "", ".", "").Replace(s)
}

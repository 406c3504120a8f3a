package engine

import (
	"shiftload/pkg/schema"
)

// ColumnClass is the decision taken for one template column.
type ColumnClass struct {
	Header string            `json:"header"`
	Kind   schema.ColumnKind `json:"kind"`
	// DateKey is set for date columns.
	DateKey string `json:"dateKey,omitempty"`
}

// rowSource is what a rule can read when filling one output row.
type rowSource struct {
	id    string
	entry *schema.DirectoryEntry
	codes map[string]string
}

// ColumnRule pairs a predicate on a template column with the extractor that fills
// the column. match returns the date key for date rules.
type ColumnRule struct {
	kind    schema.ColumnKind
	match   func(col schema.TemplateColumn, dates map[string]bool) (string, bool)
	extract func(src rowSource, dateKey string) string
}

// Kind is the column kind the rule assigns.
func (r ColumnRule) Kind() schema.ColumnKind { return r.kind }

// ColumnRules is evaluated in order and the first matching rule wins.
type ColumnRules []ColumnRule

// NewColumnRules builds the fixed priority table:
//  1. identifier keywords
//  2. date columns of this run
//  3. name keywords
//  4. unit keywords
//  5. manager keywords
//  6. anything else, left empty
//
// Dates come before the descriptive keywords so a date header that happens to
// contain a keyword is still filled with codes.
func NewColumnRules(kw schema.ColumnKeywords) ColumnRules {
	return ColumnRules{
		keywordRule(schema.ColumnIdentifier, kw.Identifier, func(src rowSource, _ string) string {
			return src.id
		}),
		{
			kind:  schema.ColumnDate,
			match: matchDate,
			extract: func(src rowSource, dateKey string) string {
				return src.codes[dateKey]
			},
		},
		keywordRule(schema.ColumnName, kw.Name, func(src rowSource, _ string) string {
			if src.entry == nil {
				return ""
			}
			return src.entry.DisplayName
		}),
		keywordRule(schema.ColumnUnit, kw.Unit, func(src rowSource, _ string) string {
			if src.entry == nil {
				return ""
			}
			return src.entry.Unit
		}),
		keywordRule(schema.ColumnManager, kw.Manager, func(src rowSource, _ string) string {
			if src.entry == nil {
				return ""
			}
			return src.entry.Manager
		}),
		{
			kind:    schema.ColumnUnknown,
			match:   func(schema.TemplateColumn, map[string]bool) (string, bool) { return "", true },
			extract: func(rowSource, string) string { return "" },
		},
	}
}

func keywordRule(kind schema.ColumnKind, keywords []string, extract func(rowSource, string) string) ColumnRule {
	return ColumnRule{
		kind: kind,
		match: func(col schema.TemplateColumn, _ map[string]bool) (string, bool) {
			return "", schema.ContainsKeyword(col.Header, keywords)
		},
		extract: extract,
	}
}

// matchDate uses the raw probe alone whenever it holds a date. The displayed header
// is consulted only when there is no probe or the probe is not a date.
func matchDate(col schema.TemplateColumn, dates map[string]bool) (string, bool) {
	if col.Probe != "" {
		if key := schema.NormalizeDate(col.Probe); key.IsDate() {
			return key.Value, dates[key.Value]
		}
	}
	key := schema.NormalizeDate(col.Header)
	if !key.IsNone() && dates[key.Value] {
		return key.Value, true
	}
	return "", false
}

// Classify returns the class of every column, in template order.
func (rs ColumnRules) Classify(columns []schema.TemplateColumn, dates []string) []ColumnClass {
	classes, _ := rs.classify(columns, dates)
	return classes
}

func (rs ColumnRules) classify(columns []schema.TemplateColumn, dates []string) ([]ColumnClass, []int) {
	dateSet := make(map[string]bool, len(dates))
	for _, d := range dates {
		dateSet[d] = true
	}

	classes := make([]ColumnClass, len(columns))
	picked := make([]int, len(columns))
	for i, col := range columns {
		classes[i] = ColumnClass{Header: col.Header, Kind: schema.ColumnUnknown}
		picked[i] = -1
		for j, rule := range rs {
			dateKey, ok := rule.match(col, dateSet)
			if !ok {
				continue
			}
			classes[i] = ColumnClass{Header: col.Header, Kind: rule.kind, DateKey: dateKey}
			picked[i] = j
			break
		}
	}
	return classes, picked
}

// OutputRow holds one value per template column, in template order.
type OutputRow struct {
	ID      string   `json:"id"`
	Values  []string `json:"values"`
	headers []string
}

// Map returns the row keyed by header. Repeated headers keep the rightmost value.
func (r OutputRow) Map() map[string]string {
	m := make(map[string]string, len(r.headers))
	for i, h := range r.headers {
		if i < len(r.Values) {
			m[h] = r.Values[i]
		}
	}
	return m
}

// Project emits one row per identifier in reshape.Order. An identifier without a
// directory entry still gets its row, with the descriptive columns left empty.
func (rs ColumnRules) Project(columns []schema.TemplateColumn, reshape *ReshapeResult, index *DirectoryIndex) []OutputRow {
	classes, picked := rs.classify(columns, reshape.Dates)

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = col.Header
	}

	codes := make(map[string]map[string]string, len(reshape.Order))
	for _, rec := range reshape.Records {
		if codes[rec.ID] == nil {
			codes[rec.ID] = make(map[string]string)
		}
		codes[rec.ID][rec.DateKey] = rec.Code
	}

	rows := make([]OutputRow, 0, len(reshape.Order))
	for _, id := range reshape.Order {
		src := rowSource{id: id, codes: codes[id]}
		if index != nil {
			src.entry, _ = index.Lookup(id)
		}

		values := make([]string, len(columns))
		for i := range columns {
			if picked[i] < 0 {
				continue
			}
			values[i] = rs[picked[i]].extract(src, classes[i].DateKey)
		}
		rows = append(rows, OutputRow{ID: id, Values: values, headers: headers})
	}
	return rows
}

package engine

import (
	"strings"

	"shiftload/pkg/schema"
)

// ExcludedCell is a roster cell left out of the output because its name has no
// usable identifier.
type ExcludedCell struct {
	RawName   string      `json:"rawName"`
	Outcome   OutcomeKind `json:"outcome"`
	DateKey   string      `json:"dateKey"`
	RawShift  string      `json:"rawShift"`
	SourceRow int         `json:"sourceRow"`
}

// SkippedColumn is a grid column whose header is blank, so it is not a date column.
type SkippedColumn struct {
	Index  int    `json:"index"`
	Header string `json:"header"`
}

// ReshapeResult is the long-format roster: at most one record per (ID, date).
type ReshapeResult struct {
	// Records are kept in the order each (ID, date) pair was first seen.
	Records []schema.ShiftRecord `json:"records"`
	// Dates lists the distinct date keys in column order.
	Dates []string `json:"dates"`
	// Order lists identifiers by first appearance.
	Order          []string             `json:"order"`
	Excluded       []ExcludedCell       `json:"excluded,omitempty"`
	Duplicates     []DuplicateCell      `json:"duplicates,omitempty"`
	FormatErrors   []schema.ShiftRecord `json:"formatErrors,omitempty"`
	SkippedColumns []SkippedColumn      `json:"skippedColumns,omitempty"`
	BlankNameRows  int                  `json:"blankNameRows"`
	byPair         map[recordKey]int
}

type recordKey struct {
	id   string
	date string
}

// Record returns the record kept for (id, date).
func (r *ReshapeResult) Record(id, date string) (schema.ShiftRecord, bool) {
	i, ok := r.byPair[recordKey{id, date}]
	if !ok {
		return schema.ShiftRecord{}, false
	}
	return r.Records[i], true
}

// Reshape turns the name x date grid into shift records. Cells are visited row by
// row, top to bottom, and left to right within a row; when a pair repeats, the later
// cell wins and the overwrite is reported in Duplicates.
func Reshape(grid schema.RosterGrid, resolution *Resolution, normalizer schema.ShiftNormalizer) *ReshapeResult {
	result := &ReshapeResult{byPair: make(map[recordKey]int)}

	columns := make([]int, 0, len(grid.DateHeaders))
	keys := make([]string, len(grid.DateHeaders))
	seenDate := make(map[string]bool)
	for i, header := range grid.DateHeaders {
		key := schema.NormalizeDate(header)
		if key.IsNone() {
			result.SkippedColumns = append(result.SkippedColumns, SkippedColumn{Index: i, Header: header})
			continue
		}
		columns = append(columns, i)
		keys[i] = key.Value
		if !seenDate[key.Value] {
			seenDate[key.Value] = true
			result.Dates = append(result.Dates, key.Value)
		}
	}

	seenID := make(map[string]bool)
	for _, row := range grid.Rows {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			result.BlankNameRows++
			continue
		}
		outcome, _ := resolution.Get(name)

		for _, col := range columns {
			raw := row.Shift(col)
			if !outcome.Resolved() {
				kind := outcome.Kind
				if kind == "" {
					kind = OutcomeUnresolved
				}
				result.Excluded = append(result.Excluded, ExcludedCell{
					RawName:   name,
					Outcome:   kind,
					DateKey:   keys[col],
					RawShift:  raw,
					SourceRow: row.SourceRow,
				})
				continue
			}

			rec := schema.ShiftRecord{
				ID:        outcome.ID,
				RawName:   name,
				DateKey:   keys[col],
				RawShift:  raw,
				ShiftKey:  normalizer.Normalize(raw),
				SourceRow: row.SourceRow,
			}
			result.put(rec)

			if !seenID[rec.ID] {
				seenID[rec.ID] = true
				result.Order = append(result.Order, rec.ID)
			}
		}
	}

	for _, rec := range result.Records {
		if rec.ShiftKey == schema.FormatError {
			result.FormatErrors = append(result.FormatErrors, rec)
		}
	}
	return result
}

func (r *ReshapeResult) put(rec schema.ShiftRecord) {
	key := recordKey{rec.ID, rec.DateKey}
	if i, exists := r.byPair[key]; exists {
		r.Duplicates = append(r.Duplicates, detectDuplicate(r.Records[i], rec))
		r.Records[i] = rec
		return
	}
	r.byPair[key] = len(r.Records)
	r.Records = append(r.Records, rec)
}

package engine

import (
	"shiftload/pkg/schema"
)

// DuplicateCell records one overwrite of an (ID, date) pair during reshaping. The
// later cell in row-major order replaces the earlier one.
type DuplicateCell struct {
	ID            string `json:"id"`
	DateKey       string `json:"dateKey"`
	PreviousShift string `json:"previousShift"`
	PreviousRow   int    `json:"previousRow"`
	CurrentShift  string `json:"currentShift"`
	CurrentRow    int    `json:"currentRow"`
	// SameValue is set when both cells normalize to the same shift key.
	SameValue bool `json:"sameValue"`
}

// detectDuplicate compares the record already kept for a pair with the one about to
// replace it.
func detectDuplicate(kept, incoming schema.ShiftRecord) DuplicateCell {
	return DuplicateCell{
		ID:            incoming.ID,
		DateKey:       incoming.DateKey,
		PreviousShift: kept.RawShift,
		PreviousRow:   kept.SourceRow,
		CurrentShift:  incoming.RawShift,
		CurrentRow:    incoming.SourceRow,
		SameValue:     kept.ShiftKey == incoming.ShiftKey,
	}
}

package engine

import (
	"fmt"
	"sort"
	"strings"

	"shiftload/pkg/schema"
)

// CodeRowIssue explains why a codification row was ignored or overridden.
type CodeRowIssue struct {
	SourceRow   int    `json:"sourceRow"`
	Description string `json:"description"`
	Code        string `json:"code"`
	Reason      string `json:"reason"`
}

// CodeTable maps shift keys to output codes and back.
type CodeTable struct {
	byKey  map[string]string
	byCode map[string][]string
	rows   map[string]int
}

// BuildCodeTable normalizes each row's description with normalizer and pairs it with
// its code. Rows with an unparseable description or a blank code are skipped; a later
// row for the same key replaces the earlier one. The rest marker always maps to
// schema.RestCode, whatever the rows say.
func BuildCodeTable(rows []schema.CodeRow, normalizer schema.ShiftNormalizer) (*CodeTable, []CodeRowIssue) {
	t := &CodeTable{
		byKey: map[string]string{schema.RestMarker: schema.RestCode},
		rows:  make(map[string]int),
	}
	var issues []CodeRowIssue

	for _, row := range rows {
		code := strings.TrimSpace(row.Code)
		issue := CodeRowIssue{SourceRow: row.SourceRow, Description: row.Description, Code: code}

		if strings.TrimSpace(row.Description) == "" && code == "" {
			continue
		}
		if code == "" {
			issue.Reason = "blank code"
			issues = append(issues, issue)
			continue
		}

		key := normalizer.Normalize(row.Description)
		switch key {
		case schema.FormatError:
			issue.Reason = "description has no start and end time"
			issues = append(issues, issue)
			continue
		case schema.RestMarker:
			if code != schema.RestCode {
				issue.Reason = fmt.Sprintf("rest days always use code %s", schema.RestCode)
				issues = append(issues, issue)
			}
			continue
		}

		if prev, ok := t.rows[key]; ok && t.byKey[key] != code {
			issue.Reason = fmt.Sprintf("replaces code %s from row %d for %s", t.byKey[key], prev, key)
			issues = append(issues, issue)
		}
		t.byKey[key] = code
		t.rows[key] = row.SourceRow
	}

	t.byCode = make(map[string][]string, len(t.byKey))
	for key, code := range t.byKey {
		t.byCode[code] = append(t.byCode[code], key)
	}
	for code := range t.byCode {
		sort.Strings(t.byCode[code])
	}
	return t, issues
}

// Lookup returns the code for a shift key.
func (t *CodeTable) Lookup(key string) (string, bool) {
	code, ok := t.byKey[key]
	return code, ok
}

// KeysFor returns the shift keys that map to code, sorted.
func (t *CodeTable) KeysFor(code string) []string {
	return t.byCode[code]
}

// Len is the number of shift keys, the rest marker included.
func (t *CodeTable) Len() int { return len(t.byKey) }

// Apply sets Code on every record and returns the sorted distinct shift keys that
// have no code. Format errors get an empty code but are not listed; they are
// reported on their own.
func (t *CodeTable) Apply(records []schema.ShiftRecord) []string {
	missing := make(map[string]bool)
	for i := range records {
		rec := &records[i]
		if rec.ShiftKey == schema.FormatError {
			rec.Code = ""
			rec.Unmapped = false
			continue
		}
		code, ok := t.byKey[rec.ShiftKey]
		rec.Code = code
		rec.Unmapped = !ok
		if !ok {
			missing[rec.ShiftKey] = true
		}
	}

	unmapped := make([]string, 0, len(missing))
	for key := range missing {
		unmapped = append(unmapped, key)
	}
	sort.Strings(unmapped)
	return unmapped
}

package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"shiftload/pkg/engine"
	"shiftload/pkg/schema"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityWarning Severity = "WARNING"
	SeverityInfo    Severity = "INFO"
)

func (s Severity) rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Finding kinds.
const (
	KindAmbiguous      = "ambiguous_name"
	KindUnresolved     = "unresolved_name"
	KindSkipped        = "skipped_name"
	KindFuzzy          = "fuzzy_match"
	KindCorrected      = "corrected_match"
	KindUnmapped       = "unmapped_shift"
	KindFormatError    = "shift_format_error"
	KindDuplicate      = "duplicate_cell"
	KindCodeRow        = "code_row"
	KindSkippedColumn  = "skipped_column"
	KindUnfilledColumn = "unfilled_column"
)

// Finding is one diagnostic line of a run.
type Finding struct {
	Severity Severity `json:"severity"`
	Kind     string   `json:"kind"`
	Subject  string   `json:"subject"`
	Detail   string   `json:"detail"`
}

// SeverityCounts contains counts of findings at each severity.
type SeverityCounts struct {
	Error   int `json:"error"`
	Warning int `json:"warning"`
	Info    int `json:"info"`
}

// Counts are the headline numbers of a run.
type Counts struct {
	Names        engine.ResolveStats `json:"names"`
	Rows         int                 `json:"rows"`
	Records      int                 `json:"records"`
	Dates        int                 `json:"dates"`
	Excluded     int                 `json:"excludedCells"`
	Duplicates   int                 `json:"duplicates"`
	FormatErrors int                 `json:"formatErrors"`
	Unmapped     int                 `json:"unmappedKeys"`
	// NotInRoster counts directory entries with no shift in this roster.
	NotInRoster int            `json:"notInRoster"`
	Severity    SeverityCounts `json:"severity"`
}

// Summary is the diagnostics report of one run.
type Summary struct {
	Counts   Counts    `json:"counts"`
	Findings []Finding `json:"findings"`
}

// HasErrors reports whether any finding is an ERROR.
func (s *Summary) HasErrors() bool { return s.Counts.Severity.Error > 0 }

// WriteJSON writes the summary as indented JSON.
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Build compiles the findings of a pipeline result, errors first. Within one
// severity findings keep the order in which the run produced them.
func Build(result *engine.Result) *Summary {
	s := &Summary{Findings: make([]Finding, 0)}
	add := func(sev Severity, kind, subject, detail string) {
		s.Findings = append(s.Findings, Finding{Severity: sev, Kind: kind, Subject: subject, Detail: detail})
	}

	res := result.Resolution
	for _, name := range res.Order {
		o := res.Outcomes[name]
		switch o.Kind {
		case engine.OutcomeAmbiguous:
			add(SeverityError, KindAmbiguous, name, "matches "+strings.Join(o.Candidates, ", "))
		case engine.OutcomeUnresolved:
			add(SeverityError, KindUnresolved, name, "no directory entry matches")
		case engine.OutcomeSkipped:
			add(SeverityWarning, KindSkipped, name, "left out by choice")
		case engine.OutcomeFuzzy:
			add(SeverityInfo, KindFuzzy, name, fmt.Sprintf("matched %s as %s (ratio %.2f)", o.ID, o.MatchedName, o.Score))
		case engine.OutcomeCorrected:
			add(SeverityInfo, KindCorrected, name, "assigned "+o.ID)
		}
	}

	reshaped := result.Reshape
	for _, key := range result.Unmapped {
		n := 0
		for _, rec := range reshaped.Records {
			if rec.Unmapped && rec.ShiftKey == key {
				n++
			}
		}
		add(SeverityWarning, KindUnmapped, key, fmt.Sprintf("no code in the codification table (%d cells)", n))
	}
	for _, rec := range reshaped.FormatErrors {
		add(SeverityWarning, KindFormatError, rec.RawName,
			fmt.Sprintf("row %d, %s: %q has no start and end time", rec.SourceRow, rec.DateKey, rec.RawShift))
	}
	for _, d := range reshaped.Duplicates {
		sev := SeverityWarning
		if d.SameValue {
			sev = SeverityInfo
		}
		add(sev, KindDuplicate, d.ID+" "+d.DateKey,
			fmt.Sprintf("row %d %q replaced by row %d %q", d.PreviousRow, d.PreviousShift, d.CurrentRow, d.CurrentShift))
	}
	for _, issue := range result.CodeIssues {
		add(SeverityWarning, KindCodeRow, fmt.Sprintf("row %d", issue.SourceRow),
			fmt.Sprintf("%q -> %q ignored: %s", issue.Description, issue.Code, issue.Reason))
	}
	for _, col := range reshaped.SkippedColumns {
		add(SeverityInfo, KindSkippedColumn, fmt.Sprintf("column %d", col.Index+2), "blank date header")
	}
	for _, class := range result.Classes {
		if class.Kind == schema.ColumnUnknown {
			add(SeverityInfo, KindUnfilledColumn, class.Header, "left empty")
		}
	}

	s.Counts = Counts{
		Names:        res.Stats(),
		Rows:         len(result.Rows),
		Records:      len(reshaped.Records),
		Dates:        len(reshaped.Dates),
		Excluded:     len(reshaped.Excluded),
		Duplicates:   len(reshaped.Duplicates),
		FormatErrors: len(reshaped.FormatErrors),
		Unmapped:     len(result.Unmapped),
		NotInRoster:  countNotInRoster(result),
	}

	sort.SliceStable(s.Findings, func(i, j int) bool {
		return s.Findings[i].Severity.rank() < s.Findings[j].Severity.rank()
	})
	for _, f := range s.Findings {
		switch f.Severity {
		case SeverityError:
			s.Counts.Severity.Error++
		case SeverityWarning:
			s.Counts.Severity.Warning++
		case SeverityInfo:
			s.Counts.Severity.Info++
		}
	}
	return s
}

// countNotInRoster counts indexed directory entries without any output row.
func countNotInRoster(result *engine.Result) int {
	if result.Index == nil {
		return 0
	}
	present := make(map[string]bool, len(result.Rows))
	for _, row := range result.Rows {
		present[row.ID] = true
	}
	n := 0
	for _, e := range result.Index.Entries {
		if !present[e.ID] {
			n++
		}
	}
	return n
}

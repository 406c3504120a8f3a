package schema

// DirectoryEntry is one employee from the directory sheet. It is the source of truth
// for identity and for the descriptive fields written to the output template.
type DirectoryEntry struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	NormalizedName string `json:"normalizedName"`
	Unit           string `json:"unit"`
	Manager        string `json:"manager"`
	SourceRow      int    `json:"sourceRow"`
}

// Option formats the entry the way the correction prompt lists it.
func (e DirectoryEntry) Option() string {
	return e.DisplayName + " (" + e.ID + ")"
}

// RosterRow is one line of the supervisor grid: a free-text name followed by one raw
// shift cell per date column.
type RosterRow struct {
	Name      string   `json:"name"`
	Shifts    []string `json:"shifts"`
	SourceRow int      `json:"sourceRow"`
}

// Shift returns the raw cell under column i, or "" when the row is short.
func (r RosterRow) Shift(i int) string {
	if i < 0 || i >= len(r.Shifts) {
		return ""
	}
	return r.Shifts[i]
}

// RosterGrid is the wide name x date shift grid as read from the workbook.
type RosterGrid struct {
	NameHeader  string      `json:"nameHeader"`
	DateHeaders []string    `json:"dateHeaders"`
	Rows        []RosterRow `json:"rows"`
}

// CodeRow is one line of the shift codification table.
type CodeRow struct {
	Description string `json:"description"`
	Code        string `json:"code"`
	SourceRow   int    `json:"sourceRow"`
}

// ShiftRecord is the atomic unit after reshaping: one shift for one employee on one
// date. Code is empty when Unmapped is set.
type ShiftRecord struct {
	ID        string `json:"id"`
	RawName   string `json:"rawName"`
	DateKey   string `json:"dateKey"`
	RawShift  string `json:"rawShift"`
	ShiftKey  string `json:"shiftKey"`
	Code      string `json:"code"`
	Unmapped  bool   `json:"unmapped"`
	SourceRow int    `json:"sourceRow"`
}

// TemplateColumn is one column of the output template. Header is written back
// verbatim; Probe is the raw cell value used to recognise date columns, which for
// spreadsheets may differ from the displayed header text.
type TemplateColumn struct {
	Header string `json:"header"`
	Probe  string `json:"probe"`
}

// ProbeValue returns Probe, or Header when no raw value was captured.
func (c TemplateColumn) ProbeValue() string {
	if c.Probe != "" {
		return c.Probe
	}
	return c.Header
}

package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingSheet and ErrMissingColumn classify structural problems.
var (
	ErrMissingSheet  = errors.New("sheet not found")
	ErrMissingColumn = errors.New("column not found")
	ErrMissingHeader = errors.New("header row not found")
)

// ErrTruncatedDateHeaders means the legacy .xls reader rendered date header cells
// as year and month only, so the columns' days are lost. LoadTemplate stops at it
// instead of trying the text formats.
var ErrTruncatedDateHeaders = errors.New("date headers were read as year.month; save the template as .xlsx or CSV")

// StructuralError reports a workbook that lacks an expected sheet, header row or
// column. It is fatal for the run.
type StructuralError struct {
	Sheet  string
	Column string
	Err    error
	Hint   string
}

func (e *StructuralError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("sheet %q", e.Sheet))
	if e.Column != "" {
		b.WriteString(fmt.Sprintf(", column %q", e.Column))
	}
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	if e.Hint != "" {
		b.WriteString(" (")
		b.WriteString(e.Hint)
		b.WriteString(")")
	}
	return b.String()
}

func (e *StructuralError) Unwrap() error { return e.Err }

// AttemptError is one failed way of reading the template.
type AttemptError struct {
	Format string `json:"format"`
	Err    error  `json:"-"`
}

func (e AttemptError) Error() string {
	return e.Format + ": " + e.Err.Error()
}

// TemplateError is returned when no attempt could read the template.
type TemplateError struct {
	Source   string
	Attempts []AttemptError
}

func (e *TemplateError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Error())
	}
	return fmt.Sprintf("template %q could not be read as spreadsheet or delimited text: %s",
		e.Source, strings.Join(parts, "; "))
}

// Unwrap exposes every attempt's cause to errors.Is and errors.As.
func (e *TemplateError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

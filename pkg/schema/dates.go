package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// DateKind tells apart real dates from labels and blanks.
type DateKind int

const (
	DateNone DateKind = iota
	DateValue
	DateLabel
)

// DateKey is the result of NormalizeDate. For DateValue, Value is "YYYY-MM-DD";
// for DateLabel it is the trimmed original text.
type DateKey struct {
	Value string   `json:"value"`
	Kind  DateKind `json:"kind"`
}

// IsDate reports whether the key is a calendar date.
func (k DateKey) IsDate() bool { return k.Kind == DateValue }

// IsNone reports whether the input was blank.
func (k DateKey) IsNone() bool { return k.Kind == DateNone }

const dateKeyLayout = "2006-01-02"

// Spreadsheet serials accepted as dates: 1950-01-01 through 2099-12-31. Smaller
// numbers are far more likely to be day numbers or counters than dates.
const (
	minDateSerial = 18264
	maxDateSerial = 73415
)

// Day-first layouts, tried in order.
var dateLayouts = []string{
	"2006-1-2",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006/1/2",
	"2/1/2006",
	"2/1/2006 15:04",
	"2/1/2006 15:04:05",
	"2-1-2006",
	"2-1-2006 15:04:05",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
}

// Layouts for text carrying month names, applied after Spanish names are translated.
var monthNameLayouts = []string{
	"2 Jan 2006",
	"2-Jan-2006",
	"2/Jan/2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"January 2, 2006",
	"January 2 2006",
}

var spanishMonths = map[string]string{
	"enero": "jan", "ene": "jan",
	"febrero": "feb",
	"marzo": "mar",
	"abril": "apr", "abr": "apr",
	"mayo": "may",
	"junio": "jun",
	"julio": "jul",
	"agosto": "aug", "ago": "aug",
	"septiembre": "sep", "setiembre": "sep", "set": "sep",
	"octubre": "oct",
	"noviembre": "nov",
	"diciembre": "dec", "dic": "dec",
}

var (
	wordRe        = regexp.MustCompile(`[a-z]+`)
	connectiveRe  = regexp.MustCompile(`\s+(de|del)\s+`)
	multiSpacesRe = regexp.MustCompile(`\s+`)
)

// NormalizeDate maps a date-like value to a canonical key:
//  1. nil or blank → DateNone
//  2. time.Time → its calendar date
//  3. a spreadsheet serial in the accepted range → its calendar date
//  4. text parsed day-first, with Spanish or English month names → its calendar date
//  5. anything else → DateLabel with the trimmed text
func NormalizeDate(v any) DateKey {
	switch val := v.(type) {
	case nil:
		return DateKey{}
	case time.Time:
		if val.IsZero() {
			return DateKey{}
		}
		return DateKey{Value: val.Format(dateKeyLayout), Kind: DateValue}
	case *time.Time:
		if val == nil {
			return DateKey{}
		}
		return NormalizeDate(*val)
	case float64:
		return serialKey(val, strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		return serialKey(float64(val), strconv.Itoa(val))
	case int64:
		return serialKey(float64(val), strconv.FormatInt(val, 10))
	case string:
		return normalizeDateText(val)
	case fmt.Stringer:
		return normalizeDateText(val.String())
	default:
		return normalizeDateText(fmt.Sprint(val))
	}
}

func normalizeDateText(raw string) DateKey {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DateKey{}
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return serialKey(f, s)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateKey{Value: t.Format(dateKeyLayout), Kind: DateValue}
		}
	}

	if named, ok := translateMonthNames(s); ok {
		for _, layout := range monthNameLayouts {
			if t, err := time.Parse(layout, named); err == nil {
				return DateKey{Value: t.Format(dateKeyLayout), Kind: DateValue}
			}
		}
	}

	return DateKey{Value: s, Kind: DateLabel}
}

// serialKey converts a 1900-system spreadsheet serial; out-of-range or fractional
// garbage stays a label.
func serialKey(serial float64, text string) DateKey {
	if serial < minDateSerial || serial > maxDateSerial {
		return DateKey{Value: strings.TrimSpace(text), Kind: DateLabel}
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return DateKey{Value: strings.TrimSpace(text), Kind: DateLabel}
	}
	return DateKey{Value: t.Format(dateKeyLayout), Kind: DateValue}
}

// translateMonthNames lowercases s, drops accents and "de"/"del" connectives and
// replaces Spanish month names with English abbreviations. ok is false when s has no
// letters at all.
func translateMonthNames(s string) (string, bool) {
	lower := strings.ToLower(stripDiacritics(s))
	if !wordRe.MatchString(lower) {
		return "", false
	}
	lower = strings.TrimSpace(connectiveRe.ReplaceAllString(" "+lower+" ", " "))
	lower = strings.TrimSuffix(lower, ".")
	lower = wordRe.ReplaceAllStringFunc(lower, func(w string) string {
		if en, ok := spanishMonths[w]; ok {
			return en
		}
		return w
	})
	return strings.TrimSpace(multiSpacesRe.ReplaceAllString(lower, " ")), true
}

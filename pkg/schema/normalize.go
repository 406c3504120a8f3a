package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Shift keys produced by ShiftNormalizer.
const (
	RestMarker  = "L"
	FormatError = "ERROR_FORMATO"

	// RestCode is the output code always assigned to RestMarker.
	RestCode = "L"

	DefaultRestKeyword = "LIBRE"
)

var timeTokenRe = regexp.MustCompile(`(\d{1,2}):(\d{2})`)

// NormalizeText builds the comparison key for free text:
//  1. NFKD decompose and drop combining marks and any remaining non-ASCII rune
//  2. Uppercase
//  3. Trim surrounding whitespace
//
// The key is never shown to users.
func NormalizeText(s string) string {
	if s == "" {
		return s
	}
	return strings.TrimSpace(strings.ToUpper(stripDiacritics(s)))
}

// stripDiacritics decomposes s into NFKD form and keeps only ASCII runes, so "Ñ"
// becomes "N" and "ß" disappears.
func stripDiacritics(s string) string {
	decomposed := norm.NFKD.String(s)
	var result strings.Builder
	result.Grow(len(decomposed))

	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) || r > unicode.MaxASCII {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}

// Tokens splits the normalized form of s on anything that is not a letter or digit,
// so "PEREZ, JUAN" and "Juan Pérez" share the same tokens.
func Tokens(s string) []string {
	return strings.FieldsFunc(NormalizeText(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// ShiftNormalizer maps free-text shift descriptions to shift keys. The same value must
// be used for roster cells and codification rows so the keys are comparable.
type ShiftNormalizer struct {
	restKeyword string
}

// NewShiftNormalizer returns a normalizer treating any text that contains restKeyword
// as a rest day. An empty keyword falls back to DefaultRestKeyword.
func NewShiftNormalizer(restKeyword string) ShiftNormalizer {
	kw := NormalizeText(restKeyword)
	if kw == "" {
		kw = DefaultRestKeyword
	}
	return ShiftNormalizer{restKeyword: kw}
}

// Normalize returns RestMarker, a "HH:MM-HH:MM" key or FormatError.
// The first time token is the start and the last one the end; anything else in the
// text, including other numbers, is ignored.
func (n ShiftNormalizer) Normalize(raw string) string {
	s := NormalizeText(raw)
	if s == "" || strings.Contains(s, n.keyword()) {
		return RestMarker
	}

	matches := timeTokenRe.FindAllStringSubmatch(s, -1)
	if len(matches) < 2 {
		return FormatError
	}
	first, last := matches[0], matches[len(matches)-1]
	return padTime(first[1], first[2]) + "-" + padTime(last[1], last[2])
}

func (n ShiftNormalizer) keyword() string {
	if n.restKeyword == "" {
		return DefaultRestKeyword
	}
	return n.restKeyword
}

// NormalizeShift normalizes raw with the default rest keyword.
func NormalizeShift(raw string) string {
	return NewShiftNormalizer(DefaultRestKeyword).Normalize(raw)
}

func padTime(hours, minutes string) string {
	h, err := strconv.Atoi(hours)
	if err != nil {
		return hours + ":" + minutes
	}
	return fmt.Sprintf("%02d:%s", h, minutes)
}

package contact

import (
	"errors"
	"strings"
)

var (
	ErrTooShort       = errors.New("phone number has fewer than 10 digits")
	ErrUnknownCountry = errors.New("phone number has no recognized country prefix")
)

// Country describes one entry of the static country-code table: a display
// name and the total digit count (country code included) a well-formed
// number from that country is expected to have.
type Country struct {
	Name   string
	Length int
}

var countries = map[string]Country{
	"1":   {Name: "USA/Canada", Length: 11},
	"52":  {Name: "Mexico", Length: 12},
	"57":  {Name: "Colombia", Length: 12},
	"58":  {Name: "Venezuela", Length: 12},
	"54":  {Name: "Argentina", Length: 13},
	"55":  {Name: "Brazil", Length: 13},
	"56":  {Name: "Chile", Length: 11},
	"51":  {Name: "Peru", Length: 11},
	"593": {Name: "Ecuador", Length: 12},
	"507": {Name: "Panama", Length: 11},
	"34":  {Name: "Spain", Length: 11},
	"33":  {Name: "France", Length: 12},
	"44":  {Name: "United Kingdom", Length: 13},
	"49":  {Name: "Germany", Length: 13},
	"39":  {Name: "Italy", Length: 13},
}

// Formatted is the canonical human-readable representation of a phone number.
type Formatted struct {
	Display     string
	CountryCode string
	CountryName string
	// LengthSuspect is set when the digit count deviates from the expected
	// length for the country by more than one. Warn-only, never a rejection.
	LengthSuspect bool
}

// Digits strips every non-digit character from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DetectCountryCode finds the country code of a digit string by longest-prefix
// match against the static table, trying 3-digit, then 2-digit, then 1-digit
// prefixes. Longest wins so "593..." is Ecuador, never Venezuela + junk.
// Returns "" when no prefix matches.
func DetectCountryCode(digits string) string {
	for l := 3; l >= 1; l-- {
		if len(digits) < l {
			continue
		}
		if _, ok := countries[digits[:l]]; ok {
			return digits[:l]
		}
	}
	return ""
}

// Format produces the canonical display form of a raw phone number.
// Non-digits are stripped first. Fewer than 10 remaining digits is ErrTooShort,
// an unmatched country prefix is ErrUnknownCountry. Callers must treat both as
// non-fatal and fall back to a bare "+<digits>" representation.
func Format(raw string) (Formatted, error) {
	digits := Digits(raw)
	if len(digits) < 10 {
		return Formatted{}, ErrTooShort
	}

	code := DetectCountryCode(digits)
	if code == "" {
		return Formatted{}, ErrUnknownCountry
	}
	country := countries[code]

	suspect := len(digits) < country.Length-1 || len(digits) > country.Length+1

	return Formatted{
		Display:       groupByCountry(digits, code),
		CountryCode:   code,
		CountryName:   country.Name,
		LengthSuspect: suspect,
	}, nil
}

// seg returns digits[from:to] clamped to the string bounds, so country
// grouping rules stay safe on off-length numbers.
func seg(digits string, from, to int) string {
	if from > len(digits) {
		from = len(digits)
	}
	if to > len(digits) {
		to = len(digits)
	}
	return digits[from:to]
}

func groupByCountry(digits string, code string) string {
	switch code {
	case "1":
		return "+1 " + seg(digits, 1, 4) + " " + seg(digits, 4, 7) + " " + seg(digits, 7, 11)
	case "52":
		return "+52 " + seg(digits, 2, 4) + " " + seg(digits, 4, 8) + " " + seg(digits, 8, 12)
	case "57":
		return "+57 " + seg(digits, 2, 5) + " " + seg(digits, 5, 8) + " " + seg(digits, 8, 12)
	case "44":
		return "+44 " + seg(digits, 2, 6) + " " + seg(digits, 6, 12)
	case "34":
		return "+34 " + seg(digits, 2, 5) + " " + seg(digits, 5, 8) + " " + seg(digits, 8, 11)
	case "51":
		return "+51 " + seg(digits, 2, 5) + " " + seg(digits, 5, 8) + " " + seg(digits, 8, 11)
	case "507":
		return "+507 " + seg(digits, 3, 7) + " " + seg(digits, 7, 11)
	default:
		// Generic grouping: split the national part into two halves.
		rest := digits[len(code):]
		if len(rest) >= 6 {
			mid := len(rest) / 2
			return "+" + code + " " + rest[:mid] + " " + rest[mid:]
		}
		return "+" + code + " " + rest
	}
}

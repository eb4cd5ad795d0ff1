// Package normalize turns the heterogeneous textual amounts and dates found in
// fund report tables into canonical decimal and date values.
package normalize

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AmountScale is the fixed scale for all monetary values.
const AmountScale = 2

// NormalizationError reports a cell that could not be parsed. It always
// carries the offending raw string so row-level errors stay diagnosable.
type NormalizationError struct {
	Field  string
	Raw    string
	Reason string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot parse %s %q: %s", e.Field, e.Raw, e.Reason)
}

var (
	magnitudeSuffixRe = regexp.MustCompile(`\d\.?\d*\s*[MKBmkb]\b`)
	numericRe         = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
)

// ParseAmount parses a currency amount string into a decimal with scale 2.
// Currency symbols, thousands separators and surrounding whitespace are
// stripped; parenthesized values are negative. Abbreviated magnitudes like
// "1.2M" or "500K" are rejected outright: silently scaling a guess at the
// suffix would corrupt every metric downstream.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, &NormalizationError{Field: "amount", Raw: raw, Reason: "empty"}
	}
	if magnitudeSuffixRe.MatchString(s) {
		return decimal.Zero, &NormalizationError{Field: "amount", Raw: raw, Reason: "abbreviated magnitude suffix"}
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	for _, sym := range []string{"$", "€", "£", "USD", "usd"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.HasPrefix(s, "-") {
		negative = true
		s = s[1:]
	}

	if !numericRe.MatchString(s) {
		return decimal.Zero, &NormalizationError{Field: "amount", Raw: raw, Reason: "not a number"}
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &NormalizationError{Field: "amount", Raw: raw, Reason: err.Error()}
	}
	if negative {
		d = d.Neg()
	}
	return d.Round(AmountScale), nil
}

// dateLayouts is the fixed priority order for date parsing. ISO comes first;
// ambiguous numeric dates fall to the US layout before day-first, so
// "03/04/2024" is always March 4. Day-first only wins when the first
// component cannot be a month (see ParseDate).
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"01-02-2006",
	"1/2/2006",
	"1-2-2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

var dayFirstRe = regexp.MustCompile(`^(\d{1,2})([/-])(\d{1,2})[/-](\d{4})$`)

// ParseDate parses a date string against a fixed, documented layout priority.
// The same input always yields the same date: no per-row disambiguation.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, &NormalizationError{Field: "date", Raw: raw, Reason: "empty"}
	}

	// A leading component above 12 can only be a day, so day-first is the
	// single unambiguous reading and takes precedence over the layout list.
	if m := dayFirstRe.FindStringSubmatch(s); m != nil {
		if first := mustAtoi(m[1]); first > 12 {
			// Non-padded layouts accept both "15/1/2024" and "15/01/2024".
			layout := "2/1/2006"
			if m[2] == "-" {
				layout = "2-1-2006"
			}
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &NormalizationError{Field: "date", Raw: raw, Reason: "no known date format matched"}
}

func mustAtoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

// Money parsing and formatting.
//
// Amounts travel as decimal unit values on the wire (the JSON API and
// the CSV/parse inputs all speak rupee-style decimals) but are stored
// and summed as integer cents to keep aggregation exact.
package core

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// ParseAmountToCents converts a decimal string to signed cents with
// half-up rounding on the third decimal place.
//
// Examples:
//
//	ParseAmountToCents("55") -> 5500, nil
//	ParseAmountToCents("12.345") -> 1234, nil
//	ParseAmountToCents("-3.50") -> -350, nil
func ParseAmountToCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	if intPart == "0" && fracPart == "" && !strings.Contains(s, "0") {
		return 0, ErrInvalidAmount
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	const maxSafe = (1<<63 - 1) / 100
	if iv > maxSafe {
		return 0, ErrInvalidAmount
	}
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return cents, nil
}

// Units returns the decimal unit value for display and wire formats.
// Use cents for calculations.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// MarshalJSON emits the amount as a plain decimal number (55, 12.34).
func (m Money) MarshalJSON() ([]byte, error) {
	if m.Cents%100 == 0 {
		return []byte(strconv.FormatInt(m.Cents/100, 10)), nil
	}
	return []byte(strconv.FormatFloat(m.Units(), 'f', 2, 64)), nil
}

// UnmarshalJSON accepts a decimal number or a numeric string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		m.Cents = 0
		return nil
	}
	cents, err := ParseAmountToCents(s)
	if err != nil {
		// Scientific notation and other float forms fall back here.
		var f float64
		if jerr := json.Unmarshal(b, &f); jerr != nil {
			return err
		}
		cents = int64(f*100 + copysignHalf(f))
	}
	m.Cents = cents
	return nil
}

func copysignHalf(f float64) float64 {
	if f < 0 {
		return -0.5
	}
	return 0.5
}

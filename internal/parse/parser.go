// Package parse extracts a best-effort transaction draft from a pasted
// payment notification string.
package parse

import (
	"errors"
	"regexp"
	"time"

	"spendtrack/internal/core"
)

// ErrAmountNotFound is returned when no currency-prefixed amount can be
// located in the text. No draft is produced in that case.
var ErrAmountNotFound = errors.New("no amount found in text")

var (
	// Currency-prefixed decimals: "Rs 55", "rs. 120.50", "INR 40", "₹99".
	amountRe = regexp.MustCompile(`(?i)(?:rs\.?|inr|₹)\s*(\d+(?:\.\d+)?)`)
	// DD-MM-YYYY or YYYY-MM-DD, with dash or slash separators.
	dateRe = regexp.MustCompile(`\d{2}[-/]\d{2}[-/]\d{4}|\d{4}[-/]\d{2}[-/]\d{2}`)
)

const titleLimit = 60

// Draft is a parsed transaction ready for storage, before an owner is
// attached.
type Draft struct {
	Title         string
	Amount        core.Money
	Category      string
	Date          core.Date
	PaymentMethod string
}

// Notification parses raw notification text into a Draft.
//
// The first currency-prefixed number becomes the amount; without one
// the parse fails with ErrAmountNotFound. The first recognizable date
// becomes the transaction date, defaulting to now's calendar day. The
// payment method is inferred from the whole text, and the title is the
// leading 60 characters of the input, verbatim.
func Notification(text string, now time.Time) (Draft, error) {
	amt := amountRe.FindStringSubmatch(text)
	if amt == nil {
		return Draft{}, ErrAmountNotFound
	}
	cents, err := core.ParseAmountToCents(amt[1])
	if err != nil {
		return Draft{}, ErrAmountNotFound
	}

	date := core.DateOf(now)
	if m := dateRe.FindString(text); m != "" {
		if d, err := core.ParseDate(m); err == nil {
			date = d
		}
	}

	title := text
	if runes := []rune(title); len(runes) > titleLimit {
		title = string(runes[:titleLimit])
	}

	return Draft{
		Title:         title,
		Amount:        core.Money{Cents: cents},
		Category:      core.ParsedCategory,
		Date:          date,
		PaymentMethod: core.InferMethod(text),
	}, nil
}

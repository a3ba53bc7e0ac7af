package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Date is a calendar day. Transactions carry no time-of-day: every
	// ingestion path truncates to the day before storing, and all
	// aggregation buckets by it.
	Date struct {
		time.Time
	}

	// Money is a signed amount in cents. Negative amounts (refunds,
	// reversals) are representable; only zero is rejected by validation.
	Money struct {
		Cents int64
	}

	// Transaction is one recorded spend event. Records are insert-only:
	// there is no update or delete operation.
	Transaction struct {
		ID            int64  `json:"id"`
		Owner         string `json:"-"`
		Title         string `json:"title"`
		Amount        Money  `json:"amount"`
		Category      string `json:"category"`
		Date          Date   `json:"date"`
		PaymentMethod string `json:"paymentMethod"`
		AIGenerated   bool   `json:"aiGenerated"`
	}

	// User is an account that owns transactions.
	User struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Email        string    `json:"email"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"createdAt"`
	}
)

const (
	DefaultCategory  = "Other"
	ImportedCategory = "Imported"
	ParsedCategory   = "UPI Payment"
)

var (
	ErrEmptyOwner    = errors.New("empty owner")
	ErrEmptyTitle    = errors.New("empty title")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrMissingDate   = errors.New("missing date")
)

// NewDate creates a Date from year, month, day (UTC).
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD or DD-MM-YYYY string, accepting slashes
// as separators. Used by every ingestion path so imported and parsed
// rows agree on the stored precision.
func ParseDate(s string) (Date, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "/", "-")
	layout := "02-01-2006"
	if len(s) >= 5 && s[4] == '-' {
		layout = "2006-01-02"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Label formats the date as DD/MM/YYYY, the display form used by the
// daily series and the biggest-day summary clause.
func (d Date) Label() string {
	return d.Format("02/01/2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrMissingDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents == 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Owner) == "" {
		return ErrEmptyOwner
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	return t.Date.Validate()
}

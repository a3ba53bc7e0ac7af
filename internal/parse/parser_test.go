package parse

import (
	"errors"
	"strings"
	"testing"
	"time"

	"spendtrack/internal/core"
)

var testNow = time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

func TestNotification(t *testing.T) {
	draft, err := Notification("Rs 55.00 paid to Zomato via PhonePe UPI on 04-12-2025", testNow)
	if err != nil {
		t.Fatalf("Notification: %v", err)
	}
	if draft.Amount.Cents != 5500 {
		t.Errorf("amount = %d cents, want 5500", draft.Amount.Cents)
	}
	if draft.PaymentMethod != core.MethodPhonePe {
		t.Errorf("method = %s, want %s", draft.PaymentMethod, core.MethodPhonePe)
	}
	if draft.Date.String() != "2025-12-04" {
		t.Errorf("date = %s, want 2025-12-04", draft.Date)
	}
	if draft.Category != core.ParsedCategory {
		t.Errorf("category = %s, want %s", draft.Category, core.ParsedCategory)
	}
}

func TestNotificationAmountVariants(t *testing.T) {
	tests := []struct {
		text string
		want int64
	}{
		{"rs. 120.50 debited", 12050},
		{"INR 40 sent", 4000},
		{"₹99 paid", 9900},
		{"RS200 no space", 20000},
		// First match wins when several amounts appear.
		{"Rs 10 then Rs 20", 1000},
	}
	for _, tt := range tests {
		draft, err := Notification(tt.text, testNow)
		if err != nil {
			t.Fatalf("Notification(%q): %v", tt.text, err)
		}
		if draft.Amount.Cents != tt.want {
			t.Errorf("Notification(%q) amount = %d, want %d", tt.text, draft.Amount.Cents, tt.want)
		}
	}
}

func TestNotificationNoAmount(t *testing.T) {
	_, err := Notification("paid someone for lunch", testNow)
	if !errors.Is(err, ErrAmountNotFound) {
		t.Fatalf("err = %v, want ErrAmountNotFound", err)
	}
	// A bare number without a currency prefix is not an amount.
	_, err = Notification("sent 500 to mom", testNow)
	if !errors.Is(err, ErrAmountNotFound) {
		t.Fatalf("bare number err = %v, want ErrAmountNotFound", err)
	}
}

func TestNotificationDateDefaultsToToday(t *testing.T) {
	draft, err := Notification("Rs 55 paid to Zomato", testNow)
	if err != nil {
		t.Fatalf("Notification: %v", err)
	}
	if draft.Date.String() != "2026-03-15" {
		t.Errorf("date = %s, want 2026-03-15", draft.Date)
	}
}

func TestNotificationTitleTruncated(t *testing.T) {
	long := "Rs 55 " + strings.Repeat("x", 100)
	draft, err := Notification(long, testNow)
	if err != nil {
		t.Fatalf("Notification: %v", err)
	}
	if got := len([]rune(draft.Title)); got != 60 {
		t.Errorf("title length = %d runes, want 60", got)
	}
	if !strings.HasPrefix(long, draft.Title) {
		t.Error("title is not a prefix of the input")
	}
}

func TestNotificationUnparseableDateFallsBack(t *testing.T) {
	draft, err := Notification("Rs 55 on 2025-13-04", testNow)
	if err != nil {
		t.Fatalf("Notification: %v", err)
	}
	// Month 13 does not parse; today's day is used instead.
	if draft.Date.String() != "2026-03-15" {
		t.Errorf("date = %s, want 2026-03-15", draft.Date)
	}
}

package core

import "strings"

// Payment method tags. Free-text input from the import and parse paths
// is uppercased but deliberately not checked against this set: an
// unrecognized app name passes through verbatim on every ingestion
// path, while inference below only ever yields one of these values.
const (
	MethodPhonePe   = "PHONEPE"
	MethodGooglePay = "GOOGLE_PAY"
	MethodPaytm     = "PAYTM"
	MethodUPIOther  = "UPI_OTHER"
	MethodOther     = "OTHER"
)

// NormalizeMethod uppercases and trims a payment method tag.
func NormalizeMethod(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// InferMethod detects a payment method from free text. Rules are
// checked in precedence order and the first match wins, so text
// containing both "paytm" and "upi" infers PAYTM.
func InferMethod(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "phonepe"):
		return MethodPhonePe
	case strings.Contains(t, "google pay"), strings.Contains(t, "gpay"):
		return MethodGooglePay
	case strings.Contains(t, "paytm"):
		return MethodPaytm
	case strings.Contains(t, "upi"):
		return MethodUPIOther
	default:
		return MethodOther
	}
}

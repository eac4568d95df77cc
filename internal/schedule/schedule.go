// Package schedule owns letter delivery scheduling: the set of valid delivery
// interval tokens, conversion of a token into a concrete target date, and the
// seven-day minimum rule applied whenever a delivery date is set or changed.
//
// Everything here is a pure function of its inputs (including "now"), so the
// rules are unit-testable without a clock or a live store.
package schedule

import (
	"time"

	"github.com/futureletters/backend/internal/apperr"
)

// MinLeadDays is the minimum number of days between "now" and a letter's
// delivery date.
const MinLeadDays = 7

// ErrDateTooSoon is the user-facing message for a rejected delivery date.
const ErrDateTooSoon = "Delivery date must be at least one week in the future."

// ValidIntervals is the closed set of delivery interval tokens a letter may
// carry.
var ValidIntervals = map[string]bool{
	"1w": true,
	"1m": true,
	"3m": true,
	"6m": true,
	"1y": true,
	"3y": true,
	"5y": true,
}

// ValidInterval reports whether token is a member of ValidIntervals.
func ValidInterval(token string) bool { return ValidIntervals[token] }

// ComputeDeliveryDate converts an interval token into a concrete delivery
// date relative to reference. The result is normalized to UTC midnight. An
// unknown token yields the zero time.
func ComputeDeliveryDate(token string, reference time.Time) time.Time {
	ref := MidnightUTC(reference)
	switch token {
	case "1w":
		return ref.AddDate(0, 0, 7)
	case "1m":
		return ref.AddDate(0, 1, 0)
	case "3m":
		return ref.AddDate(0, 3, 0)
	case "6m":
		return ref.AddDate(0, 6, 0)
	case "1y":
		return ref.AddDate(1, 0, 0)
	case "3y":
		return ref.AddDate(3, 0, 0)
	case "5y":
		return ref.AddDate(5, 0, 0)
	}
	return time.Time{}
}

// MidnightUTC truncates t to UTC midnight, dropping the time of day so that
// date comparisons are independent of timezone and clock skew.
func MidnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidateDeliveryDate accepts value iff its UTC midnight is at least
// MinLeadDays after the UTC midnight of now (boundary inclusive). On
// rejection it returns a Validation error carrying a deliveredAt field
// message.
//
// The gate fires only when a letter is created or its delivery date itself is
// being changed; callers must not invoke it for other updates (flipping
// IsDelivered, appending reflections, and so on).
func ValidateDeliveryDate(value, now time.Time) error {
	minimum := MidnightUTC(now).AddDate(0, 0, MinLeadDays)
	if MidnightUTC(value).Before(minimum) {
		return apperr.Validation(ErrDateTooSoon, map[string]string{
			"deliveredAt": ErrDateTooSoon,
		})
	}
	return nil
}

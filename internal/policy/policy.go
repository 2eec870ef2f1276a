// Package policy decides whether an appointment may still be cancelled or
// rescheduled, and at what cost, given the current time.
package policy

import (
	"fmt"
	"time"

	"booking-service/internal/schedule"

	"github.com/shopspring/decimal"
)

type Window string

const (
	WindowLocked       Window = "locked"
	WindowGrace        Window = "grace"
	WindowFee          Window = "fee"
	WindowFree         Window = "free"
	WindowUndetermined Window = "undetermined"
)

type Rules struct {
	// GraceWindow is the band on either side of the appointment in which
	// changes are free.
	GraceWindow time.Duration
	// FeeWindow bounds the band (GraceWindow, FeeWindow) in which a reschedule
	// costs RescheduleFee. Both boundaries belong to the free side.
	FeeWindow     time.Duration
	RescheduleFee decimal.Decimal
	Currency      string
}

func DefaultRules() Rules {
	return Rules{
		GraceWindow:   time.Hour,
		FeeWindow:     4 * time.Hour,
		RescheduleFee: decimal.NewFromInt(5),
		Currency:      "EUR",
	}
}

type Status struct {
	CanCancel            bool
	CanReschedule        bool
	RequiresFee          bool
	FeeAmount            decimal.Decimal
	Currency             string
	HoursRemaining       float64
	TimeUntilAppointment string
	PolicyMessage        string
	Window               Window
}

type Evaluator struct {
	rules Rules
	loc   *time.Location
}

// NewEvaluator interprets appointment dates and times as wall-clock values in loc.
func NewEvaluator(rules Rules, loc *time.Location) (*Evaluator, error) {
	const op = "policy.NewEvaluator"

	if rules.GraceWindow < 0 {
		return nil, fmt.Errorf("%s: grace window must not be negative", op)
	}
	if rules.FeeWindow < rules.GraceWindow {
		return nil, fmt.Errorf("%s: fee window %s is shorter than grace window %s", op, rules.FeeWindow, rules.GraceWindow)
	}
	if rules.RescheduleFee.IsNegative() {
		return nil, fmt.Errorf("%s: reschedule fee must not be negative", op)
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Evaluator{rules: rules, loc: loc}, nil
}

func (e *Evaluator) Location() *time.Location {
	return e.loc
}

func (e *Evaluator) Evaluate(date, clock string, now time.Time) Status {
	at, err := schedule.At(date, clock, e.loc)
	if err != nil {
		return Status{
			FeeAmount:     decimal.Zero,
			Currency:      e.rules.Currency,
			PolicyMessage: "The cancellation policy for this appointment could not be determined. Please contact the practice.",
			Window:        WindowUndetermined,
		}
	}

	until := at.Sub(now)
	st := Status{
		FeeAmount:            decimal.Zero,
		Currency:             e.rules.Currency,
		HoursRemaining:       until.Hours(),
		TimeUntilAppointment: FormatDuration(until),
	}

	switch {
	case until < -e.rules.GraceWindow:
		st.Window = WindowLocked
		st.PolicyMessage = "This appointment has already taken place and can no longer be cancelled or rescheduled."
	case until <= e.rules.GraceWindow:
		st.Window = WindowGrace
		st.CanCancel = true
		st.CanReschedule = true
		st.PolicyMessage = fmt.Sprintf("Your appointment is within %s of now. You can cancel or reschedule free of charge.",
			FormatDuration(e.rules.GraceWindow))
	case until < e.rules.FeeWindow:
		st.Window = WindowFee
		st.CanCancel = true
		st.CanReschedule = true
		st.RequiresFee = e.rules.RescheduleFee.IsPositive()
		st.FeeAmount = e.rules.RescheduleFee
		if st.RequiresFee {
			st.PolicyMessage = fmt.Sprintf("Your appointment is in %s. Cancellation is free, rescheduling carries an administrative fee of %s %s.",
				st.TimeUntilAppointment, e.rules.RescheduleFee.StringFixed(2), e.rules.Currency)
		} else {
			st.PolicyMessage = fmt.Sprintf("Your appointment is in %s. You can cancel or reschedule free of charge.",
				st.TimeUntilAppointment)
		}
	default:
		st.Window = WindowFree
		st.CanCancel = true
		st.CanReschedule = true
		st.PolicyMessage = fmt.Sprintf("Your appointment is in %s. You can cancel or reschedule free of charge.",
			st.TimeUntilAppointment)
	}

	return st
}

// FormatDuration renders d for display: minutes under an hour, hours and
// minutes under a day, days and hours beyond. Negative durations read "... ago".
func FormatDuration(d time.Duration) string {
	suffix := ""
	if d < 0 {
		d = -d
		suffix = " ago"
	}

	total := int64(d / time.Minute)
	if total < 1 {
		return "less than a minute" + suffix
	}

	days := total / (24 * 60)
	hours := (total % (24 * 60)) / 60
	minutes := total % 60

	var s string
	switch {
	case total < 60:
		s = plural(minutes, "minute")
	case days == 0:
		s = plural(hours, "hour")
		if minutes > 0 {
			s += " " + plural(minutes, "minute")
		}
	default:
		s = plural(days, "day")
		if hours > 0 {
			s += " " + plural(hours, "hour")
		}
	}

	return s + suffix
}

func plural(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

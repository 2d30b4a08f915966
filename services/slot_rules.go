package services

import (
	"court-reservation/models"
	"fmt"
	"time"
)

const (
	MinSlotDuration = time.Hour
	MaxSlotDuration = 8 * time.Hour

	// Courts take bookings between 06:00 and 23:00; a slot may end at
	// exactly 23:00 but not later.
	OpeningHour = 6
	ClosingHour = 23

	// MaxAdvanceBooking is how far ahead a slot may start.
	MaxAdvanceBooking = 30 * 24 * time.Hour
)

// ValidateSlot checks a candidate time range against the booking rules.
// Checks run in a fixed order and the first broken rule wins, so the
// caller always gets the most fundamental violation. Returns nil when
// the slot is acceptable, otherwise a *ValidationError naming the rule.
func ValidateSlot(start, end, now time.Time) error {
	if !start.After(now) {
		return &ValidationError{
			Rule:   RuleStartInPast,
			Reason: "start time must be in the future",
		}
	}

	if !end.After(start) {
		return &ValidationError{
			Rule:   RuleEndBeforeStart,
			Reason: "end time must be after start time",
		}
	}

	duration := end.Sub(start)
	if duration < MinSlotDuration {
		return &ValidationError{
			Rule:   RuleTooShort,
			Reason: "minimum reservation duration is 1 hour",
		}
	}
	if duration > MaxSlotDuration {
		return &ValidationError{
			Rule:   RuleTooLong,
			Reason: "maximum reservation duration is 8 hours",
		}
	}

	if start.Hour() < OpeningHour || end.Hour() > ClosingHour ||
		(end.Hour() == ClosingHour && end.Minute() > 0) {
		return &ValidationError{
			Rule:   RuleOutsideHours,
			Reason: fmt.Sprintf("operating hours are %02d:00 to %02d:00", OpeningHour, ClosingHour),
		}
	}

	if start.Minute() != 0 || start.Second() != 0 ||
		end.Minute() != 0 || end.Second() != 0 {
		return &ValidationError{
			Rule:   RuleNotHourAligned,
			Reason: "reservations must start and end on the hour (e.g. 14:00, 15:00)",
		}
	}

	if start.Sub(now) > MaxAdvanceBooking {
		return &ValidationError{
			Rule:   RuleTooFarAhead,
			Reason: "reservations can be made at most 30 days in advance",
		}
	}

	return nil
}

func validateNotes(notes string) error {
	if len(notes) > models.MaxNotesLen {
		return &ValidationError{
			Rule:   RuleNotesTooLong,
			Reason: fmt.Sprintf("notes must be at most %d characters", models.MaxNotesLen),
		}
	}
	return nil
}

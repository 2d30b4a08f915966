package services

import "fmt"

// Business failures carry their own types so handlers can map them to
// precise responses without string matching. Anything else bubbling out
// of the stores is treated as an infrastructure error.

type NotFoundError struct {
	Kind string // "court", "reservation", "user"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return e.Reason
}

// SlotRule identifies which booking rule a candidate time range broke.
type SlotRule string

const (
	RuleStartInPast    SlotRule = "start_in_past"
	RuleEndBeforeStart SlotRule = "end_before_start"
	RuleTooShort       SlotRule = "too_short"
	RuleTooLong        SlotRule = "too_long"
	RuleOutsideHours   SlotRule = "outside_operating_hours"
	RuleNotHourAligned SlotRule = "not_hour_aligned"
	RuleTooFarAhead    SlotRule = "too_far_ahead"
	RuleNotesTooLong   SlotRule = "notes_too_long"
	RuleInvalidInput   SlotRule = "invalid_input"
)

type ValidationError struct {
	Rule   SlotRule
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ConflictError reports a slot that is not free. ConflictingID names
// the reservation holding it when known; lock contention surfaces
// without one.
type ConflictError struct {
	ConflictingID string
}

func (e *ConflictError) Error() string {
	if e.ConflictingID == "" {
		return "time slot is currently being reserved by another request"
	}
	return fmt.Sprintf("time slot already reserved, conflicts with reservation %s", e.ConflictingID)
}

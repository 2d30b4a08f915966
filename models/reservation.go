package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus is a closed set; the booking flow only ever writes
// Confirmed and Cancelled. Pending and Completed are reserved for a
// later confirmation/settlement workflow.
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "Pending"
	StatusConfirmed ReservationStatus = "Confirmed"
	StatusCancelled ReservationStatus = "Cancelled"
	StatusCompleted ReservationStatus = "Completed"
)

// Terminal reports whether the status admits no further changes
// through update or cancel.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// MaxNotesLen caps the free-text notes on a reservation.
const MaxNotesLen = 500

type Reservation struct {
	ID                 string            `json:"id" db:"id"`
	UserID             string            `json:"user_id" db:"user_id"`
	CourtID            string            `json:"court_id" db:"court_id"`
	Reference          string            `json:"reference" db:"reference"`
	StartTime          time.Time         `json:"start_time" db:"start_time"`
	EndTime            time.Time         `json:"end_time" db:"end_time"`
	TotalPrice         decimal.Decimal   `json:"total_price" db:"total_price"`
	Status             ReservationStatus `json:"status" db:"status"`
	Notes              string            `json:"notes,omitempty" db:"notes"`
	CreatedAt          time.Time         `json:"created_at" db:"created_at"`
	CancelledAt        *time.Time        `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CancellationReason string            `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
}

// Overlaps reports whether the reservation's [start, end) range
// intersects the given half-open range. Back-to-back slots do not
// overlap.
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && r.EndTime.After(start)
}

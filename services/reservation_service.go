package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"court-reservation/models"
	"court-reservation/utils"

	"github.com/google/uuid"
)

// CancellationLeadTime is the minimum interval between now and a
// reservation's start for cancellation to be allowed. Exactly the lead
// time is still accepted; anything shorter is rejected.
const CancellationLeadTime = 2 * time.Hour

// ErrSlotLocked is returned by a SlotLocker when another booking
// attempt currently holds the court.
var ErrSlotLocked = errors.New("court slot lock is held")

// CourtStore is the durable view of courts the engine needs. A nil
// court with a nil error means the record does not exist.
type CourtStore interface {
	GetByID(ctx context.Context, id string) (*models.Court, error)
	List(ctx context.Context, activeOnly bool) ([]models.Court, error)
	ListByType(ctx context.Context, courtType string) ([]models.Court, error)
	Create(ctx context.Context, court *models.Court) error
	Update(ctx context.Context, court *models.Court) error
	Delete(ctx context.Context, id string) error
}

// ReservationStore persists reservations. CreateConfirmed and
// UpdateSlot must re-run the conflict check inside the same atomic
// unit as the write and return a *ConflictError when it fails, so two
// racing requests can never both commit overlapping slots.
type ReservationStore interface {
	GetByID(ctx context.Context, id string) (*models.Reservation, error)
	ListAll(ctx context.Context) ([]models.Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]models.Reservation, error)
	ListByCourt(ctx context.Context, courtID string) ([]models.Reservation, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Reservation, error)
	FindConflicts(ctx context.Context, courtID string, start, end time.Time, excludeID string) ([]models.Reservation, error)
	CreateConfirmed(ctx context.Context, r *models.Reservation) error
	UpdateSlot(ctx context.Context, r *models.Reservation) error
	Update(ctx context.Context, r *models.Reservation) error
	Cancel(ctx context.Context, id, reason string, at time.Time) (*models.Reservation, error)
	Delete(ctx context.Context, id string) error
	CountNonCancelledByCourt(ctx context.Context, courtID string) (int, error)
}

// SlotLocker serializes the check-then-act window per court across
// processes. Release is always safe to call once.
type SlotLocker interface {
	Acquire(ctx context.Context, courtID string) (release func(), err error)
}

// SlotChange is pushed to clients watching a court's calendar whenever
// a slot is taken or freed.
type SlotChange struct {
	CourtID       string    `json:"court_id"`
	ReservationID string    `json:"reservation_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Change        string    `json:"change"` // reserved, moved, released
}

// AvailabilityPublisher fans slot changes out to realtime subscribers.
type AvailabilityPublisher interface {
	PublishSlotChange(change SlotChange)
}

type ReservationService struct {
	reservations ReservationStore
	courts       CourtStore
	users        UserStore
	locker       SlotLocker
	realtime     AvailabilityPublisher
	clock        Clock
}

func NewReservationService(
	reservations ReservationStore,
	courts CourtStore,
	users UserStore,
	locker SlotLocker,
	realtime AvailabilityPublisher,
	clock Clock,
) *ReservationService {
	if clock == nil {
		clock = SystemClock()
	}
	return &ReservationService{
		reservations: reservations,
		courts:       courts,
		users:        users,
		locker:       locker,
		realtime:     realtime,
		clock:        clock,
	}
}

// Create books a confirmed reservation for the user on the court. The
// conflict check and insert run under the court's slot lock and are
// re-verified atomically by the store, so concurrent identical
// requests produce exactly one winner.
func (s *ReservationService) Create(ctx context.Context, userID, courtID string, start, end time.Time, notes string) (*models.Reservation, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Kind: "user", ID: userID}
	}

	court, err := s.courts.GetByID(ctx, courtID)
	if err != nil {
		return nil, fmt.Errorf("load court: %w", err)
	}
	if court == nil {
		return nil, &NotFoundError{Kind: "court", ID: courtID}
	}
	if !court.IsActive {
		return nil, &InvalidStateError{Reason: "court is not open for reservations"}
	}

	if err := validateNotes(notes); err != nil {
		return nil, err
	}
	if err := ValidateSlot(start, end, s.clock.Now()); err != nil {
		return nil, err
	}

	release, err := s.acquireSlotLock(ctx, courtID)
	if err != nil {
		return nil, err
	}
	defer release()

	conflicts, err := s.reservations.FindConflicts(ctx, courtID, start, end, "")
	if err != nil {
		return nil, fmt.Errorf("conflict check: %w", err)
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{ConflictingID: conflicts[0].ID}
	}

	ref, err := utils.GenerateCode(4)
	if err != nil {
		return nil, fmt.Errorf("generate reference: %w", err)
	}

	r := &models.Reservation{
		ID:         uuid.NewString(),
		UserID:     userID,
		CourtID:    courtID,
		Reference:  ref,
		StartTime:  start.UTC(),
		EndTime:    end.UTC(),
		TotalPrice: SlotPrice(start, end, court.PricePerHour),
		Status:     models.StatusConfirmed,
		Notes:      notes,
		CreatedAt:  s.clock.Now(),
	}

	if err := s.reservations.CreateConfirmed(ctx, r); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return nil, conflict
		}
		return nil, fmt.Errorf("create reservation: %w", err)
	}

	s.publish(SlotChange{
		CourtID:       r.CourtID,
		ReservationID: r.ID,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Change:        "reserved",
	})
	return r, nil
}

// Update changes a reservation's time range and/or notes. Time changes
// re-run the full slot validation, conflict check (excluding the
// reservation itself) and re-price against the court's current hourly
// rate. A notes-only update touches nothing else.
func (s *ReservationService) Update(ctx context.Context, id, userID string, newStart, newEnd *time.Time, newNotes *string) (*models.Reservation, error) {
	r, err := s.loadOwned(ctx, id, userID, "modify")
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if !r.StartTime.After(now) {
		return nil, &InvalidStateError{Reason: "cannot modify a reservation that has already started"}
	}

	if newNotes != nil {
		if err := validateNotes(*newNotes); err != nil {
			return nil, err
		}
	}

	timeChanged := newStart != nil || newEnd != nil
	if !timeChanged {
		if newNotes != nil {
			r.Notes = *newNotes
			if err := s.reservations.Update(ctx, r); err != nil {
				return nil, fmt.Errorf("update reservation: %w", err)
			}
		}
		return r, nil
	}

	start := r.StartTime
	end := r.EndTime
	if newStart != nil {
		start = newStart.UTC()
	}
	if newEnd != nil {
		end = newEnd.UTC()
	}

	if err := ValidateSlot(start, end, now); err != nil {
		return nil, err
	}

	release, err := s.acquireSlotLock(ctx, r.CourtID)
	if err != nil {
		return nil, err
	}
	defer release()

	conflicts, err := s.reservations.FindConflicts(ctx, r.CourtID, start, end, r.ID)
	if err != nil {
		return nil, fmt.Errorf("conflict check: %w", err)
	}
	if len(conflicts) > 0 {
		return nil, &ConflictError{ConflictingID: conflicts[0].ID}
	}

	court, err := s.courts.GetByID(ctx, r.CourtID)
	if err != nil {
		return nil, fmt.Errorf("load court: %w", err)
	}
	if court == nil {
		return nil, &NotFoundError{Kind: "court", ID: r.CourtID}
	}

	r.StartTime = start
	r.EndTime = end
	r.TotalPrice = SlotPrice(start, end, court.PricePerHour)
	if newNotes != nil {
		r.Notes = *newNotes
	}

	if err := s.reservations.UpdateSlot(ctx, r); err != nil {
		var conflict *ConflictError
		if errors.As(err, &conflict) {
			return nil, conflict
		}
		return nil, fmt.Errorf("update reservation: %w", err)
	}

	s.publish(SlotChange{
		CourtID:       r.CourtID,
		ReservationID: r.ID,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Change:        "moved",
	})
	return r, nil
}

// Cancel marks a reservation cancelled. Requires at least
// CancellationLeadTime before the slot starts; exactly the lead time
// is allowed. Cancellation is terminal.
func (s *ReservationService) Cancel(ctx context.Context, id, userID, reason string) (*models.Reservation, error) {
	r, err := s.loadOwned(ctx, id, userID, "cancel")
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if r.StartTime.Sub(now) < CancellationLeadTime {
		return nil, &InvalidStateError{
			Reason: "cancellation requires at least 2 hours before the reservation starts",
		}
	}

	cancelled, err := s.reservations.Cancel(ctx, id, reason, now)
	if err != nil {
		return nil, fmt.Errorf("cancel reservation: %w", err)
	}

	s.publish(SlotChange{
		CourtID:       cancelled.CourtID,
		ReservationID: cancelled.ID,
		StartTime:     cancelled.StartTime,
		EndTime:       cancelled.EndTime,
		Change:        "released",
	})
	return cancelled, nil
}

// Delete removes the record outright, regardless of status. Only the
// owner or an admin may delete.
func (s *ReservationService) Delete(ctx context.Context, id, userID string, isAdmin bool) error {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load reservation: %w", err)
	}
	if r == nil {
		return &NotFoundError{Kind: "reservation", ID: id}
	}
	if !isAdmin && r.UserID != userID {
		return &ForbiddenError{Reason: "you do not have permission to delete this reservation"}
	}
	if err := s.reservations.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete reservation: %w", err)
	}
	if r.Status != models.StatusCancelled {
		s.publish(SlotChange{
			CourtID:       r.CourtID,
			ReservationID: r.ID,
			StartTime:     r.StartTime,
			EndTime:       r.EndTime,
			Change:        "released",
		})
	}
	return nil
}

func (s *ReservationService) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if r == nil {
		return nil, &NotFoundError{Kind: "reservation", ID: id}
	}
	return r, nil
}

func (s *ReservationService) ListAll(ctx context.Context) ([]models.Reservation, error) {
	return s.reservations.ListAll(ctx)
}

func (s *ReservationService) ListByUser(ctx context.Context, userID string) ([]models.Reservation, error) {
	return s.reservations.ListByUser(ctx, userID)
}

func (s *ReservationService) ListByCourt(ctx context.Context, courtID string) ([]models.Reservation, error) {
	return s.reservations.ListByCourt(ctx, courtID)
}

func (s *ReservationService) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Reservation, error) {
	if !from.Before(to) {
		return nil, &ValidationError{
			Rule:   RuleEndBeforeStart,
			Reason: "range start must be before range end",
		}
	}
	return s.reservations.ListByDateRange(ctx, from, to)
}

// HourSlot is one bookable hour in a court's daily grid.
type HourSlot struct {
	Hour      int       `json:"hour"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Available bool      `json:"available"`
}

// Availability returns the hour grid for a court on the given day,
// marking hours touched by a non-cancelled reservation as taken.
func (s *ReservationService) Availability(ctx context.Context, courtID string, day time.Time) ([]HourSlot, error) {
	court, err := s.courts.GetByID(ctx, courtID)
	if err != nil {
		return nil, fmt.Errorf("load court: %w", err)
	}
	if court == nil {
		return nil, &NotFoundError{Kind: "court", ID: courtID}
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), OpeningHour, 0, 0, 0, time.UTC)
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), ClosingHour, 0, 0, 0, time.UTC)

	taken, err := s.reservations.FindConflicts(ctx, courtID, dayStart, dayEnd, "")
	if err != nil {
		return nil, fmt.Errorf("load reservations: %w", err)
	}

	slots := make([]HourSlot, 0, ClosingHour-OpeningHour)
	for h := OpeningHour; h < ClosingHour; h++ {
		slotStart := time.Date(day.Year(), day.Month(), day.Day(), h, 0, 0, 0, time.UTC)
		slotEnd := slotStart.Add(time.Hour)
		slot := HourSlot{Hour: h, StartTime: slotStart, EndTime: slotEnd, Available: true}
		for i := range taken {
			if taken[i].Overlaps(slotStart, slotEnd) {
				slot.Available = false
				break
			}
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// loadOwned fetches a reservation and applies the shared ownership and
// terminal-status checks for update/cancel.
func (s *ReservationService) loadOwned(ctx context.Context, id, userID, verb string) (*models.Reservation, error) {
	r, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	if r == nil {
		return nil, &NotFoundError{Kind: "reservation", ID: id}
	}
	if r.UserID != userID {
		return nil, &ForbiddenError{Reason: fmt.Sprintf("you do not have permission to %s this reservation", verb)}
	}
	if r.Status == models.StatusCancelled {
		return nil, &InvalidStateError{Reason: "reservation is already cancelled"}
	}
	if r.Status == models.StatusCompleted {
		return nil, &InvalidStateError{Reason: "reservation is already completed"}
	}
	return r, nil
}

// acquireSlotLock takes the per-court lock, retrying once on
// contention before giving up with a conflict.
func (s *ReservationService) acquireSlotLock(ctx context.Context, courtID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Acquire(ctx, courtID)
	if err == nil {
		return release, nil
	}
	if !errors.Is(err, ErrSlotLocked) {
		return nil, fmt.Errorf("acquire slot lock: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(100 * time.Millisecond):
	}

	release, err = s.locker.Acquire(ctx, courtID)
	if err == nil {
		return release, nil
	}
	if errors.Is(err, ErrSlotLocked) {
		slog.Warn("slot lock contention", "court_id", courtID)
		return nil, &ConflictError{ConflictingID: ""}
	}
	return nil, fmt.Errorf("acquire slot lock: %w", err)
}

func (s *ReservationService) publish(change SlotChange) {
	if s.realtime == nil {
		return
	}
	s.realtime.PublishSlotChange(change)
}

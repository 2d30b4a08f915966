package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"court-reservation/models"
	"court-reservation/services"

	"github.com/pocketbase/dbx"
	"github.com/shopspring/decimal"
)

type ReservationStore struct {
	db *dbx.DB
}

func NewReservationStore(db *dbx.DB) *ReservationStore {
	return &ReservationStore{db: db}
}

type reservationRow struct {
	ID                 string         `db:"id"`
	UserID             string         `db:"user_id"`
	CourtID            string         `db:"court_id"`
	Reference          string         `db:"reference"`
	StartTime          string         `db:"start_time"`
	EndTime            string         `db:"end_time"`
	TotalPrice         string         `db:"total_price"`
	Status             string         `db:"status"`
	Notes              string         `db:"notes"`
	CreatedAt          string         `db:"created_at"`
	CancelledAt        sql.NullString `db:"cancelled_at"`
	CancellationReason sql.NullString `db:"cancellation_reason"`
}

// Timestamps are stored as RFC3339 UTC text; with a fixed zone and
// zero-padded fields they order correctly under string comparison,
// which the overlap predicate relies on.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func (row *reservationRow) toModel() (*models.Reservation, error) {
	start, err := parseTime(row.StartTime)
	if err != nil {
		return nil, fmt.Errorf("parse start_time: %w", err)
	}
	end, err := parseTime(row.EndTime)
	if err != nil {
		return nil, fmt.Errorf("parse end_time: %w", err)
	}
	created, err := parseTime(row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	price, err := decimal.NewFromString(row.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("parse total_price: %w", err)
	}

	r := &models.Reservation{
		ID:         row.ID,
		UserID:     row.UserID,
		CourtID:    row.CourtID,
		Reference:  row.Reference,
		StartTime:  start,
		EndTime:    end,
		TotalPrice: price,
		Status:     models.ReservationStatus(row.Status),
		Notes:      row.Notes,
		CreatedAt:  created,
	}
	if row.CancelledAt.Valid {
		at, err := parseTime(row.CancelledAt.String)
		if err != nil {
			return nil, fmt.Errorf("parse cancelled_at: %w", err)
		}
		r.CancelledAt = &at
	}
	if row.CancellationReason.Valid {
		r.CancellationReason = row.CancellationReason.String
	}
	return r, nil
}

func rowsToModels(rows []reservationRow) ([]models.Reservation, error) {
	out := make([]models.Reservation, 0, len(rows))
	for i := range rows {
		r, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *ReservationStore) GetByID(ctx context.Context, id string) (*models.Reservation, error) {
	var row reservationRow
	err := s.db.NewQuery("SELECT * FROM reservations WHERE id = {:id}").
		Bind(dbx.Params{"id": id}).
		WithContext(ctx).
		One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toModel()
}

func (s *ReservationStore) ListAll(ctx context.Context) ([]models.Reservation, error) {
	var rows []reservationRow
	err := s.db.NewQuery("SELECT * FROM reservations ORDER BY created_at DESC").
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, err
	}
	return rowsToModels(rows)
}

func (s *ReservationStore) ListByUser(ctx context.Context, userID string) ([]models.Reservation, error) {
	var rows []reservationRow
	err := s.db.NewQuery("SELECT * FROM reservations WHERE user_id = {:user_id} ORDER BY start_time DESC").
		Bind(dbx.Params{"user_id": userID}).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, err
	}
	return rowsToModels(rows)
}

func (s *ReservationStore) ListByCourt(ctx context.Context, courtID string) ([]models.Reservation, error) {
	var rows []reservationRow
	err := s.db.NewQuery("SELECT * FROM reservations WHERE court_id = {:court_id} ORDER BY start_time DESC").
		Bind(dbx.Params{"court_id": courtID}).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, err
	}
	return rowsToModels(rows)
}

func (s *ReservationStore) ListByDateRange(ctx context.Context, from, to time.Time) ([]models.Reservation, error) {
	var rows []reservationRow
	err := s.db.NewQuery(
		"SELECT * FROM reservations WHERE start_time >= {:from} AND end_time <= {:to} ORDER BY start_time ASC").
		Bind(dbx.Params{"from": fmtTime(from), "to": fmtTime(to)}).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, err
	}
	return rowsToModels(rows)
}

const conflictQuery = `
SELECT * FROM reservations
WHERE court_id = {:court_id}
  AND status != 'Cancelled'
  AND start_time < {:end}
  AND end_time > {:start}
  AND ({:exclude} = '' OR id != {:exclude})`

// FindConflicts returns the non-cancelled reservations on the court
// whose half-open [start, end) range intersects the candidate range.
func (s *ReservationStore) FindConflicts(ctx context.Context, courtID string, start, end time.Time, excludeID string) ([]models.Reservation, error) {
	rows, err := findConflictRows(ctx, s.db, courtID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	return rowsToModels(rows)
}

func findConflictRows(ctx context.Context, b dbx.Builder, courtID string, start, end time.Time, excludeID string) ([]reservationRow, error) {
	var rows []reservationRow
	err := b.NewQuery(conflictQuery).
		Bind(dbx.Params{
			"court_id": courtID,
			"start":    fmtTime(start),
			"end":      fmtTime(end),
			"exclude":  excludeID,
		}).
		WithContext(ctx).
		All(&rows)
	return rows, err
}

func insertParams(r *models.Reservation) dbx.Params {
	p := dbx.Params{
		"id":          r.ID,
		"user_id":     r.UserID,
		"court_id":    r.CourtID,
		"reference":   r.Reference,
		"start_time":  fmtTime(r.StartTime),
		"end_time":    fmtTime(r.EndTime),
		"total_price": r.TotalPrice.String(),
		"status":      string(r.Status),
		"notes":       r.Notes,
		"created_at":  fmtTime(r.CreatedAt),
	}
	return p
}

// CreateConfirmed inserts a reservation with the conflict check re-run
// inside the same transaction, so two writers racing past the engine's
// check cannot both commit.
func (s *ReservationStore) CreateConfirmed(ctx context.Context, r *models.Reservation) error {
	return s.db.TransactionalContext(ctx, nil, func(tx *dbx.Tx) error {
		rows, err := findConflictRows(ctx, tx, r.CourtID, r.StartTime, r.EndTime, "")
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			return &services.ConflictError{ConflictingID: rows[0].ID}
		}
		_, err = tx.Insert("reservations", insertParams(r)).WithContext(ctx).Execute()
		return err
	})
}

// UpdateSlot rewrites a reservation's time range and price with the
// conflict re-check (excluding the reservation itself) in the same
// transaction.
func (s *ReservationStore) UpdateSlot(ctx context.Context, r *models.Reservation) error {
	return s.db.TransactionalContext(ctx, nil, func(tx *dbx.Tx) error {
		rows, err := findConflictRows(ctx, tx, r.CourtID, r.StartTime, r.EndTime, r.ID)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			return &services.ConflictError{ConflictingID: rows[0].ID}
		}
		_, err = tx.Update("reservations", dbx.Params{
			"start_time":  fmtTime(r.StartTime),
			"end_time":    fmtTime(r.EndTime),
			"total_price": r.TotalPrice.String(),
			"notes":       r.Notes,
		}, dbx.HashExp{"id": r.ID}).WithContext(ctx).Execute()
		return err
	})
}

// Update rewrites mutable fields without touching the time range; used
// for notes-only updates.
func (s *ReservationStore) Update(ctx context.Context, r *models.Reservation) error {
	_, err := s.db.Update("reservations", dbx.Params{
		"notes": r.Notes,
	}, dbx.HashExp{"id": r.ID}).WithContext(ctx).Execute()
	return err
}

// Cancel flips the reservation to Cancelled. The guard on the current
// status runs in the same statement, so a concurrent cancel of the
// same record loses cleanly.
func (s *ReservationStore) Cancel(ctx context.Context, id, reason string, at time.Time) (*models.Reservation, error) {
	// An absent reason stays NULL so it can be told apart from an
	// explicitly empty one.
	var reasonParam any
	if reason != "" {
		reasonParam = reason
	}
	res, err := s.db.NewQuery(`
		UPDATE reservations
		SET status = 'Cancelled', cancelled_at = {:at}, cancellation_reason = {:reason}
		WHERE id = {:id} AND status NOT IN ('Cancelled', 'Completed')`).
		Bind(dbx.Params{"id": id, "at": fmtTime(at), "reason": reasonParam}).
		WithContext(ctx).
		Execute()
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		current, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, &services.NotFoundError{Kind: "reservation", ID: id}
		}
		return nil, &services.InvalidStateError{Reason: fmt.Sprintf("reservation is already %s", current.Status)}
	}
	return s.GetByID(ctx, id)
}

func (s *ReservationStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Delete("reservations", dbx.HashExp{"id": id}).WithContext(ctx).Execute()
	return err
}

func (s *ReservationStore) CountNonCancelledByCourt(ctx context.Context, courtID string) (int, error) {
	var n int
	err := s.db.NewQuery(
		"SELECT COUNT(*) FROM reservations WHERE court_id = {:court_id} AND status != 'Cancelled'").
		Bind(dbx.Params{"court_id": courtID}).
		WithContext(ctx).
		Row(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

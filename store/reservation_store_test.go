package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"court-reservation/models"
	"court-reservation/services"

	"github.com/pocketbase/dbx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *dbx.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	users := NewUserStore(db)
	require.NoError(t, users.Create(ctx, &models.User{
		ID: "user-1", Name: "Ana", Email: "ana@example.com",
		PasswordHash: "x", Role: models.RoleUser, CreatedAt: time.Now().UTC(),
	}))
	courts := NewCourtStore(db)
	require.NoError(t, courts.Create(ctx, &models.Court{
		ID: "court-1", Name: "Center Court", Type: "tennis",
		PricePerHour: decimal.RequireFromString("50"), Capacity: 4,
		IsActive: true, CreatedAt: time.Now().UTC(),
	}))
	return db
}

func sampleReservation(id string, start time.Time, hours int) *models.Reservation {
	return &models.Reservation{
		ID:         id,
		UserID:     "user-1",
		CourtID:    "court-1",
		Reference:  "AB12CD34",
		StartTime:  start,
		EndTime:    start.Add(time.Duration(hours) * time.Hour),
		TotalPrice: decimal.RequireFromString("50").Mul(decimal.NewFromInt(int64(hours))),
		Status:     models.StatusConfirmed,
		Notes:      "weekly game",
		CreatedAt:  time.Now().UTC(),
	}
}

func TestReservationStore_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	store := NewReservationStore(db)
	ctx := context.Background()

	start := time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC)
	r := sampleReservation("res-1", start, 2)
	require.NoError(t, store.CreateConfirmed(ctx, r))

	got, err := store.GetByID(ctx, "res-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.True(t, got.StartTime.Equal(start))
	assert.True(t, got.EndTime.Equal(start.Add(2*time.Hour)))
	assert.Equal(t, "100", got.TotalPrice.String())
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, "weekly game", got.Notes)
	assert.Nil(t, got.CancelledAt)

	absent, err := store.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, absent)
}

func TestReservationStore_CreateConfirmed_ConflictGuard(t *testing.T) {
	db := openTestDB(t)
	store := NewReservationStore(db)
	ctx := context.Background()

	start := time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateConfirmed(ctx, sampleReservation("res-1", start, 2)))

	t.Run("overlapping insert is rejected", func(t *testing.T) {
		err := store.CreateConfirmed(ctx, sampleReservation("res-2", start.Add(time.Hour), 2))
		var conflict *services.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "res-1", conflict.ConflictingID)

		absent, _ := store.GetByID(ctx, "res-2")
		assert.Nil(t, absent, "losing insert must not be committed")
	})

	t.Run("back to back insert succeeds", func(t *testing.T) {
		assert.NoError(t, store.CreateConfirmed(ctx, sampleReservation("res-3", start.Add(2*time.Hour), 1)))
	})

	t.Run("cancelled rows do not block", func(t *testing.T) {
		_, err := store.Cancel(ctx, "res-3", "", time.Now().UTC())
		require.NoError(t, err)
		assert.NoError(t, store.CreateConfirmed(ctx, sampleReservation("res-4", start.Add(2*time.Hour), 1)))
	})
}

func TestReservationStore_UpdateSlot(t *testing.T) {
	db := openTestDB(t)
	store := NewReservationStore(db)
	ctx := context.Background()

	start := time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateConfirmed(ctx, sampleReservation("res-1", start, 2)))
	require.NoError(t, store.CreateConfirmed(ctx, sampleReservation("res-2", start.Add(4*time.Hour), 1)))

	t.Run("own range does not conflict with itself", func(t *testing.T) {
		r := sampleReservation("res-1", start, 1)
		r.TotalPrice = decimal.RequireFromString("50")
		require.NoError(t, store.UpdateSlot(ctx, r))

		got, _ := store.GetByID(ctx, "res-1")
		assert.True(t, got.EndTime.Equal(start.Add(time.Hour)))
		assert.Equal(t, "50", got.TotalPrice.String())
	})

	t.Run("moving onto another reservation is rejected", func(t *testing.T) {
		r := sampleReservation("res-1", start.Add(4*time.Hour), 1)
		err := store.UpdateSlot(ctx, r)
		var conflict *services.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "res-2", conflict.ConflictingID)
	})
}

func TestReservationStore_Cancel(t *testing.T) {
	db := openTestDB(t)
	store := NewReservationStore(db)
	ctx := context.Background()

	start := time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateConfirmed(ctx, sampleReservation("res-1", start, 1)))

	at := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	cancelled, err := store.Cancel(ctx, "res-1", "rain", at)
	require.NoError(t, err)

	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.True(t, cancelled.CancelledAt.Equal(at))
	assert.Equal(t, "rain", cancelled.CancellationReason)

	t.Run("second cancel loses to the status guard", func(t *testing.T) {
		_, err := store.Cancel(ctx, "res-1", "again", at)
		var is *services.InvalidStateError
		assert.ErrorAs(t, err, &is)
	})

	t.Run("absent reservation", func(t *testing.T) {
		_, err := store.Cancel(ctx, "missing", "", at)
		var nf *services.NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("empty reason is stored as NULL", func(t *testing.T) {
		require.NoError(t, store.CreateConfirmed(ctx, sampleReservation("res-2", start.Add(2*time.Hour), 1)))
		cancelled, err := store.Cancel(ctx, "res-2", "", at)
		require.NoError(t, err)
		assert.Empty(t, cancelled.CancellationReason)

		var isNull bool
		require.NoError(t, db.NewQuery(
			"SELECT cancellation_reason IS NULL FROM reservations WHERE id = {:id}").
			Bind(dbx.Params{"id": "res-2"}).
			Row(&isNull))
		assert.True(t, isNull)
	})
}

func TestReservationStore_Queries(t *testing.T) {
	db := openTestDB(t)
	store := NewReservationStore(db)
	ctx := context.Background()

	start := time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateConfirmed(ctx, sampleReservation("res-1", start, 1)))
	require.NoError(t, store.CreateConfirmed(ctx, sampleReservation("res-2", start.Add(24*time.Hour), 2)))

	byUser, err := store.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byCourt, err := store.ListByCourt(ctx, "court-1")
	require.NoError(t, err)
	assert.Len(t, byCourt, 2)

	inRange, err := store.ListByDateRange(ctx, start.Add(-time.Hour), start.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, inRange, 1)
	assert.Equal(t, "res-1", inRange[0].ID)

	n, err := store.CountNonCancelledByCourt(ctx, "court-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = store.Cancel(ctx, "res-1", "", time.Now().UTC())
	require.NoError(t, err)
	n, err = store.CountNonCancelledByCourt(ctx, "court-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, store.Delete(ctx, "res-2"))
	all, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestReservationHandler_Create_InvalidBody(t *testing.T) {
	// Malformed JSON never reaches the engine.
	handler := NewReservationHandler(nil, nil)

	c, rec := newJSONContext(http.MethodPost, "/api/reservations", "not json")
	require.NoError(t, handler.Create(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReservationHandler_Update_InvalidBody(t *testing.T) {
	handler := NewReservationHandler(nil, nil)

	c, rec := newJSONContext(http.MethodPut, "/api/reservations/res-1", `{"start_time": "next tuesday"}`)
	require.NoError(t, handler.Update(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReservationHandler_ListByDateRange_BadBounds(t *testing.T) {
	handler := NewReservationHandler(nil, nil)

	t.Run("missing from", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/reservations/range?to=2025-03-11T00:00:00Z", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, handler.ListByDateRange(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed to", func(t *testing.T) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/api/reservations/range?from=2025-03-11T00:00:00Z&to=tomorrow", nil)
		rec := httptest.NewRecorder()
		require.NoError(t, handler.ListByDateRange(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_Register_InvalidBody(t *testing.T) {
	handler := NewAuthHandler(nil)

	c, rec := newJSONContext(http.MethodPost, "/api/auth/register", "{")
	require.NoError(t, handler.Register(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCourtHandler_Availability_BadDate(t *testing.T) {
	handler := NewCourtHandler(nil, nil, nil, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/courts/c1/availability?date=11-03-2025", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, handler.Availability(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

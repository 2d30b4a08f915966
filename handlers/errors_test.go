package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"court-reservation/services"

	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invokeWriteError(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/reservations", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, writeError(c, err))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestWriteError(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		code, body := invokeWriteError(t, &services.NotFoundError{Kind: "court", ID: "c1"})
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "court c1 not found", body["error"])
	})

	t.Run("forbidden", func(t *testing.T) {
		code, body := invokeWriteError(t, &services.ForbiddenError{Reason: "nope"})
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "nope", body["error"])
	})

	t.Run("invalid state", func(t *testing.T) {
		code, _ := invokeWriteError(t, &services.InvalidStateError{Reason: "already cancelled"})
		assert.Equal(t, http.StatusConflict, code)
	})

	t.Run("validation carries the rule", func(t *testing.T) {
		code, body := invokeWriteError(t, &services.ValidationError{
			Rule:   services.RuleNotHourAligned,
			Reason: "reservations must start and end on the hour",
		})
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, string(services.RuleNotHourAligned), body["rule"])
	})

	t.Run("conflict names the reservation", func(t *testing.T) {
		code, body := invokeWriteError(t, &services.ConflictError{ConflictingID: "res-1"})
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "res-1", body["conflicting_reservation_id"])
	})

	t.Run("conflict from lock contention has no id", func(t *testing.T) {
		code, body := invokeWriteError(t, &services.ConflictError{})
		assert.Equal(t, http.StatusConflict, code)
		_, present := body["conflicting_reservation_id"]
		assert.False(t, present)
	})

	t.Run("wrapped business errors still map", func(t *testing.T) {
		wrapped := fmt.Errorf("create reservation: %w", &services.ConflictError{ConflictingID: "res-1"})
		code, body := invokeWriteError(t, wrapped)
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, "res-1", body["conflicting_reservation_id"])
	})

	t.Run("infrastructure errors stay opaque", func(t *testing.T) {
		code, body := invokeWriteError(t, errors.New("dial tcp: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "internal server error", body["error"])
		assert.NotContains(t, body["error"], "dial tcp")
	})
}

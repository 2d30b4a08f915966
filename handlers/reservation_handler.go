package handlers

import (
	"errors"
	"net/http"
	"time"

	"court-reservation/monitoring"
	"court-reservation/services"

	"github.com/labstack/echo/v5"
)

type ReservationHandler struct {
	reservations *services.ReservationService
	monitor      *monitoring.Monitor
}

func NewReservationHandler(reservations *services.ReservationService, monitor *monitoring.Monitor) *ReservationHandler {
	return &ReservationHandler{reservations: reservations, monitor: monitor}
}

func (h *ReservationHandler) Create(c echo.Context) error {
	var req struct {
		CourtID   string    `json:"court_id"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
		Notes     string    `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	started := time.Now()
	r, err := h.reservations.Create(c.Request().Context(), callerID(c), req.CourtID, req.StartTime, req.EndTime, req.Notes)
	h.track("create", req.CourtID, started, err)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *ReservationHandler) Update(c echo.Context) error {
	var req struct {
		StartTime *time.Time `json:"start_time"`
		EndTime   *time.Time `json:"end_time"`
		Notes     *string    `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	started := time.Now()
	r, err := h.reservations.Update(c.Request().Context(), c.PathParam("id"), callerID(c), req.StartTime, req.EndTime, req.Notes)
	h.track("update", "", started, err)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *ReservationHandler) Cancel(c echo.Context) error {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	started := time.Now()
	r, err := h.reservations.Cancel(c.Request().Context(), c.PathParam("id"), callerID(c), req.Reason)
	h.track("cancel", "", started, err)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *ReservationHandler) Delete(c echo.Context) error {
	started := time.Now()
	err := h.reservations.Delete(c.Request().Context(), c.PathParam("id"), callerID(c), callerIsAdmin(c))
	h.track("delete", "", started, err)
	if err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ReservationHandler) GetByID(c echo.Context) error {
	r, err := h.reservations.GetByID(c.Request().Context(), c.PathParam("id"))
	if err != nil {
		return writeError(c, err)
	}
	if r.UserID != callerID(c) && !callerIsAdmin(c) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "you do not have permission to view this reservation"})
	}
	return c.JSON(http.StatusOK, r)
}

func (h *ReservationHandler) ListAll(c echo.Context) error {
	rs, err := h.reservations.ListAll(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *ReservationHandler) ListMine(c echo.Context) error {
	rs, err := h.reservations.ListByUser(c.Request().Context(), callerID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *ReservationHandler) ListByCourt(c echo.Context) error {
	rs, err := h.reservations.ListByCourt(c.Request().Context(), c.PathParam("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *ReservationHandler) ListByDateRange(c echo.Context) error {
	from, err := time.Parse(time.RFC3339, c.QueryParam("from"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "from must be RFC3339"})
	}
	to, err := time.Parse(time.RFC3339, c.QueryParam("to"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "to must be RFC3339"})
	}

	rs, err := h.reservations.ListByDateRange(c.Request().Context(), from, to)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rs)
}

func (h *ReservationHandler) track(operation, courtID string, started time.Time, err error) {
	if h.monitor == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
		var conflict *services.ConflictError
		if errors.As(err, &conflict) {
			status = "conflict"
			if courtID != "" {
				h.monitor.TrackConflict(courtID)
			}
		}
	}
	h.monitor.TrackOperation(operation, status)
	h.monitor.TrackDuration(operation, time.Since(started))
}

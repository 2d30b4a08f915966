package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"court-reservation/services"

	"github.com/labstack/echo/v5"
)

// writeError maps the engine's error taxonomy onto HTTP responses.
// Infrastructure errors are logged and surfaced opaquely.
func writeError(c echo.Context, err error) error {
	var notFound *services.NotFoundError
	var forbidden *services.ForbiddenError
	var invalidState *services.InvalidStateError
	var validation *services.ValidationError
	var conflict *services.ConflictError

	switch {
	case errors.As(err, &notFound):
		return c.JSON(http.StatusNotFound, map[string]any{"error": notFound.Error()})
	case errors.As(err, &forbidden):
		return c.JSON(http.StatusForbidden, map[string]any{"error": forbidden.Error()})
	case errors.As(err, &invalidState):
		return c.JSON(http.StatusConflict, map[string]any{"error": invalidState.Error()})
	case errors.As(err, &validation):
		return c.JSON(http.StatusBadRequest, map[string]any{
			"error": validation.Error(),
			"rule":  string(validation.Rule),
		})
	case errors.As(err, &conflict):
		body := map[string]any{"error": conflict.Error()}
		if conflict.ConflictingID != "" {
			body["conflicting_reservation_id"] = conflict.ConflictingID
		}
		return c.JSON(http.StatusConflict, body)
	}

	slog.Error("internal error", "path", c.Request().URL.Path, "error", err)
	return c.JSON(http.StatusInternalServerError, map[string]any{"error": "internal server error"})
}

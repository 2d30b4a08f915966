package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"court-reservation/config"
	"court-reservation/services"

	"github.com/labstack/echo/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type CourtHandler struct {
	courts       *services.CourtService
	reservations *services.ReservationService
	redis        *redis.Client
	cfg          *config.Config
}

func NewCourtHandler(courts *services.CourtService, reservations *services.ReservationService, redisClient *redis.Client, cfg *config.Config) *CourtHandler {
	return &CourtHandler{
		courts:       courts,
		reservations: reservations,
		redis:        redisClient,
		cfg:          cfg,
	}
}

type courtRequest struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Type         string          `json:"type"`
	PricePerHour decimal.Decimal `json:"price_per_hour"`
	Capacity     int             `json:"capacity"`
	IsCovered    bool            `json:"is_covered"`
}

func (h *CourtHandler) Create(c echo.Context) error {
	var req courtRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	court, err := h.courts.Create(c.Request().Context(), services.CreateCourtInput{
		Name:         req.Name,
		Description:  req.Description,
		Type:         req.Type,
		PricePerHour: req.PricePerHour,
		Capacity:     req.Capacity,
		IsCovered:    req.IsCovered,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, court)
}

func (h *CourtHandler) Update(c echo.Context) error {
	var req struct {
		Name         *string          `json:"name"`
		Description  *string          `json:"description"`
		Type         *string          `json:"type"`
		PricePerHour *decimal.Decimal `json:"price_per_hour"`
		Capacity     *int             `json:"capacity"`
		IsCovered    *bool            `json:"is_covered"`
		IsActive     *bool            `json:"is_active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}

	court, err := h.courts.Update(c.Request().Context(), c.PathParam("id"), services.UpdateCourtInput{
		Name:         req.Name,
		Description:  req.Description,
		Type:         req.Type,
		PricePerHour: req.PricePerHour,
		Capacity:     req.Capacity,
		IsCovered:    req.IsCovered,
		IsActive:     req.IsActive,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, court)
}

func (h *CourtHandler) GetByID(c echo.Context) error {
	court, err := h.courts.GetByID(c.Request().Context(), c.PathParam("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, court)
}

func (h *CourtHandler) List(c echo.Context) error {
	courts, err := h.courts.ListAll(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, courts)
}

func (h *CourtHandler) ListActive(c echo.Context) error {
	courts, err := h.courts.ListActive(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, courts)
}

func (h *CourtHandler) ListByType(c echo.Context) error {
	courts, err := h.courts.ListByType(c.Request().Context(), c.PathParam("type"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, courts)
}

func (h *CourtHandler) Delete(c echo.Context) error {
	if err := h.courts.Delete(c.Request().Context(), c.PathParam("id")); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Availability returns the hour grid for a court on a given day. The
// response is cached briefly in redis since calendars are polled far
// more often than they change.
func (h *CourtHandler) Availability(c echo.Context) error {
	courtID := c.PathParam("id")
	dateStr := c.QueryParam("date")
	day, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
	}

	ctx := c.Request().Context()
	cacheKey := fmt.Sprintf("availability:%s:%s", courtID, dateStr)

	if h.redis != nil {
		if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			return c.JSONBlob(http.StatusOK, []byte(cached))
		}
	}

	slots, err := h.reservations.Availability(ctx, courtID, day)
	if err != nil {
		return writeError(c, err)
	}

	if h.redis != nil {
		if body, err := json.Marshal(slots); err == nil {
			h.redis.Set(ctx, cacheKey, body, h.cfg.AvailabilityCacheTTL)
		}
	}
	return c.JSON(http.StatusOK, slots)
}

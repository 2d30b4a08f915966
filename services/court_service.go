package services

import (
	"context"
	"fmt"
	"strings"

	"court-reservation/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CourtService struct {
	courts       CourtStore
	reservations ReservationStore
	clock        Clock
}

func NewCourtService(courts CourtStore, reservations ReservationStore, clock Clock) *CourtService {
	if clock == nil {
		clock = SystemClock()
	}
	return &CourtService{courts: courts, reservations: reservations, clock: clock}
}

// CreateCourtInput carries the fields a new court needs; ID and
// CreatedAt are assigned here and courts always start active.
type CreateCourtInput struct {
	Name         string
	Description  string
	Type         string
	PricePerHour decimal.Decimal
	Capacity     int
	IsCovered    bool
}

// UpdateCourtInput applies partial updates; nil fields stay untouched.
type UpdateCourtInput struct {
	Name         *string
	Description  *string
	Type         *string
	PricePerHour *decimal.Decimal
	Capacity     *int
	IsCovered    *bool
	IsActive     *bool
}

func (s *CourtService) Create(ctx context.Context, in CreateCourtInput) (*models.Court, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Rule: RuleInvalidInput, Reason: "court name is required"}
	}
	if !in.PricePerHour.IsPositive() {
		return nil, &ValidationError{Rule: RuleInvalidInput, Reason: "price per hour must be greater than zero"}
	}
	if in.Capacity <= 0 {
		return nil, &ValidationError{Rule: RuleInvalidInput, Reason: "capacity must be greater than zero"}
	}

	court := &models.Court{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Description:  in.Description,
		Type:         in.Type,
		PricePerHour: in.PricePerHour,
		Capacity:     in.Capacity,
		IsCovered:    in.IsCovered,
		IsActive:     true,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.courts.Create(ctx, court); err != nil {
		return nil, fmt.Errorf("create court: %w", err)
	}
	return court, nil
}

func (s *CourtService) Update(ctx context.Context, id string, in UpdateCourtInput) (*models.Court, error) {
	court, err := s.courts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load court: %w", err)
	}
	if court == nil {
		return nil, &NotFoundError{Kind: "court", ID: id}
	}

	if in.PricePerHour != nil && !in.PricePerHour.IsPositive() {
		return nil, &ValidationError{Rule: RuleInvalidInput, Reason: "price per hour must be greater than zero"}
	}
	if in.Capacity != nil && *in.Capacity <= 0 {
		return nil, &ValidationError{Rule: RuleInvalidInput, Reason: "capacity must be greater than zero"}
	}

	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		court.Name = *in.Name
	}
	if in.Description != nil {
		court.Description = *in.Description
	}
	if in.Type != nil && strings.TrimSpace(*in.Type) != "" {
		court.Type = *in.Type
	}
	if in.PricePerHour != nil {
		court.PricePerHour = *in.PricePerHour
	}
	if in.Capacity != nil {
		court.Capacity = *in.Capacity
	}
	if in.IsCovered != nil {
		court.IsCovered = *in.IsCovered
	}
	if in.IsActive != nil {
		court.IsActive = *in.IsActive
	}

	if err := s.courts.Update(ctx, court); err != nil {
		return nil, fmt.Errorf("update court: %w", err)
	}
	return court, nil
}

func (s *CourtService) GetByID(ctx context.Context, id string) (*models.Court, error) {
	court, err := s.courts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load court: %w", err)
	}
	if court == nil {
		return nil, &NotFoundError{Kind: "court", ID: id}
	}
	return court, nil
}

func (s *CourtService) ListAll(ctx context.Context) ([]models.Court, error) {
	return s.courts.List(ctx, false)
}

func (s *CourtService) ListActive(ctx context.Context) ([]models.Court, error) {
	return s.courts.List(ctx, true)
}

func (s *CourtService) ListByType(ctx context.Context, courtType string) ([]models.Court, error) {
	if strings.TrimSpace(courtType) == "" {
		return nil, &ValidationError{Rule: RuleInvalidInput, Reason: "court type cannot be empty"}
	}
	return s.courts.ListByType(ctx, courtType)
}

// Delete removes a court. Courts keeping non-cancelled reservations
// cannot be removed so history stays consistent.
func (s *CourtService) Delete(ctx context.Context, id string) error {
	court, err := s.courts.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load court: %w", err)
	}
	if court == nil {
		return &NotFoundError{Kind: "court", ID: id}
	}

	n, err := s.reservations.CountNonCancelledByCourt(ctx, id)
	if err != nil {
		return fmt.Errorf("count reservations: %w", err)
	}
	if n > 0 {
		return &InvalidStateError{Reason: "court has reservations and cannot be deleted"}
	}

	if err := s.courts.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete court: %w", err)
	}
	return nil
}

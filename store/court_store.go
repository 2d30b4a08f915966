package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"court-reservation/models"

	"github.com/pocketbase/dbx"
	"github.com/shopspring/decimal"
)

type CourtStore struct {
	db *dbx.DB
}

func NewCourtStore(db *dbx.DB) *CourtStore {
	return &CourtStore{db: db}
}

type courtRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Description  string `db:"description"`
	Type         string `db:"type"`
	PricePerHour string `db:"price_per_hour"`
	Capacity     int    `db:"capacity"`
	IsCovered    bool   `db:"is_covered"`
	IsActive     bool   `db:"is_active"`
	CreatedAt    string `db:"created_at"`
}

func (row *courtRow) toModel() (*models.Court, error) {
	price, err := decimal.NewFromString(row.PricePerHour)
	if err != nil {
		return nil, fmt.Errorf("parse price_per_hour: %w", err)
	}
	created, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &models.Court{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		Type:         row.Type,
		PricePerHour: price,
		Capacity:     row.Capacity,
		IsCovered:    row.IsCovered,
		IsActive:     row.IsActive,
		CreatedAt:    created,
	}, nil
}

func (s *CourtStore) GetByID(ctx context.Context, id string) (*models.Court, error) {
	var row courtRow
	err := s.db.NewQuery("SELECT * FROM courts WHERE id = {:id}").
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

func (s *CourtStore) List(ctx context.Context, activeOnly bool) ([]models.Court, error) {
	q := "SELECT * FROM courts ORDER BY name ASC"
	if activeOnly {
		q = "SELECT * FROM courts WHERE is_active = 1 ORDER BY name ASC"
	}
	var rows []courtRow
	if err := s.db.NewQuery(q).WithContext(ctx).All(&rows); err != nil {
		return nil, err
	}
	return courtRowsToModels(rows)
}

func (s *CourtStore) ListByType(ctx context.Context, courtType string) ([]models.Court, error) {
	var rows []courtRow
	err := s.db.NewQuery(
		"SELECT * FROM courts WHERE LOWER(type) = LOWER({:type}) AND is_active = 1 ORDER BY name ASC").
		Bind(dbx.Params{"type": courtType}).
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, err
	}
	return courtRowsToModels(rows)
}

func courtRowsToModels(rows []courtRow) ([]models.Court, error) {
	out := make([]models.Court, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

func (s *CourtStore) Create(ctx context.Context, c *models.Court) error {
	_, err := s.db.Insert("courts", dbx.Params{
		"id":             c.ID,
		"name":           c.Name,
		"description":    c.Description,
		"type":           c.Type,
		"price_per_hour": c.PricePerHour.String(),
		"capacity":       c.Capacity,
		"is_covered":     c.IsCovered,
		"is_active":      c.IsActive,
		"created_at":     fmtTime(c.CreatedAt),
	}).WithContext(ctx).Execute()
	return err
}

func (s *CourtStore) Update(ctx context.Context, c *models.Court) error {
	_, err := s.db.Update("courts", dbx.Params{
		"name":           c.Name,
		"description":    c.Description,
		"type":           c.Type,
		"price_per_hour": c.PricePerHour.String(),
		"capacity":       c.Capacity,
		"is_covered":     c.IsCovered,
		"is_active":      c.IsActive,
	}, dbx.HashExp{"id": c.ID}).WithContext(ctx).Execute()
	return err
}

func (s *CourtStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Delete("courts", dbx.HashExp{"id": id}).WithContext(ctx).Execute()
	return err
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"court-reservation/models"

	"github.com/pocketbase/dbx"
)

type UserStore struct {
	db *dbx.DB
}

func NewUserStore(db *dbx.DB) *UserStore {
	return &UserStore{db: db}
}

type userRow struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	Email        string `db:"email"`
	PasswordHash string `db:"password_hash"`
	Role         string `db:"role"`
	CreatedAt    string `db:"created_at"`
}

func (row *userRow) toModel() (*models.User, error) {
	created, err := time.Parse(time.RFC3339, row.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	return &models.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         models.Role(row.Role),
		CreatedAt:    created,
	}, nil
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	var row userRow
	err := s.db.NewQuery("SELECT * FROM users WHERE id = {:id}").
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

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var row userRow
	err := s.db.NewQuery("SELECT * FROM users WHERE email = {:email}").
		Bind(dbx.Params{"email": email}).
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

func (s *UserStore) List(ctx context.Context) ([]models.User, error) {
	var rows []userRow
	err := s.db.NewQuery("SELECT * FROM users ORDER BY created_at ASC").
		WithContext(ctx).
		All(&rows)
	if err != nil {
		return nil, err
	}
	out := make([]models.User, 0, len(rows))
	for i := range rows {
		u, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, nil
}

func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	_, err := s.db.Insert("users", dbx.Params{
		"id":            u.ID,
		"name":          u.Name,
		"email":         u.Email,
		"password_hash": u.PasswordHash,
		"role":          string(u.Role),
		"created_at":    fmtTime(u.CreatedAt),
	}).WithContext(ctx).Execute()
	return err
}

func (s *UserStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Delete("users", dbx.HashExp{"id": id}).WithContext(ctx).Execute()
	return err
}

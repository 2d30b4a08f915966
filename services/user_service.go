package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"court-reservation/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserStore is the durable view of users. A nil user with a nil error
// means the record does not exist.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Create(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type UserService struct {
	users        UserStore
	reservations ReservationStore
	jwtSecret    []byte
	tokenTTL     time.Duration
	clock        Clock
}

func NewUserService(users UserStore, reservations ReservationStore, jwtSecret string, tokenTTL time.Duration, clock Clock) *UserService {
	if clock == nil {
		clock = SystemClock()
	}
	return &UserService{
		users:        users,
		reservations: reservations,
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     tokenTTL,
		clock:        clock,
	}
}

func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, &ValidationError{Rule: RuleInvalidInput, Reason: "a valid email is required"}
	}
	if len(password) < 8 {
		return nil, &ValidationError{Rule: RuleInvalidInput, Reason: "password must be at least 8 characters"}
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if existing != nil {
		return nil, &InvalidStateError{Reason: "email is already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and returns a signed token carrying the
// user id and role. The booking engine trusts that identity verbatim.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", nil, fmt.Errorf("lookup user: %w", err)
	}
	if user == nil {
		return "", nil, &ForbiddenError{Reason: "invalid email or password"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, &ForbiddenError{Reason: "invalid email or password"}
	}

	now := s.clock.Now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, user, nil
}

func (s *UserService) ListAll(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

// Delete removes a user outright. Users with reservations on record
// cannot be removed so booking history stays consistent.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return &NotFoundError{Kind: "user", ID: id}
	}

	rs, err := s.reservations.ListByUser(ctx, id)
	if err != nil {
		return fmt.Errorf("list reservations: %w", err)
	}
	if len(rs) > 0 {
		return &InvalidStateError{Reason: "user has reservations and cannot be deleted"}
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, &NotFoundError{Kind: "user", ID: id}
	}
	return user, nil
}

// ParseToken validates a token and returns the (userID, role) identity
// it carries.
func (s *UserService) ParseToken(tokenStr string) (string, models.Role, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", "", &ForbiddenError{Reason: "invalid or expired token"}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", &ForbiddenError{Reason: "invalid token claims"}
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" {
		return "", "", &ForbiddenError{Reason: "invalid token claims"}
	}
	return sub, models.Role(role), nil
}

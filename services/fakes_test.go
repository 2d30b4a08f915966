package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"court-reservation/models"
)

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) Now() time.Time { return c.t }

type fakeCourtStore struct {
	mu       sync.Mutex
	courts   map[string]models.Court
	getCalls int
}

func newFakeCourtStore(courts ...models.Court) *fakeCourtStore {
	s := &fakeCourtStore{courts: make(map[string]models.Court)}
	for _, c := range courts {
		s.courts[c.ID] = c
	}
	return s
}

func (s *fakeCourtStore) GetByID(_ context.Context, id string) (*models.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	c, ok := s.courts[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *fakeCourtStore) List(_ context.Context, activeOnly bool) ([]models.Court, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Court
	for _, c := range s.courts {
		if activeOnly && !c.IsActive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *fakeCourtStore) ListByType(ctx context.Context, courtType string) ([]models.Court, error) {
	all, _ := s.List(ctx, true)
	var out []models.Court
	for _, c := range all {
		if c.Type == courtType {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *fakeCourtStore) Create(_ context.Context, c *models.Court) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courts[c.ID] = *c
	return nil
}

func (s *fakeCourtStore) Update(_ context.Context, c *models.Court) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.courts[c.ID] = *c
	return nil
}

func (s *fakeCourtStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.courts, id)
	return nil
}

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserStore(users ...models.User) *fakeUserStore {
	s := &fakeUserStore{users: make(map[string]models.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (s *fakeUserStore) List(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (s *fakeUserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = *u
	return nil
}

func (s *fakeUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	return nil
}

// fakeReservationStore mirrors the sqlite store's contract, including
// the atomic conflict re-check inside CreateConfirmed and UpdateSlot.
type fakeReservationStore struct {
	mu            sync.Mutex
	reservations  map[string]models.Reservation
	conflictCalls int
}

func newFakeReservationStore(rs ...models.Reservation) *fakeReservationStore {
	s := &fakeReservationStore{reservations: make(map[string]models.Reservation)}
	for _, r := range rs {
		s.reservations[r.ID] = r
	}
	return s
}

func (s *fakeReservationStore) GetByID(_ context.Context, id string) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (s *fakeReservationStore) ListAll(_ context.Context) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reservation
	for _, r := range s.reservations {
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeReservationStore) ListByUser(_ context.Context, userID string) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reservation
	for _, r := range s.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeReservationStore) ListByCourt(_ context.Context, courtID string) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reservation
	for _, r := range s.reservations {
		if r.CourtID == courtID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeReservationStore) ListByDateRange(_ context.Context, from, to time.Time) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Reservation
	for _, r := range s.reservations {
		if !r.StartTime.Before(from) && !r.EndTime.After(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeReservationStore) FindConflicts(_ context.Context, courtID string, start, end time.Time, excludeID string) ([]models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conflictCalls++
	return s.findConflictsLocked(courtID, start, end, excludeID), nil
}

func (s *fakeReservationStore) findConflictsLocked(courtID string, start, end time.Time, excludeID string) []models.Reservation {
	var out []models.Reservation
	for _, r := range s.reservations {
		if r.CourtID != courtID || r.Status == models.StatusCancelled || r.ID == excludeID {
			continue
		}
		if r.Overlaps(start, end) {
			out = append(out, r)
		}
	}
	return out
}

func (s *fakeReservationStore) CreateConfirmed(_ context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conflicts := s.findConflictsLocked(r.CourtID, r.StartTime, r.EndTime, ""); len(conflicts) > 0 {
		return &ConflictError{ConflictingID: conflicts[0].ID}
	}
	s.reservations[r.ID] = *r
	return nil
}

func (s *fakeReservationStore) UpdateSlot(_ context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conflicts := s.findConflictsLocked(r.CourtID, r.StartTime, r.EndTime, r.ID); len(conflicts) > 0 {
		return &ConflictError{ConflictingID: conflicts[0].ID}
	}
	s.reservations[r.ID] = *r
	return nil
}

func (s *fakeReservationStore) Update(_ context.Context, r *models.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations[r.ID] = *r
	return nil
}

func (s *fakeReservationStore) Cancel(_ context.Context, id, reason string, at time.Time) (*models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, &NotFoundError{Kind: "reservation", ID: id}
	}
	if r.Status.Terminal() {
		return nil, &InvalidStateError{Reason: "reservation is already " + string(r.Status)}
	}
	r.Status = models.StatusCancelled
	r.CancelledAt = &at
	r.CancellationReason = reason
	s.reservations[id] = r
	return &r, nil
}

func (s *fakeReservationStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reservations, id)
	return nil
}

func (s *fakeReservationStore) CountNonCancelledByCourt(_ context.Context, courtID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reservations {
		if r.CourtID == courtID && r.Status != models.StatusCancelled {
			n++
		}
	}
	return n, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []SlotChange
}

func (p *recordingPublisher) PublishSlotChange(change SlotChange) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, change)
}

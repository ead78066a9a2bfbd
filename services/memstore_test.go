package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/cppla/waldo/models"
	"github.com/cppla/waldo/repository"
)

// memStore is an in-memory Store that enforces the same unique constraints as the schema.
type memStore struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]models.User
	waldos map[uint]models.DailyWaldo
	hints  []models.WaldoHint
	finds  []models.WaldoFound

	// failRecord, when set, is returned by RecordFind before any write.
	failRecord error
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[uint]models.User{},
		waldos: map[uint]models.DailyWaldo{},
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.ID = m.id()
	m.users[u.ID] = *u
	return nil
}

func (m *memStore) UserByID(_ context.Context, id uint) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrNotFound
}

func (m *memStore) ListUsers(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListUsersByPoints(ctx context.Context) ([]models.User, error) {
	out, _ := m.ListUsers(ctx)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	return out, nil
}

func (m *memStore) ListUserIDs(ctx context.Context) ([]uint, error) {
	users, _ := m.ListUsers(ctx)
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

func (m *memStore) AddPoints(_ context.Context, userID uint, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	u.Points += delta
	m.users[userID] = u
	return u.Points, nil
}

func (m *memStore) WaldoByDate(_ context.Context, day time.Time) (models.DailyWaldo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.waldos {
		if w.Date.Equal(day) {
			return w, nil
		}
	}
	return models.DailyWaldo{}, repository.ErrNotFound
}

func (m *memStore) CreateWaldo(_ context.Context, w *models.DailyWaldo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[w.UserID]; !ok {
		return repository.ErrNotFound
	}
	for _, existing := range m.waldos {
		if existing.Date.Equal(w.Date) || existing.SecretCode == w.SecretCode {
			return repository.ErrDuplicate
		}
	}
	w.ID = m.id()
	m.waldos[w.ID] = *w
	return nil
}

func (m *memStore) CreateHint(_ context.Context, h *models.WaldoHint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.waldos[h.DailyWaldoID]; !ok {
		return repository.ErrNotFound
	}
	h.ID = m.id()
	m.hints = append(m.hints, *h)
	return nil
}

func (m *memStore) HintsByWaldoIDs(_ context.Context, waldoIDs []uint) (map[uint][]models.WaldoHint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := map[uint]bool{}
	for _, id := range waldoIDs {
		want[id] = true
	}
	out := map[uint][]models.WaldoHint{}
	for _, h := range m.hints {
		if want[h.DailyWaldoID] {
			out[h.DailyWaldoID] = append(out[h.DailyWaldoID], h)
		}
	}
	return out, nil
}

func (m *memStore) CountFinds(_ context.Context, waldoID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, f := range m.finds {
		if f.DailyWaldoID == waldoID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) HasFound(_ context.Context, userID, waldoID uint) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.finds {
		if f.UserID == userID && f.DailyWaldoID == waldoID {
			return true, nil
		}
	}
	return false, nil
}

// RecordFind applies both writes under one lock, mirroring the transaction.
func (m *memStore) RecordFind(_ context.Context, f *models.WaldoFound) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRecord != nil {
		return 0, m.failRecord
	}
	for _, existing := range m.finds {
		if existing.UserID == f.UserID && existing.DailyWaldoID == f.DailyWaldoID {
			return 0, repository.ErrDuplicate
		}
	}
	u, ok := m.users[f.UserID]
	if !ok {
		return 0, repository.ErrNotFound
	}
	f.ID = m.id()
	m.finds = append(m.finds, *f)
	u.Points += f.PointsEarned
	m.users[f.UserID] = u
	return u.Points, nil
}

func (m *memStore) FindsByUser(_ context.Context, userID uint) ([]models.WaldoFound, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.WaldoFound
	for i := len(m.finds) - 1; i >= 0; i-- {
		if m.finds[i].UserID == userID {
			out = append(out, m.finds[i])
		}
	}
	return out, nil
}

func (m *memStore) Stats(_ context.Context, today time.Time) (repository.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := repository.Stats{
		Users:  int64(len(m.users)),
		Waldos: int64(len(m.waldos)),
		Finds:  int64(len(m.finds)),
	}
	for _, f := range m.finds {
		if f.Date.Equal(today) {
			st.TodayFinders++
		}
	}
	return st, nil
}

func (m *memStore) waldoCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waldos)
}

func (m *memStore) findCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.finds)
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/cppla/waldo/models"
	"github.com/cppla/waldo/utils"
)

var (
	// ErrNotFound is returned when a lookup matches no row or a foreign key points nowhere.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// Stats is an aggregate snapshot of the game tables.
type Stats struct {
	Users        int64 `json:"user_count"`
	Waldos       int64 `json:"waldo_count"`
	Finds        int64 `json:"find_count"`
	TodayFinders int64 `json:"today_finder_count"`
}

// Store is the gorm-backed persistent store. Every call is scoped to the caller's context.
type Store struct {
	db *gorm.DB
}

// New wraps an opened gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateUser inserts a user; unique username/email violations come back as ErrDuplicate.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

// UserByID loads a single user.
func (s *Store) UserByID(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	return user, translate(err)
}

// UserByEmail loads a single user by email.
func (s *Store) UserByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return user, translate(err)
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("id ASC").Find(&users).Error
	return users, translate(err)
}

// ListUsersByPoints returns every user ordered by points desc, id asc.
func (s *Store) ListUsersByPoints(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("points DESC").Order("id ASC").Find(&users).Error
	return users, translate(err)
}

// ListUserIDs returns all user ids, the candidate pool for Waldo selection.
func (s *Store) ListUserIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.User{}).Order("id ASC").Pluck("id", &ids).Error
	return ids, translate(err)
}

// AddPoints atomically adds delta to the user's total and returns the new total.
func (s *Store) AddPoints(ctx context.Context, userID uint, delta int) (int, error) {
	var total int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		total, err = addPoints(tx, userID, delta)
		return err
	})
	return total, translate(err)
}

// WaldoByDate loads the Waldo for the given UTC day.
func (s *Store) WaldoByDate(ctx context.Context, day time.Time) (models.DailyWaldo, error) {
	var waldo models.DailyWaldo
	err := s.db.WithContext(ctx).Where("date = ?", day).First(&waldo).Error
	return waldo, translate(err)
}

// CreateWaldo inserts a Waldo; a second row for the same date or code comes back as ErrDuplicate.
func (s *Store) CreateWaldo(ctx context.Context, w *models.DailyWaldo) error {
	return translate(s.db.WithContext(ctx).Omit("User").Create(w).Error)
}

// CreateHint appends a hint.
func (s *Store) CreateHint(ctx context.Context, h *models.WaldoHint) error {
	return translate(s.db.WithContext(ctx).Omit("DailyWaldo").Create(h).Error)
}

// HintsByWaldoIDs loads the hints of several Waldos in one query, grouped by parent id
// and ordered by creation time.
func (s *Store) HintsByWaldoIDs(ctx context.Context, waldoIDs []uint) (map[uint][]models.WaldoHint, error) {
	out := make(map[uint][]models.WaldoHint, len(waldoIDs))
	if len(waldoIDs) == 0 {
		return out, nil
	}
	var hints []models.WaldoHint
	err := s.db.WithContext(ctx).
		Where("daily_waldo_id IN ?", utils.UniqueUint(waldoIDs)).
		Order("created_at ASC").Order("id ASC").
		Find(&hints).Error
	if err != nil {
		return nil, translate(err)
	}
	for _, h := range hints {
		out[h.DailyWaldoID] = append(out[h.DailyWaldoID], h)
	}
	return out, nil
}

// CountFinds returns how many users found the given Waldo.
func (s *Store) CountFinds(ctx context.Context, waldoID uint) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.WaldoFound{}).Where("daily_waldo_id = ?", waldoID).Count(&n).Error
	return n, translate(err)
}

// HasFound reports whether the user already claimed the given Waldo.
func (s *Store) HasFound(ctx context.Context, userID, waldoID uint) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.WaldoFound{}).
		Where("user_id = ? AND daily_waldo_id = ?", userID, waldoID).
		Count(&n).Error
	return n > 0, translate(err)
}

// RecordFind inserts the claim and credits the points in one transaction and returns the new total.
// Either both writes commit or neither does.
func (s *Store) RecordFind(ctx context.Context, f *models.WaldoFound) (int, error) {
	var total int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User", "DailyWaldo").Create(f).Error; err != nil {
			return err
		}
		var err error
		total, err = addPoints(tx, f.UserID, f.PointsEarned)
		return err
	})
	return total, translate(err)
}

// FindsByUser lists a user's claims, newest first.
func (s *Store) FindsByUser(ctx context.Context, userID uint) ([]models.WaldoFound, error) {
	var finds []models.WaldoFound
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("date DESC").Order("id DESC").Find(&finds).Error
	return finds, translate(err)
}

// Stats counts rows across the game tables; today is the UTC day used for the finder count.
func (s *Store) Stats(ctx context.Context, today time.Time) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&st.Users).Error; err != nil {
		return st, translate(err)
	}
	if err := db.Model(&models.DailyWaldo{}).Count(&st.Waldos).Error; err != nil {
		return st, translate(err)
	}
	if err := db.Model(&models.WaldoFound{}).Count(&st.Finds).Error; err != nil {
		return st, translate(err)
	}
	if err := db.Model(&models.WaldoFound{}).Where("date = ?", today).Count(&st.TodayFinders).Error; err != nil {
		return st, translate(err)
	}
	return st, nil
}

// addPoints runs inside a transaction. It reads the total back instead of trusting
// RowsAffected, which MySQL reports as 0 for a zero delta.
func addPoints(tx *gorm.DB, userID uint, delta int) (int, error) {
	err := tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("points", gorm.Expr("points + ?", delta)).Error
	if err != nil {
		return 0, err
	}
	var totals []int
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Pluck("points", &totals).Error; err != nil {
		return 0, err
	}
	if len(totals) == 0 {
		return 0, ErrNotFound
	}
	return totals[0], nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrDuplicate):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicate(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	case isForeignKey(err):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKey(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	var myErr *mysqldriver.MySQLError
	if errors.As(err, &myErr) && (myErr.Number == 1452 || myErr.Number == 1216) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

package services

import (
	"context"
	"time"

	"github.com/cppla/waldo/models"
	"github.com/cppla/waldo/repository"
)

// Store is the persistence the services need. *repository.Store satisfies it.
// Implementations must return repository.ErrNotFound and repository.ErrDuplicate
// (possibly wrapped) for missing rows and unique violations.
type Store interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id uint) (models.User, error)
	UserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListUsersByPoints(ctx context.Context) ([]models.User, error)
	ListUserIDs(ctx context.Context) ([]uint, error)
	AddPoints(ctx context.Context, userID uint, delta int) (int, error)

	WaldoByDate(ctx context.Context, day time.Time) (models.DailyWaldo, error)
	CreateWaldo(ctx context.Context, w *models.DailyWaldo) error
	CreateHint(ctx context.Context, h *models.WaldoHint) error
	HintsByWaldoIDs(ctx context.Context, waldoIDs []uint) (map[uint][]models.WaldoHint, error)
	CountFinds(ctx context.Context, waldoID uint) (int64, error)
	HasFound(ctx context.Context, userID, waldoID uint) (bool, error)
	RecordFind(ctx context.Context, f *models.WaldoFound) (int, error)
	FindsByUser(ctx context.Context, userID uint) ([]models.WaldoFound, error)
	Stats(ctx context.Context, today time.Time) (repository.Stats, error)
}

var _ Store = (*repository.Store)(nil)

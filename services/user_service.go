package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/waldo/models"
	"github.com/cppla/waldo/repository"
	"github.com/cppla/waldo/utils"
)

// RegisterInput carries the registration form. Every field is required.
type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	ProfileImageURL string
}

// FindView is one claim as listed on a user's profile.
type FindView struct {
	ID           uint   `json:"id"`
	DailyWaldoID uint   `json:"daily_waldo_id"`
	User         string `json:"user"`
	PointsEarned int    `json:"points_earned"`
	Date         string `json:"date"`
}

// UserService covers accounts, points adjustments and the leaderboard.
type UserService struct {
	store      Store
	logger     *zap.Logger
	adminNames []string
}

// NewUserService builds the service. Users registering with a name in adminNames become admins.
func NewUserService(store Store, logger *zap.Logger, adminNames []string) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{store: store, logger: logger, adminNames: adminNames}
}

// Register creates an account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.ProfileImageURL = strings.TrimSpace(in.ProfileImageURL)

	var missing []string
	if in.Username == "" {
		missing = append(missing, "username")
	}
	if in.Email == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if in.ProfileImageURL == "" {
		missing = append(missing, "profile_image_url")
	}
	if len(missing) > 0 {
		return models.User{}, MissingField(missing...)
	}
	if !utils.IsWebURL(in.ProfileImageURL) {
		return models.User{}, ErrInvalidImageURL
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return models.User{}, Internal(err)
	}

	user := models.User{
		Username:        in.Username,
		Email:           in.Email,
		PasswordHash:    hash,
		ProfileImageURL: in.ProfileImageURL,
		Admin:           s.isAdminName(in.Username),
	}
	if err := s.store.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.User{}, ErrAlreadyExists
		}
		return models.User{}, Internal(err)
	}
	s.logger.Info("user registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login verifies an email/password pair.
func (s *UserService) Login(ctx context.Context, email, password string) (models.User, error) {
	email = strings.TrimSpace(email)
	var missing []string
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return models.User{}, MissingField(missing...)
	}

	user, err := s.store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.User{}, NotFound("user")
		}
		return models.User{}, Internal(err)
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		return models.User{}, ErrInvalidCredential
	}
	return user, nil
}

// IsAdmin reports whether the user holds the admin flag or is a configured admin username.
func (s *UserService) IsAdmin(user models.User) bool {
	return user.Admin || s.isAdminName(user.Username)
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, Internal(err)
	}
	if users == nil {
		users = []models.User{}
	}
	return users, nil
}

// GetUser loads one user.
func (s *UserService) GetUser(ctx context.Context, id uint) (models.User, error) {
	user, err := s.store.UserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.User{}, NotFound("user")
		}
		return models.User{}, Internal(err)
	}
	return user, nil
}

// AdjustPoints adds delta (possibly negative) to the user's total and returns the new total.
func (s *UserService) AdjustPoints(ctx context.Context, id uint, delta int) (int, error) {
	total, err := s.store.AddPoints(ctx, id, delta)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, NotFound("user")
		}
		return 0, Internal(err)
	}
	s.logger.Info("points adjusted", zap.Uint("user_id", id), zap.Int("delta", delta), zap.Int("total", total))
	return total, nil
}

// Finds lists the user's claims, newest first.
func (s *UserService) Finds(ctx context.Context, id uint) ([]FindView, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	finds, err := s.store.FindsByUser(ctx, id)
	if err != nil {
		return nil, Internal(err)
	}
	out := make([]FindView, 0, len(finds))
	for _, f := range finds {
		out = append(out, FindView{
			ID:           f.ID,
			DailyWaldoID: f.DailyWaldoID,
			User:         user.Username,
			PointsEarned: f.PointsEarned,
			Date:         f.Date.UTC().Format(time.DateOnly),
		})
	}
	return out, nil
}

// Leaderboard ranks every user by cumulative points.
func (s *UserService) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	users, err := s.store.ListUsersByPoints(ctx)
	if err != nil {
		return nil, Internal(err)
	}
	return BuildLeaderboard(users), nil
}

func (s *UserService) isAdminName(username string) bool {
	uname := strings.TrimSpace(username)
	if uname == "" {
		return false
	}
	for _, u := range s.adminNames {
		if strings.TrimSpace(u) == uname {
			return true
		}
	}
	return false
}

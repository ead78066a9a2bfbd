package controllers

import (
	"context"

	"github.com/cppla/waldo/models"
	"github.com/cppla/waldo/repository"
	"github.com/cppla/waldo/services"
)

// stubUsers answers every UserOps call from its function fields; unset fields panic.
type stubUsers struct {
	register     func(services.RegisterInput) (models.User, error)
	login        func(email, password string) (models.User, error)
	getUser      func(id uint) (models.User, error)
	listUsers    func() ([]models.User, error)
	adjustPoints func(id uint, delta int) (int, error)
	finds        func(id uint) ([]services.FindView, error)
	leaderboard  func() ([]services.LeaderboardEntry, error)
}

func (s *stubUsers) Register(_ context.Context, in services.RegisterInput) (models.User, error) {
	return s.register(in)
}

func (s *stubUsers) Login(_ context.Context, email, password string) (models.User, error) {
	return s.login(email, password)
}

func (s *stubUsers) IsAdmin(u models.User) bool { return u.Admin }

func (s *stubUsers) ListUsers(context.Context) ([]models.User, error) { return s.listUsers() }

func (s *stubUsers) GetUser(_ context.Context, id uint) (models.User, error) { return s.getUser(id) }

func (s *stubUsers) AdjustPoints(_ context.Context, id uint, delta int) (int, error) {
	return s.adjustPoints(id, delta)
}

func (s *stubUsers) Finds(_ context.Context, id uint) ([]services.FindView, error) {
	return s.finds(id)
}

func (s *stubUsers) Leaderboard(context.Context) ([]services.LeaderboardEntry, error) {
	return s.leaderboard()
}

type stubWaldos struct {
	today      func() (services.WaldoView, error)
	selectOne  func() (services.WaldoView, error)
	claim      func(userID uint, code string) (services.ClaimResult, error)
	addHint    func(text, image string) (models.WaldoHint, error)
	hints      func() ([]models.WaldoHint, error)
	secretCode func() (string, error)
	stats      func() (repository.Stats, error)
}

func (s *stubWaldos) Today(context.Context) (services.WaldoView, error) { return s.today() }

func (s *stubWaldos) SelectWaldo(context.Context) (services.WaldoView, error) { return s.selectOne() }

func (s *stubWaldos) Claim(_ context.Context, userID uint, code string) (services.ClaimResult, error) {
	return s.claim(userID, code)
}

func (s *stubWaldos) AddHint(_ context.Context, text, image string) (models.WaldoHint, error) {
	return s.addHint(text, image)
}

func (s *stubWaldos) Hints(context.Context) ([]models.WaldoHint, error) { return s.hints() }

func (s *stubWaldos) SecretCode(context.Context) (string, error) { return s.secretCode() }

func (s *stubWaldos) Stats(context.Context) (repository.Stats, error) { return s.stats() }

package controllers

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/waldo/models"
	"github.com/cppla/waldo/repository"
	"github.com/cppla/waldo/services"
	"github.com/cppla/waldo/utils"
)

// UserOps is what the user and auth handlers need. *services.UserService implements it.
type UserOps interface {
	Register(ctx context.Context, in services.RegisterInput) (models.User, error)
	Login(ctx context.Context, email, password string) (models.User, error)
	IsAdmin(user models.User) bool
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id uint) (models.User, error)
	AdjustPoints(ctx context.Context, id uint, delta int) (int, error)
	Finds(ctx context.Context, id uint) ([]services.FindView, error)
	Leaderboard(ctx context.Context) ([]services.LeaderboardEntry, error)
}

// WaldoOps is what the game handlers need. *services.WaldoService implements it.
type WaldoOps interface {
	Today(ctx context.Context) (services.WaldoView, error)
	SelectWaldo(ctx context.Context) (services.WaldoView, error)
	Claim(ctx context.Context, userID uint, code string) (services.ClaimResult, error)
	AddHint(ctx context.Context, text, imageURL string) (models.WaldoHint, error)
	Hints(ctx context.Context) ([]models.WaldoHint, error)
	SecretCode(ctx context.Context) (string, error)
	Stats(ctx context.Context) (repository.Stats, error)
}

var (
	_ UserOps  = (*services.UserService)(nil)
	_ WaldoOps = (*services.WaldoService)(nil)
)

// fail answers with the status and public message of a service error.
func fail(ctx *gin.Context, err error) {
	utils.Fail(ctx, err, func(err error) (int, string) {
		return services.HTTPStatus(err), services.PublicMessage(err)
	})
}

// userIDParam parses the :id path segment. Non-numeric ids are reported as a missing user.
func userIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 64)
	if err != nil || id == 0 {
		fail(ctx, services.NotFound("user"))
		return 0, false
	}
	return uint(id), true
}

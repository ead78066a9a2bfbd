package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/waldo/models"
	"github.com/cppla/waldo/services"
	"github.com/cppla/waldo/utils"
)

// UserController serves user listings, profiles, finds and admin point adjustments.
type UserController struct {
	users UserOps
}

// NewUserController creates a new UserController instance.
func NewUserController(users UserOps) *UserController {
	return &UserController{users: users}
}

// ListUsers returns every registered user.
func (u *UserController) ListUsers(ctx *gin.Context) {
	users, err := u.users.ListUsers(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"users": users})
}

// GetUser returns one user, served from the profile cache when possible.
func (u *UserController) GetUser(ctx *gin.Context) {
	id, ok := userIDParam(ctx)
	if !ok {
		return
	}
	var cached models.User
	if utils.CacheGetJSON(utils.UserCacheKey(id), &cached) {
		utils.Success(ctx, cached)
		return
	}
	gen := utils.UserCacheGeneration(id)
	user, err := u.users.GetUser(ctx.Request.Context(), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	utils.CacheSetUserIfCurrent(id, gen, user)
	utils.Success(ctx, user)
}

// AdjustPoints adds an integer delta to a user's total. Body: {"points": <int>}.
func (u *UserController) AdjustPoints(ctx *gin.Context) {
	id, ok := userIDParam(ctx)
	if !ok {
		return
	}
	var body map[string]json.RawMessage
	if err := ctx.ShouldBindJSON(&body); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	if _, err := u.users.GetUser(ctx.Request.Context(), id); err != nil {
		fail(ctx, err)
		return
	}

	raw, present := body["points"]
	if !present || string(raw) == "null" {
		fail(ctx, services.MissingField("points"))
		return
	}
	var delta int
	if err := json.Unmarshal(raw, &delta); err != nil {
		fail(ctx, services.ErrInvalidDelta)
		return
	}

	total, err := u.users.AdjustPoints(ctx.Request.Context(), id, delta)
	if err != nil {
		fail(ctx, err)
		return
	}
	utils.InvalidateUserCache(id)
	utils.Success(ctx, gin.H{"new_points": total})
}

// Finds lists the Waldos a user has found, newest first.
func (u *UserController) Finds(ctx *gin.Context) {
	id, ok := userIDParam(ctx)
	if !ok {
		return
	}
	finds, err := u.users.Finds(ctx.Request.Context(), id)
	if err != nil {
		fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"finds": finds})
}

// Leaderboard ranks all users by points; recomputed on every request.
func (u *UserController) Leaderboard(ctx *gin.Context) {
	board, err := u.users.Leaderboard(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"leaderboard": board})
}

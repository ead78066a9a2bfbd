package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/waldo/middleware"
	"github.com/cppla/waldo/services"
	"github.com/cppla/waldo/utils"
)

// WaldoController exposes the daily game: selection, today's Waldo, claims and hints.
type WaldoController struct {
	waldos WaldoOps
}

// NewWaldoController creates a new WaldoController instance.
func NewWaldoController(waldos WaldoOps) *WaldoController {
	return &WaldoController{waldos: waldos}
}

// Create selects today's Waldo. 409 when one is already selected.
func (w *WaldoController) Create(ctx *gin.Context) {
	view, err := w.waldos.SelectWaldo(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	utils.Created(ctx, gin.H{"new_waldo": view})
}

// Today returns today's Waldo, selecting one on first access.
func (w *WaldoController) Today(ctx *gin.Context) {
	view, err := w.waldos.Today(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	utils.Success(ctx, view)
}

// Found claims today's Waldo. Body: {"user_id": <id>, "secret_code": "<code>"}.
func (w *WaldoController) Found(ctx *gin.Context) {
	var req struct {
		UserID     *uint   `json:"user_id"`
		SecretCode *string `json:"secret_code"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}
	var missing []string
	if req.UserID == nil {
		missing = append(missing, "user_id")
	}
	if req.SecretCode == nil {
		missing = append(missing, "secret_code")
	}
	if len(missing) > 0 {
		middleware.RecordClaim("bad_request", 0)
		fail(ctx, services.MissingField(missing...))
		return
	}

	res, err := w.waldos.Claim(ctx.Request.Context(), *req.UserID, *req.SecretCode)
	if err != nil {
		middleware.RecordClaim(claimOutcome(err), 0)
		fail(ctx, err)
		return
	}
	middleware.RecordClaim("ok", res.PointsAwarded)
	utils.InvalidateUserCache(*req.UserID)
	utils.Success(ctx, res)
}

// AddHint attaches a hint to today's Waldo. Body: {"hint_text": "...", "hint_image_url": "..."}.
func (w *WaldoController) AddHint(ctx *gin.Context) {
	var req struct {
		HintText     string `json:"hint_text"`
		HintImageURL string `json:"hint_image_url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}
	hint, err := w.waldos.AddHint(ctx.Request.Context(), req.HintText, req.HintImageURL)
	if err != nil {
		fail(ctx, err)
		return
	}
	utils.Created(ctx, hint)
}

// Hints lists today's hints in creation order.
func (w *WaldoController) Hints(ctx *gin.Context) {
	hints, err := w.waldos.Hints(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"hints": hints})
}

// Code returns today's secret code.
func (w *WaldoController) Code(ctx *gin.Context) {
	code, err := w.waldos.SecretCode(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"secret_code": code})
}

func claimOutcome(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, services.ErrAlreadyFound):
		return "already_found"
	case errors.Is(err, services.ErrNoWaldoToday):
		return "no_waldo"
	case errors.Is(err, services.ErrNotFound):
		return "unknown_user"
	default:
		return "error"
	}
}

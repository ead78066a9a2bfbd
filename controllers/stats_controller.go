package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/waldo/utils"
)

// StatsController provides game-wide counts.
type StatsController struct {
	waldos WaldoOps
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(waldos WaldoOps) *StatsController {
	return &StatsController{waldos: waldos}
}

// GetStats returns user, waldo and find counts plus how many found today's Waldo.
func (s *StatsController) GetStats(ctx *gin.Context) {
	st, err := s.waldos.Stats(ctx.Request.Context())
	if err != nil {
		fail(ctx, err)
		return
	}
	utils.Success(ctx, st)
}

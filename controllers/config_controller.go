package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/waldo/config"
	"github.com/cppla/waldo/services"
	"github.com/cppla/waldo/utils"
)

// ConfigController serves the client-facing game settings.
type ConfigController struct{}

func NewConfigController() *ConfigController { return &ConfigController{} }

// GetGame returns the scoring constants, the notice text and whether registration needs a captcha.
func (c *ConfigController) GetGame(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"base_points":     services.BasePoints,
		"decay_step":      services.DecayStep,
		"captcha_enabled": cfg.RegisterCaptchaEnabled,
		"notice": gin.H{
			"title": cfg.NoticeTitle,
			"html":  cfg.NoticeHTML,
		},
	})
}

package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/waldo/config"
	"github.com/cppla/waldo/middleware"
	"github.com/cppla/waldo/models"
	"github.com/cppla/waldo/services"
	"github.com/cppla/waldo/utils"
)

// AuthController handles registration, login and the session endpoints.
type AuthController struct {
	users UserOps
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(users UserOps) *AuthController {
	return &AuthController{users: users}
}

type loginResponse struct {
	models.User
	Token string `json:"token"`
}

// Register creates an account. With register.captcha_enabled a solved captcha is required too.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ProfileImageURL string `json:"profile_image_url"`
		CaptchaID       string `json:"captcha_id"`
		CaptchaAnswer   string `json:"captcha_answer"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	if config.Get().RegisterCaptchaEnabled {
		if !utils.VerifyCaptcha(strings.TrimSpace(req.CaptchaID), strings.TrimSpace(req.CaptchaAnswer)) {
			utils.Error(ctx, http.StatusBadRequest, "invalid captcha")
			return
		}
	}

	user, err := a.users.Register(ctx.Request.Context(), services.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		fail(ctx, err)
		return
	}
	utils.Created(ctx, user)
}

// Login verifies email and password and issues a JWT alongside the user record.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return
	}

	user, err := a.users.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(ctx, err)
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Username, a.users.IsAdmin(user), utils.TokenTTL())
	if err != nil {
		fail(ctx, services.Internal(err))
		return
	}
	utils.Success(ctx, loginResponse{User: user, Token: token})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := ctx.GetString(middleware.ContextTokenKey)
	expiresAt := time.Now().Add(utils.TokenTTL())
	if v, ok := ctx.Get(middleware.ContextClaimsKey); ok {
		if claims, ok := v.(*utils.Claims); ok && claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
	}
	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user.
func (a *AuthController) Me(ctx *gin.Context) {
	user, err := a.users.GetUser(ctx.Request.Context(), ctx.GetUint(middleware.ContextUserIDKey))
	if err != nil {
		fail(ctx, err)
		return
	}
	utils.Success(ctx, user)
}

// Captcha returns a fresh captcha id and base64 image (data URI).
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, b64, err := utils.GenerateCaptcha()
	if err != nil {
		fail(ctx, services.Internal(err))
		return
	}
	utils.Success(ctx, gin.H{"id": id, "image": b64})
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/waldo/config"
	"github.com/cppla/waldo/utils"
)

const (
	// ContextUserIDKey is the key used to store authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextUsernameKey stores the username inside Gin context.
	ContextUsernameKey = "username"
	// ContextAdminKey stores whether the caller holds admin rights.
	ContextAdminKey = "admin"
	// ContextClaimsKey stores the parsed token claims, used by logout.
	ContextClaimsKey = "claims"
	// ContextTokenKey stores the raw bearer token.
	ContextTokenKey = "token"
)

// AuthRequired ensures the request is authenticated via JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !authenticate(ctx) {
			return
		}
		ctx.Next()
	}
}

// AdminRequired lets through callers whose token carries the admin flag or whose
// username is listed in admin.usernames. With admin.enforce off every caller passes.
func AdminRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		cfg := config.Get()
		if !cfg.AdminEnforce {
			ctx.Next()
			return
		}
		if !authenticate(ctx) {
			return
		}
		if !ctx.GetBool(ContextAdminKey) && !isAdminName(cfg.AdminUsernames, ctx.GetString(ContextUsernameKey)) {
			utils.Error(ctx, http.StatusForbidden, "admin only")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// authenticate parses the bearer token into the context, or aborts with 401.
func authenticate(ctx *gin.Context) bool {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		utils.Error(ctx, http.StatusUnauthorized, "authorization header missing")
		ctx.Abort()
		return false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		utils.Error(ctx, http.StatusUnauthorized, "invalid authorization header format")
		ctx.Abort()
		return false
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		utils.Error(ctx, http.StatusUnauthorized, "empty bearer token")
		ctx.Abort()
		return false
	}

	if utils.IsTokenBlacklisted(tokenString) {
		utils.Error(ctx, http.StatusUnauthorized, "token revoked")
		ctx.Abort()
		return false
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, "invalid token")
		ctx.Abort()
		return false
	}

	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextUsernameKey, claims.Username)
	ctx.Set(ContextAdminKey, claims.Admin)
	ctx.Set(ContextClaimsKey, claims)
	ctx.Set(ContextTokenKey, tokenString)
	return true
}

func isAdminName(names []string, username string) bool {
	username = strings.TrimSpace(username)
	if username == "" {
		return false
	}
	for _, n := range names {
		if strings.TrimSpace(n) == username {
			return true
		}
	}
	return false
}

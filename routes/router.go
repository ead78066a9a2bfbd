package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cppla/waldo/config"
	"github.com/cppla/waldo/controllers"
	"github.com/cppla/waldo/middleware"
	"github.com/cppla/waldo/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(users controllers.UserOps, waldos controllers.WaldoOps) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Access log goes to its own rolling file, apart from the application log.
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, true))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))
	r.Use(middleware.Metrics())

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authController := controllers.NewAuthController(users)
	userController := controllers.NewUserController(users)
	waldoController := controllers.NewWaldoController(waldos)
	statsController := controllers.NewStatsController(waldos)
	configController := controllers.NewConfigController()

	admin := middleware.AdminRequired()

	// Each limited route keeps its own per-IP buckets.
	authGroup := r.Group("/auth")
	authGroup.POST("/register/", middleware.RateLimitMiddleware(), authController.Register)
	authGroup.POST("/login/", middleware.RateLimitMiddleware(), authController.Login)
	authGroup.POST("/logout/", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me/", middleware.AuthRequired(), authController.Me)
	authGroup.GET("/captcha/", middleware.RateLimitMiddleware(), authController.Captcha)

	userGroup := r.Group("/user")
	userGroup.GET("/users/", userController.ListUsers)
	userGroup.GET("/:id/", userController.GetUser)
	userGroup.GET("/finds/:id/", userController.Finds)
	userGroup.POST("/points/:id/", admin, userController.AdjustPoints)

	waldoGroup := r.Group("/waldo")
	waldoGroup.POST("/create/", admin, waldoController.Create)
	waldoGroup.GET("/today/", waldoController.Today)
	waldoGroup.POST("/found/", middleware.RateLimitMiddleware(), waldoController.Found)
	waldoGroup.POST("/hints/", waldoController.AddHint)
	waldoGroup.GET("/hints/", waldoController.Hints)
	waldoGroup.GET("/code/", admin, waldoController.Code)

	r.GET("/leaderboard/", userController.Leaderboard)
	r.GET("/stats/", statsController.GetStats)
	r.GET("/config/game/", configController.GetGame)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, "not found")
	})

	return r
}

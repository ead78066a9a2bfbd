package main

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/cppla/waldo/config"
	"github.com/cppla/waldo/middleware"
	"github.com/cppla/waldo/models"
	"github.com/cppla/waldo/repository"
	"github.com/cppla/waldo/routes"
	"github.com/cppla/waldo/services"
	"github.com/cppla/waldo/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer func() { _ = utils.Logger.Sync() }()

	db := config.InitDatabase(&models.User{}, &models.DailyWaldo{}, &models.WaldoHint{}, &models.WaldoFound{})
	if sqlDB, err := db.DB(); err == nil {
		prometheus.MustRegister(collectors.NewDBStatsCollector(sqlDB, "waldo"))
	}

	store := repository.New(db)
	users := services.NewUserService(store, utils.Logger, cfg.AdminUsernames)
	waldos := services.NewWaldoService(store, utils.Logger).
		ExcludePrevious(cfg.ExcludePreviousWaldo).
		WithNotifier(services.NotifierFunc(onSelected))

	r := routes.SetupRouter(users, waldos)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// onSelected counts the selection and mails the new Waldo their code when SMTP is set up.
// Mail goes out in the background so the selecting request never waits on SMTP.
func onSelected(_ context.Context, user models.User, code string, day time.Time) error {
	middleware.RecordSelection()
	if !utils.MailConfigured() {
		return nil
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := utils.NotifyWaldoByMail(ctx, user, code, day); err != nil {
			utils.Logger.Warn("failed to mail waldo code", zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}()
	return nil
}

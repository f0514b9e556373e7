package main

import (
	"log"

	"github.com/fanpulse/internal/config"
	"github.com/fanpulse/internal/db"
	"github.com/fanpulse/internal/handler"
	"github.com/fanpulse/internal/router"
	"github.com/fanpulse/internal/service"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	// 按需创建超级管理员
	if err := db.EnsureAdmin(cfg.SuperRootUserName, cfg.SuperRootPassword, service.NewReferralCode()); err != nil {
		log.Fatalf("failed to ensure super root user: %v", err)
	}

	rewards := service.DefaultRewardConfig()
	api := handler.NewAPI(db.DB, rewards, service.LogNotifier{}, cfg.UploadDir, cfg.UploadURLPath)

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.SessionSecret)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("failed to run server: %v", err)
	}
}

package main

import (
	"log"

	"github.com/deenlog/internal/config"
	"github.com/deenlog/internal/db"
	"github.com/deenlog/internal/router"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatalf("初始化数据库失败: %v", err)
	}

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		if err := db.EnsureUser(cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("初始化管理员账号失败: %v", err)
		}
	}

	r := router.SetupRouter(cfg)
	log.Printf("DeenLog 已启动，监听 %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("服务启动失败: %v", err)
	}
}

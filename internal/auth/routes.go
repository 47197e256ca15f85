package auth

import (
	"log"

	"tgw_go/internal/config"
	"tgw_go/internal/manager"
	"tgw_go/pkg/storage"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.RouterGroup, db *storage.DB, m *manager.Manager, cfg config.Config) {
	handler := NewHandler(db, m, cfg)
	r.POST("/sendCode", handler.SendCode)
	r.POST("/verifyCode", handler.VerifyCode)
	r.POST("/password", handler.Password)

	log.Printf("[ROUTER] Auth routes registered")
}

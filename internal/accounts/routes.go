package accounts

import (
	"log"

	"tgw_go/internal/manager"
	"tgw_go/pkg/storage"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.RouterGroup, db *storage.DB, m *manager.Manager) {
	handler := NewHandler(db, m)
	r.POST("", handler.CreateAccount)
	r.GET("", handler.ListAccounts)

	log.Printf("[ROUTER] Account routes registered")
}

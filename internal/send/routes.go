package send

import (
	"log"

	"tgw_go/internal/manager"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.RouterGroup, m *manager.Manager) {
	handler := NewHandler(m)
	r.POST("", handler.Send)

	log.Printf("[ROUTER] Send routes registered")
}

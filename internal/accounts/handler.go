package accounts

import (
	"log"
	"net/http"

	"tgw_go/internal/httputil"
	"tgw_go/internal/manager"
	"tgw_go/models"
	"tgw_go/pkg/storage"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	DB      *storage.DB
	Manager *manager.Manager
}

func NewHandler(db *storage.DB, m *manager.Manager) *Handler {
	return &Handler{DB: db, Manager: m}
}

// CreateAccount сохраняет аккаунт с готовой сессией и сразу поднимает его.
// Повторная запись того же номера обновляет сессию и ключи, сохраняя ID.
func (h *Handler) CreateAccount(c *gin.Context) {
	var input struct {
		Phone   string `json:"phone" binding:"required"`
		Session string `json:"session" binding:"required"`
		ApiID   int    `json:"api_id" binding:"required"`
		ApiHash string `json:"api_hash" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid data")
		return
	}

	created, err := h.DB.UpsertAccount(models.Account{
		Phone:   input.Phone,
		Session: input.Session,
		ApiID:   input.ApiID,
		ApiHash: input.ApiHash,
	})
	if err != nil {
		log.Printf("[HANDLER ERROR] Не удалось сохранить аккаунт: %v", err)
		httputil.RespondError(c, http.StatusInternalServerError, "DB error")
		return
	}

	if _, err := h.Manager.StartAccount(*created); err != nil {
		log.Printf("[HANDLER ERROR] Аккаунт %s сохранён, но не подключён: %v", created.Phone, err)
		httputil.RespondError(c, http.StatusBadGateway, "Account saved, but connection failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, created)
}

// ListAccounts возвращает все известные аккаунты.
// Сессия отдаётся как есть — непрозрачной строкой, клиенты её не разбирают.
func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.DB.GetAllAccounts()
	if err != nil {
		httputil.RespondError(c, http.StatusInternalServerError, "DB error")
		return
	}
	c.JSON(http.StatusOK, accounts)
}

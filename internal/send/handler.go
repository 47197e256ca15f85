package send

import (
	"errors"
	"log"
	"net/http"

	"tgw_go/internal/httputil"
	"tgw_go/internal/manager"
	"tgw_go/models"
	telegram "tgw_go/pkg/telegram"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	Manager *manager.Manager
}

func NewHandler(m *manager.Manager) *Handler {
	return &Handler{Manager: m}
}

// Send отправляет сообщение от имени указанного аккаунта.
// Если сессия аккаунта ещё не запущена, она поднимается по записи из БД.
func (h *Handler) Send(c *gin.Context) {
	var request struct {
		AccountID int                `json:"account_id" binding:"required"`
		ChatID    models.ChatID      `json:"chat_id" binding:"required"`
		Text      string             `json:"text" binding:"required"`
		Options   models.SendOptions `json:"options"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	err := h.Manager.Send(c.Request.Context(), request.AccountID, models.OutgoingMessage{
		ChatID:  request.ChatID,
		Text:    request.Text,
		Options: request.Options,
	})
	switch {
	case errors.Is(err, manager.ErrAccountNotFound):
		httputil.RespondError(c, http.StatusNotFound, "Account not found")
	case errors.Is(err, telegram.ErrReauthRequired):
		httputil.RespondError(c, http.StatusUnauthorized, "Session expired, re-login required")
	case err != nil:
		log.Printf("[HANDLER ERROR] Отправка от аккаунта %d не удалась: %v", request.AccountID, err)
		httputil.RespondError(c, http.StatusInternalServerError, "Failed to send message")
	default:
		c.JSON(http.StatusOK, gin.H{"status": "sent"})
	}
}

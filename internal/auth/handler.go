package auth

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"tgw_go/internal/config"
	"tgw_go/internal/httputil"
	"tgw_go/internal/manager"
	"tgw_go/models"
	"tgw_go/pkg/storage"
	telegram "tgw_go/pkg/telegram"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	DB      *storage.DB
	Manager *manager.Manager
	Cfg     config.Config
}

func NewHandler(db *storage.DB, m *manager.Manager, cfg config.Config) *Handler {
	return &Handler{DB: db, Manager: m, Cfg: cfg}
}

// SendCode начинает вход: создаёт запись аккаунта и запрашивает код подтверждения.
// Запись нужна заранее — хранилище сессии пишет в неё состояние ещё до конца входа.
// Повторный sendCode для номера начинает вход заново и обнуляет старую сессию.
func (h *Handler) SendCode(c *gin.Context) {
	var input struct {
		Phone   string `json:"phone"`
		ApiID   int    `json:"api_id"`
		ApiHash string `json:"api_hash"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid data")
		return
	}

	// Недостающие поля добираем из конфигурации процесса.
	phone := input.Phone
	if phone == "" {
		phone = h.Cfg.TelegramPhone
	}
	apiID := input.ApiID
	if apiID == 0 {
		apiID = h.Cfg.TelegramAPIID
	}
	apiHash := input.ApiHash
	if apiHash == "" {
		apiHash = h.Cfg.TelegramAPIHash
	}
	if phone == "" {
		httputil.RespondError(c, http.StatusBadRequest, "Phone is required")
		return
	}
	if apiID == 0 || apiHash == "" {
		httputil.RespondError(c, http.StatusBadRequest, "api_id and api_hash are required")
		return
	}

	account, err := h.DB.UpsertAccount(models.Account{Phone: phone, ApiID: apiID, ApiHash: apiHash})
	if err != nil {
		log.Printf("[HANDLER ERROR] Не удалось создать аккаунт в БД: %v", err)
		httputil.RespondError(c, http.StatusInternalServerError, "DB error")
		return
	}

	hash, err := telegram.RequestCode(h.DB, *account, h.Cfg.Proxy)
	if err != nil {
		log.Printf("[HANDLER ERROR] Не удалось получить код: %v", err)
		httputil.RespondError(c, http.StatusInternalServerError, "Failed to request code")
		return
	}

	log.Printf("[INFO] Код отправлен на номер %s (аккаунт ID=%d)", phone, account.ID)
	c.JSON(http.StatusOK, gin.H{"account_id": account.ID, "phone_code_hash": hash})
}

// VerifyCode завершает вход по коду из Telegram.
// Если включена 2FA, отвечает password_needed — вход продолжится в /auth/password.
func (h *Handler) VerifyCode(c *gin.Context) {
	var input struct {
		Phone         string `json:"phone"`
		Code          string `json:"code" binding:"required"`
		PhoneCodeHash string `json:"phone_code_hash"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid code")
		return
	}

	account, ok := h.accountByPhone(c, input.Phone)
	if !ok {
		return
	}
	// Хеш из запроса имеет приоритет над сохранённым в БД.
	if input.PhoneCodeHash != "" {
		account.PhoneCodeHash = input.PhoneCodeHash
	}

	err := telegram.CompleteAuthorization(h.DB, *account, input.Code, h.Cfg.Proxy)
	if errors.Is(err, telegram.ErrPasswordNeeded) {
		// Частичная сессия уже сохранена; остался только пароль.
		c.JSON(http.StatusOK, gin.H{"password_needed": true})
		return
	}
	if err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Auth failed: "+err.Error())
		return
	}

	h.finishLogin(c, account.ID)
}

// Password завершает вход с паролем двухфакторной защиты.
func (h *Handler) Password(c *gin.Context) {
	var input struct {
		Phone    string `json:"phone"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.RespondError(c, http.StatusBadRequest, "Invalid data")
		return
	}

	account, ok := h.accountByPhone(c, input.Phone)
	if !ok {
		return
	}

	if err := telegram.CheckPassword(h.DB, *account, input.Password, h.Cfg.Proxy); err != nil {
		// Неудачная проверка пароля означает, что вход надо начинать заново.
		httputil.RespondError(c, http.StatusUnauthorized, "Password check failed: "+err.Error())
		return
	}

	h.finishLogin(c, account.ID)
}

// accountByPhone достаёт запись аккаунта для продолжения входа.
func (h *Handler) accountByPhone(c *gin.Context, phone string) (*models.Account, bool) {
	if phone == "" {
		phone = h.Cfg.TelegramPhone
	}
	if phone == "" {
		httputil.RespondError(c, http.StatusBadRequest, "Phone is required")
		return nil, false
	}

	account, err := h.DB.GetAccountByPhone(phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Printf("[WARN] Аккаунт %s не найден: %v", phone, err)
			httputil.RespondError(c, http.StatusNotFound, "Account not found")
			return nil, false
		}
		log.Printf("[HANDLER ERROR] Не удалось получить аккаунт %s: %v", phone, err)
		httputil.RespondError(c, http.StatusInternalServerError, "DB error")
		return nil, false
	}
	return account, true
}

// finishLogin перечитывает аккаунт со свежей сессией, поднимает его
// и отдаёт сессию клиенту как непрозрачную строку.
func (h *Handler) finishLogin(c *gin.Context, accountID int) {
	account, err := h.DB.GetAccountByID(accountID)
	if err != nil {
		log.Printf("[HANDLER ERROR] Не удалось перечитать аккаунт %d: %v", accountID, err)
		httputil.RespondError(c, http.StatusInternalServerError, "DB error")
		return
	}

	if _, err := h.Manager.StartAccount(*account); err != nil {
		// Вход завершён, но соединение не поднялось — сообщаем об этом явно.
		log.Printf("[HANDLER ERROR] Аккаунт %s авторизован, но не подключён: %v", account.Phone, err)
		httputil.RespondError(c, http.StatusBadGateway, "Authorized, but failed to start session: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"account_id": account.ID, "session": account.Session})
}

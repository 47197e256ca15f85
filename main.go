package main

import (
	"database/sql"
	"log"

	"tgw_go/internal/accounts"
	"tgw_go/internal/auth"
	"tgw_go/internal/config"
	"tgw_go/internal/manager"
	"tgw_go/internal/middleware"
	"tgw_go/internal/send"
	"tgw_go/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// .env необязателен: в проде переменные приходят из окружения
	if err := godotenv.Load(); err != nil {
		log.Printf("[CONFIG] .env не загружен: %v", err)
	}
	cfg := config.Load()

	// Инициализация подключения к БД
	dbConn, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbConn.Close()

	// Проверка подключения
	if err := dbConn.Ping(); err != nil {
		log.Fatalf("Database ping failed: %v", err)
	}

	db := storage.NewDB(dbConn)
	mgr := manager.New(db, cfg.Proxy)

	// Восстанавливаем живые сессии всех известных аккаунтов.
	// Ошибки отдельных аккаунтов логируются внутри и не мешают старту сервера.
	if err := mgr.Bootstrap(); err != nil {
		log.Printf("[BOOTSTRAP] восстановление сессий: %v", err)
	}

	// Настройка роутера
	r := setupRouter(db, mgr, cfg)

	// Запуск сервера
	log.Printf("Starting server on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// Настройка маршрутов
func setupRouter(db *storage.DB, mgr *manager.Manager, cfg config.Config) *gin.Engine {
	r := gin.Default()

	// Группа роутов для авторизации аккаунтов
	authGroup := r.Group("/auth")
	// Группа роутов для управления аккаунтами
	accountsGroup := r.Group("/accounts")
	// Группа роутов для отправки сообщений
	sendGroup := r.Group("/send")

	// Защита API статичным токеном, если он задан. Health остаётся открытым.
	if cfg.APIToken != "" {
		guard := middleware.AuthRequired(cfg.APIToken)
		authGroup.Use(guard)
		accountsGroup.Use(guard)
		sendGroup.Use(guard)
	}

	auth.SetupRoutes(authGroup, db, mgr, cfg)
	accounts.SetupRoutes(accountsGroup, db, mgr)
	send.SetupRoutes(sendGroup, mgr)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Логирование зарегистрированных роутов
	log.Printf("[ROUTER] Routes initialized:")
	log.Printf("[ROUTER] POST /auth/sendCode")
	log.Printf("[ROUTER] POST /auth/verifyCode")
	log.Printf("[ROUTER] POST /auth/password")
	log.Printf("[ROUTER] POST /accounts")
	log.Printf("[ROUTER] GET /accounts")
	log.Printf("[ROUTER] POST /send")
	log.Printf("[ROUTER] GET /health")

	return r
}

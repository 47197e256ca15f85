// Package manager владеет реестром живых сессий Telegram: по одному
// соединению на аккаунт, с ленивой активацией и маршрутизацией исходящих.
package manager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"

	"tgw_go/models"
	"tgw_go/pkg/storage"
	tgclient "tgw_go/pkg/telegram"
	accountmutex "tgw_go/pkg/telegram/account_mutex"

	"github.com/gotd/td/tg"
)

// ErrAccountNotFound возвращается, когда для идентификатора нет записи аккаунта.
var ErrAccountNotFound = errors.New("аккаунт не найден")

// Session — живое соединение одного аккаунта. Существует только в памяти:
// при рестарте процесса реестр пуст и восстанавливается через Bootstrap.
type Session struct {
	AccountID int
	Phone     string

	client  *tgclient.Client // nil в тестах
	sendFn  func(ctx context.Context, msg models.OutgoingMessage) error
	closeFn func()
}

// Send передаёт исходящее сообщение в соединение аккаунта.
func (s *Session) Send(ctx context.Context, msg models.OutgoingMessage) error {
	return s.sendFn(ctx, msg)
}

// Close останавливает соединение сессии.
func (s *Session) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

// Manager доводит аккаунты до состояния «подключён и слушает»
// и хранит единственный экземпляр живой сессии на каждый аккаунт.
type Manager struct {
	db    *storage.DB
	proxy *models.Proxy

	mu       sync.RWMutex
	sessions map[int]*Session

	// startSession подменяется в тестах, чтобы не ходить в Telegram.
	startSession func(acc models.Account) (*Session, error)
}

func New(db *storage.DB, p *models.Proxy) *Manager {
	m := &Manager{
		db:       db,
		proxy:    p,
		sessions: make(map[int]*Session),
	}
	m.startSession = m.connect
	return m
}

// connect устанавливает реальное соединение и направляет входящие
// сообщения аккаунта в конвейер сохранения.
func (m *Manager) connect(acc models.Account) (*Session, error) {
	accountID := acc.ID
	client, err := tgclient.Start(acc, m.db.Conn, m.proxy, func(msg *tg.Message) {
		m.ingest(accountID, msg)
	})
	if err != nil {
		return nil, err
	}
	return &Session{
		AccountID: acc.ID,
		Phone:     acc.Phone,
		client:    client,
		sendFn:    client.SendMessage,
		closeFn:   client.Close,
	}, nil
}

// Get возвращает живую сессию аккаунта, если она запущена. Без побочных эффектов.
func (m *Manager) Get(accountID int) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[accountID]
	return s, ok
}

// StartAccount идемпотентно доводит аккаунт до состояния «подключён и слушает».
// Повторный вызов возвращает существующую сессию без второго соединения
// и без повторной подписки на входящие.
func (m *Manager) StartAccount(acc models.Account) (*Session, error) {
	if s, ok := m.Get(acc.ID); ok {
		return s, nil
	}

	// Активации одного аккаунта выполняются строго по очереди:
	// проверка реестра и вставка в него не атомарны сами по себе.
	accountmutex.LockAccount(acc.ID)
	defer accountmutex.UnlockAccount(acc.ID)

	// Повторная проверка под блокировкой: сессию мог поднять конкурент.
	if s, ok := m.Get(acc.ID); ok {
		return s, nil
	}

	s, err := m.startSession(acc)
	if err != nil {
		// Неудачная активация не трогает реестр: аккаунт остаётся
		// незапущенным до следующей попытки вызывающей стороны.
		return nil, err
	}

	m.mu.Lock()
	if existing, ok := m.sessions[acc.ID]; ok {
		// Страховка на случай нарушения дисциплины блокировок:
		// лишнее соединение гасим, а не оставляем работать молча.
		m.mu.Unlock()
		log.Printf("[MANAGER] двойное подключение аккаунта %d, лишнее закрыто", acc.ID)
		s.Close()
		return existing, nil
	}
	m.sessions[acc.ID] = s
	m.mu.Unlock()

	log.Printf("[MANAGER] аккаунт %s (ID=%d) подключён и слушает", acc.Phone, acc.ID)
	return s, nil
}

// Activate возвращает живую сессию по идентификатору аккаунта,
// поднимая её из записи в БД при необходимости.
func (m *Manager) Activate(accountID int) (*Session, error) {
	if s, ok := m.Get(accountID); ok {
		return s, nil
	}

	acc, err := m.db.GetAccountByID(accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: ID=%d", ErrAccountNotFound, accountID)
		}
		return nil, fmt.Errorf("чтение аккаунта %d: %w", accountID, err)
	}
	return m.StartAccount(*acc)
}

// Send направляет исходящее сообщение в соединение аккаунта,
// активируя его при необходимости. Одна попытка, без повторов.
func (m *Manager) Send(ctx context.Context, accountID int, msg models.OutgoingMessage) error {
	s, err := m.Activate(accountID)
	if err != nil {
		return err
	}
	return s.Send(ctx, msg)
}

// Bootstrap поднимает все известные аккаунты при старте процесса.
// Ошибка подключения одного аккаунта не мешает остальным.
func (m *Manager) Bootstrap() error {
	accounts, err := m.db.GetAllAccounts()
	if err != nil {
		return fmt.Errorf("чтение аккаунтов: %w", err)
	}

	started := 0
	for _, acc := range accounts {
		if _, err := m.StartAccount(acc); err != nil {
			log.Printf("[MANAGER] аккаунт %s (ID=%d) не запущен: %v", acc.Phone, acc.ID, err)
			continue
		}
		started++
	}
	log.Printf("[MANAGER] запущено %d из %d аккаунтов", started, len(accounts))
	return nil
}

// AccountIDs возвращает идентификаторы запущенных аккаунтов.
func (m *Manager) AccountIDs() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]int, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

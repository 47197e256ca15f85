package telegram

import (
	"context"
	"database/sql"
	"log"

	"github.com/gotd/td/session"
)

// DBSessionStorage хранит и загружает сессию gotd из колонки session
// таблицы accounts. Одна запись аккаунта — одна сессия.
type DBSessionStorage struct {
	DB        *sql.DB
	AccountID int
}

// LoadSession загружает текст сессии из БД.
func (s *DBSessionStorage) LoadSession(ctx context.Context) ([]byte, error) {
	if s == nil || s.DB == nil {
		return nil, session.ErrNotFound
	}

	var data string
	err := s.DB.QueryRowContext(ctx, "SELECT session FROM accounts WHERE id = $1", s.AccountID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, session.ErrNotFound
	}
	if err != nil {
		log.Printf("[DBSessionStorage] ошибка чтения сессии: %v", err)
		return nil, err
	}
	// Пустая колонка означает, что вход ещё не выполнялся.
	if data == "" {
		return nil, session.ErrNotFound
	}
	return []byte(data), nil
}

// StoreSession сохраняет текст сессии в БД.
// Перезаписываем колонку на месте, чтобы у аккаунта не было двух сессий.
func (s *DBSessionStorage) StoreSession(ctx context.Context, data []byte) error {
	if s == nil || s.DB == nil {
		return session.ErrNotFound
	}
	_, err := s.DB.ExecContext(
		ctx,
		"UPDATE accounts SET session = $1, updated_at = NOW() WHERE id = $2",
		string(data),
		s.AccountID,
	)
	if err != nil {
		log.Printf("[DBSessionStorage] ошибка сохранения сессии: %v", err)
		return err
	}
	return nil
}

package storage

import (
	"log"

	"tgw_go/models"
)

// UpsertMessage сохраняет входящее сообщение с защитой от дубликатов.
// Ключ (account_id, chat_id, message_id) уникален: повторная доставка того же
// события обновляет изменяемые поля существующей записи, а не создаёт новую.
// Атомарность обеспечивает сама БД через ON CONFLICT, дополнительных
// блокировок на стороне приложения не требуется.
func (db *DB) UpsertMessage(msg models.Message) error {
	query := `
              INSERT INTO messages (account_id, chat_id, message_id, text, from_id, date, raw)
              VALUES ($1, $2, $3, $4, $5, $6, $7)
              ON CONFLICT (account_id, chat_id, message_id) DO UPDATE
              SET text = EXCLUDED.text,
                  from_id = EXCLUDED.from_id,
                  date = EXCLUDED.date,
                  raw = EXCLUDED.raw,
                  updated_at = NOW()
       `

	_, err := db.Conn.Exec(
		query,
		msg.AccountID,
		msg.ChatID,
		msg.MessageID,
		msg.Text,
		msg.FromID,
		msg.Date,
		[]byte(msg.Raw),
	)
	if err != nil {
		log.Printf("[DB ERROR] Ошибка при сохранении сообщения %s/%d аккаунта %d: %v",
			msg.ChatID, msg.MessageID, msg.AccountID, err)
		return err
	}
	return nil
}

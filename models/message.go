package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Message хранит нормализованную копию входящего сообщения Telegram.
// Тройка (AccountID, ChatID, MessageID) уникальна: повторная доставка
// обновляет существующую запись, а не создаёт дубликат.
type Message struct {
	ID        int             `json:"id"`
	AccountID int             `json:"account_id"`
	ChatID    string          `json:"chat_id"`
	MessageID int             `json:"message_id"`
	Text      string          `json:"text"`
	FromID    string          `json:"from_id"`
	Date      time.Time       `json:"date"`
	Raw       json.RawMessage `json:"raw"` // Исходное сообщение как есть, для совместимости вперёд
}

// ChatID принимает в JSON и строку, и число, потому что клиенты присылают
// идентификатор чата в обоих видах.
type ChatID string

func (c *ChatID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("пустой chat_id")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = ChatID(s)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("chat_id должен быть строкой или числом: %w", err)
	}
	*c = ChatID(strconv.FormatInt(n, 10))
	return nil
}

func (c ChatID) String() string { return string(c) }

// Режимы форматирования текста исходящего сообщения.
const (
	ParseModeNone       = ""
	ParseModeMarkdownV2 = "MarkdownV2"
	ParseModeHTML       = "HTML"
)

// SendOptions задаёт необязательные параметры отправки.
type SendOptions struct {
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

// OutgoingMessage описывает запрос на отправку сообщения от имени аккаунта.
type OutgoingMessage struct {
	ChatID  ChatID      `json:"chat_id"`
	Text    string      `json:"text"`
	Options SendOptions `json:"options"`
}

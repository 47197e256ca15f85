package manager

import (
	"encoding/json"
	"log"
	"strconv"
	"time"

	"tgw_go/models"

	"github.com/gotd/td/tg"
)

// ingest нормализует входящее сообщение и сохраняет его с upsert-семантикой.
// Ошибки сохранения логируются и глушатся: одна плохая запись не должна
// ронять цикл приёма здорового соединения.
func (m *Manager) ingest(accountID int, msg *tg.Message) {
	rec, ok := normalizeMessage(accountID, msg)
	if !ok {
		return
	}
	if err := m.db.UpsertMessage(rec); err != nil {
		log.Printf("[INGEST] сообщение %s/%d аккаунта %d не сохранено: %v",
			rec.ChatID, rec.MessageID, accountID, err)
	}
}

// normalizeMessage приводит объект Telegram к записи для БД.
// Исходящие сообщения пропускаются. Если платформа не прислала дату,
// подставляется текущее время. Исходный объект сохраняется как есть
// в поле Raw и никогда не интерпретируется.
func normalizeMessage(accountID int, msg *tg.Message) (models.Message, bool) {
	if msg == nil || msg.Out {
		return models.Message{}, false
	}
	chatID := peerToID(msg.PeerID)
	if chatID == "" {
		return models.Message{}, false
	}

	rec := models.Message{
		AccountID: accountID,
		ChatID:    chatID,
		MessageID: msg.ID,
		Text:      msg.Message,
	}
	if from, ok := msg.GetFromID(); ok {
		rec.FromID = peerToID(from)
	}
	if msg.Date > 0 {
		rec.Date = time.Unix(int64(msg.Date), 0)
	} else {
		rec.Date = time.Now()
	}
	if raw, err := json.Marshal(msg); err == nil {
		rec.Raw = raw
	} else {
		log.Printf("[INGEST] не удалось сериализовать сообщение %s/%d: %v", chatID, msg.ID, err)
	}
	return rec, true
}

// peerToID возвращает числовой идентификатор пира строкой.
func peerToID(p tg.PeerClass) string {
	switch v := p.(type) {
	case *tg.PeerUser:
		return strconv.FormatInt(v.UserID, 10)
	case *tg.PeerChat:
		return strconv.FormatInt(v.ChatID, 10)
	case *tg.PeerChannel:
		return strconv.FormatInt(v.ChannelID, 10)
	}
	return ""
}

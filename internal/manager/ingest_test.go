package manager

import (
	"testing"
	"time"

	"github.com/gotd/td/tg"
)

// TestNormalizeMessage_Chat проверяет нормализацию сообщения из обычной группы.
func TestNormalizeMessage_Chat(t *testing.T) {
	msg := &tg.Message{ID: 7, Message: "hi", Date: 1700000000, PeerID: &tg.PeerChat{ChatID: 100}}
	msg.SetFromID(&tg.PeerUser{UserID: 42})

	rec, ok := normalizeMessage(5, msg)
	if !ok {
		t.Fatalf("сообщение не должно было отбрасываться")
	}
	if rec.AccountID != 5 || rec.ChatID != "100" || rec.MessageID != 7 {
		t.Fatalf("неверный ключ записи: %+v", rec)
	}
	if rec.Text != "hi" || rec.FromID != "42" {
		t.Fatalf("неверное содержимое записи: %+v", rec)
	}
	if !rec.Date.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("неверная дата: %v", rec.Date)
	}
	if len(rec.Raw) == 0 {
		t.Fatalf("исходный объект должен сохраняться в Raw")
	}
}

// TestNormalizeMessage_Channel проверяет идентификатор чата для канала.
func TestNormalizeMessage_Channel(t *testing.T) {
	msg := &tg.Message{ID: 1, Date: 1700000000, PeerID: &tg.PeerChannel{ChannelID: 555}}
	rec, ok := normalizeMessage(1, msg)
	if !ok || rec.ChatID != "555" {
		t.Fatalf("ожидался чат 555, получено %+v", rec)
	}
}

// TestNormalizeMessage_User проверяет идентификатор чата для личной переписки.
func TestNormalizeMessage_User(t *testing.T) {
	msg := &tg.Message{ID: 1, Date: 1700000000, PeerID: &tg.PeerUser{UserID: 9}}
	rec, ok := normalizeMessage(1, msg)
	if !ok || rec.ChatID != "9" {
		t.Fatalf("ожидался чат 9, получено %+v", rec)
	}
}

// TestNormalizeMessage_DefaultDate проверяет, что без даты платформы
// подставляется текущее время.
func TestNormalizeMessage_DefaultDate(t *testing.T) {
	msg := &tg.Message{ID: 1, PeerID: &tg.PeerUser{UserID: 9}}
	before := time.Now()
	rec, ok := normalizeMessage(1, msg)
	if !ok {
		t.Fatalf("сообщение не должно было отбрасываться")
	}
	if rec.Date.Before(before) || rec.Date.After(time.Now()) {
		t.Fatalf("дата должна быть текущей, получено %v", rec.Date)
	}
}

// TestNormalizeMessage_SkipOutgoing проверяет, что исходящие сообщения пропускаются.
func TestNormalizeMessage_SkipOutgoing(t *testing.T) {
	msg := &tg.Message{ID: 1, Out: true, Date: 1700000000, PeerID: &tg.PeerUser{UserID: 9}}
	if _, ok := normalizeMessage(1, msg); ok {
		t.Fatalf("исходящее сообщение должно отбрасываться")
	}
}

// TestNormalizeMessage_NoPeer проверяет, что сообщение без пира пропускается.
func TestNormalizeMessage_NoPeer(t *testing.T) {
	msg := &tg.Message{ID: 1, Date: 1700000000}
	if _, ok := normalizeMessage(1, msg); ok {
		t.Fatalf("сообщение без пира должно отбрасываться")
	}
}

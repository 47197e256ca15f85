package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/gotd/td/tg"
)

// Сдвиг идентификаторов каналов в соглашении Bot API: -100XXXXXXXXXX.
const channelIDOffset = 1000000000000

// chatRef — распознанный идентификатор чата из запроса на отправку.
// Заполнено ровно одно из полей.
type chatRef struct {
	Username  string
	UserID    int64
	ChatID    int64
	ChannelID int64
}

// parseChatRef разбирает строковый идентификатор чата.
// Поддерживаются @username, ссылки t.me и числовые идентификаторы
// в соглашении Bot API: положительные — пользователи, отрицательные — группы,
// числа вида -100... — каналы.
func parseChatRef(s string) (chatRef, error) {
	v := strings.TrimSpace(s)
	v = strings.TrimPrefix(v, "https://t.me/")
	v = strings.TrimPrefix(v, "t.me/")
	v = strings.TrimPrefix(v, "@")
	if v == "" {
		return chatRef{}, fmt.Errorf("пустой идентификатор чата")
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return chatRef{Username: v}, nil
	}
	switch {
	case n > 0:
		return chatRef{UserID: n}, nil
	case n <= -channelIDOffset:
		return chatRef{ChannelID: -n - channelIDOffset}, nil
	case n < 0:
		return chatRef{ChatID: -n}, nil
	}
	return chatRef{}, fmt.Errorf("нулевой идентификатор чата")
}

// resolvePeer превращает идентификатор чата в InputPeer с access_hash.
// Username резолвится запросом к Telegram; числовые идентификаторы
// пользователей и каналов ищутся в диалогах аккаунта, потому что
// access_hash без них не получить.
func (c *Client) resolvePeer(ctx context.Context, s string) (tg.InputPeerClass, error) {
	ref, err := parseChatRef(s)
	if err != nil {
		return nil, err
	}

	if ref.Username != "" {
		return c.resolveUsername(ctx, ref.Username)
	}
	if ref.ChatID != 0 {
		// Обычные группы адресуются без access_hash.
		return &tg.InputPeerChat{ChatID: ref.ChatID}, nil
	}
	return c.findPeerInDialogs(ctx, ref)
}

func (c *Client) resolveUsername(ctx context.Context, username string) (tg.InputPeerClass, error) {
	resolved, err := c.api.ContactsResolveUsername(ctx, &tg.ContactsResolveUsernameRequest{Username: username})
	if err != nil {
		return nil, fmt.Errorf("резолв username %s: %w", username, err)
	}

	switch peer := resolved.Peer.(type) {
	case *tg.PeerUser:
		for _, u := range resolved.Users {
			if user, ok := u.(*tg.User); ok && user.ID == peer.UserID {
				return &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash}, nil
			}
		}
	case *tg.PeerChannel:
		for _, ch := range resolved.Chats {
			if channel, ok := ch.(*tg.Channel); ok && channel.ID == peer.ChannelID {
				return &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash}, nil
			}
		}
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: peer.ChatID}, nil
	}
	return nil, fmt.Errorf("пир для username %s не найден в ответе", username)
}

// findPeerInDialogs ищет пользователя или канал среди диалогов аккаунта.
func (c *Client) findPeerInDialogs(ctx context.Context, ref chatRef) (tg.InputPeerClass, error) {
	dialogs, err := c.api.MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		Limit:      100,
		OffsetPeer: &tg.InputPeerEmpty{},
	})
	if err != nil {
		return nil, fmt.Errorf("чтение диалогов: %w", err)
	}

	var users []tg.UserClass
	var chats []tg.ChatClass
	switch d := dialogs.(type) {
	case *tg.MessagesDialogs:
		users, chats = d.Users, d.Chats
	case *tg.MessagesDialogsSlice:
		users, chats = d.Users, d.Chats
	default:
		return nil, fmt.Errorf("неожиданный тип диалогов: %T", dialogs)
	}

	if ref.UserID != 0 {
		for _, u := range users {
			if user, ok := u.(*tg.User); ok && user.ID == ref.UserID {
				return &tg.InputPeerUser{UserID: user.ID, AccessHash: user.AccessHash}, nil
			}
		}
		return nil, fmt.Errorf("пользователь %d не найден в диалогах аккаунта", ref.UserID)
	}

	for _, ch := range chats {
		if channel, ok := ch.(*tg.Channel); ok && channel.ID == ref.ChannelID {
			return &tg.InputPeerChannel{ChannelID: channel.ID, AccessHash: channel.AccessHash}, nil
		}
	}
	return nil, fmt.Errorf("канал %d не найден в диалогах аккаунта", ref.ChannelID)
}

package telegram

import (
	"context"
	"fmt"

	"tgw_go/models"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/message/html"
	"github.com/gotd/td/tgerr"
)

// SendMessage отправляет текстовое сообщение в указанный чат от имени аккаунта.
// Возвращает управление после подтверждения платформы; ошибка отдаётся как есть,
// повторов и дедупликации на исходящем пути нет.
func (c *Client) SendMessage(ctx context.Context, msg models.OutgoingMessage) error {
	peer, err := c.resolvePeer(ctx, msg.ChatID.String())
	if err != nil {
		return fmt.Errorf("чат %s: %w", msg.ChatID, err)
	}

	builder := &message.NewSender(c.api).To(peer).Builder
	if msg.Options.DisableWebPagePreview {
		builder = builder.NoWebpage()
	}

	switch msg.Options.ParseMode {
	case models.ParseModeHTML:
		_, err = builder.StyledText(ctx, html.String(nil, msg.Text))
	case models.ParseModeMarkdownV2:
		styled, perr := markdownV2Options(msg.Text)
		if perr != nil {
			return fmt.Errorf("разбор MarkdownV2: %w", perr)
		}
		_, err = builder.StyledText(ctx, styled...)
	case models.ParseModeNone:
		_, err = builder.Text(ctx, msg.Text)
	default:
		return fmt.Errorf("неизвестный parse_mode: %q", msg.Options.ParseMode)
	}

	if err != nil {
		if isAuthError(err) {
			// Платформа отозвала сессию посреди работы — нужен новый вход.
			return fmt.Errorf("%w: %v", ErrReauthRequired, err)
		}
		return fmt.Errorf("отправка в чат %s: %w", msg.ChatID, err)
	}
	return nil
}

// isAuthError распознаёт ответы Telegram, означающие потерю авторизации.
func isAuthError(err error) bool {
	return tgerr.Is(err,
		"AUTH_KEY_UNREGISTERED",
		"AUTH_KEY_INVALID",
		"SESSION_REVOKED",
		"SESSION_EXPIRED",
		"USER_DEACTIVATED",
	)
}

// Package telegram содержит работу с MTProto: установку соединений,
// авторизацию аккаунтов и отправку сообщений через gotd.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"tgw_go/models"
	"tgw_go/pkg/storage"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

var (
	// ErrReauthRequired означает, что сохранённая сессия недействительна
	// и аккаунту нужен новый вход. Автоматического восстановления нет.
	ErrReauthRequired = errors.New("требуется повторная авторизация")

	// ErrPasswordNeeded означает, что у аккаунта включена двухфакторная защита
	// и вход надо завершить паролем. Частичная сессия уже сохранена в БД.
	ErrPasswordNeeded = errors.New("требуется пароль двухфакторной защиты")
)

// Предел на один шаг авторизации. Каждый шаг — пара сетевых обращений.
const authTimeout = 60 * time.Second

// RequestCode отправляет код подтверждения на номер аккаунта
// и сохраняет полученный хеш кода в БД для последующего verifyCode.
func RequestCode(db *storage.DB, acc models.Account, p *models.Proxy) (string, error) {
	client, err := newClient(acc, db.Conn, p, nil)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	var phoneCodeHash string
	err = client.Run(ctx, func(ctx context.Context) error {
		sentCode, err := client.Auth().SendCode(ctx, acc.Phone, auth.SendCodeOptions{})
		if err != nil {
			return err
		}
		sent, ok := sentCode.(*tg.AuthSentCode)
		if !ok {
			log.Printf("[ERROR] Unexpected sent code type: %T", sentCode)
			return fmt.Errorf("unexpected sent code type: %T", sentCode)
		}
		phoneCodeHash = sent.PhoneCodeHash
		// Сохраняем хеш в БД: он понадобится на шаге подтверждения кода.
		return db.UpdatePhoneCodeHash(acc.ID, phoneCodeHash)
	})
	return phoneCodeHash, err
}

// CompleteAuthorization завершает вход по коду подтверждения.
// Если у аккаунта включена 2FA, возвращает ErrPasswordNeeded:
// сессия с пройденным кодом уже лежит в БД, остался только пароль.
func CompleteAuthorization(db *storage.DB, acc models.Account, code string, p *models.Proxy) error {
	client, err := newClient(acc, db.Conn, p, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	return client.Run(ctx, func(ctx context.Context) error {
		if _, err := client.Auth().SignIn(ctx, acc.Phone, code, acc.PhoneCodeHash); err != nil {
			if errors.Is(err, auth.ErrPasswordAuthNeeded) {
				log.Printf("[AUTH] аккаунт %s запросил пароль 2FA", acc.Phone)
				return ErrPasswordNeeded
			}
			log.Printf("[ERROR] Authorization failed: %v", err)
			return fmt.Errorf("authorization error: %w", err)
		}

		log.Printf("[INFO] Successfully authorized phone: %s", acc.Phone)
		return nil
	})
}

// CheckPassword завершает вход с паролем двухфакторной защиты.
// Неудачная проверка пароля трактуется как потеря авторизации:
// восстановление возможно только новым входом с отправкой кода.
func CheckPassword(db *storage.DB, acc models.Account, password string, p *models.Proxy) error {
	client, err := newClient(acc, db.Conn, p, nil)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
	defer cancel()

	return client.Run(ctx, func(ctx context.Context) error {
		if _, err := client.Auth().Password(ctx, password); err != nil {
			log.Printf("[ERROR] Password authentication failed: %v", err)
			return fmt.Errorf("%w: проверка пароля: %v", ErrReauthRequired, err)
		}
		log.Printf("[INFO] Successfully authorized phone: %s", acc.Phone)
		return nil
	})
}

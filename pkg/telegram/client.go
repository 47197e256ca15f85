package telegram

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"tgw_go/models"

	"golang.org/x/net/proxy"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/dcs"
	"github.com/gotd/td/tg"
)

// Предел ожидания установки соединения. Транспортные ретраи внутри gotd
// могут тянуться долго, поэтому активацию ограничиваем явно.
const connectTimeout = 60 * time.Second

// Client держит запущенное соединение одного аккаунта Telegram.
// Пока работает внутренний цикл Run, API-вызовы можно делать из любых горутин.
type Client struct {
	AccountID int
	Phone     string

	client *telegram.Client
	api    *tg.Client
	cancel context.CancelFunc
	done   chan struct{} // закрывается, когда цикл Run завершился
}

// newClient собирает клиент gotd с хранилищем сессии в БД аккаунта
// и, при наличии, SOCKS5-прокси и обработчиком обновлений.
func newClient(acc models.Account, db *sql.DB, p *models.Proxy, handler telegram.UpdateHandler) (*telegram.Client, error) {
	var storage session.Storage = &session.StorageMemory{}
	if db != nil && acc.ID > 0 {
		storage = &DBSessionStorage{DB: db, AccountID: acc.ID}
	}

	opts := telegram.Options{SessionStorage: storage}
	if handler != nil {
		opts.UpdateHandler = handler
	}
	if p != nil {
		addr := fmt.Sprintf("%s:%d", p.IP, p.Port)
		var auth *proxy.Auth
		if p.Login != "" || p.Password != "" {
			auth = &proxy.Auth{User: p.Login, Password: p.Password}
		}
		d, err := proxy.SOCKS5("tcp", addr, auth, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("proxy dialer: %w", err)
		}
		dc, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, fmt.Errorf("proxy dialer missing context")
		}
		opts.Resolver = dcs.Plain(dcs.PlainOptions{Dial: dc.DialContext})
		log.Printf("[PROXY] %s via %s", acc.Phone, addr)
	}
	return telegram.NewClient(acc.ApiID, acc.ApiHash, opts), nil
}

// Start устанавливает соединение аккаунта и подписывается на входящие сообщения.
// onMessage вызывается из цикла приёма строго в порядке доставки обновлений,
// поэтому порядок внутри одного аккаунта сохраняется.
func Start(acc models.Account, db *sql.DB, p *models.Proxy, onMessage func(*tg.Message)) (*Client, error) {
	dispatcher := tg.NewUpdateDispatcher()
	dispatcher.OnNewMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewMessage) error {
		if msg, ok := u.Message.(*tg.Message); ok {
			onMessage(msg)
		}
		return nil
	})
	dispatcher.OnNewChannelMessage(func(ctx context.Context, e tg.Entities, u *tg.UpdateNewChannelMessage) error {
		if msg, ok := u.Message.(*tg.Message); ok {
			onMessage(msg)
		}
		return nil
	})

	tgClient, err := newClient(acc, db, p, dispatcher)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c := &Client{
		AccountID: acc.ID,
		Phone:     acc.Phone,
		client:    tgClient,
		api:       tg.NewClient(tgClient),
		cancel:    cancel,
		done:      make(chan struct{}),
	}

	ready := make(chan struct{})
	errc := make(chan error, 1)
	go func() {
		defer close(c.done)
		err := tgClient.Run(runCtx, func(ctx context.Context) error {
			status, err := tgClient.Auth().Status(ctx)
			if err != nil {
				return fmt.Errorf("статус авторизации: %w", err)
			}
			if !status.Authorized {
				return fmt.Errorf("%w: аккаунт %s", ErrReauthRequired, acc.Phone)
			}
			close(ready)
			// Держим соединение до остановки процесса.
			<-ctx.Done()
			return ctx.Err()
		})
		errc <- err
	}()

	select {
	case <-ready:
		log.Printf("[TELEGRAM] аккаунт %s подключён и слушает обновления", acc.Phone)
		return c, nil
	case err := <-errc:
		cancel()
		return nil, fmt.Errorf("подключение аккаунта %s: %w", acc.Phone, err)
	case <-time.After(connectTimeout):
		cancel()
		<-c.done
		return nil, fmt.Errorf("подключение аккаунта %s: превышено время ожидания", acc.Phone)
	}
}

// API возвращает низкоуровневый клиент для прямых вызовов Telegram.
func (c *Client) API() *tg.Client { return c.api }

// Close останавливает цикл соединения и дожидается его завершения.
func (c *Client) Close() {
	c.cancel()
	<-c.done
	log.Printf("[TELEGRAM] аккаунт %s отключён", c.Phone)
}

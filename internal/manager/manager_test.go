package manager

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tgw_go/models"
	"tgw_go/pkg/storage"
)

type managerTestDriver struct{}

type managerTestConn struct{}

type managerTestRows struct {
	columns []string
	data    [][]driver.Value
	idx     int
}

// managerQueryFn задаёт ответ тестовой БД на следующие запросы.
var managerQueryFn func(query string) (driver.Rows, error)

func (managerTestDriver) Open(name string) (driver.Conn, error) { return &managerTestConn{}, nil }

func (c *managerTestConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("not implemented")
}
func (c *managerTestConn) Close() error              { return nil }
func (c *managerTestConn) Begin() (driver.Tx, error) { return nil, errors.New("not implemented") }

func (c *managerTestConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	if managerQueryFn == nil {
		return &managerTestRows{}, nil
	}
	return managerQueryFn(query)
}

func (r *managerTestRows) Columns() []string { return r.columns }
func (r *managerTestRows) Close() error      { return nil }
func (r *managerTestRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.idx])
	r.idx++
	return nil
}

func init() {
	sql.Register("manager_test", managerTestDriver{})
}

var accountColumns = []string{"id", "phone", "session", "api_id", "api_hash", "phone_code_hash", "created_at", "updated_at"}

func accountRow(id int64, phone string) []driver.Value {
	now := time.Now()
	return []driver.Value{id, phone, "session-data", int64(12345), "hash", "", now, now}
}

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	conn, err := sql.Open("manager_test", "")
	if err != nil {
		t.Fatalf("не удалось открыть тестовую БД: %v", err)
	}
	managerQueryFn = nil
	return New(storage.NewDB(conn), nil)
}

// stubStarter подменяет реальное подключение к Telegram счётчиком активаций.
func stubStarter(starts *int32, sends *int32) func(models.Account) (*Session, error) {
	return func(acc models.Account) (*Session, error) {
		atomic.AddInt32(starts, 1)
		return &Session{
			AccountID: acc.ID,
			Phone:     acc.Phone,
			sendFn: func(ctx context.Context, msg models.OutgoingMessage) error {
				if sends != nil {
					atomic.AddInt32(sends, 1)
				}
				return nil
			},
		}, nil
	}
}

// TestStartAccount_Idempotent проверяет, что повторная активация
// возвращает ту же сессию без второго подключения.
func TestStartAccount_Idempotent(t *testing.T) {
	m := newTestManager(t)
	var starts int32
	m.startSession = stubStarter(&starts, nil)

	acc := models.Account{ID: 1, Phone: "+100"}
	s1, err := m.StartAccount(acc)
	if err != nil {
		t.Fatalf("первая активация: %v", err)
	}
	s2, err := m.StartAccount(acc)
	if err != nil {
		t.Fatalf("повторная активация: %v", err)
	}
	if s1 != s2 {
		t.Fatalf("ожидалась одна и та же сессия")
	}
	if got := atomic.LoadInt32(&starts); got != 1 {
		t.Fatalf("ожидалось 1 подключение, получено %d", got)
	}
}

// TestStartAccount_Concurrent проверяет, что N конкурентных активаций
// одного аккаунта дают ровно одну живую сессию.
func TestStartAccount_Concurrent(t *testing.T) {
	m := newTestManager(t)
	var starts int32
	m.startSession = func(acc models.Account) (*Session, error) {
		atomic.AddInt32(&starts, 1)
		// Имитация сетевой задержки, чтобы конкуренты успели столпиться.
		time.Sleep(10 * time.Millisecond)
		return &Session{AccountID: acc.ID}, nil
	}

	acc := models.Account{ID: 2, Phone: "+200"}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.StartAccount(acc); err != nil {
				t.Errorf("активация: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&starts); got != 1 {
		t.Fatalf("ожидалось 1 подключение, получено %d", got)
	}
	if ids := m.AccountIDs(); len(ids) != 1 || ids[0] != 2 {
		t.Fatalf("ожидалась одна сессия аккаунта 2, получено %v", ids)
	}
}

// TestStartAccount_FailureLeavesRegistryEmpty проверяет, что неудачная
// активация не попадает в реестр и следующая попытка подключается заново.
func TestStartAccount_FailureLeavesRegistryEmpty(t *testing.T) {
	m := newTestManager(t)
	var starts int32
	fail := true
	m.startSession = func(acc models.Account) (*Session, error) {
		atomic.AddInt32(&starts, 1)
		if fail {
			return nil, errors.New("соединение не установлено")
		}
		return &Session{AccountID: acc.ID}, nil
	}

	acc := models.Account{ID: 3, Phone: "+300"}
	if _, err := m.StartAccount(acc); err == nil {
		t.Fatalf("ожидалась ошибка, но её нет")
	}
	if _, ok := m.Get(3); ok {
		t.Fatalf("неудачная активация не должна попадать в реестр")
	}

	fail = false
	if _, err := m.StartAccount(acc); err != nil {
		t.Fatalf("повторная активация: %v", err)
	}
	if got := atomic.LoadInt32(&starts); got != 2 {
		t.Fatalf("ожидалось 2 попытки подключения, получено %d", got)
	}
}

// TestSend_LazyActivation проверяет, что отправка без живой сессии поднимает
// её из записи в БД ровно один раз, а повторная отправка сессию переиспользует.
func TestSend_LazyActivation(t *testing.T) {
	m := newTestManager(t)
	var starts, sends int32
	m.startSession = stubStarter(&starts, &sends)
	managerQueryFn = func(query string) (driver.Rows, error) {
		return &managerTestRows{columns: accountColumns, data: [][]driver.Value{accountRow(7, "+700")}}, nil
	}

	msg := models.OutgoingMessage{ChatID: "100", Text: "x"}
	if err := m.Send(context.Background(), 7, msg); err != nil {
		t.Fatalf("первая отправка: %v", err)
	}
	if err := m.Send(context.Background(), 7, msg); err != nil {
		t.Fatalf("повторная отправка: %v", err)
	}

	if got := atomic.LoadInt32(&starts); got != 1 {
		t.Fatalf("ожидалась 1 активация, получено %d", got)
	}
	if got := atomic.LoadInt32(&sends); got != 2 {
		t.Fatalf("ожидалось 2 отправки, получено %d", got)
	}
}

// TestSend_UnknownAccount проверяет, что отправка на неизвестный аккаунт
// завершается ErrAccountNotFound без попытки подключения.
func TestSend_UnknownAccount(t *testing.T) {
	m := newTestManager(t)
	var starts int32
	m.startSession = stubStarter(&starts, nil)
	managerQueryFn = func(query string) (driver.Rows, error) {
		return &managerTestRows{columns: accountColumns}, nil // пустая выборка
	}

	err := m.Send(context.Background(), 9, models.OutgoingMessage{ChatID: "5", Text: "x"})
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("ожидалась ErrAccountNotFound, получено %v", err)
	}
	if got := atomic.LoadInt32(&starts); got != 0 {
		t.Fatalf("подключение не должно было создаваться, получено %d", got)
	}
}

// TestBootstrap_Replay проверяет, что старт процесса поднимает сессию
// для каждой записи аккаунта и ключи реестра совпадают с их ID.
func TestBootstrap_Replay(t *testing.T) {
	m := newTestManager(t)
	var starts int32
	m.startSession = stubStarter(&starts, nil)
	managerQueryFn = func(query string) (driver.Rows, error) {
		if !strings.Contains(query, "FROM accounts") {
			return nil, errors.New("unexpected query")
		}
		return &managerTestRows{columns: accountColumns, data: [][]driver.Value{
			accountRow(1, "+100"),
			accountRow(2, "+200"),
			accountRow(3, "+300"),
		}}, nil
	}

	if err := m.Bootstrap(); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if got := atomic.LoadInt32(&starts); got != 3 {
		t.Fatalf("ожидалось 3 подключения, получено %d", got)
	}

	want := map[int]bool{1: true, 2: true, 3: true}
	ids := m.AccountIDs()
	if len(ids) != len(want) {
		t.Fatalf("ожидалось %d сессий, получено %v", len(want), ids)
	}
	for _, id := range ids {
		if !want[id] {
			t.Fatalf("неожиданный аккаунт %d в реестре", id)
		}
	}
}

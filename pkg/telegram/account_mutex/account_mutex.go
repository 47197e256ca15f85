// Package account_mutex сериализует работу с одним аккаунтом по его ID.
// Блокировка закрывает гонку двойной активации: две конкурентные попытки
// поднять один аккаунт выполняются по очереди, и вторая видит результат первой.
package account_mutex

import (
	"log"
	"sync"
)

var (
	globalMu     sync.Mutex
	accountLocks = make(map[int]*sync.Mutex)
)

// LockAccount захватывает мьютекс аккаунта, ожидая, если он занят.
func LockAccount(accountID int) {
	globalMu.Lock()
	lock, ok := accountLocks[accountID]
	if !ok {
		lock = &sync.Mutex{}
		accountLocks[accountID] = lock
	}
	globalMu.Unlock()

	lock.Lock()
	log.Printf("[MUTEX] аккаунт %d заблокирован", accountID)
}

// UnlockAccount освобождает мьютекс аккаунта.
func UnlockAccount(accountID int) {
	globalMu.Lock()
	lock := accountLocks[accountID]
	globalMu.Unlock()
	if lock != nil {
		lock.Unlock()
		log.Printf("[MUTEX] аккаунт %d разблокирован", accountID)
	}
}

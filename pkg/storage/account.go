package storage

import (
	"log"

	"tgw_go/models"
)

// UpsertAccount записывает аккаунт в БД по уникальному номеру телефона.
// При повторной записи того же номера сессия и ключи API перезаписываются,
// а идентификатор записи сохраняется.
func (db *DB) UpsertAccount(account models.Account) (*models.Account, error) {
	query := `
              INSERT INTO accounts (phone, session, api_id, api_hash)
              VALUES ($1, $2, $3, $4)
              ON CONFLICT (phone) DO UPDATE
              SET session = EXCLUDED.session,
                  api_id = EXCLUDED.api_id,
                  api_hash = EXCLUDED.api_hash,
                  updated_at = NOW()
              RETURNING id, created_at, updated_at
       `

	err := db.Conn.QueryRow(
		query,
		account.Phone,
		account.Session,
		account.ApiID,
		account.ApiHash,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		log.Printf("[DB ERROR] Ошибка при сохранении аккаунта %s: %v", account.Phone, err)
		return nil, err
	}

	log.Printf("[DB INFO] Аккаунт %s сохранён с ID=%d", account.Phone, account.ID)
	return &account, nil
}

// GetAccountByID возвращает аккаунт по его идентификатору.
func (db *DB) GetAccountByID(id int) (*models.Account, error) {
	var account models.Account
	query := `
              SELECT id, phone, session, api_id, api_hash, phone_code_hash, created_at, updated_at
              FROM accounts
              WHERE id = $1
       `
	err := db.Conn.QueryRow(query, id).Scan(
		&account.ID,
		&account.Phone,
		&account.Session,
		&account.ApiID,
		&account.ApiHash,
		&account.PhoneCodeHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountByPhone возвращает аккаунт по номеру телефона.
// Используется в процессе авторизации, пока ID ещё не известен клиенту.
func (db *DB) GetAccountByPhone(phone string) (*models.Account, error) {
	var account models.Account
	query := `
              SELECT id, phone, session, api_id, api_hash, phone_code_hash, created_at, updated_at
              FROM accounts
              WHERE phone = $1
       `
	err := db.Conn.QueryRow(query, phone).Scan(
		&account.ID,
		&account.Phone,
		&account.Session,
		&account.ApiID,
		&account.ApiHash,
		&account.PhoneCodeHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAllAccounts возвращает все известные аккаунты.
// Используется при старте процесса для восстановления живых сессий.
func (db *DB) GetAllAccounts() ([]models.Account, error) {
	query := `
              SELECT id, phone, session, api_id, api_hash, phone_code_hash, created_at, updated_at
              FROM accounts
              ORDER BY id
       `

	rows, err := db.Conn.Query(query)
	if err != nil {
		log.Printf("[DB ERROR] Не удалось получить список аккаунтов: %v", err)
		return nil, err
	}
	defer rows.Close()

	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(
			&account.ID,
			&account.Phone,
			&account.Session,
			&account.ApiID,
			&account.ApiHash,
			&account.PhoneCodeHash,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			log.Printf("[DB WARN] Не удалось прочитать запись аккаунта: %v", err)
			continue // Пропускаем проблемные записи
		}
		accounts = append(accounts, account)
	}

	log.Printf("[DB INFO] Найдено %d аккаунтов", len(accounts))
	return accounts, rows.Err()
}

// UpdatePhoneCodeHash сохраняет хеш кода подтверждения,
// чтобы verifyCode мог завершить вход после sendCode.
func (db *DB) UpdatePhoneCodeHash(accountID int, hash string) error {
	_, err := db.Conn.Exec(
		"UPDATE accounts SET phone_code_hash = $1, updated_at = NOW() WHERE id = $2",
		hash,
		accountID,
	)
	return err
}

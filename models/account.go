package models

import "time"

// Account описывает один авторизованный аккаунт Telegram.
// Поле Session содержит сериализованную сессию gotd в формате JSON;
// наружу она отдаётся как непрозрачная строка и нигде не разбирается.
type Account struct {
	ID            int       `json:"id"`
	Phone         string    `json:"phone"`
	Session       string    `json:"session"`
	ApiID         int       `json:"api_id"`
	ApiHash       string    `json:"api_hash"`
	PhoneCodeHash string    `json:"-"` // Хеш кода подтверждения между sendCode и verifyCode
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

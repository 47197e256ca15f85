package models

// Proxy описывает SOCKS5-прокси, через который устанавливаются
// соединения с Telegram. Задаётся через переменные окружения и
// применяется ко всем аккаунтам процесса.
type Proxy struct {
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Login    string `json:"login"`
	Password string `json:"password"`
}

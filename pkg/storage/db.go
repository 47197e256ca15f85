package storage

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// DB оборачивает подключение к PostgreSQL.
// Все запросы пишутся прямым SQL без ORM.
type DB struct {
	Conn *sql.DB
}

func NewDB(conn *sql.DB) *DB {
	return &DB{Conn: conn}
}

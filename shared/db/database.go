package db

import (
	"database/sql"
)

// Database is a connectable database/sql backend.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}

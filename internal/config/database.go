package config

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// OpenDestination opens the destination database per DB_DRIVER/DB_DSN.
func OpenDestination(cfg *AppConfig) (*sql.DB, error) {
	dsn := cfg.DB.DSN
	if cfg.DB.Driver == "mysql" {
		dsn = dsn + "?parseTime=true"
	}

	db, err := sql.Open(cfg.DB.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open destination database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping destination database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	log.Printf("Connected to destination database (%s)", cfg.DB.Driver)
	return db, nil
}

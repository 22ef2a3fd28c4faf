package database

import (
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

var (
	db     *sqlx.DB
	connMu sync.RWMutex
)

// ConnectionConfig carries the settings needed to open the shared pool.
type ConnectionConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	SearchPath      string // tenant schema, PostgreSQL only
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders the driver-specific connection string.
func (c ConnectionConfig) DSN() string {
	if IsMySQL() {
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			c.User, c.Password, c.Host, c.Port, c.Name)
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, sslMode)
	if c.SearchPath != "" {
		dsn += fmt.Sprintf(" search_path=%s", c.SearchPath)
	}
	return dsn
}

// Connect opens the shared connection pool. Subsequent GetDB calls return
// the same pool until Close.
func Connect(cfg ConnectionConfig) (*sqlx.DB, error) {
	conn, err := sqlx.Connect(GetDBDriver(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		conn.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		conn.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	connMu.Lock()
	db = conn
	connMu.Unlock()
	return conn, nil
}

// GetDB returns the shared pool, or an error before Connect has succeeded.
func GetDB() (*sqlx.DB, error) {
	connMu.RLock()
	defer connMu.RUnlock()
	if db == nil {
		return nil, fmt.Errorf("database not connected")
	}
	return db, nil
}

// Close tears down the shared pool.
func Close() error {
	connMu.Lock()
	defer connMu.Unlock()
	if db == nil {
		return nil
	}
	err := db.Close()
	db = nil
	return err
}

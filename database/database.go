package database

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	"github.com/mbolis/hvac-survey/config"
	"github.com/mbolis/hvac-survey/log"
)

// DB is a migrated connection pool that knows its SQL dialect.
type DB struct {
	*sql.DB
	Driver string
}

func Open(cfg config.Config) (*DB, error) {
	driver := cfg.Driver()
	dsn := cfg.DBUrl
	if driver == config.DriverSQLite {
		// pragmas must hold on every pooled connection
		dsn = withParams(dsn, "_foreign_keys=on", "_busy_timeout=5000")
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// db tuning options
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	err = migrateDB(db, driver)
	if err != nil {
		db.Close()
		return nil, err
	}

	log.Debugf("database: opened %s (%s)", cfg.DBUrl, driver)
	return &DB{DB: db, Driver: driver}, nil
}

func withParams(dsn string, params ...string) string {
	for _, p := range params {
		name, _, _ := strings.Cut(p, "=")
		if strings.Contains(dsn, name+"=") {
			continue
		}
		if strings.Contains(dsn, "?") {
			dsn += "&" + p
		} else {
			dsn += "?" + p
		}
	}
	return dsn
}

// Rebind rewrites ? placeholders into the driver's syntax.
func (db *DB) Rebind(query string) string {
	if db.Driver != config.DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

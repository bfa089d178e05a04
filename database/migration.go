package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/mbolis/hvac-survey/config"
	"github.com/mbolis/hvac-survey/log"
)

//go:embed migrations
var dbMigrations embed.FS

func migrateDB(db *sql.DB, driver string) error {
	var (
		dir string
		dst database.Driver
		err error
	)
	switch driver {
	case config.DriverSQLite:
		dir = "migrations/sqlite3"
		dst, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case config.DriverPostgres:
		dir = "migrations/postgres"
		dst, err = migratepgx.WithInstance(db, &migratepgx.Config{})
	default:
		return fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return err
	}

	src, err := iofs.New(dbMigrations, dir)
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithInstance("iofs", src, driver, dst)
	if err != nil {
		return err
	}

	err = migrator.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		// db already up to date
		break
	case err != nil:
		return err
	default:
		version, _, _ := migrator.Version()
		log.Infof("database: migrated to version %d", version)
	}
	return nil
}

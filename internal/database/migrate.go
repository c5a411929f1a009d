package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies the embedded schema migrations for the connection's dialect
func (db *DB) Migrate() error {
	driver, err := db.migrationDriver()
	if err != nil {
		return fmt.Errorf("creating migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations/"+db.dialect)
	if err != nil {
		return fmt.Errorf("opening migrations source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.dialect, driver)
	if err != nil {
		return fmt.Errorf("creating migrate instance: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("checking migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state (version %d), manual intervention required", version)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			db.logger.WithField("version", version).Info("Database schema is up to date")
			return nil
		}
		return fmt.Errorf("applying migrations: %w", err)
	}

	newVersion, _, _ := m.Version()
	db.logger.WithFields(logrus.Fields{
		"from": version,
		"to":   newVersion,
	}).Info("Database migrations applied")
	return nil
}

func (db *DB) migrationDriver() (migratedb.Driver, error) {
	switch db.dialect {
	case "mysql":
		return mysql.WithInstance(db.DB.DB, &mysql.Config{})
	case "postgres":
		return postgres.WithInstance(db.DB.DB, &postgres.Config{})
	case "sqlite":
		return sqlite.WithInstance(db.DB.DB, &sqlite.Config{})
	default:
		return nil, fmt.Errorf("migrations are not supported for %s", db.dialect)
	}
}

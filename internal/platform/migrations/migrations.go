// Package migrations owns the relational schema. SQL files are embedded per
// dialect and applied with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/R3E-Network/jobhunter/pkg/logger"
)

//go:embed sql
var files embed.FS

// Source returns the migration source for dialect ("mysql" or "postgres").
func Source(dialect string) (source.Driver, error) {
	dir, err := dir(dialect)
	if err != nil {
		return nil, err
	}
	return iofs.New(files, dir)
}

func dir(dialect string) (string, error) {
	switch dialect {
	case "mysql", "postgres":
		return "sql/" + dialect, nil
	}
	return "", fmt.Errorf("no migrations for dialect %q", dialect)
}

// Versions lists the migration versions shipped for dialect, ascending.
func Versions(dialect string) ([]uint, error) {
	src, err := Source(dialect)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		return nil, err
	}
	out := []uint{v}
	for {
		next, err := src.Next(v)
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, next)
		v = next
	}
}

// Up applies every pending migration on db. The database must be reachable;
// an already current schema is not an error.
func Up(db *sql.DB, dialect string, log *logger.Logger) error {
	if log == nil {
		log = logger.NewDefault("migrations")
	}

	src, err := Source(dialect)
	if err != nil {
		return err
	}

	var target database.Driver
	switch dialect {
	case "mysql":
		target, err = migratemysql.WithInstance(db, &migratemysql.Config{})
	case "postgres":
		target, err = migratepostgres.WithInstance(db, &migratepostgres.Config{})
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, target)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return err
	}
	log.WithFields(map[string]interface{}{
		"dialect": dialect,
		"version": version,
		"dirty":   dirty,
	}).Info("schema is up to date")
	return nil
}

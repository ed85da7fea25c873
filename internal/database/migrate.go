package database

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations applies every pending file migration from the given
// directory against the open connection.
func (p *Postgres) RunMigrations(dir string) error {
	driver, err := postgres.WithInstance(p.Db.DB, &postgres.Config{})
	if err != nil {
		log.Error("Failed to create migration driver: ", err)
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		log.Error("Failed to create migrator: ", err)
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error("Failed to apply migrations: ", err)
		return err
	}

	return nil
}

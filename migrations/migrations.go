// Package migrations embeds the schema and applies it with golang-migrate.
// Files follow the <version>_<title>.up.sql / .down.sql convention.
package migrations

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed *.sql
var files embed.FS

// Names lists the embedded up migrations in version order.
func Names() ([]string, error) {
	names, err := fs.Glob(files, "*.up.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Result reports the schema version before and after Apply.
type Result struct {
	From    uint
	To      uint
	Changed bool
}

// Apply migrates the database behind pool to the latest embedded version.
// An up-to-date schema is not an error. Cancelling ctx stops after the
// migration in flight.
func Apply(ctx context.Context, pool *pgxpool.Pool) (Result, error) {
	m, err := newMigrator(pool)
	if err != nil {
		return Result{}, err
	}
	defer m.Close()

	var res Result
	if res.From, err = currentVersion(m); err != nil {
		return res, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			m.GracefulStop <- true
		case <-done:
		}
	}()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return res, fmt.Errorf("migrations: up: %w", err)
	}
	if res.To, err = currentVersion(m); err != nil {
		return res, err
	}
	res.Changed = res.To != res.From
	return res, nil
}

func newMigrator(pool *pgxpool.Pool) (*migrate.Migrate, error) {
	src, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("migrations: source: %w", err)
	}
	driver, err := migratepgx.WithInstance(stdlib.OpenDBFromPool(pool), &migratepgx.Config{})
	if err != nil {
		return nil, fmt.Errorf("migrations: driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		return nil, fmt.Errorf("migrations: init: %w", err)
	}
	return m, nil
}

func currentVersion(m *migrate.Migrate) (uint, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("migrations: version: %w", err)
	}
	if dirty {
		return v, fmt.Errorf("migrations: version %d is dirty, fix it by hand and force the version", v)
	}
	return v, nil
}

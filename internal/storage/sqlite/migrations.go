package sqlite

import (
	"database/sql"
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	migrate "github.com/rubenv/sql-migrate"
)

const (
	upDownSeparator = "-- +migrate Up"
	downMarker      = "-- +migrate Down"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// loadMigrations reads the embedded migrations in file order.
func loadMigrations() (*migrate.MemoryMigrationSource, error) {
	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)

	src := &migrate.MemoryMigrationSource{}
	for _, name := range names {
		raw, err := migrationFiles.ReadFile(path.Join("migrations", name))
		if err != nil {
			return nil, err
		}
		parts := strings.Split(string(raw), upDownSeparator)
		if len(parts) != 2 {
			return nil, fmt.Errorf("migration %s missing %q separator", name, upDownSeparator)
		}
		down := parts[0]
		if idx := strings.Index(down, downMarker); idx != -1 {
			down = down[idx+len(downMarker):]
		}
		src.Migrations = append(src.Migrations, &migrate.Migration{
			Id:   strings.TrimSuffix(name, ".sql"),
			Up:   []string{strings.TrimSpace(parts[1])},
			Down: []string{strings.TrimSpace(down)},
		})
	}
	return src, nil
}

// runMigrations applies pending migrations and returns how many ran.
func runMigrations(db *sql.DB) (int, error) {
	src, err := loadMigrations()
	if err != nil {
		return 0, fmt.Errorf("load migrations: %w", err)
	}
	n, err := migrate.Exec(db, "sqlite3", src, migrate.Up)
	if err != nil {
		return 0, fmt.Errorf("run migrations: %w", err)
	}
	return n, nil
}

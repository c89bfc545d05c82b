package sqlite

import (
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	_ "modernc.org/sqlite"
)

var (
	ErrDBConnection = errors.New("database connection error")
	ErrDBQuery      = errors.New("database query error")
	ErrCreate       = errors.New("create error")
	ErrDelete       = errors.New("delete error")
	ErrMigration    = errors.New("database migration error")
)

type Database struct {
	*sqlx.DB
}

func NewDatabase(path string) (*Database, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	database := &Database{DB: db}

	if err := database.Migrate(); err != nil {
		db.Close()

		return nil, err
	}

	return database, nil
}

func (db *Database) Migrate() error {
	migrations := &migrate.MemoryMigrationSource{
		Migrations: []*migrate.Migration{
			{
				Id: "1_create_records",
				Up: []string{
					`CREATE TABLE IF NOT EXISTS records (
						round INTEGER NOT NULL,
						method TEXT NOT NULL,
						vector TEXT,
						distances TEXT,
						lambdas TEXT,
						partition_groups TEXT,
						samples INTEGER NOT NULL DEFAULT 0,
						error TEXT NOT NULL DEFAULT '',
						duration INTEGER NOT NULL DEFAULT 0,
						created_at INTEGER NOT NULL,
						PRIMARY KEY (round, method)
					)`,
					`CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at DESC)`,
				},
				Down: []string{
					`DROP INDEX IF EXISTS idx_records_created_at`,
					`DROP TABLE IF EXISTS records`,
				},
			},
		},
	}

	if _, err := migrate.Exec(db.DB.DB, "sqlite3", migrations, migrate.Up); err != nil {
		return fmt.Errorf("%w: %w", ErrMigration, err)
	}

	return nil
}

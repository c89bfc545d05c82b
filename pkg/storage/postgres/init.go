package postgres

import (
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
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

func NewDatabase(host, port, user, pass, name, sslMode string) (*Database, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", host, port, user, pass, name, sslMode)
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBConnection, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
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
						round BIGINT NOT NULL,
						method VARCHAR(32) NOT NULL,
						vector JSONB,
						distances JSONB,
						lambdas JSONB,
						partition_groups JSONB,
						samples INTEGER NOT NULL DEFAULT 0,
						error TEXT NOT NULL DEFAULT '',
						duration BIGINT NOT NULL DEFAULT 0,
						created_at TIMESTAMPTZ NOT NULL,
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

	if _, err := migrate.Exec(db.DB.DB, "postgres", migrations, migrate.Up); err != nil {
		return fmt.Errorf("%w: %w", ErrMigration, err)
	}

	return nil
}

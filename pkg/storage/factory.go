package storage

import (
	"errors"
	"fmt"
	"io"

	"github.com/absmach/shapley/pkg/storage/badger"
	"github.com/absmach/shapley/pkg/storage/file"
	"github.com/absmach/shapley/pkg/storage/postgres"
	"github.com/absmach/shapley/pkg/storage/sqlite"
)

var ErrUnsupportedType = errors.New("unsupported storage type")

type Config struct {
	Type string `env:"TYPE" envDefault:"memory"`

	PostgresHost    string `env:"POSTGRES_HOST"    envDefault:"localhost"`
	PostgresPort    string `env:"POSTGRES_PORT"    envDefault:"5432"`
	PostgresUser    string `env:"POSTGRES_USER"    envDefault:"attributor"`
	PostgresPass    string `env:"POSTGRES_PASS"    envDefault:"attributor"`
	PostgresDB      string `env:"POSTGRES_DB"      envDefault:"attributor"`
	PostgresSSLMode string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"./attributor.db"`

	BadgerPath string `env:"BADGER_PATH" envDefault:"./data/badger"`

	FileDir string `env:"FILE_DIR" envDefault:"./data/records"`
}

type Repositories struct {
	Records RecordRepository
	// Closer closes the underlying persistent storage connection.
	// It is nil for the in-memory and file backends.
	Closer io.Closer
}

func NewRepositories(cfg Config) (*Repositories, error) {
	switch cfg.Type {
	case "postgres":
		db, err := postgres.NewDatabase(
			cfg.PostgresHost,
			cfg.PostgresPort,
			cfg.PostgresUser,
			cfg.PostgresPass,
			cfg.PostgresDB,
			cfg.PostgresSSLMode,
		)
		if err != nil {
			return nil, err
		}

		return &Repositories{Records: postgres.NewRecordRepository(db), Closer: db}, nil
	case "sqlite":
		db, err := sqlite.NewDatabase(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}

		return &Repositories{Records: sqlite.NewRecordRepository(db), Closer: db}, nil
	case "badger":
		db, err := badger.NewDatabase(cfg.BadgerPath)
		if err != nil {
			return nil, err
		}

		return &Repositories{Records: badger.NewRecordRepository(db), Closer: db}, nil
	case "file":
		repo, err := file.NewRecordRepository(cfg.FileDir)
		if err != nil {
			return nil, err
		}

		return &Repositories{Records: repo}, nil
	case "memory":
		return &Repositories{Records: NewInMemoryRecordRepository()}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, cfg.Type)
	}
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/absmach/shapley/pkg/attribution"
	pkgerrors "github.com/absmach/shapley/pkg/errors"
)

type RecordRepository interface {
	Save(ctx context.Context, r attribution.Record) error
	Get(ctx context.Context, round uint64, method attribution.Method) (attribution.Record, error)
	ListByRound(ctx context.Context, round uint64) ([]attribution.Record, error)
	List(ctx context.Context, offset, limit uint64) ([]attribution.Record, uint64, error)
	Delete(ctx context.Context, round uint64, method attribution.Method) error
}

type dbRecord struct {
	Round     int64          `db:"round"`
	Method    string         `db:"method"`
	Vector    sql.NullString `db:"vector"`
	Distances sql.NullString `db:"distances"`
	Lambdas   sql.NullString `db:"lambdas"`
	Partition sql.NullString `db:"partition_groups"`
	Samples   int            `db:"samples"`
	Error     string         `db:"error"`
	Duration  int64          `db:"duration"`
	CreatedAt int64          `db:"created_at"`
}

const recordColumns = `round, method, vector, distances, lambdas, partition_groups, samples, error, duration, created_at`

type recordRepo struct {
	db *Database
}

func NewRecordRepository(db *Database) RecordRepository {
	return &recordRepo{db: db}
}

func (r *recordRepo) Save(ctx context.Context, rec attribution.Record) error {
	row, err := toDBRecord(rec)
	if err != nil {
		return err
	}

	query := `INSERT INTO records (` + recordColumns + `)
		VALUES (:round, :method, :vector, :distances, :lambdas, :partition_groups, :samples, :error, :duration, :created_at)
		ON CONFLICT (round, method) DO UPDATE SET
			vector = excluded.vector,
			distances = excluded.distances,
			lambdas = excluded.lambdas,
			partition_groups = excluded.partition_groups,
			samples = excluded.samples,
			error = excluded.error,
			duration = excluded.duration,
			created_at = excluded.created_at`
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("%w: %w", ErrCreate, err)
	}

	return nil
}

func (r *recordRepo) Get(ctx context.Context, round uint64, method attribution.Method) (attribution.Record, error) {
	var row dbRecord
	query := `SELECT ` + recordColumns + ` FROM records WHERE round = ? AND method = ?`
	if err := r.db.GetContext(ctx, &row, query, int64(round), string(method)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return attribution.Record{}, pkgerrors.ErrNotFound
		}

		return attribution.Record{}, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return row.toRecord()
}

func (r *recordRepo) ListByRound(ctx context.Context, round uint64) ([]attribution.Record, error) {
	var rows []dbRecord
	query := `SELECT ` + recordColumns + ` FROM records WHERE round = ? ORDER BY method`
	if err := r.db.SelectContext(ctx, &rows, query, int64(round)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	return toRecords(rows)
}

func (r *recordRepo) List(ctx context.Context, offset, limit uint64) ([]attribution.Record, uint64, error) {
	var total uint64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM records`); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	var rows []dbRecord
	query := `SELECT ` + recordColumns + ` FROM records ORDER BY round, method LIMIT ? OFFSET ?`
	if err := r.db.SelectContext(ctx, &rows, query, int64(limit), int64(offset)); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrDBQuery, err)
	}

	records, err := toRecords(rows)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *recordRepo) Delete(ctx context.Context, round uint64, method attribution.Method) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM records WHERE round = ? AND method = ?`, int64(round), string(method)); err != nil {
		return fmt.Errorf("%w: %w", ErrDelete, err)
	}

	return nil
}

func toDBRecord(rec attribution.Record) (dbRecord, error) {
	row := dbRecord{
		Round:     int64(rec.Round),
		Method:    string(rec.Method),
		Samples:   rec.Samples,
		Error:     rec.Error,
		Duration:  int64(rec.Duration),
		CreatedAt: rec.CreatedAt.UnixNano(),
	}

	var err error
	if row.Vector, err = jsonColumn(rec.Vector); err != nil {
		return dbRecord{}, err
	}
	if row.Distances, err = jsonColumn(rec.Distances); err != nil {
		return dbRecord{}, err
	}
	if row.Lambdas, err = jsonColumn(rec.Lambdas); err != nil {
		return dbRecord{}, err
	}
	if row.Partition, err = jsonColumn(rec.Partition); err != nil {
		return dbRecord{}, err
	}

	return row, nil
}

func (row dbRecord) toRecord() (attribution.Record, error) {
	rec := attribution.Record{
		Round:     uint64(row.Round),
		Method:    attribution.Method(row.Method),
		Samples:   row.Samples,
		Error:     row.Error,
		Duration:  time.Duration(row.Duration),
		CreatedAt: time.Unix(0, row.CreatedAt).UTC(),
	}

	if err := fromJSONColumn(row.Vector, &rec.Vector); err != nil {
		return attribution.Record{}, err
	}
	if err := fromJSONColumn(row.Distances, &rec.Distances); err != nil {
		return attribution.Record{}, err
	}
	if err := fromJSONColumn(row.Lambdas, &rec.Lambdas); err != nil {
		return attribution.Record{}, err
	}
	if err := fromJSONColumn(row.Partition, &rec.Partition); err != nil {
		return attribution.Record{}, err
	}

	return rec, nil
}

func toRecords(rows []dbRecord) ([]attribution.Record, error) {
	records := make([]attribution.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

func jsonColumn[T any](v []T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal column: %w", err)
	}

	return sql.NullString{String: string(data), Valid: true}, nil
}

func fromJSONColumn(col sql.NullString, v any) error {
	if !col.Valid {
		return nil
	}
	if err := json.Unmarshal([]byte(col.String), v); err != nil {
		return fmt.Errorf("failed to unmarshal column: %w", err)
	}

	return nil
}

package badger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/absmach/shapley/pkg/attribution"
)

const recordPrefix = "record:"

type RecordRepository interface {
	Save(ctx context.Context, r attribution.Record) error
	Get(ctx context.Context, round uint64, method attribution.Method) (attribution.Record, error)
	ListByRound(ctx context.Context, round uint64) ([]attribution.Record, error)
	List(ctx context.Context, offset, limit uint64) ([]attribution.Record, uint64, error)
	Delete(ctx context.Context, round uint64, method attribution.Method) error
}

type recordRepo struct {
	db *Database
}

func NewRecordRepository(db *Database) RecordRepository {
	return &recordRepo{db: db}
}

func recordKey(round uint64, method attribution.Method) []byte {
	return fmt.Appendf(roundPrefix(round), "%s", method)
}

func roundPrefix(round uint64) []byte {
	return fmt.Appendf(nil, "%s%020d:", recordPrefix, round)
}

func (r *recordRepo) Save(_ context.Context, rec attribution.Record) error {
	val, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	return r.db.set(recordKey(rec.Round, rec.Method), val)
}

func (r *recordRepo) Get(_ context.Context, round uint64, method attribution.Method) (attribution.Record, error) {
	val, err := r.db.get(recordKey(round, method))
	if err != nil {
		return attribution.Record{}, err
	}

	var rec attribution.Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return attribution.Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return rec, nil
}

func (r *recordRepo) ListByRound(_ context.Context, round uint64) ([]attribution.Record, error) {
	items, err := r.db.listWithPrefix(roundPrefix(round), 0, 0)
	if err != nil {
		return nil, err
	}

	return decodeRecords(items)
}

func (r *recordRepo) List(_ context.Context, offset, limit uint64) ([]attribution.Record, uint64, error) {
	total, err := r.db.countWithPrefix([]byte(recordPrefix))
	if err != nil {
		return nil, 0, err
	}
	if limit == 0 {
		return []attribution.Record{}, total, nil
	}

	items, err := r.db.listWithPrefix([]byte(recordPrefix), offset, limit)
	if err != nil {
		return nil, 0, err
	}
	records, err := decodeRecords(items)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *recordRepo) Delete(_ context.Context, round uint64, method attribution.Method) error {
	return r.db.delete(recordKey(round, method))
}

func decodeRecords(items [][]byte) ([]attribution.Record, error) {
	records := make([]attribution.Record, 0, len(items))
	for _, item := range items {
		var rec attribution.Record
		if err := json.Unmarshal(item, &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}

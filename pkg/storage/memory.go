package storage

import (
	"context"
	stderrors "errors"
	"sort"
	"strings"
	"sync"

	"github.com/absmach/shapley/pkg/attribution"
	"github.com/absmach/shapley/pkg/errors"
)

type inMemoryStorage struct {
	sync.Mutex

	data map[string]any
}

func NewInMemoryStorage() Storage {
	return &inMemoryStorage{
		data: make(map[string]any),
	}
}

func (s *inMemoryStorage) Create(_ context.Context, key string, value any) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if _, ok := s.data[key]; ok {
		return errors.ErrEntityExists
	}

	s.data[key] = value

	return nil
}

func (s *inMemoryStorage) Get(_ context.Context, key string) (any, error) {
	if key == "" {
		return nil, errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if val, ok := s.data[key]; ok {
		return val, nil
	}

	return nil, errors.ErrNotFound
}

func (s *inMemoryStorage) Update(_ context.Context, key string, value any) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	if _, ok := s.data[key]; !ok {
		return errors.ErrNotFound
	}

	s.data[key] = value

	return nil
}

// List returns values in key order.
func (s *inMemoryStorage) List(_ context.Context, offset, limit uint64) (result []any, total uint64, err error) {
	s.Lock()
	defer s.Unlock()

	keys := s.sortedKeys("")

	total = uint64(len(keys))
	if offset >= total {
		return nil, total, nil
	}

	end := min(offset+limit, total)

	result = make([]any, end-offset)
	for i := offset; i < end; i++ {
		result[i-offset] = s.data[keys[i]]
	}

	return result, total, nil
}

func (s *inMemoryStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errors.ErrEmptyKey
	}

	s.Lock()
	defer s.Unlock()

	delete(s.data, key)

	return nil
}

func (s *inMemoryStorage) withPrefix(prefix string) []any {
	s.Lock()
	defer s.Unlock()

	keys := s.sortedKeys(prefix)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = s.data[k]
	}

	return out
}

func (s *inMemoryStorage) sortedKeys(prefix string) []string {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	return keys
}

type memoryRecordRepository struct {
	storage *inMemoryStorage
}

func NewInMemoryRecordRepository() RecordRepository {
	return &memoryRecordRepository{
		storage: &inMemoryStorage{data: make(map[string]any)},
	}
}

func (r *memoryRecordRepository) Save(ctx context.Context, rec attribution.Record) error {
	key := RecordKey(rec.Round, rec.Method)
	err := r.storage.Create(ctx, key, rec)
	if stderrors.Is(err, errors.ErrEntityExists) {
		return r.storage.Update(ctx, key, rec)
	}

	return err
}

func (r *memoryRecordRepository) Get(ctx context.Context, round uint64, method attribution.Method) (attribution.Record, error) {
	data, err := r.storage.Get(ctx, RecordKey(round, method))
	if err != nil {
		return attribution.Record{}, err
	}
	rec, ok := data.(attribution.Record)
	if !ok {
		return attribution.Record{}, errors.ErrInvalidData
	}

	return rec, nil
}

func (r *memoryRecordRepository) ListByRound(_ context.Context, round uint64) ([]attribution.Record, error) {
	return toRecords(r.storage.withPrefix(RoundPrefix(round)))
}

func (r *memoryRecordRepository) List(ctx context.Context, offset, limit uint64) ([]attribution.Record, uint64, error) {
	data, total, err := r.storage.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	records, err := toRecords(data)
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *memoryRecordRepository) Delete(ctx context.Context, round uint64, method attribution.Method) error {
	return r.storage.Delete(ctx, RecordKey(round, method))
}

func toRecords(data []any) ([]attribution.Record, error) {
	records := make([]attribution.Record, len(data))
	for i := range data {
		rec, ok := data[i].(attribution.Record)
		if !ok {
			return nil, errors.ErrInvalidData
		}
		records[i] = rec
	}

	return records, nil
}

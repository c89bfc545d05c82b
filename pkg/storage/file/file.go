// Package file stores attribution records as one JSON document per round
// and method in a directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

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

type recordRepo struct {
	dir string
	mu  sync.RWMutex
}

func NewRecordRepository(dir string) (RecordRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create records directory: %w", err)
	}

	return &recordRepo{dir: dir}, nil
}

// fileName only accepts known methods, so no caller supplied text reaches
// the file system.
func (r *recordRepo) fileName(round uint64, method attribution.Method) (string, error) {
	if _, err := attribution.ParseMethod(string(method)); err != nil {
		return "", err
	}

	return filepath.Join(r.dir, fmt.Sprintf("%s%s.json", roundPrefix(round), method)), nil
}

func roundPrefix(round uint64) string {
	return fmt.Sprintf("round_%020d_", round)
}

func (r *recordRepo) Save(_ context.Context, rec attribution.Record) error {
	name, err := r.fileName(rec.Round, rec.Method)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tmp := name + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}
	if err := os.Rename(tmp, name); err != nil {
		return fmt.Errorf("failed to write record file: %w", err)
	}

	return nil
}

func (r *recordRepo) Get(_ context.Context, round uint64, method attribution.Method) (attribution.Record, error) {
	name, err := r.fileName(round, method)
	if err != nil {
		return attribution.Record{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	return readRecord(name)
}

func (r *recordRepo) ListByRound(_ context.Context, round uint64) ([]attribution.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names, err := r.names(roundPrefix(round))
	if err != nil {
		return nil, err
	}

	return readRecords(r.dir, names)
}

func (r *recordRepo) List(_ context.Context, offset, limit uint64) ([]attribution.Record, uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names, err := r.names("round_")
	if err != nil {
		return nil, 0, err
	}

	total := uint64(len(names))
	if offset >= total {
		return []attribution.Record{}, total, nil
	}
	end := min(offset+limit, total)

	records, err := readRecords(r.dir, names[offset:end])
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *recordRepo) Delete(_ context.Context, round uint64, method attribution.Method) error {
	name, err := r.fileName(round, method)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete record file: %w", err)
	}

	return nil
}

func (r *recordRepo) names(prefix string) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read records directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".json") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

func readRecord(name string) (attribution.Record, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return attribution.Record{}, pkgerrors.ErrNotFound
		}

		return attribution.Record{}, fmt.Errorf("failed to read record file: %w", err)
	}

	var rec attribution.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return attribution.Record{}, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	return rec, nil
}

func readRecords(dir string, names []string) ([]attribution.Record, error) {
	records := make([]attribution.Record, 0, len(names))
	for _, name := range names {
		rec, err := readRecord(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

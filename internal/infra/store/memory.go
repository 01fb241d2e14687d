package store

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"

	"github.com/rojanmagar2001/readsync/internal/domain"
	"github.com/rojanmagar2001/readsync/internal/ports"
)

// Memory is a RecordStore/CredentialStore kept entirely in process.
// It backs tests and keeps the sync engine runnable without a database
// file; durability is the SQLite store's job.
type Memory struct {
	mu sync.Mutex

	records map[string]map[string]domain.Record // source -> id -> record
	keys    map[string]string
	runs    int
}

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]map[string]domain.Record),
		keys:    make(map[string]string),
	}
}

func (m *Memory) Records(_ context.Context, source string) ([]domain.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Record, 0, len(m.records[source]))
	for _, rec := range m.records[source] {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ApplyPage(_ context.Context, source string, updates, inserts []domain.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, ok := m.records[source]
	if !ok {
		table = make(map[string]domain.Record)
		m.records[source] = table
	}

	for _, rec := range updates {
		if _, ok := table[rec.ID]; !ok {
			return errors.Errorf("update for unknown record %q", rec.ID)
		}
		table[rec.ID] = rec
	}
	for _, rec := range inserts {
		table[rec.ID] = rec
	}
	return nil
}

func (m *Memory) CountRecords(_ context.Context, source string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records[source]), nil
}

func (m *Memory) APIKey(_ context.Context, source string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, ok := m.keys[source]
	if !ok || key == "" {
		return "", errors.Wrapf(ports.ErrNoAPIKey, "%s", source)
	}
	return key, nil
}

func (m *Memory) SetAPIKey(_ context.Context, source, key string) error {
	if key == "" {
		return errors.New("api key must not be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[source] = key
	return nil
}

func (m *Memory) BeginRun(_ context.Context, source string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs++
	return source + "-" + strconv.Itoa(m.runs), nil
}

func (m *Memory) FinishRun(context.Context, string, int, int, error) error {
	return nil
}

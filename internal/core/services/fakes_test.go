package services

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/skema-cli/internal/core/domain"
	"github.com/custodia-labs/skema-cli/internal/core/ports/driven"
)

// In-memory port implementations shared by the service tests.

type memContentStore struct {
	mu   sync.Mutex
	data map[domain.Hash][]byte
}

var _ driven.ContentStore = (*memContentStore)(nil)

func newMemContentStore() *memContentStore {
	return &memContentStore{data: make(map[domain.Hash][]byte)}
}

func (s *memContentStore) Put(_ context.Context, data []byte) (domain.Hash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hash := domain.HashBytes(data)
	if _, ok := s.data[hash]; !ok {
		s.data[hash] = append([]byte(nil), data...)
	}
	return hash, nil
}

func (s *memContentStore) Get(_ context.Context, hash domain.Hash) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.data[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

type memManifestStore struct {
	mu      sync.Mutex
	records map[domain.Hash]*domain.ManifestRecord

	// terminalWrites counts UpdateTerminal calls that changed state,
	// so tests can assert at-most-once behaviour.
	terminalWrites map[domain.Hash]int
}

var _ driven.ManifestStore = (*memManifestStore)(nil)

func newMemManifestStore() *memManifestStore {
	return &memManifestStore{
		records:        make(map[domain.Hash]*domain.ManifestRecord),
		terminalWrites: make(map[domain.Hash]int),
	}
}

func (s *memManifestStore) Exists(_ context.Context, hash domain.Hash) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[hash]
	return ok, nil
}

func (s *memManifestStore) Insert(_ context.Context, rec *domain.ManifestRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.FileHash]; ok {
		return domain.ErrAlreadyExists
	}
	copied := *rec
	s.records[rec.FileHash] = &copied
	return nil
}

func (s *memManifestStore) Get(_ context.Context, hash domain.Hash) (*domain.ManifestRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[hash]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (s *memManifestStore) ListByStatus(_ context.Context, status domain.Status) ([]domain.ManifestRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ManifestRecord
	for _, rec := range s.records {
		if rec.Status == status {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *memManifestStore) CountByStatus(_ context.Context) (map[domain.Status]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[domain.Status]int64)
	for _, rec := range s.records {
		counts[rec.Status]++
	}
	return counts, nil
}

func (s *memManifestStore) UpdateTerminal(_ context.Context, runStarted time.Time, res *domain.TransformResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[res.FileHash]
	if !ok {
		return domain.ErrNotFound
	}
	if rec.TransformEndedAt != nil && !rec.TransformEndedAt.Before(runStarted) {
		return domain.ErrAlreadyExists
	}
	rec.Status = res.Status
	rec.TransformStartedAt = &res.StartedAt
	rec.TransformEndedAt = &res.EndedAt
	rec.MatchedFingerprint = res.MatchedFingerprint
	rec.TargetTable = res.TargetTable
	rec.ProcessedRowCount = res.ProcessedRowCount
	rec.ErrorMessage = res.ErrorMessage
	s.terminalWrites[res.FileHash]++
	return nil
}

type memTableStore struct {
	mu     sync.Mutex
	tables map[string][][]any
	loads  int
}

var _ driven.TableStore = (*memTableStore)(nil)

func newMemTableStore() *memTableStore {
	return &memTableStore{tables: make(map[string][][]any)}
}

func (s *memTableStore) Load(_ context.Context, table string, _ []string, rows [][]any, mode domain.LoadMode) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode == domain.LoadReplace {
		s.tables[table] = nil
	}
	s.tables[table] = append(s.tables[table], rows...)
	s.loads++
	return int64(len(rows)), nil
}

func (s *memTableStore) Count(_ context.Context, table string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.tables[table]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return int64(len(rows)), nil
}

type memRowQuarantineStore struct {
	mu      sync.Mutex
	entries map[domain.Hash][]domain.RowQuarantine
}

var _ driven.RowQuarantineStore = (*memRowQuarantineStore)(nil)

func newMemRowQuarantineStore() *memRowQuarantineStore {
	return &memRowQuarantineStore{entries: make(map[domain.Hash][]domain.RowQuarantine)}
}

func (s *memRowQuarantineStore) Add(_ context.Context, entries []domain.RowQuarantine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.entries[e.FileHash] = append(s.entries[e.FileHash], e)
	}
	return nil
}

func (s *memRowQuarantineStore) ListByFile(_ context.Context, hash domain.Hash) ([]domain.RowQuarantine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[hash], nil
}

// panicCleaner crashes on Clean, for pool-resilience tests.
type panicCleaner struct{}

func (panicCleaner) ID() string { return "panic" }

func (panicCleaner) Clean(context.Context, *domain.Table, *domain.FormatRecipe) (*domain.CleanResult, error) {
	panic("cleaner blew up")
}

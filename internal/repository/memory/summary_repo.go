// Package memory provides a bounded in-process SummaryRepository used when no
// database is configured.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"medbrief/internal/domain"
)

const defaultLimit = 500

// SummaryRepo keeps the most recent summaries in memory. Once the limit is
// reached the oldest record is evicted.
type SummaryRepo struct {
	mu      sync.RWMutex
	limit   int
	records []domain.SummaryRecord // oldest first
	byID    map[uuid.UUID]int
}

// NewSummaryRepo creates an in-memory repository holding at most limit records.
func NewSummaryRepo(limit int) *SummaryRepo {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &SummaryRepo{limit: limit, byID: map[uuid.UUID]int{}}
}

func (r *SummaryRepo) Create(_ context.Context, rec *domain.SummaryRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records = append(r.records, clone(*rec))
	if len(r.records) > r.limit {
		r.records = r.records[len(r.records)-r.limit:]
	}
	r.reindex()
	return nil
}

func (r *SummaryRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.SummaryRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSummaryNotFound
	}
	rec := clone(r.records[i])
	return &rec, nil
}

// List returns records newest first.
func (r *SummaryRepo) List(_ context.Context, offset, limit int) ([]domain.SummaryRecord, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.records)
	if offset < 0 {
		offset = 0
	}
	out := []domain.SummaryRecord{}
	for i := total - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, clone(r.records[i]))
	}
	return out, total, nil
}

func (r *SummaryRepo) Ping(context.Context) error {
	return nil
}

func (r *SummaryRepo) reindex() {
	r.byID = make(map[uuid.UUID]int, len(r.records))
	for i, rec := range r.records {
		r.byID[rec.ID] = i
	}
}

func clone(rec domain.SummaryRecord) domain.SummaryRecord {
	rec.FileNames = append(domain.StringList(nil), rec.FileNames...)
	rec.ArchiveKeys = append(domain.StringList(nil), rec.ArchiveKeys...)
	rec.Envelope = append([]byte(nil), rec.Envelope...)
	return rec
}

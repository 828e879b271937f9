package membership

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps records in process memory. It is safe for
// concurrent use and implements ExclusiveInserter under its mutex.
type MemoryRepository struct {
	mu      sync.Mutex
	records []Record
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) ListByMember(ctx context.Context, memberID string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, storeError("list", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Record
	for i := len(r.records) - 1; i >= 0; i-- {
		if r.records[i].MemberID == memberID {
			out = append(out, r.records[i])
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryRepository) Insert(ctx context.Context, rec *Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", storeError("insert", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(rec), nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, upd RecordUpdate) error {
	if err := ctx.Err(); err != nil {
		return storeError("update", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records {
		if r.records[i].ID == id {
			upd.apply(&r.records[i])
			return nil
		}
	}
	return ErrNotFound
}

func (r *MemoryRepository) InsertExclusive(ctx context.Context, rec *Record, deactivatedAt time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", storeError("insert_exclusive", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.records {
		if r.records[i].MemberID == rec.MemberID && r.records[i].IsActive {
			r.records[i].IsActive = false
			r.records[i].UpdatedAt = deactivatedAt
		}
	}
	return r.insertLocked(rec), nil
}

func (r *MemoryRepository) insertLocked(rec *Record) string {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	stored := *rec
	stored.Features = append(FeatureList(nil), rec.Features...)
	r.records = append(r.records, stored)
	return rec.ID
}

package membership

import (
	"context"
	"time"
)

// Repository is the record store contract. ListByMember returns records
// newest first.
type Repository interface {
	ListByMember(ctx context.Context, memberID string) ([]Record, error)
	Insert(ctx context.Context, rec *Record) (string, error)
	Update(ctx context.Context, id string, upd RecordUpdate) error
}

// ExclusiveInserter is implemented by stores that can deactivate a member's
// active records and insert a new one as a single atomic write.
type ExclusiveInserter interface {
	InsertExclusive(ctx context.Context, rec *Record, deactivatedAt time.Time) (string, error)
}

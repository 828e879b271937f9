package attendance

import (
	"context"
	"time"

	"triplea/internal/membership"
)

type Repository interface {
	CheckIn(ctx context.Context, memberID string, day membership.Date, at time.Time) (*Visit, error)
	CheckOut(ctx context.Context, memberID string, day membership.Date, at time.Time) (*Visit, error)
	ListByMember(ctx context.Context, memberID string, limit int) ([]Visit, error)
}

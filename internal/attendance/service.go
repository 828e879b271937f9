package attendance

import (
	"context"
	"errors"
	"fmt"

	"triplea/internal/logger"
	"triplea/internal/membership"
	"triplea/internal/metrics"
)

var ErrMembershipRequired = errors.New("an active membership is required to check in")

// StatusReader is the slice of the membership engine attendance needs.
type StatusReader interface {
	ComputeStatus(ctx context.Context, memberID string) (membership.StatusView, error)
}

type Service interface {
	CheckIn(ctx context.Context, memberID string) (*Visit, error)
	CheckOut(ctx context.Context, memberID string) (*Visit, error)
	History(ctx context.Context, memberID string, limit int) ([]Visit, error)
}

type service struct {
	repo     Repository
	statuses StatusReader
	clock    membership.Clock
}

func NewService(repo Repository, statuses StatusReader, clock membership.Clock) Service {
	return &service{repo: repo, statuses: statuses, clock: clock}
}

func (s *service) CheckIn(ctx context.Context, memberID string) (*Visit, error) {
	if memberID == "" {
		return nil, membership.ErrInvalidMember
	}

	view, err := s.statuses.ComputeStatus(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("check in: %w", err)
	}
	if view.Status != membership.StatusActive {
		metrics.RecordAttendance("rejected")
		return nil, ErrMembershipRequired
	}

	now := s.clock.Now()
	v, err := s.repo.CheckIn(ctx, memberID, membership.DateOf(now), now)
	if err != nil {
		return nil, err
	}

	metrics.RecordAttendance("check_in")
	logger.Info("Member checked in", "member_id", memberID, "visit_id", v.ID)
	return v, nil
}

func (s *service) CheckOut(ctx context.Context, memberID string) (*Visit, error) {
	if memberID == "" {
		return nil, membership.ErrInvalidMember
	}

	now := s.clock.Now()
	v, err := s.repo.CheckOut(ctx, memberID, membership.DateOf(now), now)
	if err != nil {
		return nil, err
	}

	metrics.RecordAttendance("check_out")
	logger.Info("Member checked out", "member_id", memberID, "visit_id", v.ID, "minutes", int(v.Duration().Minutes()))
	return v, nil
}

func (s *service) History(ctx context.Context, memberID string, limit int) ([]Visit, error) {
	if memberID == "" {
		return nil, membership.ErrInvalidMember
	}
	return s.repo.ListByMember(ctx, memberID, limit)
}

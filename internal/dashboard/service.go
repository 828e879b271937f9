package dashboard

import (
	"context"
	"fmt"

	"triplea/internal/logger"
	"triplea/internal/member"
	"triplea/internal/membership"
	"triplea/internal/metrics"
)

type MemberDirectory interface {
	List(ctx context.Context) ([]member.Member, error)
	GetByID(ctx context.Context, id string) (*member.Member, error)
}

type StatusSource interface {
	ComputeStatus(ctx context.Context, memberID string) (membership.StatusView, error)
	ListStatuses(ctx context.Context, memberIDs []string) ([]membership.MemberStatus, error)
}

type Entry struct {
	Member      member.Member         `json:"member"`
	Status      membership.StatusView `json:"membership"`
	Unavailable bool                  `json:"status_unavailable,omitempty"`
}

type Counts struct {
	Total       int `json:"total"`
	Active      int `json:"active"`
	Expired     int `json:"expired"`
	Pending     int `json:"pending"`
	Unavailable int `json:"unavailable"`
}

type Roster struct {
	Members []Entry `json:"members"`
	Counts  Counts  `json:"counts"`
}

type Service interface {
	Roster(ctx context.Context) (*Roster, error)
	Member(ctx context.Context, memberID string) (*Entry, error)
}

type service struct {
	members  MemberDirectory
	statuses StatusSource
}

func NewService(members MemberDirectory, statuses StatusSource) Service {
	return &service{members: members, statuses: statuses}
}

// Roster joins every member with a derived status. A member whose records
// cannot be read is flagged unavailable instead of failing the whole page.
func (s *service) Roster(ctx context.Context) (*Roster, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}

	statuses, err := s.statuses.ListStatuses(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}

	roster := &Roster{Members: make([]Entry, len(members))}
	for i, m := range members {
		st := statuses[i]
		entry := Entry{Member: m, Status: st.StatusView}

		switch {
		case st.Err != nil:
			entry.Unavailable = true
			roster.Counts.Unavailable++
			logger.Warn("Status unavailable for member", "member_id", m.ID, "error", st.Err)
		case st.Status == membership.StatusActive:
			roster.Counts.Active++
		case st.Status == membership.StatusExpired:
			roster.Counts.Expired++
		default:
			roster.Counts.Pending++
		}
		roster.Members[i] = entry
	}
	roster.Counts.Total = len(members)

	if roster.Counts.Unavailable == 0 {
		metrics.SetActiveMembers(roster.Counts.Active)
	}
	return roster, nil
}

func (s *service) Member(ctx context.Context, memberID string) (*Entry, error) {
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	view, err := s.statuses.ComputeStatus(ctx, memberID)
	if err != nil {
		return nil, err
	}
	return &Entry{Member: *m, Status: view}, nil
}

package email

import (
	"context"
	"fmt"

	"triplea/internal/member"
	"triplea/internal/membership"
)

type MemberFinder interface {
	FindByID(ctx context.Context, id string) (*member.Member, error)
}

// Notifier emails members about membership lifecycle changes.
type Notifier struct {
	emails  *Service
	members MemberFinder
}

func NewNotifier(emails *Service, members MemberFinder) *Notifier {
	return &Notifier{emails: emails, members: members}
}

func (n *Notifier) MembershipCreated(ctx context.Context, rec membership.Record, plan membership.Plan) error {
	m, err := n.members.FindByID(ctx, rec.MemberID)
	if err != nil {
		return fmt.Errorf("lookup member %s: %w", rec.MemberID, err)
	}
	return n.emails.SendMembershipConfirmation(ctx, m.Email, m.Name, plan.Name, rec.AmountPaise, rec.StartDate, rec.EndDate)
}

func (n *Notifier) MembershipDiscontinued(ctx context.Context, rec membership.Record) error {
	m, err := n.members.FindByID(ctx, rec.MemberID)
	if err != nil {
		return fmt.Errorf("lookup member %s: %w", rec.MemberID, err)
	}
	return n.emails.SendMembershipDiscontinued(ctx, m.Email, m.Name, rec.PlanName, rec.EndDate)
}

package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"triplea/internal/logger"
	"triplea/internal/metrics"
)

type Service interface {
	ComputeStatus(ctx context.Context, memberID string) (StatusView, error)
	CreateMembership(ctx context.Context, actor Actor, memberID, planID string, start Date) (*Record, error)
	DiscontinueMembership(ctx context.Context, actor Actor, memberID string) (*Record, error)
	PurchaseMembership(ctx context.Context, memberID, planID string, start Date) (*Record, error)
	PaymentHistory(ctx context.Context, memberID string) ([]Record, error)
	ListStatuses(ctx context.Context, memberIDs []string) ([]MemberStatus, error)
	Plans() []Plan
}

type Options struct {
	Policy Policy
	// Concurrency bounds ListStatuses fan-out. Zero means 8.
	Concurrency int
	Payments    PaymentGateway
	Notifier    Notifier
}

type service struct {
	repo        Repository
	clock       Clock
	catalog     *Catalog
	policy      Policy
	concurrency int
	payments    PaymentGateway
	notifier    Notifier
}

func NewService(repo Repository, clock Clock, catalog *Catalog, opts Options) Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	return &service{
		repo:        repo,
		clock:       clock,
		catalog:     catalog,
		policy:      opts.Policy,
		concurrency: opts.Concurrency,
		payments:    opts.Payments,
		notifier:    opts.Notifier,
	}
}

func (s *service) Plans() []Plan {
	return s.catalog.List()
}

func (s *service) today() Date {
	return DateOf(s.clock.Now())
}

func (s *service) ComputeStatus(ctx context.Context, memberID string) (StatusView, error) {
	if memberID == "" {
		return StatusView{}, ErrInvalidMember
	}
	records, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return StatusView{}, err
	}
	view := DeriveStatus(memberID, records, s.today())
	metrics.RecordStatusDerived(string(view.Status))
	return view, nil
}

func (s *service) CreateMembership(ctx context.Context, actor Actor, memberID, planID string, start Date) (*Record, error) {
	if !actor.IsAdmin {
		return nil, ErrPermissionDenied
	}
	if memberID == "" {
		return nil, ErrInvalidMember
	}
	plan, err := s.catalog.Find(planID)
	if err != nil {
		return nil, err
	}
	if !start.Valid() {
		return nil, fmt.Errorf("%w: start date %v", ErrInvalidDate, start)
	}
	if !s.policy.AllowBackdating && start.Before(s.today()) {
		return nil, ErrBackdatedStart
	}

	rec := s.newRecord(memberID, plan, start, PaymentCompleted, MethodAdmin)
	if err := s.write(ctx, rec); err != nil {
		return nil, err
	}

	logger.Info("Membership created", "member_id", memberID, "plan_id", plan.ID, "actor", actor.ID, "record_id", rec.ID)
	metrics.RecordMembershipCreated(plan.ID, MethodAdmin)
	s.notifyCreated(ctx, *rec, plan)
	return rec, nil
}

func (s *service) PurchaseMembership(ctx context.Context, memberID, planID string, start Date) (*Record, error) {
	if memberID == "" {
		return nil, ErrInvalidMember
	}
	plan, err := s.catalog.Find(planID)
	if err != nil {
		return nil, err
	}
	today := s.today()
	if start.IsZero() {
		start = today
	}
	if !start.Valid() {
		return nil, fmt.Errorf("%w: start date %v", ErrInvalidDate, start)
	}
	if start.Before(today) {
		return nil, ErrBackdatedStart
	}
	if s.payments == nil {
		return nil, fmt.Errorf("%w: no gateway configured", ErrGatewayUnavailable)
	}

	desc := "membership:" + plan.ID
	res, err := s.payments.Charge(ctx, memberID, plan.PricePaise, desc)
	if err != nil {
		metrics.RecordMembershipPayment("error")
		return nil, err
	}
	metrics.RecordMembershipPayment(string(res.Status))
	if res.Status != PaymentCompleted {
		logger.Warn("Membership payment not completed", "member_id", memberID, "plan_id", plan.ID, "status", res.Status)
		return nil, ErrPaymentFailed
	}

	method := res.Method
	if method == "" {
		method = MethodWallet
	}
	rec := s.newRecord(memberID, plan, start, res.Status, method)
	if err := s.write(ctx, rec); err != nil {
		if rerr := s.payments.Refund(context.WithoutCancel(ctx), memberID, plan.PricePaise, "refund:"+plan.ID); rerr != nil {
			logger.Error("Refund after failed membership write", "member_id", memberID, "error", rerr)
		}
		return nil, err
	}

	logger.Info("Membership purchased", "member_id", memberID, "plan_id", plan.ID, "record_id", rec.ID, "reference", res.Reference)
	metrics.RecordMembershipCreated(plan.ID, method)
	s.notifyCreated(ctx, *rec, plan)
	return rec, nil
}

func (s *service) DiscontinueMembership(ctx context.Context, actor Actor, memberID string) (*Record, error) {
	if !actor.IsAdmin {
		return nil, ErrPermissionDenied
	}
	if memberID == "" {
		return nil, ErrInvalidMember
	}
	records, err := s.repo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNoActiveMembership
	}

	active := make([]Record, 0, 1)
	for _, r := range records {
		if r.IsActive {
			active = append(active, r)
		}
	}
	target, ok := Latest(active)
	if !ok {
		return nil, ErrAlreadyInactive
	}

	now := s.clock.Now()
	end := DateOf(now)
	inactive := false
	upd := RecordUpdate{IsActive: &inactive, EndDate: &end, UpdatedAt: now}

	if err := s.repo.Update(context.WithoutCancel(ctx), target.ID, upd); err != nil {
		return nil, err
	}
	upd.apply(&target)

	logger.Info("Membership discontinued", "member_id", memberID, "record_id", target.ID, "actor", actor.ID)
	metrics.RecordMembershipDiscontinued()
	if s.notifier != nil {
		if err := s.notifier.MembershipDiscontinued(ctx, target); err != nil {
			logger.Warn("Discontinue notification failed", "member_id", memberID, "error", err)
		}
	}
	return &target, nil
}

func (s *service) PaymentHistory(ctx context.Context, memberID string) ([]Record, error) {
	if memberID == "" {
		return nil, ErrInvalidMember
	}
	return s.repo.ListByMember(ctx, memberID)
}

func (s *service) ListStatuses(ctx context.Context, memberIDs []string) ([]MemberStatus, error) {
	out := make([]MemberStatus, len(memberIDs))
	today := s.today()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range memberIDs {
		g.Go(func() error {
			out[i].MemberID = id
			records, err := s.repo.ListByMember(gctx, id)
			if err != nil {
				out[i].Err = err
				return nil
			}
			out[i].StatusView = DeriveStatus(id, records, today)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) newRecord(memberID string, plan Plan, start Date, status PaymentStatus, method string) *Record {
	now := s.clock.Now()
	return &Record{
		ID:            uuid.NewString(),
		MemberID:      memberID,
		PlanID:        plan.ID,
		PlanName:      plan.Name,
		AmountPaise:   plan.PricePaise,
		Features:      append(FeatureList(nil), plan.Features...),
		StartDate:     start,
		EndDate:       start.AddMonths(plan.DurationMonths),
		IsActive:      true,
		PaymentStatus: status,
		PaymentMethod: method,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// write stores rec according to the deactivation policy. The write runs
// detached from ctx cancellation; the store's own timeout still applies.
func (s *service) write(ctx context.Context, rec *Record) error {
	wctx := context.WithoutCancel(ctx)

	if !s.policy.DeactivatePrior {
		id, err := s.repo.Insert(wctx, rec)
		if err != nil {
			return err
		}
		rec.ID = id
		return nil
	}

	if ex, ok := s.repo.(ExclusiveInserter); ok {
		id, err := ex.InsertExclusive(wctx, rec, rec.CreatedAt)
		if err != nil {
			return err
		}
		rec.ID = id
		return nil
	}

	logger.Warn("Record store has no exclusive insert; deactivating prior records non-atomically", "member_id", rec.MemberID)
	records, err := s.repo.ListByMember(wctx, rec.MemberID)
	if err != nil {
		return err
	}
	inactive := false
	for _, r := range records {
		if !r.IsActive {
			continue
		}
		upd := RecordUpdate{IsActive: &inactive, UpdatedAt: rec.CreatedAt}
		if err := s.repo.Update(wctx, r.ID, upd); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	id, err := s.repo.Insert(wctx, rec)
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

func (s *service) notifyCreated(ctx context.Context, rec Record, plan Plan) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.MembershipCreated(ctx, rec, plan); err != nil {
		logger.Warn("Membership notification failed", "member_id", rec.MemberID, "error", err)
	}
}

// Latest picks the record that determines a member's status: newest
// CreatedAt, then later EndDate. Full ties keep the earlier slice element.
func Latest(records []Record) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}
	best := records[0]
	for _, r := range records[1:] {
		if newer(r, best) {
			best = r
		}
	}
	return best, true
}

func newer(a, b Record) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.EndDate.After(b.EndDate)
}

// DeriveStatus computes a member's status from their records as of today.
func DeriveStatus(memberID string, records []Record, today Date) StatusView {
	view := StatusView{MemberID: memberID, Status: StatusPending}
	latest, ok := Latest(records)
	if !ok {
		return view
	}

	start, end := latest.StartDate, latest.EndDate
	view.StartDate = &start
	view.EndDate = &end
	view.PlanID = latest.PlanID
	view.PlanName = latest.PlanName
	view.RecordID = latest.ID

	if latest.IsActive && !end.Before(today) {
		view.Status = StatusActive
	} else {
		view.Status = StatusExpired
	}
	return view
}

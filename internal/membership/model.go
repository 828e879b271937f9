package membership

import (
	"context"
	"database/sql/driver"
	"time"

	"github.com/lib/pq"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusPending Status = "pending"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentCompleted, PaymentFailed:
		return true
	}
	return false
}

const (
	MethodAdmin  = "admin"
	MethodWallet = "wallet"
)

// Record is one purchase or assignment of a plan to a member. Records are
// appended, never deleted; discontinuing only flips IsActive and EndDate.
// Features is the plan's feature list at the time of purchase.
type Record struct {
	ID            string        `db:"id" json:"id"`
	MemberID      string        `db:"member_id" json:"member_id"`
	PlanID        string        `db:"plan_id" json:"plan_id"`
	PlanName      string        `db:"plan_name" json:"plan_name"`
	AmountPaise   int64         `db:"amount_paise" json:"amount_paise"`
	Features      FeatureList   `db:"features" json:"features,omitempty"`
	StartDate     Date          `db:"start_date" json:"start_date"`
	EndDate       Date          `db:"end_date" json:"end_date"`
	IsActive      bool          `db:"is_active" json:"is_active"`
	PaymentStatus PaymentStatus `db:"payment_status" json:"payment_status"`
	PaymentMethod string        `db:"payment_method" json:"payment_method"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// FeatureList is stored as a Postgres text[]. A nil list is written as an
// empty array.
type FeatureList []string

func (f FeatureList) Value() (driver.Value, error) {
	if f == nil {
		return "{}", nil
	}
	return pq.StringArray(f).Value()
}

func (f *FeatureList) Scan(src interface{}) error {
	var a pq.StringArray
	if err := a.Scan(src); err != nil {
		return err
	}
	*f = FeatureList(a)
	return nil
}

// RecordUpdate lists the fields a record may change after insertion.
// Nil fields are left untouched.
type RecordUpdate struct {
	IsActive  *bool
	EndDate   *Date
	UpdatedAt time.Time
}

func (u RecordUpdate) apply(r *Record) {
	if u.IsActive != nil {
		r.IsActive = *u.IsActive
	}
	if u.EndDate != nil {
		r.EndDate = *u.EndDate
	}
	r.UpdatedAt = u.UpdatedAt
}

type StatusView struct {
	MemberID  string `json:"member_id"`
	Status    Status `json:"status,omitempty"`
	StartDate *Date  `json:"start_date,omitempty"`
	EndDate   *Date  `json:"end_date,omitempty"`
	PlanID    string `json:"plan_id,omitempty"`
	PlanName  string `json:"plan_name,omitempty"`
	RecordID  string `json:"record_id,omitempty"`
}

// MemberStatus is one row of a bulk status listing. Err is set when that
// member's records could not be read; such a row carries no Status and the
// other rows are unaffected.
type MemberStatus struct {
	StatusView
	Err error `json:"-"`
}

// Actor is the authenticated caller of a lifecycle operation.
type Actor struct {
	ID      string
	IsAdmin bool
}

// Policy holds the lifecycle rules that are deployment choices rather than
// fixed behaviour.
type Policy struct {
	AllowBackdating bool
	DeactivatePrior bool
}

func DefaultPolicy() Policy {
	return Policy{AllowBackdating: true, DeactivatePrior: true}
}

type PaymentResult struct {
	Status    PaymentStatus
	Method    string
	Reference string
}

// PaymentGateway charges members for self-service purchases.
type PaymentGateway interface {
	Charge(ctx context.Context, memberID string, amountPaise int64, description string) (PaymentResult, error)
	Refund(ctx context.Context, memberID string, amountPaise int64, description string) error
}

// Notifier is told about completed lifecycle changes. Failures are logged,
// never returned to the caller.
type Notifier interface {
	MembershipCreated(ctx context.Context, rec Record, plan Plan) error
	MembershipDiscontinued(ctx context.Context, rec Record) error
}

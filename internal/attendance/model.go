package attendance

import (
	"time"

	"triplea/internal/membership"
)

type Visit struct {
	ID         int             `db:"id" json:"id"`
	MemberID   string          `db:"member_id" json:"member_id"`
	VisitDate  membership.Date `db:"visit_date" json:"visit_date"`
	CheckInAt  time.Time       `db:"check_in_at" json:"check_in_at"`
	CheckOutAt *time.Time      `db:"check_out_at" json:"check_out_at,omitempty"`
}

// Duration is zero while the visit is still open.
func (v Visit) Duration() time.Duration {
	if v.CheckOutAt == nil {
		return 0
	}
	return v.CheckOutAt.Sub(v.CheckInAt)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triplea_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "triplea_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	MembershipsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triplea_memberships_created_total",
			Help: "Total number of membership records created",
		},
		[]string{"plan_id", "payment_method"},
	)

	MembershipsDiscontinuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "triplea_memberships_discontinued_total",
			Help: "Total number of memberships discontinued",
		},
	)

	MembershipPaymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triplea_membership_payments_total",
			Help: "Self-service membership payments by outcome",
		},
		[]string{"status"},
	)

	StatusDerivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triplea_membership_status_derivations_total",
			Help: "Membership status computations by resulting status",
		},
		[]string{"status"},
	)

	ActiveMembers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "triplea_active_members",
			Help: "Members with an active membership at the last dashboard refresh",
		},
	)

	StoreErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triplea_store_errors_total",
			Help: "Record store failures by operation",
		},
		[]string{"op"},
	)

	AttendanceTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triplea_attendance_total",
			Help: "Attendance events",
		},
		[]string{"event"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triplea_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "triplea_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	WalletTopUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "triplea_wallet_topups_total",
			Help: "Total number of wallet top-ups",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordMembershipCreated(planID, paymentMethod string) {
	MembershipsCreatedTotal.WithLabelValues(planID, paymentMethod).Inc()
}

func RecordMembershipDiscontinued() {
	MembershipsDiscontinuedTotal.Inc()
}

func RecordMembershipPayment(status string) {
	MembershipPaymentsTotal.WithLabelValues(status).Inc()
}

func RecordStatusDerived(status string) {
	StatusDerivationsTotal.WithLabelValues(status).Inc()
}

func SetActiveMembers(n int) {
	ActiveMembers.Set(float64(n))
}

func RecordStoreError(op string) {
	StoreErrorsTotal.WithLabelValues(op).Inc()
}

func RecordAttendance(event string) {
	AttendanceTotal.WithLabelValues(event).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordWalletTopUp() {
	WalletTopUpsTotal.Inc()
}

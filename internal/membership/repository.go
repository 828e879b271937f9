package membership

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const recordColumns = `id, member_id, plan_id, plan_name, amount_paise, features, start_date, end_date, is_active, payment_status, payment_method, created_at, updated_at`

type PostgresRepository struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgresRepository returns a store over the memberships table. A
// positive timeout bounds every call.
func NewPostgresRepository(db *sqlx.DB, timeout time.Duration) *PostgresRepository {
	return &PostgresRepository{db: db, timeout: timeout}
}

func (r *PostgresRepository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepository) ListByMember(ctx context.Context, memberID string) ([]Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	records := []Record{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT `+recordColumns+`
		FROM memberships
		WHERE member_id = $1
		ORDER BY created_at DESC, end_date DESC
	`, memberID)
	if err != nil {
		return nil, storeError("list", err)
	}
	return records, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, rec *Record) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if _, err := r.db.ExecContext(ctx, insertRecordSQL, insertArgs(rec)...); err != nil {
		return "", storeError("insert", err)
	}
	return rec.ID, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, upd RecordUpdate) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE memberships
		SET is_active = COALESCE($2::boolean, is_active),
		    end_date = COALESCE($3::date, end_date),
		    updated_at = $4
		WHERE id = $1
	`, id, upd.IsActive, upd.EndDate, upd.UpdatedAt)
	if err != nil {
		return storeError("update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeError("update", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertExclusive serialises writers per member with a transaction-scoped
// advisory lock, deactivates the member's active records and inserts rec.
func (r *PostgresRepository) InsertExclusive(ctx context.Context, rec *Record, deactivatedAt time.Time) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", storeError("insert_exclusive", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, rec.MemberID); err != nil {
		return "", storeError("insert_exclusive", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE memberships
		SET is_active = FALSE, updated_at = $2
		WHERE member_id = $1 AND is_active
	`, rec.MemberID, deactivatedAt); err != nil {
		return "", storeError("insert_exclusive", err)
	}

	if _, err := tx.ExecContext(ctx, insertRecordSQL, insertArgs(rec)...); err != nil {
		return "", storeError("insert_exclusive", err)
	}

	if err := tx.Commit(); err != nil {
		return "", storeError("insert_exclusive", err)
	}
	return rec.ID, nil
}

const insertRecordSQL = `
		INSERT INTO memberships (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

func insertArgs(rec *Record) []interface{} {
	return []interface{}{
		rec.ID, rec.MemberID, rec.PlanID, rec.PlanName, rec.AmountPaise, rec.Features,
		rec.StartDate, rec.EndDate, rec.IsActive, rec.PaymentStatus, rec.PaymentMethod,
		rec.CreatedAt, rec.UpdatedAt,
	}
}

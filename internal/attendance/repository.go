package attendance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"triplea/internal/membership"
)

var (
	ErrAlreadyCheckedIn = errors.New("member already checked in today")
	ErrNotCheckedIn     = errors.New("member has no open check-in today")
)

type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) CheckIn(ctx context.Context, memberID string, day membership.Date, at time.Time) (*Visit, error) {
	query := `
		INSERT INTO attendance (member_id, visit_date, check_in_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (member_id, visit_date) DO NOTHING
		RETURNING id, member_id, visit_date, check_in_at, check_out_at
	`

	var v Visit
	err := r.db.GetContext(ctx, &v, query, memberID, day, at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAlreadyCheckedIn
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PostgresRepository) CheckOut(ctx context.Context, memberID string, day membership.Date, at time.Time) (*Visit, error) {
	query := `
		UPDATE attendance
		SET check_out_at = $3
		WHERE member_id = $1 AND visit_date = $2 AND check_out_at IS NULL
		RETURNING id, member_id, visit_date, check_in_at, check_out_at
	`

	var v Visit
	err := r.db.GetContext(ctx, &v, query, memberID, day, at)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotCheckedIn
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *PostgresRepository) ListByMember(ctx context.Context, memberID string, limit int) ([]Visit, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, member_id, visit_date, check_in_at, check_out_at
		FROM attendance
		WHERE member_id = $1
		ORDER BY visit_date DESC
		LIMIT $2
	`

	visits := []Visit{}
	if err := r.db.SelectContext(ctx, &visits, query, memberID, limit); err != nil {
		return nil, err
	}
	return visits, nil
}

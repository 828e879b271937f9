package member

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

var ErrMemberNotFound = errors.New("member not found")

const selectColumns = `id, name, email, phone, password_hash, role,
		date_of_birth, gender, blood_type, height_cm, weight_kg, address, emergency_contact,
		created_at`

type PostgresRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, m *Member) (*Member, error) {
	query := `
		INSERT INTO members (id, name, email, phone, password_hash, role,
			date_of_birth, gender, blood_type, height_cm, weight_kg, address, emergency_contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + selectColumns

	var out Member
	err := r.db.GetContext(ctx, &out, query,
		m.ID, m.Name, m.Email, m.Phone, m.PasswordHash, m.Role,
		m.DateOfBirth, m.Gender, m.BloodType, m.HeightCM, m.WeightKG, m.Address, m.EmergencyContact,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*Member, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM members
		WHERE email = $1
	`
	return r.get(ctx, query, email)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Member, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM members
		WHERE id = $1
	`
	return r.get(ctx, query, id)
}

func (r *PostgresRepository) get(ctx context.Context, query string, args ...interface{}) (*Member, error) {
	var m Member
	err := r.db.GetContext(ctx, &m, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM members WHERE email = $1)`, email)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]Member, error) {
	members := []Member{}
	err := r.db.SelectContext(ctx, &members, `
		SELECT `+selectColumns+`
		FROM members
		ORDER BY created_at DESC
	`)
	return members, err
}

func (r *PostgresRepository) ListByRole(ctx context.Context, role string) ([]Member, error) {
	members := []Member{}
	err := r.db.SelectContext(ctx, &members, `
		SELECT `+selectColumns+`
		FROM members
		WHERE role = $1
		ORDER BY email
	`, role)
	return members, err
}

func (r *PostgresRepository) SetRole(ctx context.Context, id, role string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE members SET role = $2 WHERE id = $1`, id, role)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// UpdatePersonalInfo leaves a column untouched when its field is nil.
func (r *PostgresRepository) UpdatePersonalInfo(ctx context.Context, id string, upd PersonalInfoUpdate) (*Member, error) {
	query := `
		UPDATE members SET
			phone = COALESCE($2, phone),
			date_of_birth = COALESCE($3, date_of_birth),
			gender = COALESCE($4, gender),
			blood_type = COALESCE($5, blood_type),
			height_cm = COALESCE($6, height_cm),
			weight_kg = COALESCE($7, weight_kg),
			address = COALESCE($8, address),
			emergency_contact = COALESCE($9, emergency_contact)
		WHERE id = $1
		RETURNING ` + selectColumns

	return r.get(ctx, query, id,
		upd.Phone, upd.DateOfBirth, upd.Gender, upd.BloodType,
		upd.HeightCM, upd.WeightKG, upd.Address, upd.EmergencyContact,
	)
}

func (r *PostgresRepository) EnsureExists(ctx context.Context, m *Member) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO members (id, name, email, phone, password_hash, role)
		VALUES ($1, $2, $3, $4, '', $5)
		ON CONFLICT (id) DO NOTHING
	`, m.ID, m.Name, m.Email, m.Phone, m.Role)
	return err
}

package member

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMemberMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, mock, closer
}

var memberColumns = []string{
	"id", "name", "email", "phone", "password_hash", "role",
	"date_of_birth", "gender", "blood_type", "height_cm", "weight_kg", "address", "emergency_contact",
	"created_at",
}

func memberRow(id, name, email, role string, created time.Time) []driver.Value {
	return []driver.Value{id, name, email, "", "hash", role, "", "", "", nil, nil, "", "", created}
}

func TestCreateAndFindMember(t *testing.T) {
	repo, mock, close := setupMemberMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO members (id, name, email, phone, password_hash, role,")).
		WithArgs("m-1", "Alice", "a@example.com", "", "hash", "member", "1994-03-02", "female", "", nil, nil, "", "").
		WillReturnRows(sqlmock.NewRows(memberColumns).AddRow(memberRow("m-1", "Alice", "a@example.com", "member", now)...))

	m, err := repo.Create(ctx, &Member{ID: "m-1", Name: "Alice", Email: "a@example.com", PasswordHash: "hash", Role: "member", DateOfBirth: "1994-03-02", Gender: "female"})
	require.NoError(t, err)
	assert.Equal(t, "m-1", m.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM members\n\t\tWHERE email = $1")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(memberColumns).AddRow(memberRow("m-1", "Alice", "a@example.com", "member", now)...))

	found, err := repo.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", found.Name)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM members WHERE email = $1)")).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.EmailExists(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_NotFound(t *testing.T) {
	repo, mock, close := setupMemberMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE id = $1")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestSetRole(t *testing.T) {
	repo, mock, close := setupMemberMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE members SET role = $2 WHERE id = $1")).
		WithArgs("m-1", "admin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetRole(context.Background(), "m-1", "admin"))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE members SET role = $2 WHERE id = $1")).
		WithArgs("ghost", "admin").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.SetRole(context.Background(), "ghost", "admin"), ErrMemberNotFound)
}

func TestEnsureExists(t *testing.T) {
	repo, mock, close := setupMemberMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (id) DO NOTHING")).
		WithArgs("uid-1", "Asha", "asha@example.com", "", "member").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.EnsureExists(context.Background(), &Member{ID: "uid-1", Name: "Asha", Email: "asha@example.com", Role: "member"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	repo, mock, close := setupMemberMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows(memberColumns).
			AddRow(memberRow("m-2", "Bo", "b@example.com", "member", now)...).
			AddRow(memberRow("m-1", "Al", "a@example.com", "admin", now.Add(-time.Hour))...))

	members, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "m-2", members[0].ID)
}

func TestListByRole(t *testing.T) {
	repo, mock, close := setupMemberMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE role = $1")).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows(memberColumns).AddRow(memberRow("m-1", "Al", "a@example.com", "admin", time.Now())...))

	admins, err := repo.ListByRole(context.Background(), "admin")
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, "admin", admins[0].Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePersonalInfo(t *testing.T) {
	repo, mock, close := setupMemberMock(t)
	defer close()

	blood := "B+"
	height := 180.5
	now := time.Now()

	row := memberRow("m-1", "Al", "a@example.com", "member", now)
	row[8], row[9] = blood, []byte("180.5")

	mock.ExpectQuery(regexp.QuoteMeta("blood_type = COALESCE($5, blood_type)")).
		WithArgs("m-1", nil, nil, nil, "B+", 180.5, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows(memberColumns).AddRow(row...))

	m, err := repo.UpdatePersonalInfo(context.Background(), "m-1", PersonalInfoUpdate{BloodType: &blood, HeightCM: &height})
	require.NoError(t, err)
	assert.Equal(t, "B+", m.BloodType)
	require.NotNil(t, m.HeightCM)
	assert.Equal(t, 180.5, *m.HeightCM)
	assert.Nil(t, m.WeightKG)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE members SET")).
		WithArgs("ghost", nil, nil, nil, "B+", nil, nil, nil, nil).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.UpdatePersonalInfo(context.Background(), "ghost", PersonalInfoUpdate{BloodType: &blood})
	assert.ErrorIs(t, err, ErrMemberNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package integration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"triplea/internal/auth"
	"triplea/internal/member"
	"triplea/internal/membership"
	"triplea/internal/wallet"
)

func TestMemberAdministration_Integration(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()
	repo := member.NewRepository(database)
	svc := member.NewService(repo, "integration-secret", nil, member.WithAdminEmails("owner@test.com"))

	owner, _, err := svc.Register(ctx, member.RegisterRequest{Name: "Owner", Email: "owner@test.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, owner.Role)

	walkIn, err := svc.CreateMember(ctx, true, member.CreateMemberRequest{Name: "Ravi", Email: "ravi@test.com", DateOfBirth: "1990-01-12"})
	require.NoError(t, err)
	assert.Equal(t, "1990-01-12", walkIn.DateOfBirth)

	height := 172.5
	blood := "O+"
	updated, err := svc.UpdatePersonalInfo(ctx, true, walkIn.ID, member.PersonalInfoUpdate{HeightCM: &height, BloodType: &blood})
	require.NoError(t, err)
	require.NotNil(t, updated.HeightCM)
	assert.Equal(t, 172.5, *updated.HeightCM)
	assert.Nil(t, updated.WeightKG)
	assert.Equal(t, "1990-01-12", updated.DateOfBirth, "untouched fields keep their value")

	_, err = svc.GrantAdmin(ctx, true, "ravi@test.com")
	require.NoError(t, err)

	admins, err := svc.ListAdmins(ctx, true)
	require.NoError(t, err)
	assert.Len(t, admins, 2)

	_, err = svc.RevokeAdmin(ctx, owner.ID, true, walkIn.ID)
	require.NoError(t, err)

	admins, err = svc.ListAdmins(ctx, true)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	assert.Equal(t, owner.ID, admins[0].ID)
}

func TestWallet_ConcurrentFirstTopUps_Integration(t *testing.T) {
	database := setupTestDB(t)
	createMember(t, database, "m-9", "m9@test.com")
	repo := wallet.NewRepository(database)
	ctx := context.Background()

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := repo.TopUp(ctx, "m-9", 50000)
			errs <- err
		}()
	}
	require.NoError(t, <-errs)
	require.NoError(t, <-errs)

	w, err := repo.GetOrCreateWallet(ctx, "m-9")
	require.NoError(t, err)
	assert.Equal(t, int64(100000), w.BalancePaise)
}

func TestMembershipFeatures_Integration(t *testing.T) {
	database := setupTestDB(t)
	createMember(t, database, "m-8", "m8@test.com")
	engine, _ := newEngine(database, membership.DefaultPolicy())
	ctx := context.Background()

	rec, err := engine.CreateMembership(ctx, admin, "m-8", "monthly", membership.Date{Year: 2024, Month: 5, Day: 1})
	require.NoError(t, err)
	require.NotEmpty(t, rec.Features)

	history, err := engine.PaymentHistory(ctx, "m-8")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, rec.Features, history[0].Features)
}

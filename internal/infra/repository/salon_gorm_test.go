package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/BruksfildServices01/salon-scheduler/internal/db"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/normalize"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
)

// newTestRepo connects to SALON_TEST_DATABASE_URL and wipes the salon
// tables. Tests are skipped when it is unset.
func newTestRepo(t *testing.T) *SalonGormRepository {
	t.Helper()

	dsn := os.Getenv("SALON_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("SALON_TEST_DATABASE_URL not set, skipping postgres tests")
	}

	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	wipe := gdb.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, m := range []any{&models.Appointment{}, &models.Formula{}, &models.Task{}, &models.Client{}} {
		require.NoError(t, wipe.Delete(m).Error)
	}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	norm := normalize.New()
	norm.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	return NewSalonGormRepository(gdb, norm, nil, nil)
}

func TestSalonGorm_ClientLifecycle(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	assert.Equal(t, repo.ModeDB, r.Mode())

	c, err := r.UpsertClient(ctx, models.Client{FirstName: "Avery", LastName: "Chen"})
	require.NoError(t, err)
	require.NotEmpty(t, c.ID)

	c.Notes = "prefers mornings"
	updated, err := r.UpsertClient(ctx, c)
	require.NoError(t, err)
	assert.True(t, updated.CreatedAt.Equal(c.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(c.UpdatedAt))

	_, err = r.UpsertAppointment(ctx, models.Appointment{
		ClientID:    c.ID,
		ServiceName: "Gloss",
		StartAt:     time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, r.DeleteClient(ctx, c.ID))

	_, err = r.GetClient(ctx, c.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	appts, err := r.ListAppointments(ctx)
	require.NoError(t, err)
	assert.Empty(t, appts)
}

func TestSalonGorm_DeleteClientBlankIDKeepsUnassignedAppointments(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	_, err := r.UpsertAppointment(ctx, models.Appointment{
		ServiceName: "Walk-in cut",
		StartAt:     time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.NoError(t, r.DeleteClient(ctx, " "))

	appts, err := r.ListAppointments(ctx)
	require.NoError(t, err)
	assert.Len(t, appts, 1)
}

func TestSalonGorm_Validation(t *testing.T) {
	r := newTestRepo(t)

	_, err := r.UpsertClient(context.Background(), models.Client{FirstName: "  "})
	assert.True(t, repo.IsValidation(err))
}

func TestSalonGorm_Invites(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	c, err := r.UpsertClient(ctx, models.Client{FirstName: "Maya"})
	require.NoError(t, err)

	first, err := r.EnsureInvite(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, first.Token, repo.DefaultInviteLength)

	again, err := r.EnsureInvite(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Token, again.Token)

	fresh, err := r.RegenerateInvite(ctx, c.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, fresh.Token)

	_, err = r.FindClientByInviteToken(ctx, first.Token)
	assert.ErrorIs(t, err, repo.ErrNotFound)

	found, err := r.FindClientByInviteToken(ctx, fresh.Token)
	require.NoError(t, err)
	assert.Equal(t, c.ID, found.ID)

	_, err = r.EnsureInvite(ctx, "missing")
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestSalonGorm_BackupRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	c, err := r.UpsertClient(ctx, models.Client{FirstName: "Avery"})
	require.NoError(t, err)
	_, err = r.UpsertFormula(ctx, models.Formula{ClientID: c.ID, Title: "Copper gloss"})
	require.NoError(t, err)

	exported, err := r.ExportBackup(ctx)
	require.NoError(t, err)
	require.Len(t, exported.Clients, 1)

	data := []byte(`{"version":1,"exportedAt":"2026-03-01T00:00:00Z","clients":[{"id":"imported","name":"Jo Park"}],"appointments":[],"formulas":[]}`)

	require.NoError(t, r.ImportBackup(ctx, data, repo.ImportOptions{Merge: true}))
	clients, err := r.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 2)

	require.NoError(t, r.ImportBackup(ctx, data, repo.ImportOptions{}))
	clients, err = r.ListClients(ctx)
	require.NoError(t, err)
	require.Len(t, clients, 1)
	assert.Equal(t, "Jo", clients[0].FirstName)
	assert.Equal(t, "Park", clients[0].LastName)

	err = r.ImportBackup(ctx, []byte(`{"version":"1"}`), repo.ImportOptions{})
	assert.ErrorIs(t, err, repo.ErrInvalidBackup)
}

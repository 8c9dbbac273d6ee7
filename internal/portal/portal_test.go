package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/salon-scheduler/internal/logging"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
	"github.com/BruksfildServices01/salon-scheduler/internal/storage"
)

var now = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

type brokenSource struct{}

func (brokenSource) FindClientByInviteToken(context.Context, string) (models.Client, error) {
	return models.Client{}, repo.ErrBackendUnavailable
}

func (brokenSource) ListAppointments(context.Context) ([]models.Appointment, error) {
	return []models.Appointment{}, errors.New("down")
}

func (brokenSource) ListFormulas(context.Context) ([]models.Formula, error) {
	return []models.Formula{}, errors.New("down")
}

func newService(t *testing.T, src Source, fallback bool) *Service {
	t.Helper()
	s := NewService(src, Settings{SalonName: "Studio Nine", SyntheticFallback: fallback}, logging.Discard())
	s.now = func() time.Time { return now }
	return s
}

func TestPacket_BuildsFromStore(t *testing.T) {
	ctx := context.Background()
	store := repo.NewLocalStore(storage.NewMemoryKV(), repo.WithSeed(repo.NoSeed), repo.WithLogger(logging.Discard()))

	c, err := store.UpsertClient(ctx, models.Client{FirstName: "Maya", LastName: "Torres", Pronouns: "she/her"})
	require.NoError(t, err)
	other, err := store.UpsertClient(ctx, models.Client{FirstName: "Jo"})
	require.NoError(t, err)

	for _, ap := range []models.Appointment{
		{ClientID: c.ID, ServiceName: "Past cut", StartAt: now.Add(-48 * time.Hour), Status: "completed"},
		{ClientID: c.ID, ServiceName: "Later gloss", StartAt: now.Add(20 * 24 * time.Hour)},
		{ClientID: c.ID, ServiceName: "Soon color", StartAt: now.Add(3 * 24 * time.Hour), DurationMin: 120},
		{ClientID: c.ID, ServiceName: "Cancelled", StartAt: now.Add(24 * time.Hour), Status: "cancelled"},
		{ClientID: other.ID, ServiceName: "Not hers", StartAt: now.Add(time.Hour)},
	} {
		_, err := store.UpsertAppointment(ctx, ap)
		require.NoError(t, err)
	}

	_, err = store.UpsertFormula(ctx, models.Formula{ClientID: c.ID, Title: "Copper gloss", Notes: "10 min"})
	require.NoError(t, err)

	inv, err := store.EnsureInvite(ctx, c.ID)
	require.NoError(t, err)

	p, err := newService(t, store, false).Packet(ctx, "  "+inv.Token+" ")
	require.NoError(t, err)

	assert.Equal(t, 1, p.Version)
	assert.Equal(t, inv.Token, p.Token)
	assert.Equal(t, "Belle", p.Stylist.DisplayName)
	assert.Equal(t, "Studio Nine", p.Stylist.SalonName)
	assert.Equal(t, models.ClientDisplay{FirstName: "Maya", LastName: "Torres", Pronouns: "she/her"}, p.Client)

	require.NotNil(t, p.NextAppointment)
	assert.Equal(t, "Soon color", p.NextAppointment.ServiceName)
	assert.Equal(t, 120, p.NextAppointment.DurationMin)

	require.NotNil(t, p.LastFormulaSummary)
	assert.Equal(t, "Copper gloss", p.LastFormulaSummary.Title)
	assert.Equal(t, 42, p.Aftercare.RebookWindowDays)
}

func TestPacket_TokenErrors(t *testing.T) {
	ctx := context.Background()
	store := repo.NewLocalStore(storage.NewMemoryKV(), repo.WithLogger(logging.Discard()))
	s := newService(t, store, false)

	_, err := s.Packet(ctx, "abc")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Packet(ctx, "      ")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = s.Packet(ctx, "abcdef123456")
	assert.ErrorIs(t, err, ErrUnknownToken)
}

func TestPacket_RegeneratedTokenStopsWorking(t *testing.T) {
	ctx := context.Background()
	store := repo.NewLocalStore(storage.NewMemoryKV(), repo.WithLogger(logging.Discard()))
	s := newService(t, store, false)

	first, err := store.EnsureInvite(ctx, "client_avery")
	require.NoError(t, err)
	second, err := store.RegenerateInvite(ctx, "client_avery")
	require.NoError(t, err)

	_, err = s.Packet(ctx, first.Token)
	assert.ErrorIs(t, err, ErrUnknownToken)

	p, err := s.Packet(ctx, second.Token)
	require.NoError(t, err)
	assert.Equal(t, "Avery", p.Client.FirstName)
}

func TestPacket_FetchFailure(t *testing.T) {
	ctx := context.Background()

	_, err := newService(t, brokenSource{}, false).Packet(ctx, "abcdef123")
	assert.ErrorIs(t, err, ErrPacketFetchFailed)

	p, err := newService(t, brokenSource{}, true).Packet(ctx, "abcdef123")
	require.NoError(t, err)
	assert.Equal(t, "Client", p.Client.FirstName)
	assert.Equal(t, "ABCD", p.Client.LastName)
	require.NotNil(t, p.NextAppointment)
	assert.Equal(t, time.Date(2026, 10, 26, 10, 0, 0, 0, time.UTC), p.NextAppointment.StartAt)

	// token validation still applies with the fallback on
	_, err = newService(t, brokenSource{}, true).Packet(ctx, "abc")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionIssuer(t *testing.T) {
	issuer := NewSessionIssuer("secret", time.Hour)
	issuer.now = func() time.Time { return now }

	raw, exp, err := issuer.Issue("client_avery", "abcdef123456")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), exp)

	claims, err := issuer.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "client_avery", claims.Subject)
	assert.Equal(t, "abcdef123456", claims.InviteToken)

	_, err = NewSessionIssuer("other", time.Hour).Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidSession)

	issuer.now = func() time.Time { return now.Add(2 * time.Hour) }
	_, err = issuer.Parse(raw)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = issuer.Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

package repo

import (
	"context"
	"log/slog"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

// Selector picks the remote adapter when the backend's latest health
// probe reports mode "db" and the local store otherwise. The probe runs on
// every call, so a backend that comes back mid-session is picked up by the
// next operation. Selector itself satisfies Repository.
type Selector struct {
	probe  HealthProber
	remote Repository
	local  Repository
	log    *slog.Logger
}

func NewSelector(probe HealthProber, remote, local Repository, log *slog.Logger) *Selector {
	if log == nil {
		log = slog.Default()
	}
	return &Selector{probe: probe, remote: remote, local: local, log: log}
}

func (s *Selector) Select(ctx context.Context) Repository {
	h, err := s.probe.Probe(ctx)
	if err != nil {
		s.log.Debug("health probe failed, using local store", "err", err)
		return s.local
	}
	if h.ModeValue() == ModeDB {
		return s.remote
	}
	return s.local
}

func (s *Selector) Mode() string {
	return s.Select(context.Background()).Mode()
}

func (s *Selector) ListClients(ctx context.Context) ([]models.Client, error) {
	return s.Select(ctx).ListClients(ctx)
}

func (s *Selector) GetClient(ctx context.Context, id string) (models.Client, error) {
	return s.Select(ctx).GetClient(ctx, id)
}

func (s *Selector) UpsertClient(ctx context.Context, c models.Client) (models.Client, error) {
	return s.Select(ctx).UpsertClient(ctx, c)
}

func (s *Selector) DeleteClient(ctx context.Context, id string) error {
	return s.Select(ctx).DeleteClient(ctx, id)
}

func (s *Selector) FindClientByInviteToken(ctx context.Context, token string) (models.Client, error) {
	return s.Select(ctx).FindClientByInviteToken(ctx, token)
}

func (s *Selector) EnsureInvite(ctx context.Context, clientID string) (models.Invite, error) {
	return s.Select(ctx).EnsureInvite(ctx, clientID)
}

func (s *Selector) RegenerateInvite(ctx context.Context, clientID string) (models.Invite, error) {
	return s.Select(ctx).RegenerateInvite(ctx, clientID)
}

func (s *Selector) ListAppointments(ctx context.Context) ([]models.Appointment, error) {
	return s.Select(ctx).ListAppointments(ctx)
}

func (s *Selector) GetAppointment(ctx context.Context, id string) (models.Appointment, error) {
	return s.Select(ctx).GetAppointment(ctx, id)
}

func (s *Selector) UpsertAppointment(ctx context.Context, a models.Appointment) (models.Appointment, error) {
	return s.Select(ctx).UpsertAppointment(ctx, a)
}

func (s *Selector) DeleteAppointment(ctx context.Context, id string) error {
	return s.Select(ctx).DeleteAppointment(ctx, id)
}

func (s *Selector) ListFormulas(ctx context.Context) ([]models.Formula, error) {
	return s.Select(ctx).ListFormulas(ctx)
}

func (s *Selector) GetFormula(ctx context.Context, id string) (models.Formula, error) {
	return s.Select(ctx).GetFormula(ctx, id)
}

func (s *Selector) UpsertFormula(ctx context.Context, f models.Formula) (models.Formula, error) {
	return s.Select(ctx).UpsertFormula(ctx, f)
}

func (s *Selector) DeleteFormula(ctx context.Context, id string) error {
	return s.Select(ctx).DeleteFormula(ctx, id)
}

func (s *Selector) ListTasks(ctx context.Context) ([]models.Task, error) {
	return s.Select(ctx).ListTasks(ctx)
}

func (s *Selector) GetTask(ctx context.Context, id string) (models.Task, error) {
	return s.Select(ctx).GetTask(ctx, id)
}

func (s *Selector) UpsertTask(ctx context.Context, t models.Task) (models.Task, error) {
	return s.Select(ctx).UpsertTask(ctx, t)
}

func (s *Selector) DeleteTask(ctx context.Context, id string) error {
	return s.Select(ctx).DeleteTask(ctx, id)
}

func (s *Selector) ExportBackup(ctx context.Context) (models.BackupV1, error) {
	return s.Select(ctx).ExportBackup(ctx)
}

func (s *Selector) ImportBackup(ctx context.Context, data []byte, opts ImportOptions) error {
	return s.Select(ctx).ImportBackup(ctx, data, opts)
}

var (
	_ Repository = (*LocalStore)(nil)
	_ Repository = (*RemoteStore)(nil)
	_ Repository = (*Selector)(nil)
)

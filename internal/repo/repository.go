// Package repo holds the salon Repository contract and its client-side
// implementations: the local store, the remote HTTP adapter and the
// health-driven selector between them.
package repo

import (
	"context"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

const (
	ModeLocal  = "local"
	ModeRemote = "remote"
	ModeDB     = "db"
)

// ImportOptions controls ImportBackup. With Merge unset the three backed
// up lists replace the stored ones wholesale.
type ImportOptions struct {
	Merge bool
}

// InviteAction is the body of the invite sub-resource.
type InviteAction string

const (
	InviteEnsure     InviteAction = "ensure"
	InviteRegenerate InviteAction = "regenerate"
)

// Repository is the uniform data surface over clients, appointments,
// formulas and tasks. Get* return ErrNotFound for unknown ids; writes
// return a *ValidationError for invalid input. Deletes are hard and
// idempotent; deleting a client also deletes its appointments.
type Repository interface {
	Mode() string

	ListClients(ctx context.Context) ([]models.Client, error)
	GetClient(ctx context.Context, id string) (models.Client, error)
	UpsertClient(ctx context.Context, c models.Client) (models.Client, error)
	DeleteClient(ctx context.Context, id string) error
	FindClientByInviteToken(ctx context.Context, token string) (models.Client, error)

	// EnsureInvite returns the client's existing token unchanged when it has
	// one; RegenerateInvite always replaces it.
	EnsureInvite(ctx context.Context, clientID string) (models.Invite, error)
	RegenerateInvite(ctx context.Context, clientID string) (models.Invite, error)

	ListAppointments(ctx context.Context) ([]models.Appointment, error)
	GetAppointment(ctx context.Context, id string) (models.Appointment, error)
	UpsertAppointment(ctx context.Context, a models.Appointment) (models.Appointment, error)
	DeleteAppointment(ctx context.Context, id string) error

	ListFormulas(ctx context.Context) ([]models.Formula, error)
	GetFormula(ctx context.Context, id string) (models.Formula, error)
	UpsertFormula(ctx context.Context, f models.Formula) (models.Formula, error)
	DeleteFormula(ctx context.Context, id string) error

	ListTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (models.Task, error)
	UpsertTask(ctx context.Context, t models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error

	ExportBackup(ctx context.Context) (models.BackupV1, error)
	// ImportBackup validates data as a v1 backup before touching storage;
	// an invalid payload returns ErrInvalidBackup and changes nothing.
	ImportBackup(ctx context.Context, data []byte, opts ImportOptions) error
}

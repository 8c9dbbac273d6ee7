package appointment

import (
	"context"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

// Repository is the slice of the salon repository the appointment use cases
// need. Every repo.Repository implementation satisfies it.
type Repository interface {
	ListAppointments(ctx context.Context) ([]models.Appointment, error)

	GetAppointment(
		ctx context.Context,
		id string,
	) (models.Appointment, error)

	UpsertAppointment(
		ctx context.Context,
		ap models.Appointment,
	) (models.Appointment, error)

	ListClients(ctx context.Context) ([]models.Client, error)
}

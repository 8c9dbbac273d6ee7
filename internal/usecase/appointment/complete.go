package appointment

import (
	"context"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

type CompleteAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewCompleteAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *CompleteAppointment {
	return &CompleteAppointment{
		repo:  repo,
		audit: audit,
	}
}

func (uc *CompleteAppointment) Execute(
	ctx context.Context,
	appointmentID string,
) (*models.Appointment, error) {

	ap, err := load(ctx, uc.repo, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := domain.Complete(&ap); err != nil {
		return nil, err
	}

	saved, err := uc.repo.UpsertAppointment(ctx, ap)
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		Action:   "appointment_completed",
		Entity:   "appointment",
		EntityID: saved.ID,
	})

	return &saved, nil
}

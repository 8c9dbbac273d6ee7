package appointment

import (
	"context"
	"errors"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/repo"
)

type CancelAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewCancelAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *CancelAppointment {
	return &CancelAppointment{
		repo:  repo,
		audit: audit,
	}
}

func (uc *CancelAppointment) Execute(
	ctx context.Context,
	appointmentID string,
) (*models.Appointment, error) {

	ap, err := load(ctx, uc.repo, appointmentID)
	if err != nil {
		return nil, err
	}

	if err := domain.Cancel(&ap); err != nil {
		return nil, err
	}

	saved, err := uc.repo.UpsertAppointment(ctx, ap)
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		Action:   "appointment_cancelled",
		Entity:   "appointment",
		EntityID: saved.ID,
	})

	return &saved, nil
}

// load maps a missing appointment to the appointment_not_found business code.
func load(ctx context.Context, r domain.Repository, id string) (models.Appointment, error) {
	ap, err := r.GetAppointment(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ap, httperr.ErrBusiness(httperr.CodeAppointmentNotFound)
	}
	return ap, err
}

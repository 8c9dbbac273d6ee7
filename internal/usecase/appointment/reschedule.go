package appointment

import (
	"context"
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

type RescheduleAppointment struct {
	repo  domain.Repository
	audit *audit.Dispatcher
}

func NewRescheduleAppointment(
	repo domain.Repository,
	audit *audit.Dispatcher,
) *RescheduleAppointment {
	return &RescheduleAppointment{
		repo:  repo,
		audit: audit,
	}
}

// Execute moves a scheduled appointment. durationMin <= 0 keeps the current
// duration.
func (uc *RescheduleAppointment) Execute(
	ctx context.Context,
	appointmentID string,
	startAt time.Time,
	durationMin int,
) (*models.Appointment, error) {

	ap, err := load(ctx, uc.repo, appointmentID)
	if err != nil {
		return nil, err
	}

	previous := ap.StartAt
	if durationMin <= 0 {
		durationMin = ap.DurationMin
	}
	if err := domain.Reschedule(&ap, startAt, durationMin); err != nil {
		return nil, err
	}

	saved, err := uc.repo.UpsertAppointment(ctx, ap)
	if err != nil {
		return nil, err
	}

	uc.audit.Dispatch(audit.Event{
		Action:   "appointment_rescheduled",
		Entity:   "appointment",
		EntityID: saved.ID,
		Metadata: map[string]any{
			"from":        previous,
			"to":          saved.StartAt,
			"durationMin": saved.DurationMin,
		},
	})

	return &saved, nil
}

package appointment

import (
	"context"
	"time"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/dto"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
)

type ListAppointmentsByDate struct {
	repo     domain.Repository
	timezone string
}

func NewListAppointmentsByDate(
	repo domain.Repository,
	tz string,
) *ListAppointmentsByDate {
	return &ListAppointmentsByDate{
		repo:     repo,
		timezone: tz,
	}
}

func (uc *ListAppointmentsByDate) Execute(
	ctx context.Context,
	date time.Time,
) ([]dto.CalendarEventDTO, error) {

	start, end := timezone.DayRange(date, uc.timezone)
	return listInRange(ctx, uc.repo, start, end)
}

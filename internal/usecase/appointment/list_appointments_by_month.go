package appointment

import (
	"context"
	"sort"
	"time"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/dto"
	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/timezone"
)

const unknownClient = "Unknown client"

type ListAppointmentsByMonth struct {
	repo     domain.Repository
	timezone string
}

func NewListAppointmentsByMonth(
	repo domain.Repository,
	tz string,
) *ListAppointmentsByMonth {
	return &ListAppointmentsByMonth{
		repo:     repo,
		timezone: tz,
	}
}

func (uc *ListAppointmentsByMonth) Execute(
	ctx context.Context,
	year int,
	month int,
) ([]dto.CalendarEventDTO, error) {

	if month < 1 || month > 12 || year < 1 {
		return nil, httperr.ErrBusiness(httperr.CodeInvalidMonth)
	}

	start, end := timezone.MonthRange(year, time.Month(month), uc.timezone)
	return listInRange(ctx, uc.repo, start, end)
}

// listInRange projects appointments starting in [start, end) to calendar
// events, oldest first.
func listInRange(
	ctx context.Context,
	repo domain.Repository,
	start time.Time,
	end time.Time,
) ([]dto.CalendarEventDTO, error) {

	appointments, err := repo.ListAppointments(ctx)
	if err != nil {
		return nil, err
	}

	clients, err := repo.ListClients(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.DisplayName()
	}

	out := make([]dto.CalendarEventDTO, 0, len(appointments))
	for _, ap := range appointments {
		if ap.StartAt.Before(start) || !ap.StartAt.Before(end) {
			continue
		}

		name, ok := names[ap.ClientID]
		if !ok || name == "" {
			name = unknownClient
		}

		out = append(out, dto.CalendarEventDTO{
			ID:          ap.ID,
			ClientID:    ap.ClientID,
			ClientName:  name,
			ServiceName: ap.ServiceName,
			StartAt:     ap.StartAt,
			EndAt:       ap.EndAt(),
			DurationMin: ap.DurationMin,
			Status:      ap.Status,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartAt.Before(out[j].StartAt)
	})

	return out, nil
}

package appointment

import (
	"time"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

const DefaultDurationMin = 60

// ===============================
// Domain Actions
// ===============================

func Cancel(ap *models.Appointment) error {
	if err := CanCancel(ParseStatus(ap.Status)); err != nil {
		return err
	}
	ap.Status = string(StatusCancelled)
	return nil
}

func Complete(ap *models.Appointment) error {
	if err := CanComplete(ParseStatus(ap.Status)); err != nil {
		return err
	}
	ap.Status = string(StatusCompleted)
	return nil
}

func Reschedule(ap *models.Appointment, start time.Time, durationMin int) error {
	if err := CanReschedule(ParseStatus(ap.Status)); err != nil {
		return err
	}
	if start.IsZero() {
		return httperr.ErrBusiness(httperr.CodeInvalidStart)
	}
	if durationMin <= 0 {
		return httperr.ErrBusiness(httperr.CodeInvalidDuration)
	}
	ap.StartAt = start.UTC()
	ap.DurationMin = durationMin
	return nil
}

// DurationBetween converts a calendar drop/resize range to whole minutes.
func DurationBetween(start, end time.Time) int {
	return int(end.Sub(start).Round(time.Minute) / time.Minute)
}

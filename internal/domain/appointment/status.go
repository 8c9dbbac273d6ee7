package appointment

import (
	"strings"

	"github.com/BruksfildServices01/salon-scheduler/internal/httperr"
)

// ===============================
// Appointment Status
// ===============================

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"

	legacyCanceled = "canceled"
)

// ParseStatus never fails: unknown values fall back to scheduled and the
// American spelling is folded into cancelled.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(StatusCompleted):
		return StatusCompleted
	case string(StatusCancelled), legacyCanceled:
		return StatusCancelled
	default:
		return StatusScheduled
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// ===============================
// Validations
// ===============================

func CanCancel(current Status) error {
	if current != StatusScheduled {
		return httperr.ErrBusiness(httperr.CodeInvalidState)
	}
	return nil
}

func CanComplete(current Status) error {
	if current != StatusScheduled {
		return httperr.ErrBusiness(httperr.CodeInvalidState)
	}
	return nil
}

// Only scheduled appointments can be dragged around the calendar.
func CanReschedule(current Status) error {
	if current != StatusScheduled {
		return httperr.ErrBusiness(httperr.CodeInvalidState)
	}
	return nil
}

func InitialStatus() Status {
	return StatusScheduled
}

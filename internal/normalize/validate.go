package normalize

import (
	"fmt"
	"strings"

	"github.com/BruksfildServices01/salon-scheduler/internal/models"
	"github.com/BruksfildServices01/salon-scheduler/internal/validators"
)

// ValidationError rejects an input whose mandatory field is missing or
// malformed. Normalization never produces one; only writes do.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func ValidateClient(c models.Client) error {
	if blank(c.FirstName) {
		return invalid("firstName", "required")
	}
	if !blank(c.Email) && !validators.IsEmail(c.Email) {
		return invalid("email", "malformed address")
	}
	return nil
}

func ValidateAppointment(a models.Appointment) error {
	if blank(a.ClientID) {
		return invalid("clientId", "required")
	}
	if blank(a.ServiceName) {
		return invalid("serviceName", "required")
	}
	if a.StartAt.IsZero() {
		return invalid("startAt", "required")
	}
	if a.DurationMin < 0 {
		return invalid("durationMin", "must be positive")
	}
	return nil
}

func ValidateFormula(f models.Formula) error {
	if blank(f.Title) {
		return invalid("title", "required")
	}
	for i, s := range f.Steps {
		if blank(s.Product) {
			return invalid(fmt.Sprintf("steps[%d].product", i), "required")
		}
	}
	return nil
}

func ValidateTask(t models.Task) error {
	if blank(t.Title) {
		return invalid("title", "required")
	}
	return nil
}

// ======================================================
// Incoming records
// ======================================================

// The Require* checks run on a write's raw record, before normalization
// can default a mandatory field.

func RequireClient(rec ClientRecord) error {
	_, first := rec.FirstName.Trimmed()
	_, name := rec.Name.Trimmed()
	if !first && !name {
		return invalid("firstName", "required")
	}
	return nil
}

func RequireAppointment(rec AppointmentRecord) error {
	if _, ok := rec.ClientID.Trimmed(); !ok {
		return invalid("clientId", "required")
	}
	_, service := rec.ServiceName.Trimmed()
	_, legacy := rec.Service.Trimmed()
	if !service && !legacy {
		return invalid("serviceName", "required")
	}
	if !rec.StartAt.OK {
		return invalid("startAt", "required")
	}
	return nil
}

func RequireFormula(rec FormulaRecord) error {
	_, title := rec.Title.Trimmed()
	_, legacy := rec.Service.Trimmed()
	if !title && !legacy {
		return invalid("title", "required")
	}
	return nil
}

func RequireTask(rec TaskRecord) error {
	if _, ok := rec.Title.Trimmed(); !ok {
		return invalid("title", "required")
	}
	return nil
}

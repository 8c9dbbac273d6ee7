// Package normalize coerces stored or legacy records into canonical
// entities. Every function here is total: bad input degrades to defaults.
package normalize

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/salon-scheduler/internal/domain/appointment"
	"github.com/BruksfildServices01/salon-scheduler/internal/models"
)

const (
	UntitledFormula   = "Untitled formula"
	legacyFormulaStep = "Formula"
)

type Normalizer struct {
	Now   func() time.Time
	NewID func() string
}

func New() *Normalizer {
	return &Normalizer{
		Now:   func() time.Time { return time.Now().UTC() },
		NewID: NewID,
	}
}

func NewID() string {
	return uuid.NewString()
}

func (n *Normalizer) id(t Text) string {
	if v, ok := t.Trimmed(); ok {
		return v
	}
	return n.NewID()
}

// stamps fills whichever of createdAt/updatedAt is missing from the other
// (or from now) and keeps updatedAt >= createdAt.
func (n *Normalizer) stamps(created, updated Stamp) (time.Time, time.Time) {
	var c, u time.Time
	switch {
	case created.OK && updated.OK:
		c, u = created.V.UTC(), updated.V.UTC()
	case created.OK:
		c = created.V.UTC()
		u = c
	case updated.OK:
		u = updated.V.UTC()
		c = u
	default:
		now := n.Now().UTC()
		c, u = now, now
	}
	if u.Before(c) {
		u = c
	}
	return c, u
}

func optional(t Text) string {
	v, _ := t.Trimmed()
	return v
}

func tags(list TextList) []string {
	var out []string
	for _, t := range list {
		if v, ok := t.Trimmed(); ok {
			out = append(out, v)
		}
	}
	return out
}

func stampPtr(s Stamp) *time.Time {
	if !s.OK {
		return nil
	}
	t := s.V.UTC()
	return &t
}

// SplitName splits a legacy full name on the first run of whitespace.
func SplitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	idx := strings.IndexFunc(full, unicode.IsSpace)
	if idx < 0 {
		return full, ""
	}
	return full[:idx], strings.TrimSpace(full[idx:])
}

// ======================================================
// Client
// ======================================================

func (n *Normalizer) Client(rec ClientRecord) models.Client {
	legacyFirst, legacyLast := SplitName(rec.Name.V)

	first, ok := rec.FirstName.Trimmed()
	if !ok {
		first = legacyFirst
	}
	last, ok := rec.LastName.Trimmed()
	if !ok {
		last = legacyLast
	}

	created, updated := n.stamps(rec.CreatedAt, rec.UpdatedAt)

	return models.Client{
		ID:              n.id(rec.ID),
		FirstName:       first,
		LastName:        last,
		Pronouns:        optional(rec.Pronouns),
		Phone:           optional(rec.Phone),
		Email:           optional(rec.Email),
		Notes:           optional(rec.Notes),
		Tags:            tags(rec.Tags),
		InviteToken:     optional(rec.InviteToken),
		InviteUpdatedAt: stampPtr(rec.InviteUpdatedAt),
		CreatedAt:       created,
		UpdatedAt:       updated,
	}
}

// ======================================================
// Appointment
// ======================================================

// Durations and attachment sizes above these ceilings are treated as
// unusable and fall back to the default.
const (
	MaxDurationMin    = 24 * 60
	MaxAttachmentSize = 1 << 40
)

func (n *Normalizer) Appointment(rec AppointmentRecord) models.Appointment {
	service, ok := rec.ServiceName.Trimmed()
	if !ok {
		service = optional(rec.Service)
	}

	start := rec.StartAt.V.UTC()
	if !rec.StartAt.OK {
		start = n.Now().UTC()
	}

	duration := domain.DefaultDurationMin
	for _, candidate := range []Number{rec.DurationMin, rec.DurationMinutes, rec.DurationMins} {
		if candidate.OK && candidate.V >= 1 && candidate.V <= MaxDurationMin {
			duration = int(candidate.V + 0.5)
			break
		}
	}

	created, updated := n.stamps(rec.CreatedAt, rec.UpdatedAt)

	return models.Appointment{
		ID:          n.id(rec.ID),
		ClientID:    optional(rec.ClientID),
		ServiceName: service,
		StartAt:     start,
		DurationMin: duration,
		Status:      string(domain.ParseStatus(rec.Status.V)),
		Notes:       optional(rec.Notes),
		CreatedAt:   created,
		UpdatedAt:   updated,
	}
}

// ======================================================
// Formula
// ======================================================

func ServiceType(raw string) models.FormulaServiceType {
	switch st := models.FormulaServiceType(strings.ToLower(strings.TrimSpace(raw))); st {
	case models.ServiceColor, models.ServiceLighten, models.ServiceTone, models.ServiceGloss:
		return st
	default:
		return models.ServiceOther
	}
}

func (n *Normalizer) Formula(rec FormulaRecord) models.Formula {
	title, ok := rec.Title.Trimmed()
	if !ok {
		title, ok = rec.Service.Trimmed()
	}
	if !ok {
		title = UntitledFormula
	}

	var steps []models.FormulaStep
	for i, s := range decodeSteps(rec.Steps) {
		steps = append(steps, step(s, i))
	}
	if len(steps) == 0 {
		steps = []models.FormulaStep{legacyStep(rec)}
	}

	created, updated := n.stamps(rec.CreatedAt, rec.UpdatedAt)

	return models.Formula{
		ID:            n.id(rec.ID),
		ClientID:      optional(rec.ClientID),
		AppointmentID: optional(rec.AppointmentID),
		ServiceType:   ServiceType(rec.ServiceType.V),
		Title:         title,
		ColorLine:     optional(rec.ColorLine),
		Notes:         optional(rec.Notes),
		Tags:          tags(rec.Tags),
		Steps:         steps,
		CreatedAt:     created,
		UpdatedAt:     updated,
	}
}

func step(rec StepRecord, index int) models.FormulaStep {
	name, ok := rec.StepName.Trimmed()
	if !ok {
		name = fmt.Sprintf("Step %d", index+1)
	}
	return models.FormulaStep{
		StepName:      name,
		Product:       optional(rec.Product),
		Developer:     optional(rec.Developer),
		Ratio:         optional(rec.Ratio),
		Grams:         nonNegative(rec.Grams),
		ProcessingMin: nonNegative(rec.ProcessingMin),
		Notes:         optional(rec.Notes),
	}
}

func legacyStep(rec FormulaRecord) models.FormulaStep {
	product, ok := rec.Service.Trimmed()
	if !ok {
		product = optional(rec.Title)
	}
	var processing Number
	if v, ok := leadingInt(rec.ProcessingTime.V); ok {
		processing = Number{V: v, OK: true}
	}
	return models.FormulaStep{
		StepName:      legacyFormulaStep,
		Product:       product,
		Developer:     optional(rec.Developer),
		Ratio:         optional(rec.Ratio),
		Grams:         nonNegative(rec.Grams),
		ProcessingMin: nonNegative(processing),
		Notes:         optional(rec.Notes),
	}
}

func nonNegative(n Number) *float64 {
	if !n.OK || n.V < 0 {
		return nil
	}
	v := n.V
	return &v
}

// ======================================================
// Task
// ======================================================

func TaskStatus(raw string) models.TaskStatus {
	s := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "-", "_")
	switch models.TaskStatus(s) {
	case models.TaskInProgress:
		return models.TaskInProgress
	case models.TaskCompleted:
		return models.TaskCompleted
	default:
		return models.TaskPending
	}
}

func (n *Normalizer) Task(rec TaskRecord) models.Task {
	var attachments []models.Attachment
	for _, a := range decodeAttachments(rec.Attachments) {
		url, ok := a.URL.Trimmed()
		if !ok {
			continue
		}
		size := int64(0)
		if a.Size.OK && a.Size.V > 0 && a.Size.V <= MaxAttachmentSize {
			size = int64(a.Size.V)
		}
		attachments = append(attachments, models.Attachment{
			ID:   n.id(a.ID),
			Name: optional(a.Name),
			URL:  url,
			Size: size,
		})
	}

	created, updated := n.stamps(rec.CreatedAt, rec.UpdatedAt)

	return models.Task{
		ID:              n.id(rec.ID),
		Title:           optional(rec.Title),
		Notes:           optional(rec.Notes),
		ClientID:        optional(rec.ClientID),
		DueAt:           stampPtr(rec.DueAt),
		ReminderAt:      stampPtr(rec.ReminderAt),
		ReminderEnabled: rec.ReminderEnabled.OK && rec.ReminderEnabled.V,
		Status:          TaskStatus(rec.Status.V),
		Attachments:     attachments,
		CreatedAt:       created,
		UpdatedAt:       updated,
	}
}

// ======================================================
// Canonical re-normalization
// ======================================================

func (n *Normalizer) ClientOf(c models.Client) models.Client {
	return n.Client(RecordOf[ClientRecord](c))
}

func (n *Normalizer) AppointmentOf(a models.Appointment) models.Appointment {
	return n.Appointment(RecordOf[AppointmentRecord](a))
}

func (n *Normalizer) FormulaOf(f models.Formula) models.Formula {
	return n.Formula(RecordOf[FormulaRecord](f))
}

func (n *Normalizer) TaskOf(t models.Task) models.Task {
	return n.Task(RecordOf[TaskRecord](t))
}

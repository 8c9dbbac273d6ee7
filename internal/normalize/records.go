package normalize

import (
	"encoding/json"
	"strings"
)

// ClientRecord is a client as found in storage: canonical fields plus the
// legacy single "name" field.
type ClientRecord struct {
	ID              Text     `json:"id"`
	FirstName       Text     `json:"firstName"`
	LastName        Text     `json:"lastName"`
	Name            Text     `json:"name"`
	Pronouns        Text     `json:"pronouns"`
	Phone           Text     `json:"phone"`
	Email           Text     `json:"email"`
	Notes           Text     `json:"notes"`
	Tags            TextList `json:"tags"`
	InviteToken     Text     `json:"inviteToken"`
	InviteUpdatedAt Stamp    `json:"inviteUpdatedAt"`
	CreatedAt       Stamp    `json:"createdAt"`
	UpdatedAt       Stamp    `json:"updatedAt"`
}

// AppointmentRecord accepts the legacy "service", "durationMinutes" and
// "durationMins" spellings.
type AppointmentRecord struct {
	ID              Text   `json:"id"`
	ClientID        Text   `json:"clientId"`
	ServiceName     Text   `json:"serviceName"`
	Service         Text   `json:"service"`
	StartAt         Stamp  `json:"startAt"`
	DurationMin     Number `json:"durationMin"`
	DurationMinutes Number `json:"durationMinutes"`
	DurationMins    Number `json:"durationMins"`
	Status          Text   `json:"status"`
	Notes           Text   `json:"notes"`
	CreatedAt       Stamp  `json:"createdAt"`
	UpdatedAt       Stamp  `json:"updatedAt"`
}

// FormulaRecord carries the single-formula fields older builds stored
// directly on the formula (service, developer, grams, processingTime).
type FormulaRecord struct {
	ID            Text            `json:"id"`
	ClientID      Text            `json:"clientId"`
	AppointmentID Text            `json:"appointmentId"`
	ServiceType   Text            `json:"serviceType"`
	Title         Text            `json:"title"`
	ColorLine     Text            `json:"colorLine"`
	Notes         Text            `json:"notes"`
	Tags          TextList        `json:"tags"`
	Steps         json.RawMessage `json:"steps"`
	CreatedAt     Stamp           `json:"createdAt"`
	UpdatedAt     Stamp           `json:"updatedAt"`

	Service        Text   `json:"service"`
	Developer      Text   `json:"developer"`
	Ratio          Text   `json:"ratio"`
	Grams          Number `json:"grams"`
	ProcessingTime Text   `json:"processingTime"`
}

type StepRecord struct {
	StepName      Text   `json:"stepName"`
	Product       Text   `json:"product"`
	Developer     Text   `json:"developer"`
	Ratio         Text   `json:"ratio"`
	Grams         Number `json:"grams"`
	ProcessingMin Number `json:"processingMin"`
	Notes         Text   `json:"notes"`
}

type TaskRecord struct {
	ID              Text            `json:"id"`
	Title           Text            `json:"title"`
	Notes           Text            `json:"notes"`
	ClientID        Text            `json:"clientId"`
	DueAt           Stamp           `json:"dueAt"`
	ReminderAt      Stamp           `json:"reminderAt"`
	ReminderEnabled Flag            `json:"reminderEnabled"`
	Status          Text            `json:"status"`
	Attachments     json.RawMessage `json:"attachments"`
	CreatedAt       Stamp           `json:"createdAt"`
	UpdatedAt       Stamp           `json:"updatedAt"`
}

type AttachmentRecord struct {
	ID   Text   `json:"id"`
	Name Text   `json:"name"`
	URL  Text   `json:"url"`
	Size Number `json:"size"`
}

// TextList accepts a JSON array or a single comma separated string.
type TextList []Text

func (l *TextList) UnmarshalJSON(data []byte) error {
	*l = nil
	var items []Text
	if err := json.Unmarshal(data, &items); err == nil {
		*l = items
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		for _, part := range strings.Split(s, ",") {
			*l = append(*l, Text{V: part, OK: true})
		}
	}
	return nil
}

// Decode reads one stored record. Canonical entities marshal into a subset
// of their record shape, so Decode(json.Marshal(entity)) always succeeds.
func Decode[T any](data []byte) (T, error) {
	var rec T
	err := json.Unmarshal(data, &rec)
	return rec, err
}

// RecordOf converts a canonical entity back into its record shape.
func RecordOf[R any](entity any) R {
	var rec R
	data, err := json.Marshal(entity)
	if err != nil {
		return rec
	}
	_ = json.Unmarshal(data, &rec)
	return rec
}

func decodeSteps(raw json.RawMessage) []StepRecord {
	if len(raw) == 0 {
		return nil
	}
	var steps []StepRecord
	if err := json.Unmarshal(raw, &steps); err != nil {
		return nil
	}
	return steps
}

func decodeAttachments(raw json.RawMessage) []AttachmentRecord {
	if len(raw) == 0 {
		return nil
	}
	var items []AttachmentRecord
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

package models

import "time"

const BackupVersion = 1

type BackupV1 struct {
	Version      int           `json:"version"`
	ExportedAt   time.Time     `json:"exportedAt"`
	Clients      []Client      `json:"clients"`
	Appointments []Appointment `json:"appointments"`
	Formulas     []Formula     `json:"formulas"`
}

// Health is the backend health probe payload. Mode is null when the server
// has no data mode configured.
type Health struct {
	OK             bool    `json:"ok"`
	Mode           *string `json:"mode"`
	DBProbeOK      bool    `json:"dbProbeOk"`
	Error          string  `json:"error,omitempty"`
	DBProbeDetails string  `json:"dbProbeDetails,omitempty"`
}

func (h Health) ModeValue() string {
	if h.Mode == nil {
		return ""
	}
	return *h.Mode
}

package models

import "time"

const PacketVersion = 1

// ClientPacketV1 is the read-only view served to the client portal. It is
// rebuilt on every request and never stored.
type ClientPacketV1 struct {
	Version            int                 `json:"version"`
	Token              string              `json:"token"`
	Stylist            StylistDisplay      `json:"stylist"`
	Client             ClientDisplay       `json:"client"`
	NextAppointment    *AppointmentSummary `json:"nextAppointment,omitempty"`
	Aftercare          Aftercare           `json:"aftercare"`
	LastFormulaSummary *FormulaSummary     `json:"lastFormulaSummary,omitempty"`
	UpdatedAt          time.Time           `json:"updatedAt"`
}

type StylistDisplay struct {
	DisplayName string `json:"displayName"`
	SalonName   string `json:"salonName,omitempty"`
}

type ClientDisplay struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	Pronouns  string `json:"pronouns,omitempty"`
}

type AppointmentSummary struct {
	StartAt     time.Time `json:"startAt"`
	ServiceName string    `json:"serviceName"`
	DurationMin int       `json:"durationMin"`
}

type Aftercare struct {
	Summary          string   `json:"summary"`
	Do               []string `json:"do"`
	Dont             []string `json:"dont"`
	RebookWindowDays int      `json:"rebookWindowDays,omitempty"`
}

type FormulaSummary struct {
	Title string `json:"title"`
	Notes string `json:"notes,omitempty"`
}

package dto

import "time"

// CalendarEventDTO is an appointment as drawn on the calendar.
type CalendarEventDTO struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"clientId"`
	ClientName  string    `json:"clientName"`
	ServiceName string    `json:"serviceName"`
	StartAt     time.Time `json:"startAt"`
	EndAt       time.Time `json:"endAt"`
	DurationMin int       `json:"durationMin"`
	Status      string    `json:"status"`
}

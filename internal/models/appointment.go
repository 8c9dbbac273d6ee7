package models

import "time"

type Appointment struct {
	ID string `gorm:"primaryKey;size:64" json:"id"`

	// ClientID is not a foreign key: appointments may outlive their client
	// reference and readers must tolerate a dangling id.
	ClientID string `gorm:"size:64;index" json:"clientId"`

	ServiceName string    `gorm:"size:120;not null" json:"serviceName"`
	StartAt     time.Time `gorm:"index" json:"startAt"`
	DurationMin int       `gorm:"default:60" json:"durationMin"`

	Status string `gorm:"size:20;default:'scheduled'" json:"status"`
	Notes  string `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

func (a Appointment) EndAt() time.Time {
	return a.StartAt.Add(time.Duration(a.DurationMin) * time.Minute)
}

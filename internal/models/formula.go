package models

import "time"

type FormulaServiceType string

const (
	ServiceColor   FormulaServiceType = "color"
	ServiceLighten FormulaServiceType = "lighten"
	ServiceTone    FormulaServiceType = "tone"
	ServiceGloss   FormulaServiceType = "gloss"
	ServiceOther   FormulaServiceType = "other"
)

type Formula struct {
	ID            string             `gorm:"primaryKey;size:64" json:"id"`
	ClientID      string             `gorm:"size:64;index" json:"clientId"`
	AppointmentID string             `gorm:"size:64" json:"appointmentId,omitempty"`
	ServiceType   FormulaServiceType `gorm:"size:20;default:'other'" json:"serviceType"`
	Title         string             `gorm:"size:160;not null" json:"title"`
	ColorLine     string             `gorm:"size:120" json:"colorLine,omitempty"`
	Notes         string             `gorm:"type:text" json:"notes,omitempty"`

	Tags  []string      `gorm:"serializer:json" json:"tags,omitempty"`
	Steps []FormulaStep `gorm:"serializer:json" json:"steps"`

	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

// FormulaStep is one mix within a formula. Grams and ProcessingMin are
// nil when unknown.
type FormulaStep struct {
	StepName      string   `json:"stepName"`
	Product       string   `json:"product"`
	Developer     string   `json:"developer,omitempty"`
	Ratio         string   `json:"ratio,omitempty"`
	Grams         *float64 `json:"grams,omitempty"`
	ProcessingMin *float64 `json:"processingMin,omitempty"`
	Notes         string   `json:"notes,omitempty"`
}

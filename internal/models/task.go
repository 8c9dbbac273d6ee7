package models

import "time"

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
)

type Task struct {
	ID       string `gorm:"primaryKey;size:64" json:"id"`
	Title    string `gorm:"size:200;not null" json:"title"`
	Notes    string `gorm:"type:text" json:"notes,omitempty"`
	ClientID string `gorm:"size:64;index" json:"clientId,omitempty"`

	DueAt           *time.Time `json:"dueAt,omitempty"`
	ReminderAt      *time.Time `json:"reminderAt,omitempty"`
	ReminderEnabled bool       `json:"reminderEnabled"`

	Status      TaskStatus   `gorm:"size:20;default:'pending'" json:"status"`
	Attachments []Attachment `gorm:"serializer:json" json:"attachments,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
}

package models

import "time"

// Client is a salon client. InviteToken grants access to the client portal.
type Client struct {
	ID        string `gorm:"primaryKey;size:64" json:"id"`
	FirstName string `gorm:"size:100;not null" json:"firstName"`
	LastName  string `gorm:"size:100" json:"lastName,omitempty"`
	Pronouns  string `gorm:"size:40" json:"pronouns,omitempty"`
	Phone     string `gorm:"size:40" json:"phone,omitempty"`
	Email     string `gorm:"size:120" json:"email,omitempty"`
	Notes     string `gorm:"type:text" json:"notes,omitempty"`

	Tags []string `gorm:"serializer:json" json:"tags,omitempty"`

	InviteToken     string     `gorm:"size:32;uniqueIndex:idx_clients_invite_token,where:invite_token <> ''" json:"inviteToken,omitempty"`
	InviteUpdatedAt *time.Time `json:"inviteUpdatedAt,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime:false" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false" json:"updatedAt"`
}

func (c Client) DisplayName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// Invite is the result of issuing (or re-reading) a client's portal token.
type Invite struct {
	Token     string    `json:"token"`
	UpdatedAt time.Time `json:"updatedAt"`
}

package models

import (
	"time"
)

// Account is a local user mapped from an external identity provider subject.
type Account struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	ExternalID           string    `gorm:"uniqueIndex;not null;size:50" json:"external_id"`
	Email                string    `gorm:"uniqueIndex;not null;size:255" json:"email"`
	DisplayName          string    `gorm:"size:255" json:"display_name"`
	AvatarURL            *string   `gorm:"size:500" json:"avatar_url"`
	ProviderRefreshToken *string   `json:"-"` // Nullable, never serialized
	Active               bool      `gorm:"default:true" json:"active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}

// HasRefreshToken reports whether a provider refresh token is stored for the account
func (a *Account) HasRefreshToken() bool {
	return a.ProviderRefreshToken != nil && *a.ProviderRefreshToken != ""
}

package models

import (
	"time"
)

// PendingAuthState is a single-use CSRF state issued at login start
type PendingAuthState struct {
	Token     string    `gorm:"primaryKey;size:128"`
	CreatedAt time.Time `gorm:"not null;index"`
}

func (PendingAuthState) TableName() string {
	return "pending_auth_state"
}

package models

import "time"

/************************************************
/**** MARK: RESET CHANNEL ****/
/************************************************/
const RESET_CHANNEL_EMAIL = "email"

// Credentials below belong to the auth layer. Only hashes are persisted.

// RefreshToken is one session's refresh credential, rotated on every use.
type RefreshToken struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	TokenHash string     `gorm:"not null;unique_index" json:"-"`
	UserAgent string     `gorm:"column:user_agent" json:"user_agent"`
	RevokedAt *time.Time `json:"revoked_at"`
	ExpiresAt *time.Time `json:"expires_at"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

// IsActive is false once revoked or past its expiry.
func (rt RefreshToken) IsActive(now time.Time) bool {
	if rt.RevokedAt != nil {
		return false
	}
	return rt.ExpiresAt == nil || !now.After(*rt.ExpiresAt)
}

// PasswordReset is a 6-digit emailed code for the forgot-password flow.
type PasswordReset struct {
	ID        int64      `gorm:"primary_key;AUTO_INCREMENT" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	TokenHash string     `gorm:"not null;index" json:"-"`
	Channel   string     `gorm:"not null;default:'email'" json:"channel"`
	ExpiresAt *time.Time `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func (pr PasswordReset) IsUsable(now time.Time) bool {
	if pr.UsedAt != nil {
		return false
	}
	return pr.ExpiresAt != nil && now.Before(*pr.ExpiresAt)
}

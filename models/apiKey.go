package models

import "time"

// APIKey is the single long-lived key of a user.
type APIKey struct {
	ID      uint64     `gorm:"column:id;primary_key" json:"id"`
	Key     string     `gorm:"column:key;type:varchar(40);unique_index;not null" json:"key"`
	UserID  uint64     `gorm:"column:user_id;unique_index;not null" json:"user_id"`
	Created *time.Time `gorm:"column:created" json:"created"`
}

// TableName sets the insert table name for this struct type
func (a *APIKey) TableName() string {
	return "api_keys"
}

// RevokedToken records a rotated refresh token id until it would have expired.
type RevokedToken struct {
	JTI       string    `gorm:"column:jti;type:varchar(64);primary_key" json:"jti"`
	ExpiresAt time.Time `gorm:"column:expires_at" json:"expires_at"`
}

// TableName sets the insert table name for this struct type
func (r *RevokedToken) TableName() string {
	return "revoked_tokens"
}

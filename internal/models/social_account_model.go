package models

import (
	"time"
)

type SocialAccount struct {
	ID             int64     `db:"id" json:"id"`
	Platform       string    `db:"platform" json:"platform"`
	AccountID      string    `db:"account_id" json:"account_id"`
	Username       string    `db:"username" json:"username"`
	AccessToken    string    `db:"access_token" json:"-"`
	RefreshToken   string    `db:"refresh_token" json:"-"`
	TokenExpiresAt time.Time `db:"token_expires_at" json:"token_expires_at"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

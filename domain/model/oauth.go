package model

import "time"

// OAuthState is a single-use token binding an OAuth redirect round-trip to the
// initiating user. Consumed exactly once; a second consume must fail.
type OAuthState struct {
	Token        string    `json:"token"`
	UserID       string    `json:"user_id"`
	RedirectPath string    `json:"redirect_path"`
	Used         bool      `json:"used"`
	CreatedAt    time.Time `json:"created_at"`
}

// InstagramConnection holds the connected-account fields stored on a user's profile.
type InstagramConnection struct {
	Connected      bool       `json:"connected"`
	BusinessID     string     `json:"business_id"`
	Username       string     `json:"username"`
	AccessToken    string     `json:"-"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty"`
	AccountType    string     `json:"account_type"` // business | creator
}

// InstagramBusinessAccount is the linked business account resolved from the
// page list after a successful token exchange.
type InstagramBusinessAccount struct {
	PageID      string
	PageName    string
	BusinessID  string
	Username    string
	AccountType string
	PageToken   string
}

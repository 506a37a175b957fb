package model

import "time"

const (
	NotificationStoryVerified           = "story_verified"
	NotificationStoryVerificationFailed = "story_verification_failed"
)

type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

package model

import (
	"encoding/json"
	"time"
)

const (
	SubmissionStatusPending             = "pending"
	SubmissionStatusPendingVerification = "pending_verification"
	SubmissionStatusVerified            = "verified"
	SubmissionStatusRejected            = "rejected"
)

const (
	VerificationStatusPending  = "pending"
	VerificationStatusVerified = "verified"
	VerificationStatusFailed   = "failed"
)

// CollaborationSubmission is an influencer's claim of having posted required
// content for a collaboration. Terminal once verified or rejected.
type CollaborationSubmission struct {
	ID              int64      `json:"id"`
	InfluencerID    string     `json:"influencer_id"`
	CollaborationID int64      `json:"collaboration_id"`
	ContentURL      *string    `json:"content_url,omitempty"`
	Status          string     `json:"status"` // pending | pending_verification | verified | rejected
	VerifiedAt      *time.Time `json:"verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// StoryVerification tracks the provider-side confirmation of one submission.
// retry_count never exceeds the configured maximum; verified and failed are terminal.
type StoryVerification struct {
	ID              int64           `json:"id"`
	SubmissionID    int64           `json:"submission_id"`
	ExternalMediaID string          `json:"external_media_id"`
	Status          string          `json:"status"` // pending | verified | failed
	RetryCount      int             `json:"retry_count"`
	NextRetryAt     *time.Time      `json:"next_retry_at,omitempty"`
	LastError       *string         `json:"last_error,omitempty"`
	Details         json.RawMessage `json:"details,omitempty"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	VerifiedAt      *time.Time      `json:"verified_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

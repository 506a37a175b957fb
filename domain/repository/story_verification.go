package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"foodcollab/domain/model"
)

// ErrVerificationNotFound is returned when no verification matches an external media id.
var ErrVerificationNotFound = errors.New("story verification not found")

type IStoryVerification interface {
	Create(ctx context.Context, submissionID int64, externalMediaID string) (*model.StoryVerification, error)
	GetBySubmission(ctx context.Context, submissionID int64) (*model.StoryVerification, error)
	// FetchDue returns pending records with retry headroom whose backoff window has elapsed.
	FetchDue(ctx context.Context, maxRetries, limit int) ([]*model.StoryVerification, error)
	// MarkVerified is terminal; it never touches records that already left pending.
	MarkVerified(ctx context.Context, id int64, details json.RawMessage) error
	// RecordFailure bumps retry_count and schedules the next attempt; once the
	// count reaches maxRetries the record transitions to failed. Returns the
	// resulting status so callers can react to the terminal transition.
	RecordFailure(ctx context.Context, id int64, lastError string, nextRetryAt time.Time, maxRetries int) (string, error)
	// MarkFailed is the terminal transition for non-retryable errors (missing credential).
	MarkFailed(ctx context.Context, id int64, lastError string) error
	// RecordError stores diagnostic detail without mutating status or retry_count.
	RecordError(ctx context.Context, id int64, lastError string) error
	// MergeInsights folds a webhook payload into the record's detail blob.
	MergeInsights(ctx context.Context, externalMediaID string, payload json.RawMessage) error
}

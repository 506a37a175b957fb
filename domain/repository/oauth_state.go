package repository

import (
	"context"
	"errors"
	"time"

	"foodcollab/domain/model"
)

// ErrStateNotFound is returned when a state token is unknown, expired or already consumed.
var ErrStateNotFound = errors.New("oauth state not found")

type IOAuthState interface {
	// Issue mints a random single-use state token bound to the user and redirect path.
	Issue(ctx context.Context, userID, redirectPath string) (string, error)
	// Consume atomically marks an unconsumed, unexpired token used and returns its binding.
	// Returns ErrStateNotFound when the token is absent, expired or already used.
	Consume(ctx context.Context, token string) (*model.OAuthState, error)
	// PruneExpired deletes consumed tokens and tokens older than maxAge.
	PruneExpired(ctx context.Context, maxAge time.Duration) (int64, error)
}

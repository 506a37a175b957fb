package repository

import (
	"context"

	"foodcollab/domain/model"
)

type IProfile interface {
	UpsertInstagramConnection(ctx context.Context, userID string, conn *model.InstagramConnection) error
	GetInstagramConnection(ctx context.Context, userID string) (*model.InstagramConnection, error)
	// ClearInstagramConnection marks the profile disconnected and removes the stored secret.
	ClearInstagramConnection(ctx context.Context, userID string) error
	// GetConnectionBySubmission resolves the business access token through the chain
	// submission -> collaboration -> campaign -> business profile.
	GetConnectionBySubmission(ctx context.Context, submissionID int64) (*model.InstagramConnection, error)
}

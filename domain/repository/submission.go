package repository

import (
	"context"

	"foodcollab/domain/model"
)

type ISubmission interface {
	Create(ctx context.Context, sub *model.CollaborationSubmission) error
	GetByID(ctx context.Context, id int64) (*model.CollaborationSubmission, error)
	ListByInfluencer(ctx context.Context, influencerID string) ([]*model.CollaborationSubmission, error)
	// SubmitStory records the content URL and moves pending -> pending_verification.
	SubmitStory(ctx context.Context, id int64, influencerID, contentURL string) error
	MarkVerified(ctx context.Context, id int64) error
	MarkRejected(ctx context.Context, id int64) error
}

package usecase

import (
	"context"
	"errors"

	"foodcollab/domain/model"
	"foodcollab/domain/repository"
)

type ISubmissionUsecase interface {
	Create(ctx context.Context, influencerID string, collaborationID int64) (*model.CollaborationSubmission, error)
	// SubmitStory moves a pending submission to pending_verification and opens
	// its story verification record.
	SubmitStory(ctx context.Context, id int64, influencerID, contentURL, externalMediaID string) (*model.StoryVerification, error)
	List(ctx context.Context, influencerID string) ([]*model.CollaborationSubmission, error)
}

type submissionUsecase struct {
	subRepo   repository.ISubmission
	verifRepo repository.IStoryVerification
}

func NewSubmissionUsecase(subRepo repository.ISubmission, verifRepo repository.IStoryVerification) ISubmissionUsecase {
	return &submissionUsecase{subRepo: subRepo, verifRepo: verifRepo}
}

func (u *submissionUsecase) Create(ctx context.Context, influencerID string, collaborationID int64) (*model.CollaborationSubmission, error) {
	if influencerID == "" || collaborationID == 0 {
		return nil, errors.New("influencerID and collaborationID required")
	}
	sub := &model.CollaborationSubmission{
		InfluencerID:    influencerID,
		CollaborationID: collaborationID,
	}
	if err := u.subRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (u *submissionUsecase) SubmitStory(ctx context.Context, id int64, influencerID, contentURL, externalMediaID string) (*model.StoryVerification, error) {
	if contentURL == "" || externalMediaID == "" {
		return nil, errors.New("contentURL and externalMediaID required")
	}
	if err := u.subRepo.SubmitStory(ctx, id, influencerID, contentURL); err != nil {
		return nil, err
	}
	return u.verifRepo.Create(ctx, id, externalMediaID)
}

func (u *submissionUsecase) List(ctx context.Context, influencerID string) ([]*model.CollaborationSubmission, error) {
	return u.subRepo.ListByInfluencer(ctx, influencerID)
}

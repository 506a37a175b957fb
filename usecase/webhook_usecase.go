package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"foodcollab/domain/repository"
	"foodcollab/infrastructure/logger"
	"foodcollab/infrastructure/persistence"
)

type IWebhookUsecase interface {
	// VerifyHandshake proves endpoint ownership to the provider. Pure; no writes.
	VerifyHandshake(mode, verifyToken, challenge string) (string, bool)
	// ProcessEvents ingests a batch of change entries. One entry's failure does
	// not stop the rest; only an unparseable body is an error.
	ProcessEvents(ctx context.Context, body []byte) error
}

type webhookUsecase struct {
	verifRepo   repository.IStoryVerification
	archive     *persistence.WebhookEventArchive
	verifyToken string
}

func NewWebhookUsecase(verifRepo repository.IStoryVerification, archive *persistence.WebhookEventArchive, verifyToken string) IWebhookUsecase {
	return &webhookUsecase{verifRepo: verifRepo, archive: archive, verifyToken: verifyToken}
}

func (u *webhookUsecase) VerifyHandshake(mode, verifyToken, challenge string) (string, bool) {
	if mode != "subscribe" {
		return "", false
	}
	if u.verifyToken == "" || verifyToken != u.verifyToken {
		return "", false
	}
	return challenge, true
}

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Time    int64  `json:"time"`
		Changes []struct {
			Field string          `json:"field"`
			Value json.RawMessage `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type insightValue struct {
	MediaID string `json:"media_id"`
}

func (u *webhookUsecase) ProcessEvents(ctx context.Context, body []byte) error {
	lg := logger.GetLogger()

	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("parsing webhook payload: %w", err)
	}

	if u.archive != nil {
		u.archive.Store(ctx, body)
	}

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			switch change.Field {
			case "story_insights", "insights":
				u.applyInsight(ctx, entry.ID, change.Value)
			default:
				// Unknown field types are ignored for forward compatibility.
				lg.WithField("field", change.Field).Debug("ignoring unrecognized webhook field")
			}
		}
	}
	return nil
}

func (u *webhookUsecase) applyInsight(ctx context.Context, entryID string, value json.RawMessage) {
	lg := logger.GetLogger()

	var v insightValue
	if err := json.Unmarshal(value, &v); err != nil || v.MediaID == "" {
		lg.WithField("entry_id", entryID).Warn("insight change without media_id - skipping")
		return
	}
	if err := u.verifRepo.MergeInsights(ctx, v.MediaID, value); err != nil {
		if errors.Is(err, repository.ErrVerificationNotFound) {
			lg.WithField("media_id", v.MediaID).Warn("insight for unknown story - skipping")
			return
		}
		lg.WithField("media_id", v.MediaID).WithField("error", err).Error("merging story insights failed")
	}
}

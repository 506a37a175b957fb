package repository

import (
	"context"
	"encoding/json"

	"foodcollab/domain/model"
)

// IInstagram is the Graph API surface the connect flow and the verification
// worker depend on.
type IInstagram interface {
	// ExchangeLongLivedToken swaps a short-lived user token for a long-lived one.
	ExchangeLongLivedToken(ctx context.Context, shortToken string) (accessToken string, expiresIn int64, err error)
	// GetLinkedBusinessAccount resolves the first page with a linked Instagram
	// business account. Returns nil when no page carries one.
	GetLinkedBusinessAccount(ctx context.Context, accessToken string) (*model.InstagramBusinessAccount, error)
	// GetMedia looks up a media object by id; a success proves the content exists.
	GetMedia(ctx context.Context, mediaID, accessToken string) (json.RawMessage, error)
}

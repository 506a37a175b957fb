package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"foodcollab/domain/repository"
)

func TestWebhookUsecase_VerifyHandshake(t *testing.T) {
	uc := NewWebhookUsecase(newFakeVerificationRepo(), nil, "secret-token")

	challenge, ok := uc.VerifyHandshake("subscribe", "secret-token", "1158201444")
	require.True(t, ok)
	require.Equal(t, "1158201444", challenge)
}

func TestWebhookUsecase_VerifyHandshake_Rejected(t *testing.T) {
	uc := NewWebhookUsecase(newFakeVerificationRepo(), nil, "secret-token")

	cases := []struct {
		name  string
		mode  string
		token string
	}{
		{"wrong mode", "unsubscribe", "secret-token"},
		{"wrong token", "subscribe", "guess"},
		{"empty token", "subscribe", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, ok := uc.VerifyHandshake(tc.mode, tc.token, "12345")
			require.False(t, ok)
		})
	}
}

// An unset verify token must reject everything rather than accept everything.
func TestWebhookUsecase_VerifyHandshake_NoConfiguredToken(t *testing.T) {
	uc := NewWebhookUsecase(newFakeVerificationRepo(), nil, "")

	_, ok := uc.VerifyHandshake("subscribe", "", "12345")
	require.False(t, ok)
}

func TestWebhookUsecase_ProcessEvents_MergesInsights(t *testing.T) {
	verifRepo := newFakeVerificationRepo()
	uc := NewWebhookUsecase(verifRepo, nil, "secret-token")

	body := []byte(`{
		"object": "instagram",
		"entry": [{
			"id": "17841400000000000",
			"time": 1700000000,
			"changes": [{
				"field": "story_insights",
				"value": {"media_id": "media-a", "impressions": 120, "reach": 88}
			}]
		}]
	}`)
	require.NoError(t, uc.ProcessEvents(context.Background(), body))
	require.Contains(t, verifRepo.merged, "media-a")

	var merged map[string]interface{}
	require.NoError(t, json.Unmarshal(verifRepo.merged["media-a"], &merged))
	require.Equal(t, float64(120), merged["impressions"])
}

func TestWebhookUsecase_ProcessEvents_InvalidBody(t *testing.T) {
	uc := NewWebhookUsecase(newFakeVerificationRepo(), nil, "secret-token")

	err := uc.ProcessEvents(context.Background(), []byte("not json"))
	require.Error(t, err)
}

// A batch mixing known, unknown and malformed entries still succeeds; the
// good entries are applied.
func TestWebhookUsecase_ProcessEvents_PartialBatch(t *testing.T) {
	verifRepo := newFakeVerificationRepo()
	verifRepo.mergeErrs = map[string]error{"media-unknown": repository.ErrVerificationNotFound}
	uc := NewWebhookUsecase(verifRepo, nil, "secret-token")

	body := []byte(`{
		"object": "instagram",
		"entry": [
			{"id": "1", "changes": [{"field": "story_insights", "value": {"media_id": "media-unknown"}}]},
			{"id": "2", "changes": [{"field": "mentions", "value": {"comment_id": "c1"}}]},
			{"id": "3", "changes": [{"field": "story_insights", "value": {}}]},
			{"id": "4", "changes": [{"field": "story_insights", "value": {"media_id": "media-b", "exits": 4}}]}
		]
	}`)
	require.NoError(t, uc.ProcessEvents(context.Background(), body))
	require.Contains(t, verifRepo.merged, "media-b")
	require.NotContains(t, verifRepo.merged, "media-unknown")
}

package usecase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"foodcollab/domain/model"
	"foodcollab/domain/repository"
	"foodcollab/infrastructure/cache"
	"foodcollab/infrastructure/pubsub"
)

type fakeVerificationRepo struct {
	due        []*model.StoryVerification
	maxRetries int

	verified      map[int64]json.RawMessage
	failed        map[int64]string
	failureCalls  []int64
	recordedError map[int64]string
	merged        map[string]json.RawMessage
	mergeErrs     map[string]error
}

func newFakeVerificationRepo(due ...*model.StoryVerification) *fakeVerificationRepo {
	return &fakeVerificationRepo{
		due:           due,
		verified:      map[int64]json.RawMessage{},
		failed:        map[int64]string{},
		recordedError: map[int64]string{},
		merged:        map[string]json.RawMessage{},
	}
}

func (f *fakeVerificationRepo) Create(ctx context.Context, submissionID int64, externalMediaID string) (*model.StoryVerification, error) {
	return &model.StoryVerification{SubmissionID: submissionID, ExternalMediaID: externalMediaID, Status: model.VerificationStatusPending}, nil
}

func (f *fakeVerificationRepo) GetBySubmission(ctx context.Context, submissionID int64) (*model.StoryVerification, error) {
	return nil, repository.ErrVerificationNotFound
}

func (f *fakeVerificationRepo) FetchDue(ctx context.Context, maxRetries, limit int) ([]*model.StoryVerification, error) {
	f.maxRetries = maxRetries
	return f.due, nil
}

func (f *fakeVerificationRepo) MarkVerified(ctx context.Context, id int64, details json.RawMessage) error {
	f.verified[id] = details
	return nil
}

func (f *fakeVerificationRepo) RecordFailure(ctx context.Context, id int64, lastError string, nextRetryAt time.Time, maxRetries int) (string, error) {
	f.failureCalls = append(f.failureCalls, id)
	for _, rec := range f.due {
		if rec.ID != id {
			continue
		}
		rec.RetryCount++
		rec.LastError = &lastError
		rec.NextRetryAt = &nextRetryAt
		if rec.RetryCount >= maxRetries {
			rec.Status = model.VerificationStatusFailed
		}
		return rec.Status, nil
	}
	return "", repository.ErrVerificationNotFound
}

func (f *fakeVerificationRepo) MarkFailed(ctx context.Context, id int64, lastError string) error {
	f.failed[id] = lastError
	return nil
}

func (f *fakeVerificationRepo) RecordError(ctx context.Context, id int64, lastError string) error {
	f.recordedError[id] = lastError
	return nil
}

func (f *fakeVerificationRepo) MergeInsights(ctx context.Context, externalMediaID string, payload json.RawMessage) error {
	if err, ok := f.mergeErrs[externalMediaID]; ok {
		return err
	}
	f.merged[externalMediaID] = payload
	return nil
}

type fakeSubmissionRepo struct {
	subs     map[int64]*model.CollaborationSubmission
	verified []int64
}

func (f *fakeSubmissionRepo) Create(ctx context.Context, sub *model.CollaborationSubmission) error {
	return nil
}

func (f *fakeSubmissionRepo) GetByID(ctx context.Context, id int64) (*model.CollaborationSubmission, error) {
	sub, ok := f.subs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return sub, nil
}

func (f *fakeSubmissionRepo) ListByInfluencer(ctx context.Context, influencerID string) ([]*model.CollaborationSubmission, error) {
	return nil, nil
}

func (f *fakeSubmissionRepo) SubmitStory(ctx context.Context, id int64, influencerID, contentURL string) error {
	return nil
}

func (f *fakeSubmissionRepo) MarkVerified(ctx context.Context, id int64) error {
	f.verified = append(f.verified, id)
	return nil
}

func (f *fakeSubmissionRepo) MarkRejected(ctx context.Context, id int64) error { return nil }

type fakeProfileRepo struct {
	bySubmission map[int64]*model.InstagramConnection
	err          error
}

func (f *fakeProfileRepo) UpsertInstagramConnection(ctx context.Context, userID string, conn *model.InstagramConnection) error {
	return nil
}

func (f *fakeProfileRepo) GetInstagramConnection(ctx context.Context, userID string) (*model.InstagramConnection, error) {
	return nil, sql.ErrNoRows
}

func (f *fakeProfileRepo) ClearInstagramConnection(ctx context.Context, userID string) error {
	return nil
}

func (f *fakeProfileRepo) GetConnectionBySubmission(ctx context.Context, submissionID int64) (*model.InstagramConnection, error) {
	if f.err != nil {
		return nil, f.err
	}
	conn, ok := f.bySubmission[submissionID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return conn, nil
}

type fakeNotificationRepo struct {
	created []*model.Notification
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	f.created = append(f.created, n)
	return nil
}

func (f *fakeNotificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]*model.Notification, error) {
	return f.created, nil
}

type fakeInstagram struct {
	media map[string]json.RawMessage
	errs  map[string]error
}

func (f *fakeInstagram) ExchangeLongLivedToken(ctx context.Context, shortToken string) (string, int64, error) {
	return "long-" + shortToken, 5184000, nil
}

func (f *fakeInstagram) GetLinkedBusinessAccount(ctx context.Context, accessToken string) (*model.InstagramBusinessAccount, error) {
	return nil, nil
}

func (f *fakeInstagram) GetMedia(ctx context.Context, mediaID, accessToken string) (json.RawMessage, error) {
	if err, ok := f.errs[mediaID]; ok {
		return nil, err
	}
	if m, ok := f.media[mediaID]; ok {
		return m, nil
	}
	return nil, errors.New("media not found")
}

type fakePublisher struct {
	events []*pubsub.VerificationEvent
}

func (f *fakePublisher) PublishVerificationEvent(ctx context.Context, event *pubsub.VerificationEvent) {
	f.events = append(f.events, event)
}

func testPolicy() VerificationPolicy {
	return VerificationPolicy{MaxAttempts: 3, RetryDelay: 5 * time.Minute, BatchSize: 50}
}

func connected(token string) *model.InstagramConnection {
	return &model.InstagramConnection{Connected: true, AccessToken: token, BusinessID: "biz-1"}
}

func TestProcessVerifications_Success(t *testing.T) {
	rec := &model.StoryVerification{ID: 1, SubmissionID: 10, ExternalMediaID: "media-a", Status: model.VerificationStatusPending}
	verifRepo := newFakeVerificationRepo(rec)
	subRepo := &fakeSubmissionRepo{subs: map[int64]*model.CollaborationSubmission{10: {ID: 10, InfluencerID: "user-1"}}}
	profileRepo := &fakeProfileRepo{bySubmission: map[int64]*model.InstagramConnection{10: connected("tok")}}
	notifRepo := &fakeNotificationRepo{}
	ig := &fakeInstagram{media: map[string]json.RawMessage{"media-a": json.RawMessage(`{"id":"media-a"}`)}}
	events := &fakePublisher{}

	var broadcasted []*model.Notification
	err := ProcessVerifications(context.Background(), verifRepo, subRepo, profileRepo, notifRepo, ig, events, testPolicy(),
		func(n *model.Notification) { broadcasted = append(broadcasted, n) })
	require.NoError(t, err)

	require.Contains(t, verifRepo.verified, int64(1))
	require.Equal(t, []int64{10}, subRepo.verified)
	require.Len(t, notifRepo.created, 1)
	require.Equal(t, model.NotificationStoryVerified, notifRepo.created[0].Type)
	require.Equal(t, "user-1", notifRepo.created[0].UserID)
	require.Len(t, broadcasted, 1)
	require.Len(t, events.events, 1)
	require.Equal(t, model.VerificationStatusVerified, events.events[0].Status)
}

func TestProcessVerifications_FailureSchedulesRetry(t *testing.T) {
	rec := &model.StoryVerification{ID: 1, SubmissionID: 10, ExternalMediaID: "media-x", Status: model.VerificationStatusPending}
	verifRepo := newFakeVerificationRepo(rec)
	subRepo := &fakeSubmissionRepo{subs: map[int64]*model.CollaborationSubmission{10: {ID: 10, InfluencerID: "user-1"}}}
	profileRepo := &fakeProfileRepo{bySubmission: map[int64]*model.InstagramConnection{10: connected("tok")}}
	notifRepo := &fakeNotificationRepo{}
	ig := &fakeInstagram{errs: map[string]error{"media-x": errors.New("provider timeout")}}

	err := ProcessVerifications(context.Background(), verifRepo, subRepo, profileRepo, notifRepo, ig, nil, testPolicy(), nil)
	require.NoError(t, err)

	require.Equal(t, 1, rec.RetryCount)
	require.Equal(t, model.VerificationStatusPending, rec.Status)
	require.NotNil(t, rec.NextRetryAt)
	require.WithinDuration(t, time.Now().UTC().Add(5*time.Minute), *rec.NextRetryAt, 10*time.Second)
	// Non-terminal failure notifies nobody.
	require.Empty(t, notifRepo.created)
}

func TestProcessVerifications_TerminalAfterMaxAttempts(t *testing.T) {
	rec := &model.StoryVerification{ID: 1, SubmissionID: 10, ExternalMediaID: "media-x", Status: model.VerificationStatusPending, RetryCount: 2}
	verifRepo := newFakeVerificationRepo(rec)
	subRepo := &fakeSubmissionRepo{subs: map[int64]*model.CollaborationSubmission{10: {ID: 10, InfluencerID: "user-1"}}}
	profileRepo := &fakeProfileRepo{bySubmission: map[int64]*model.InstagramConnection{10: connected("tok")}}
	notifRepo := &fakeNotificationRepo{}
	ig := &fakeInstagram{errs: map[string]error{"media-x": errors.New("provider timeout")}}
	events := &fakePublisher{}

	err := ProcessVerifications(context.Background(), verifRepo, subRepo, profileRepo, notifRepo, ig, events, testPolicy(), nil)
	require.NoError(t, err)

	require.Equal(t, 3, rec.RetryCount)
	require.Equal(t, model.VerificationStatusFailed, rec.Status)
	require.Len(t, notifRepo.created, 1)
	require.Equal(t, model.NotificationStoryVerificationFailed, notifRepo.created[0].Type)
	require.Len(t, events.events, 1)
	require.Equal(t, model.VerificationStatusFailed, events.events[0].Status)
}

// A submission whose business has no stored credential cannot ever succeed;
// the record goes terminal immediately instead of burning retries.
func TestProcessVerifications_MissingCredentialIsTerminal(t *testing.T) {
	rec := &model.StoryVerification{ID: 1, SubmissionID: 10, ExternalMediaID: "media-a", Status: model.VerificationStatusPending}
	verifRepo := newFakeVerificationRepo(rec)
	subRepo := &fakeSubmissionRepo{subs: map[int64]*model.CollaborationSubmission{10: {ID: 10, InfluencerID: "user-1"}}}
	profileRepo := &fakeProfileRepo{}
	notifRepo := &fakeNotificationRepo{}
	ig := &fakeInstagram{}

	err := ProcessVerifications(context.Background(), verifRepo, subRepo, profileRepo, notifRepo, ig, nil, testPolicy(), nil)
	require.NoError(t, err)

	require.Equal(t, "missing_access_token", verifRepo.failed[1])
	require.Empty(t, verifRepo.failureCalls)
	require.Len(t, notifRepo.created, 1)
	require.Equal(t, model.NotificationStoryVerificationFailed, notifRepo.created[0].Type)
}

// One record's unexpected error never stops the rest of the batch.
func TestProcessVerifications_BatchIsolation(t *testing.T) {
	bad := &model.StoryVerification{ID: 1, SubmissionID: 10, ExternalMediaID: "media-bad", Status: model.VerificationStatusPending}
	good := &model.StoryVerification{ID: 2, SubmissionID: 11, ExternalMediaID: "media-good", Status: model.VerificationStatusPending}
	verifRepo := newFakeVerificationRepo(bad, good)
	subRepo := &fakeSubmissionRepo{subs: map[int64]*model.CollaborationSubmission{
		10: {ID: 10, InfluencerID: "user-1"},
		11: {ID: 11, InfluencerID: "user-2"},
	}}
	profileRepo := &fakeProfileRepo{bySubmission: map[int64]*model.InstagramConnection{11: connected("tok")}}
	// Submission 10 hits a database error when resolving its connection.
	profileRepoWithErr := &splitProfileRepo{inner: profileRepo, failFor: 10}
	notifRepo := &fakeNotificationRepo{}
	ig := &fakeInstagram{media: map[string]json.RawMessage{"media-good": json.RawMessage(`{"id":"media-good"}`)}}

	err := ProcessVerifications(context.Background(), verifRepo, subRepo, profileRepoWithErr, notifRepo, ig, nil, testPolicy(), nil)
	require.NoError(t, err)

	require.NotEmpty(t, verifRepo.recordedError[1])
	require.Contains(t, verifRepo.verified, int64(2))
	require.Equal(t, []int64{11}, subRepo.verified)
}

type splitProfileRepo struct {
	inner   *fakeProfileRepo
	failFor int64
}

func (s *splitProfileRepo) UpsertInstagramConnection(ctx context.Context, userID string, conn *model.InstagramConnection) error {
	return s.inner.UpsertInstagramConnection(ctx, userID, conn)
}

func (s *splitProfileRepo) GetInstagramConnection(ctx context.Context, userID string) (*model.InstagramConnection, error) {
	return s.inner.GetInstagramConnection(ctx, userID)
}

func (s *splitProfileRepo) ClearInstagramConnection(ctx context.Context, userID string) error {
	return s.inner.ClearInstagramConnection(ctx, userID)
}

func (s *splitProfileRepo) GetConnectionBySubmission(ctx context.Context, submissionID int64) (*model.InstagramConnection, error) {
	if submissionID == s.failFor {
		return nil, errors.New("connection pool exhausted")
	}
	return s.inner.GetConnectionBySubmission(ctx, submissionID)
}

type fakeStateRepo struct {
	pruned int
	issued []string
	states map[string]*model.OAuthState
}

func (f *fakeStateRepo) Issue(ctx context.Context, userID, redirectPath string) (string, error) {
	token := "state-" + userID
	f.issued = append(f.issued, token)
	if f.states == nil {
		f.states = map[string]*model.OAuthState{}
	}
	f.states[token] = &model.OAuthState{Token: token, UserID: userID, RedirectPath: redirectPath}
	return token, nil
}

func (f *fakeStateRepo) Consume(ctx context.Context, token string) (*model.OAuthState, error) {
	st, ok := f.states[token]
	if !ok {
		return nil, repository.ErrStateNotFound
	}
	delete(f.states, token)
	return st, nil
}

func (f *fakeStateRepo) PruneExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	f.pruned++
	return 0, nil
}

func TestVerificationUsecase_ProcessPending_PrunesStates(t *testing.T) {
	verifRepo := newFakeVerificationRepo()
	stateRepo := &fakeStateRepo{}
	lock := cache.NewWorkerLock(nil, "test:lease", time.Minute)

	uc := NewVerificationUsecase(verifRepo, &fakeSubmissionRepo{}, &fakeProfileRepo{}, &fakeNotificationRepo{},
		stateRepo, &fakeInstagram{}, nil, lock, VerificationPolicy{MaxAttempts: 3, RetryDelay: 5 * time.Minute, BatchSize: 50, StateMaxAge: 15 * time.Minute})

	require.NoError(t, uc.ProcessPending(context.Background()))
	require.Equal(t, 1, stateRepo.pruned)
	require.Equal(t, 3, verifRepo.maxRetries)
}

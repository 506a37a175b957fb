package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"foodcollab/domain/model"
	"foodcollab/domain/repository"
	"foodcollab/infrastructure/cache"
	"foodcollab/infrastructure/logger"
	"foodcollab/infrastructure/pubsub"
)

// VerificationPolicy holds the worker's retry knobs.
type VerificationPolicy struct {
	MaxAttempts int
	RetryDelay  time.Duration
	BatchSize   int
	StateMaxAge time.Duration
}

type IVerificationUsecase interface {
	ProcessPending(ctx context.Context) error
	WithBroadcaster(fn func(*model.Notification)) IVerificationUsecase
}

type verificationUsecase struct {
	verifRepo   repository.IStoryVerification
	subRepo     repository.ISubmission
	profileRepo repository.IProfile
	notifRepo   repository.INotification
	stateRepo   repository.IOAuthState
	ig          repository.IInstagram
	events      pubsub.IEventPublisher
	lock        *cache.WorkerLock
	policy      VerificationPolicy
	broadcast   func(*model.Notification)
}

func NewVerificationUsecase(
	verifRepo repository.IStoryVerification,
	subRepo repository.ISubmission,
	profileRepo repository.IProfile,
	notifRepo repository.INotification,
	stateRepo repository.IOAuthState,
	ig repository.IInstagram,
	events pubsub.IEventPublisher,
	lock *cache.WorkerLock,
	policy VerificationPolicy,
) IVerificationUsecase {
	return &verificationUsecase{
		verifRepo:   verifRepo,
		subRepo:     subRepo,
		profileRepo: profileRepo,
		notifRepo:   notifRepo,
		stateRepo:   stateRepo,
		ig:          ig,
		events:      events,
		lock:        lock,
		policy:      policy,
	}
}

func (u *verificationUsecase) WithBroadcaster(fn func(*model.Notification)) IVerificationUsecase {
	u.broadcast = fn
	return u
}

// ProcessPending runs one worker pass behind the run lease. A held lease means
// another run is in flight and this one is skipped.
func (u *verificationUsecase) ProcessPending(ctx context.Context) error {
	acquired, err := u.lock.Acquire(ctx)
	if err != nil {
		return err
	}
	if !acquired {
		logger.GetLogger().Info("verification run already in progress - skipping")
		return nil
	}
	defer u.lock.Release(ctx)

	if u.stateRepo != nil && u.policy.StateMaxAge > 0 {
		if pruned, err := u.stateRepo.PruneExpired(ctx, u.policy.StateMaxAge); err != nil {
			logger.GetLogger().WithField("error", err).Warn("oauth state prune failed")
		} else if pruned > 0 {
			logger.GetLogger().WithField("pruned", pruned).Debug("pruned stale oauth states")
		}
	}

	return ProcessVerifications(ctx, u.verifRepo, u.subRepo, u.profileRepo, u.notifRepo, u.ig, u.events, u.policy, u.broadcast)
}

// ProcessVerifications checks every due record against the provider and applies
// the bounded retry policy. One record's failure never aborts the batch.
func ProcessVerifications(
	ctx context.Context,
	verifRepo repository.IStoryVerification,
	subRepo repository.ISubmission,
	profileRepo repository.IProfile,
	notifRepo repository.INotification,
	ig repository.IInstagram,
	events pubsub.IEventPublisher,
	policy VerificationPolicy,
	broadcast func(*model.Notification),
) error {
	lg := logger.GetLogger()
	batch, err := verifRepo.FetchDue(ctx, policy.MaxAttempts, policy.BatchSize)
	if err != nil {
		return err
	}
	for _, rec := range batch {
		if err := processVerification(ctx, rec, verifRepo, subRepo, profileRepo, notifRepo, ig, events, policy, broadcast); err != nil {
			// Unexpected failure: record the detail without touching status or
			// retry_count, then continue with the next record.
			lg.WithField("verification_id", rec.ID).WithField("error", err).Warn("verification record processing failed")
			if rErr := verifRepo.RecordError(ctx, rec.ID, err.Error()); rErr != nil {
				lg.WithField("verification_id", rec.ID).WithField("error", rErr).Error("recording verification error failed")
			}
		}
	}
	return nil
}

func processVerification(
	ctx context.Context,
	rec *model.StoryVerification,
	verifRepo repository.IStoryVerification,
	subRepo repository.ISubmission,
	profileRepo repository.IProfile,
	notifRepo repository.INotification,
	ig repository.IInstagram,
	events pubsub.IEventPublisher,
	policy VerificationPolicy,
	broadcast func(*model.Notification),
) error {
	lg := logger.GetLogger()

	conn, err := profileRepo.GetConnectionBySubmission(ctx, rec.SubmissionID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("resolving business connection: %w", err)
	}
	if conn == nil || !conn.Connected || conn.AccessToken == "" {
		// No credential to retry with; terminal for this record.
		lg.WithField("verification_id", rec.ID).WithField("submission_id", rec.SubmissionID).Warn("no business access token for verification")
		if err := verifRepo.MarkFailed(ctx, rec.ID, "missing_access_token"); err != nil {
			return fmt.Errorf("marking verification failed: %w", err)
		}
		notifyOutcome(ctx, rec, model.VerificationStatusFailed, subRepo, notifRepo, events, broadcast)
		return nil
	}

	details, lookupErr := ig.GetMedia(ctx, rec.ExternalMediaID, conn.AccessToken)
	if lookupErr == nil {
		if err := verifRepo.MarkVerified(ctx, rec.ID, details); err != nil {
			return fmt.Errorf("marking verification verified: %w", err)
		}
		if err := subRepo.MarkVerified(ctx, rec.SubmissionID); err != nil {
			lg.WithField("submission_id", rec.SubmissionID).WithField("error", err).Error("marking submission verified failed")
		}
		notifyOutcome(ctx, rec, model.VerificationStatusVerified, subRepo, notifRepo, events, broadcast)
		return nil
	}

	lg.WithField("verification_id", rec.ID).WithField("media_id", rec.ExternalMediaID).WithField("error", lookupErr).Warn("provider media lookup failed")
	nextRetry := time.Now().UTC().Add(policy.RetryDelay)
	status, err := verifRepo.RecordFailure(ctx, rec.ID, lookupErr.Error(), nextRetry, policy.MaxAttempts)
	if err != nil {
		if errors.Is(err, repository.ErrVerificationNotFound) {
			// Already terminal; a concurrent actor beat us to it.
			return nil
		}
		return fmt.Errorf("recording verification failure: %w", err)
	}
	if status == model.VerificationStatusFailed {
		notifyOutcome(ctx, rec, model.VerificationStatusFailed, subRepo, notifRepo, events, broadcast)
	}
	return nil
}

func notifyOutcome(
	ctx context.Context,
	rec *model.StoryVerification,
	status string,
	subRepo repository.ISubmission,
	notifRepo repository.INotification,
	events pubsub.IEventPublisher,
	broadcast func(*model.Notification),
) {
	lg := logger.GetLogger()

	sub, err := subRepo.GetByID(ctx, rec.SubmissionID)
	if err != nil {
		lg.WithField("submission_id", rec.SubmissionID).WithField("error", err).Error("submission lookup for notification failed")
		return
	}

	n := &model.Notification{UserID: sub.InfluencerID}
	if status == model.VerificationStatusVerified {
		n.Type = model.NotificationStoryVerified
		n.Title = "Story verified"
		n.Body = "Your story was confirmed by Instagram. The collaboration is complete."
	} else {
		n.Type = model.NotificationStoryVerificationFailed
		n.Title = "Story verification failed"
		n.Body = "We could not confirm your story on Instagram. Please re-submit or contact the business."
	}
	if err := notifRepo.Create(ctx, n); err != nil {
		lg.WithField("user_id", sub.InfluencerID).WithField("error", err).Error("creating notification failed")
	} else if broadcast != nil {
		broadcast(n)
	}

	if events != nil {
		events.PublishVerificationEvent(ctx, &pubsub.VerificationEvent{
			VerificationID:  rec.ID,
			SubmissionID:    rec.SubmissionID,
			ExternalMediaID: rec.ExternalMediaID,
			Status:          status,
			OccurredAt:      time.Now().UTC(),
		})
	}
}

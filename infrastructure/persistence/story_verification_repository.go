package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"foodcollab/domain/model"
	"foodcollab/domain/repository"
)

type StoryVerificationRepository struct{ db *sql.DB }

func NewStoryVerificationRepository(db *sql.DB) *StoryVerificationRepository {
	return &StoryVerificationRepository{db: db}
}

func (r *StoryVerificationRepository) Create(ctx context.Context, submissionID int64, externalMediaID string) (*model.StoryVerification, error) {
	now := time.Now().UTC()
	v := &model.StoryVerification{
		SubmissionID:    submissionID,
		ExternalMediaID: externalMediaID,
		Status:          model.VerificationStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	q := `INSERT INTO story_verifications (submission_id, external_media_id, status, retry_count, created_at, updated_at)
		  VALUES ($1,$2,$3,0,$4,$4) RETURNING id`
	if err := r.db.QueryRowContext(ctx, q, submissionID, externalMediaID, v.Status, now).Scan(&v.ID); err != nil {
		return nil, err
	}
	return v, nil
}

func (r *StoryVerificationRepository) GetBySubmission(ctx context.Context, submissionID int64) (*model.StoryVerification, error) {
	row := r.db.QueryRowContext(ctx, selectVerification+` WHERE submission_id=$1`, submissionID)
	return scanVerificationRow(row)
}

// FetchDue honours next_retry_at so a record is not reprocessed before its
// backoff window elapses.
func (r *StoryVerificationRepository) FetchDue(ctx context.Context, maxRetries, limit int) ([]*model.StoryVerification, error) {
	q := selectVerification + `
		  WHERE status=$1 AND retry_count < $2 AND verified_at IS NULL
			AND (next_retry_at IS NULL OR next_retry_at <= $3)
		  ORDER BY created_at ASC LIMIT $4`
	rows, err := r.db.QueryContext(ctx, q, model.VerificationStatusPending, maxRetries, time.Now().UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.StoryVerification
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, rows.Err()
}

func (r *StoryVerificationRepository) MarkVerified(ctx context.Context, id int64, details json.RawMessage) error {
	now := time.Now().UTC()
	q := `UPDATE story_verifications
		  SET status=$2, verified_at=$3, details=$4, last_error=NULL, updated_at=$3
		  WHERE id=$1 AND status=$5`
	_, err := r.db.ExecContext(ctx, q, id, model.VerificationStatusVerified, now, []byte(details), model.VerificationStatusPending)
	return err
}

// RecordFailure is a single atomic statement so an attempt is counted exactly
// once and the terminal transition happens exactly at the attempt cap.
func (r *StoryVerificationRepository) RecordFailure(ctx context.Context, id int64, lastError string, nextRetryAt time.Time, maxRetries int) (string, error) {
	q := `UPDATE story_verifications
		  SET retry_count = retry_count + 1,
			  last_error = $2,
			  next_retry_at = $3,
			  status = CASE WHEN retry_count + 1 >= $4 THEN 'failed' ELSE status END,
			  updated_at = $5
		  WHERE id = $1 AND status = 'pending'
		  RETURNING status`
	var status string
	err := r.db.QueryRowContext(ctx, q, id, lastError, nextRetryAt, maxRetries, time.Now().UTC()).Scan(&status)
	if err == sql.ErrNoRows {
		// Already terminal; nothing to count.
		return "", repository.ErrVerificationNotFound
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

func (r *StoryVerificationRepository) MarkFailed(ctx context.Context, id int64, lastError string) error {
	q := `UPDATE story_verifications SET status=$2, last_error=$3, updated_at=$4 WHERE id=$1 AND status=$5`
	_, err := r.db.ExecContext(ctx, q, id, model.VerificationStatusFailed, lastError, time.Now().UTC(), model.VerificationStatusPending)
	return err
}

func (r *StoryVerificationRepository) RecordError(ctx context.Context, id int64, lastError string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE story_verifications SET last_error=$2, updated_at=$3 WHERE id=$1`,
		id, lastError, time.Now().UTC())
	return err
}

func (r *StoryVerificationRepository) MergeInsights(ctx context.Context, externalMediaID string, payload json.RawMessage) error {
	now := time.Now().UTC()
	q := `UPDATE story_verifications
		  SET details = COALESCE(details, '{}'::jsonb) || $2::jsonb, processed_at=$3, updated_at=$3
		  WHERE external_media_id=$1`
	res, err := r.db.ExecContext(ctx, q, externalMediaID, []byte(payload), now)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrVerificationNotFound
	}
	return nil
}

const selectVerification = `SELECT id, submission_id, external_media_id, status, retry_count, next_retry_at, last_error, details, processed_at, verified_at, created_at, updated_at FROM story_verifications`

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanVerification(row rowScanner) (*model.StoryVerification, error) {
	v := &model.StoryVerification{}
	var nextRetry, processedAt, verifiedAt sql.NullTime
	var lastErr sql.NullString
	var details []byte
	if err := row.Scan(&v.ID, &v.SubmissionID, &v.ExternalMediaID, &v.Status, &v.RetryCount,
		&nextRetry, &lastErr, &details, &processedAt, &verifiedAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return nil, err
	}
	if nextRetry.Valid {
		v.NextRetryAt = &nextRetry.Time
	}
	if lastErr.Valid {
		v.LastError = &lastErr.String
	}
	if details != nil {
		v.Details = json.RawMessage(details)
	}
	if processedAt.Valid {
		v.ProcessedAt = &processedAt.Time
	}
	if verifiedAt.Valid {
		v.VerifiedAt = &verifiedAt.Time
	}
	return v, nil
}

func scanVerificationRow(row *sql.Row) (*model.StoryVerification, error) {
	v, err := scanVerification(row)
	if err == sql.ErrNoRows {
		return nil, repository.ErrVerificationNotFound
	}
	return v, err
}

var _ repository.IStoryVerification = (*StoryVerificationRepository)(nil)

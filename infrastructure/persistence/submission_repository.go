package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"foodcollab/domain/model"
	"foodcollab/domain/repository"
)

// ErrInvalidTransition is returned when a submission status change does not apply,
// e.g. submitting a story for a submission that already left pending.
var ErrInvalidTransition = errors.New("submission status transition not allowed")

type SubmissionRepository struct{ db *sql.DB }

func NewSubmissionRepository(db *sql.DB) *SubmissionRepository { return &SubmissionRepository{db: db} }

func (r *SubmissionRepository) Create(ctx context.Context, sub *model.CollaborationSubmission) error {
	now := time.Now().UTC()
	sub.Status = model.SubmissionStatusPending
	sub.CreatedAt = now
	sub.UpdatedAt = now
	q := `INSERT INTO collaboration_submissions (influencer_id, collaboration_id, status, created_at, updated_at)
		  VALUES ($1,$2,$3,$4,$4) RETURNING id`
	return r.db.QueryRowContext(ctx, q, sub.InfluencerID, sub.CollaborationID, sub.Status, now).Scan(&sub.ID)
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id int64) (*model.CollaborationSubmission, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, influencer_id, collaboration_id, content_url, status, verified_at, created_at, updated_at FROM collaboration_submissions WHERE id=$1`, id)
	return scanSubmission(row)
}

func (r *SubmissionRepository) ListByInfluencer(ctx context.Context, influencerID string) ([]*model.CollaborationSubmission, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, influencer_id, collaboration_id, content_url, status, verified_at, created_at, updated_at FROM collaboration_submissions WHERE influencer_id=$1 ORDER BY created_at DESC`, influencerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*model.CollaborationSubmission
	for rows.Next() {
		sub := &model.CollaborationSubmission{}
		var contentURL sql.NullString
		var verifiedAt sql.NullTime
		if err := rows.Scan(&sub.ID, &sub.InfluencerID, &sub.CollaborationID, &contentURL, &sub.Status, &verifiedAt, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
			return nil, err
		}
		if contentURL.Valid {
			sub.ContentURL = &contentURL.String
		}
		if verifiedAt.Valid {
			sub.VerifiedAt = &verifiedAt.Time
		}
		list = append(list, sub)
	}
	return list, rows.Err()
}

// SubmitStory is the only submitter-driven transition: pending -> pending_verification.
func (r *SubmissionRepository) SubmitStory(ctx context.Context, id int64, influencerID, contentURL string) error {
	q := `UPDATE collaboration_submissions SET content_url=$3, status=$4, updated_at=$5
		  WHERE id=$1 AND influencer_id=$2 AND status=$6`
	res, err := r.db.ExecContext(ctx, q, id, influencerID, contentURL,
		model.SubmissionStatusPendingVerification, time.Now().UTC(), model.SubmissionStatusPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (r *SubmissionRepository) MarkVerified(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`UPDATE collaboration_submissions SET status=$2, verified_at=$3, updated_at=$3 WHERE id=$1 AND status=$4`,
		id, model.SubmissionStatusVerified, now, model.SubmissionStatusPendingVerification)
	return err
}

func (r *SubmissionRepository) MarkRejected(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE collaboration_submissions SET status=$2, updated_at=$3 WHERE id=$1 AND status=$4`,
		id, model.SubmissionStatusRejected, time.Now().UTC(), model.SubmissionStatusPendingVerification)
	return err
}

func scanSubmission(row *sql.Row) (*model.CollaborationSubmission, error) {
	sub := &model.CollaborationSubmission{}
	var contentURL sql.NullString
	var verifiedAt sql.NullTime
	if err := row.Scan(&sub.ID, &sub.InfluencerID, &sub.CollaborationID, &contentURL, &sub.Status, &verifiedAt, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	if contentURL.Valid {
		sub.ContentURL = &contentURL.String
	}
	if verifiedAt.Valid {
		sub.VerifiedAt = &verifiedAt.Time
	}
	return sub, nil
}

var _ repository.ISubmission = (*SubmissionRepository)(nil)

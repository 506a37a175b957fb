package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"foodcollab/domain/model"
)

func TestSubmissionRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubmissionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO collaboration_submissions`)).
		WithArgs("user-1", int64(9), model.SubmissionStatusPending, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))

	sub := &model.CollaborationSubmission{InfluencerID: "user-1", CollaborationID: 9}
	require.NoError(t, repo.Create(context.Background(), sub))
	require.Equal(t, int64(5), sub.ID)
	require.Equal(t, model.SubmissionStatusPending, sub.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_SubmitStory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE collaboration_submissions SET content_url=$3`)).
		WithArgs(int64(5), "user-1", "https://instagram.com/stories/u/1", model.SubmissionStatusPendingVerification, sqlmock.AnyArg(), model.SubmissionStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SubmitStory(context.Background(), 5, "user-1", "https://instagram.com/stories/u/1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

// Submitting twice, or for someone else's submission, touches no row.
func TestSubmissionRepository_SubmitStory_InvalidTransition(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE collaboration_submissions SET content_url=$3`)).
		WithArgs(int64(5), "user-1", "https://instagram.com/stories/u/1", model.SubmissionStatusPendingVerification, sqlmock.AnyArg(), model.SubmissionStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.SubmitStory(context.Background(), 5, "user-1", "https://instagram.com/stories/u/1")
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmissionRepository_MarkVerified(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSubmissionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE collaboration_submissions SET status=$2, verified_at=$3`)).
		WithArgs(int64(5), model.SubmissionStatusVerified, sqlmock.AnyArg(), model.SubmissionStatusPendingVerification).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkVerified(context.Background(), 5))
	require.NoError(t, mock.ExpectationsWereMet())
}

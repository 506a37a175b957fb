package persistence

import (
	"context"
	"database/sql"
	"time"

	"foodcollab/domain/model"
	"foodcollab/domain/repository"

	"github.com/google/uuid"
)

// OAuthStateRepository persists single-use OAuth state tokens.
type OAuthStateRepository struct {
	db     *sql.DB
	maxAge time.Duration
}

func NewOAuthStateRepository(db *sql.DB, maxAge time.Duration) *OAuthStateRepository {
	return &OAuthStateRepository{db: db, maxAge: maxAge}
}

func (r *OAuthStateRepository) Issue(ctx context.Context, userID, redirectPath string) (string, error) {
	token := uuid.NewString()
	q := `INSERT INTO oauth_states (token, user_id, redirect_path, used, created_at)
		  VALUES ($1,$2,$3,false,$4)`
	if _, err := r.db.ExecContext(ctx, q, token, userID, redirectPath, time.Now().UTC()); err != nil {
		return "", err
	}
	return token, nil
}

// Consume is a single check-and-set: a replayed token never matches used=false,
// and expired tokens are rejected the same way.
func (r *OAuthStateRepository) Consume(ctx context.Context, token string) (*model.OAuthState, error) {
	cutoff := time.Now().UTC().Add(-r.maxAge)
	q := `UPDATE oauth_states SET used=true
		  WHERE token=$1 AND used=false AND created_at > $2
		  RETURNING user_id, redirect_path, created_at`
	st := &model.OAuthState{Token: token, Used: true}
	err := r.db.QueryRowContext(ctx, q, token, cutoff).Scan(&st.UserID, &st.RedirectPath, &st.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (r *OAuthStateRepository) PruneExpired(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	res, err := r.db.ExecContext(ctx, `DELETE FROM oauth_states WHERE used=true OR created_at <= $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var _ repository.IOAuthState = (*OAuthStateRepository)(nil)

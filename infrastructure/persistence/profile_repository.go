package persistence

import (
	"context"
	"database/sql"
	"time"

	"foodcollab/domain/model"
	"foodcollab/domain/repository"
)

type ProfileRepository struct{ db *sql.DB }

func NewProfileRepository(db *sql.DB) *ProfileRepository { return &ProfileRepository{db: db} }

func (r *ProfileRepository) UpsertInstagramConnection(ctx context.Context, userID string, conn *model.InstagramConnection) error {
	q := `INSERT INTO profiles (user_id, instagram_connected, instagram_business_id, instagram_username, instagram_access_token, instagram_token_expires_at, instagram_account_type, updated_at)
		  VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		  ON CONFLICT (user_id) DO UPDATE SET
			instagram_connected=EXCLUDED.instagram_connected,
			instagram_business_id=EXCLUDED.instagram_business_id,
			instagram_username=EXCLUDED.instagram_username,
			instagram_access_token=EXCLUDED.instagram_access_token,
			instagram_token_expires_at=EXCLUDED.instagram_token_expires_at,
			instagram_account_type=EXCLUDED.instagram_account_type,
			updated_at=EXCLUDED.updated_at`
	_, err := r.db.ExecContext(ctx, q, userID, conn.Connected, conn.BusinessID, conn.Username,
		conn.AccessToken, conn.TokenExpiresAt, conn.AccountType, time.Now().UTC())
	return err
}

func (r *ProfileRepository) GetInstagramConnection(ctx context.Context, userID string) (*model.InstagramConnection, error) {
	row := r.db.QueryRowContext(ctx, `SELECT instagram_connected, instagram_business_id, instagram_username, instagram_access_token, instagram_token_expires_at, instagram_account_type FROM profiles WHERE user_id=$1`, userID)
	return scanConnection(row)
}

func (r *ProfileRepository) ClearInstagramConnection(ctx context.Context, userID string) error {
	q := `UPDATE profiles SET instagram_connected=false, instagram_access_token=NULL, instagram_token_expires_at=NULL, updated_at=$2 WHERE user_id=$1`
	_, err := r.db.ExecContext(ctx, q, userID, time.Now().UTC())
	return err
}

func (r *ProfileRepository) GetConnectionBySubmission(ctx context.Context, submissionID int64) (*model.InstagramConnection, error) {
	q := `SELECT p.instagram_connected, p.instagram_business_id, p.instagram_username, p.instagram_access_token, p.instagram_token_expires_at, p.instagram_account_type
		  FROM collaboration_submissions s
		  JOIN collaborations c ON c.id = s.collaboration_id
		  JOIN campaigns cp ON cp.id = c.campaign_id
		  JOIN profiles p ON p.user_id = cp.business_id
		  WHERE s.id = $1`
	return scanConnection(r.db.QueryRowContext(ctx, q, submissionID))
}

func scanConnection(row *sql.Row) (*model.InstagramConnection, error) {
	conn := &model.InstagramConnection{}
	var businessID, username, accessToken, accountType sql.NullString
	var expiresAt sql.NullTime
	if err := row.Scan(&conn.Connected, &businessID, &username, &accessToken, &expiresAt, &accountType); err != nil {
		return nil, err
	}
	conn.BusinessID = businessID.String
	conn.Username = username.String
	conn.AccessToken = accessToken.String
	conn.AccountType = accountType.String
	if expiresAt.Valid {
		conn.TokenExpiresAt = &expiresAt.Time
	}
	return conn, nil
}

var _ repository.IProfile = (*ProfileRepository)(nil)

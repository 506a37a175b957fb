package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"foodcollab/domain/model"
)

func TestUserRepository_GetById(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, user_name, password, role, created_at, updated_at FROM users WHERE id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_name", "password", "role", "created_at", "updated_at"}).
			AddRow(1, "Maya Kusuma", "maya.kusuma", "a252f77af72638ea5a0f9e5fbe5f2b2e", "influencer", now, now))

	res, err := repo.GetById(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, model.User{
		ID:        1,
		Name:      "Maya Kusuma",
		UserName:  "maya.kusuma",
		Password:  "a252f77af72638ea5a0f9e5fbe5f2b2e",
		Role:      "influencer",
		CreatedAt: now,
		UpdatedAt: now,
	}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUserName(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, user_name, password, role, created_at, updated_at FROM users WHERE user_name = $1`)).
		WithArgs("warung.sedap").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "user_name", "password", "role", "created_at", "updated_at"}).
			AddRow(2, "Warung Sedap", "warung.sedap", "5f4dcc3b5aa765d61d8327deb882cf99", "business", now, now))

	res, err := repo.GetByUserName(context.Background(), "warung.sedap")
	require.NoError(t, err)
	require.Equal(t, "business", res.Role)
	require.Equal(t, int64(2), res.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO users (name, user_name, password, role, created_at, updated_at)`)).
		WithArgs("Maya Kusuma", "maya.kusuma", "a252f77af72638ea5a0f9e5fbe5f2b2e", "influencer", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = repo.CreateUser(context.Background(), model.User{
		Name:     "Maya Kusuma",
		UserName: "maya.kusuma",
		Password: "a252f77af72638ea5a0f9e5fbe5f2b2e",
		Role:     "influencer",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByUserName_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, user_name, password, role, created_at, updated_at FROM users WHERE user_name = $1`)).
		WithArgs("nobody").
		WillReturnError(fmt.Errorf("connection reset"))

	res, err := repo.GetByUserName(context.Background(), "nobody")
	require.Error(t, err)
	require.Equal(t, model.User{}, res)
	require.NoError(t, mock.ExpectationsWereMet())
}

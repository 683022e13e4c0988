package dbhelper

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/postboard/apiv1/models"
	"github.com/postboard/apiv1/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func newMockGormStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), gormConfig())
	require.NoError(t, err)
	return NewGormStore(db), mock
}

func TestGormStore_FindUserByEmail(t *testing.T) {
	s, mock := newMockGormStore(t)
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE email = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "name", "created_at"}).
			AddRow("u1", "a@example.com", "hash", "A B", created))

	u, err := s.FindUserByEmail(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: "u1", Email: "a@example.com", PasswordHash: "hash", Name: "A B", CreatedAt: created}, u)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_FindUserByEmail_NotFound(t *testing.T) {
	s, mock := newMockGormStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE email = ?")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	_, err := s.FindUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestGormStore_FindUserByEmail_Error(t *testing.T) {
	s, mock := newMockGormStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users`")).WillReturnError(errors.New("boom"))

	_, err := s.FindUserByEmail(context.Background(), "a@example.com")
	require.Error(t, err)
	assert.NotErrorIs(t, err, utils.ErrNotFound)
	assert.Contains(t, err.Error(), "boom")
}

func TestGormStore_CreateUser(t *testing.T) {
	s, mock := newMockGormStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	u, err := s.CreateUser(context.Background(), &models.User{Email: "a@example.com", PasswordHash: "h", Name: "A B"})
	require.NoError(t, err)
	assert.Len(t, u.ID, 36)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStore_CreateUser_Duplicate(t *testing.T) {
	s, mock := newMockGormStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users`")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@example.com' for key 'users.idx_users_email'"})

	_, err := s.CreateUser(context.Background(), &models.User{Email: "a@example.com"})
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestGormStore_Posts(t *testing.T) {
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		s, mock := newMockGormStore(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `posts`")).WillReturnResult(sqlmock.NewResult(0, 1))

		p, err := s.CreatePost(ctx, &models.Post{Title: "t", Creator: "u1", Tags: []string{"x"}})
		require.NoError(t, err)
		assert.NotEmpty(t, p.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("get missing", func(t *testing.T) {
		s, mock := newMockGormStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `posts` WHERE id = ?")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := s.GetPost(ctx, "nope")
		assert.ErrorIs(t, err, utils.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		s, mock := newMockGormStore(t)
		mock.ExpectExec(regexp.QuoteMeta("UPDATE `posts` SET")).WillReturnResult(sqlmock.NewResult(0, 1))

		_, err := s.UpdatePost(ctx, &models.Post{ID: "p1", Title: "new"})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("delete missing", func(t *testing.T) {
		s, mock := newMockGormStore(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `posts` WHERE id = ?")).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, s.DeletePost(ctx, "p1"), utils.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		s, mock := newMockGormStore(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `posts` WHERE id = ?")).WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, s.DeletePost(ctx, "p1"))
	})
}

package services

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/vaultwatch/internal/common"
	"github.com/dmitrijs2005/vaultwatch/internal/cryptox"
	"github.com/dmitrijs2005/vaultwatch/internal/server/config"
	"github.com/dmitrijs2005/vaultwatch/internal/server/models"
	"github.com/dmitrijs2005/vaultwatch/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newUserService(t *testing.T, db *sql.DB, rm repomanager.RepositoryManager) *UserService {
	t.Helper()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return NewUserService(db, rm, cfg)
}

func TestRegister(t *testing.T) {
	db, _ := newSQLMockDB(t)

	t.Run("stores a salted hash under the normalized name", func(t *testing.T) {
		users := &fakeUsersRepo{}
		s := newUserService(t, db, &fakeRepoManager{u: users, r: &fakeRefreshRepo{}})

		u, err := s.Register(context.Background(), "  Alice ", "hunter22")
		require.NoError(t, err)
		assert.Equal(t, "generated", u.ID)
		assert.Equal(t, "alice", users.created.UserName)
		assert.Len(t, users.created.Salt, 16)
		assert.NotContains(t, string(users.created.PasswordHash), "hunter22")
		assert.True(t, cryptox.VerifyPassword("hunter22", users.created.Salt, users.created.PasswordHash))
	})

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "short username", username: "al", password: "hunter22"},
		{name: "long username", username: strings.Repeat("a", 65), password: "hunter22"},
		{name: "blank username", username: "   ", password: "hunter22"},
		{name: "short password", username: "alice", password: "12345"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUsersRepo{}
			s := newUserService(t, db, &fakeRepoManager{u: users, r: &fakeRefreshRepo{}})

			_, err := s.Register(context.Background(), tt.username, tt.password)
			assert.ErrorIs(t, err, common.ErrorValidation)
			assert.Nil(t, users.created)
		})
	}

	t.Run("duplicate", func(t *testing.T) {
		s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{createErr: common.ErrorAlreadyExists}})
		_, err := s.Register(context.Background(), "alice", "hunter22")
		assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	})

	t.Run("db error", func(t *testing.T) {
		s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{createErr: errBoom{}}})
		_, err := s.Register(context.Background(), "alice", "hunter22")
		assert.ErrorContains(t, err, "error creating user: boom")
	})
}

func TestLogin(t *testing.T) {
	db, _ := newSQLMockDB(t)
	salt := []byte("0123456789abcdef")
	stored := &models.User{ID: "u1", UserName: "alice", Salt: salt, PasswordHash: cryptox.HashPassword("right-pass", salt)}

	t.Run("unknown user", func(t *testing.T) {
		s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: common.ErrorNotFound}, r: &fakeRefreshRepo{}})
		_, err := s.Login(context.Background(), "ghost", "x")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("repository failure", func(t *testing.T) {
		s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getErr: errBoom{}}, r: &fakeRefreshRepo{}})
		_, err := s.Login(context.Background(), "alice", "x")
		assert.ErrorIs(t, err, common.ErrorInternal)
	})

	t.Run("wrong password", func(t *testing.T) {
		s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getOut: stored}, r: &fakeRefreshRepo{}})
		_, err := s.Login(context.Background(), "alice", "wrong-pass")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("success", func(t *testing.T) {
		refresh := &fakeRefreshRepo{}
		s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getOut: stored}, r: refresh})

		pair, err := s.Login(context.Background(), "ALICE", "right-pass")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.AccessToken)
		assert.Equal(t, []string{pair.RefreshToken}, refresh.created)
		assert.Len(t, pair.RefreshToken, 64)
		assert.Equal(t, 1, refresh.expiredCalls)

		uid, err := s.Authenticate(pair.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "u1", uid)
	})

	t.Run("refresh token store failure", func(t *testing.T) {
		s := newUserService(t, db, &fakeRepoManager{u: &fakeUsersRepo{getOut: stored}, r: &fakeRefreshRepo{createErr: errBoom{}}})
		_, err := s.Login(context.Background(), "alice", "right-pass")
		assert.ErrorIs(t, err, common.ErrorInternal)
	})
}

func TestRefreshToken_Success(t *testing.T) {
	db, mock := newSQLMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	refresh := &fakeRefreshRepo{
		findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)},
	}
	s := newUserService(t, db, &fakeRepoManager{r: refresh})

	pair, err := s.RefreshToken(context.Background(), "refresh-xyz")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshToken_Failures(t *testing.T) {
	valid := &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(10 * time.Minute)}

	t.Run("expired", func(t *testing.T) {
		db, _ := newSQLMockDB(t)
		s := newUserService(t, db, &fakeRepoManager{r: &fakeRefreshRepo{
			findOut: &models.RefreshToken{UserID: "u1", Expires: time.Now().Add(-time.Minute)},
		}})
		_, err := s.RefreshToken(context.Background(), "r")
		assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
	})

	t.Run("unknown token", func(t *testing.T) {
		db, _ := newSQLMockDB(t)
		s := newUserService(t, db, &fakeRepoManager{r: &fakeRefreshRepo{findErr: common.ErrorNotFound}})
		_, err := s.RefreshToken(context.Background(), "r")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})

	t.Run("find error", func(t *testing.T) {
		db, _ := newSQLMockDB(t)
		s := newUserService(t, db, &fakeRepoManager{r: &fakeRefreshRepo{findErr: errBoom{}}})
		_, err := s.RefreshToken(context.Background(), "r")
		assert.ErrorContains(t, err, "error searching refresh token: boom")
	})

	t.Run("delete error rolls back", func(t *testing.T) {
		db, mock := newSQLMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()
		s := newUserService(t, db, &fakeRepoManager{r: &fakeRefreshRepo{findOut: valid, delErr: errBoom{}}})

		_, err := s.RefreshToken(context.Background(), "r")
		assert.ErrorContains(t, err, "error deleting refresh token: boom")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("create error rolls back", func(t *testing.T) {
		db, mock := newSQLMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()
		s := newUserService(t, db, &fakeRepoManager{r: &fakeRefreshRepo{findOut: valid, createErr: errBoom{}}})

		_, err := s.RefreshToken(context.Background(), "r")
		assert.ErrorIs(t, err, common.ErrorInternal)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuthenticate_Rejects(t *testing.T) {
	db, _ := newSQLMockDB(t)
	s := newUserService(t, db, &fakeRepoManager{})

	_, err := s.Authenticate("garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"conduit/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertAppErrorCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

func TestUserRepository_CreateConflicts(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.User{Email: "jake@jake.jake", Username: "jake", Password: "h"}))

	tests := []struct {
		name      string
		user      models.User
		wantField string
	}{
		{"duplicate email", models.User{Email: "jake@jake.jake", Username: "other", Password: "h"}, "email"},
		{"duplicate username", models.User{Email: "other@jake.jake", Username: "jake", Password: "h"}, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, &tt.user)
			appErr := assertAppErrorCode(t, err, models.CodeConflict)
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestUserRepository_CreateConflict_Postgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "users"`)).
		WillReturnError(&pgconn.PgError{
			Code:           "23505",
			Message:        `duplicate key value violates unique constraint "idx_users_username"`,
			Detail:         "Key (username)=(jake) already exists.",
			ConstraintName: "idx_users_username",
		})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{Email: "j@j.j", Username: "jake", Password: "h"})
	appErr := assertAppErrorCode(t, err, models.CodeConflict)
	assert.Equal(t, "username", appErr.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_Postgres(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 ORDER BY "users"."id" LIMIT $2`)).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "email"}).AddRow(1, "jake", "jake@jake.jake"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1`)).
		WithArgs(2, 1).
		WillReturnError(errors.New("connection timeout"))

	user, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "jake", user.Username)

	_, err = repo.GetByID(ctx, 2)
	assertAppErrorCode(t, err, models.CodeInternal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Lookups(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()
	jake := createUser(t, db, "jake")

	byEmail, err := repo.GetByEmail(ctx, "jake@conduit.test")
	require.NoError(t, err)
	assert.Equal(t, jake.ID, byEmail.ID)

	byName, err := repo.GetByUsername(ctx, "jake")
	require.NoError(t, err)
	assert.Equal(t, jake.ID, byName.ID)

	_, err = repo.GetByUsername(ctx, "nobody")
	assertAppErrorCode(t, err, models.CodeNotFound)
	_, err = repo.GetByID(ctx, 9999)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestUserRepository_GetProfileFollowing(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	jake := createUser(t, db, "jake")
	anna := createUser(t, db, "anna")
	require.NoError(t, repo.Follow(ctx, anna.ID, jake.ID))

	tests := []struct {
		name   string
		viewer uint
		want   bool
	}{
		{"anonymous always false", 0, false},
		{"follower sees true", anna.ID, true},
		{"non-follower sees false", jake.ID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := repo.GetProfile(ctx, "jake", tt.viewer)
			require.NoError(t, err)
			assert.Equal(t, tt.want, profile.Following)
		})
	}

	_, err := repo.GetProfile(ctx, "ghost", anna.ID)
	assertAppErrorCode(t, err, models.CodeNotFound)
}

func TestUserRepository_FollowIsNotIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	jake := createUser(t, db, "jake")
	anna := createUser(t, db, "anna")

	require.NoError(t, repo.Follow(ctx, anna.ID, jake.ID))
	assert.ErrorIs(t, repo.Follow(ctx, anna.ID, jake.ID), models.ErrAlreadyFollowing)

	ids, err := repo.FollowerIDs(ctx, jake.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{anna.ID}, ids)

	require.NoError(t, repo.Unfollow(ctx, anna.ID, jake.ID))
	assert.ErrorIs(t, repo.Unfollow(ctx, anna.ID, jake.ID), models.ErrNotFollowing)

	ids, err = repo.FollowerIDs(ctx, jake.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestUserRepository_Update(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	jake := createUser(t, db, "jake")
	createUser(t, db, "anna")

	updated, err := repo.Update(ctx, jake.ID, map[string]any{"bio": "X"})
	require.NoError(t, err)
	assert.Equal(t, "X", updated.Bio)
	assert.Equal(t, "jake", updated.Username)

	unchanged, err := repo.Update(ctx, jake.ID, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "X", unchanged.Bio)

	_, err = repo.Update(ctx, jake.ID, map[string]any{"username": "anna"})
	appErr := assertAppErrorCode(t, err, models.CodeConflict)
	assert.Equal(t, "username", appErr.Field)

	after, err := repo.GetByID(ctx, jake.ID)
	require.NoError(t, err)
	assert.Equal(t, "jake", after.Username)

	_, err = repo.Update(ctx, 9999, map[string]any{"bio": "Y"})
	assertAppErrorCode(t, err, models.CodeNotFound)
}

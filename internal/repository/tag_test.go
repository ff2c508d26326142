package repository

import (
	"context"
	"testing"
	"time"

	"conduit/internal/cache"
	"conduit/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })
	return mr
}

func TestTagRepository_ListSortedAndEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := NewTagRepository(db, time.Minute)
	ctx := context.Background()

	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)

	jake := createUser(t, db, "jake")
	createArticle(t, db, jake, "Tagged", "zeta", "alpha", "Beta")

	names, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Beta", "alpha", "zeta"}, names)
}

func TestTagRepository_CachedAndInvalidatedOnCreate(t *testing.T) {
	mr := useMiniredis(t)
	db := newTestDB(t)
	repo := NewTagRepository(db, time.Minute)
	ctx := context.Background()

	jake := createUser(t, db, "jake")
	createArticle(t, db, jake, "One", "go")

	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, names)
	assert.True(t, mr.Exists(cache.TagsKey()))

	// A tag written behind the repository's back is hidden by the cache.
	require.NoError(t, db.Create(&models.Tag{Name: "sneaky"}).Error)
	names, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, names)

	// Creating an article drops the cached list.
	createArticle(t, db, jake, "Two", "rust")
	assert.False(t, mr.Exists(cache.TagsKey()))

	names, err = repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go", "rust", "sneaky"}, names)
}

func TestTagRepository_CacheExpires(t *testing.T) {
	mr := useMiniredis(t)
	db := newTestDB(t)
	repo := NewTagRepository(db, 30*time.Second)
	ctx := context.Background()

	_, err := repo.List(ctx)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Tag{Name: "late"}).Error)

	mr.FastForward(31 * time.Second)

	names, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, names)
}

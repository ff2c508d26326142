package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"conduit/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestArticleRepository_CreateWithTags(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()
	jake := createUser(t, db, "jake")

	a := createArticle(t, db, jake, "How to train your dragon", "dragons", "training", "dragons", " ", "Dragons")
	assert.Equal(t, "how-to-train-your-dragon", a.Slug)
	assert.ElementsMatch(t, []string{"Dragons", "dragons", "training"}, a.TagNames())

	// Existing tags are reused, not duplicated.
	createArticle(t, db, jake, "Another", "dragons")
	var tagCount int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(3), tagCount)

	got, err := repo.GetBySlug(ctx, a.Slug, 0)
	require.NoError(t, err)
	assert.Equal(t, "jake", got.Author.Username)
	assert.Equal(t, []string{"Dragons", "dragons", "training"}, got.TagNames())
}

func TestArticleRepository_CreateConflicts(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()
	jake := createUser(t, db, "jake")
	createArticle(t, db, jake, "Hello World")

	tests := []struct {
		name       string
		title      string
		wantFields []string
	}{
		{"same title", "Hello World", []string{"title", "slug"}},
		{"different title same slug", "Hello, World!", []string{"slug"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(ctx, &models.Article{AuthorID: jake.ID, Title: tt.title, Summary: "s", Content: "c"}, []string{"orphan"})
			appErr := assertAppErrorCode(t, err, models.CodeConflict)
			assert.Contains(t, tt.wantFields, appErr.Field)
		})
	}

	// The failed creates rolled back their tag writes too.
	var tagCount int64
	require.NoError(t, db.Model(&models.Tag{}).Where("name = ?", "orphan").Count(&tagCount).Error)
	assert.Zero(t, tagCount)
}

func TestArticleRepository_CreateConflict_PostgresConstraintNameOnly(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewArticleRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "articles"`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_articles_slug"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Article{AuthorID: 1, Title: "T", Summary: "s", Content: "c"}, nil)
	appErr := assertAppErrorCode(t, err, models.CodeConflict)
	assert.Equal(t, "slug", appErr.Field)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArticleRepository_FavoriteTwice(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()
	jake := createUser(t, db, "jake")
	anna := createUser(t, db, "anna")
	a := createArticle(t, db, jake, "Favorite me")

	require.NoError(t, repo.Favorite(ctx, anna.ID, a.ID))
	assert.ErrorIs(t, repo.Favorite(ctx, anna.ID, a.ID), models.ErrAlreadyFavorited)

	got, err := repo.GetBySlug(ctx, a.Slug, anna.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.FavoritesCount)
	assert.True(t, got.Favorited)

	anon, err := repo.GetBySlug(ctx, a.Slug, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), anon.FavoritesCount)
	assert.False(t, anon.Favorited)

	require.NoError(t, repo.Unfavorite(ctx, anna.ID, a.ID))
	assert.ErrorIs(t, repo.Unfavorite(ctx, anna.ID, a.ID), models.ErrNotFavorited)

	got, err = repo.GetBySlug(ctx, a.Slug, anna.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FavoritesCount)
	assert.False(t, got.Favorited)
}

func TestArticleRepository_AuthorFollowing(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()
	jake := createUser(t, db, "jake")
	anna := createUser(t, db, "anna")
	a := createArticle(t, db, jake, "Followed author")
	require.NoError(t, NewUserRepository(db).Follow(ctx, anna.ID, jake.ID))

	got, err := repo.GetBySlug(ctx, a.Slug, anna.ID)
	require.NoError(t, err)
	assert.True(t, got.AuthorFollowing)

	anon, err := repo.GetBySlug(ctx, a.Slug, 0)
	require.NoError(t, err)
	assert.False(t, anon.AuthorFollowing)
}

func TestArticleRepository_ListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	jake := createUser(t, db, "JakeTheDog")
	anna := createUser(t, db, "anna")
	first := createArticle(t, db, jake, "First", "go")
	second := createArticle(t, db, jake, "Second", "rust")
	third := createArticle(t, db, anna, "Third", "go", "Go")
	require.NoError(t, repo.Favorite(ctx, anna.ID, first.ID))

	tests := []struct {
		name      string
		filter    models.ArticleFilter
		wantSlugs []string
	}{
		{"no filter newest first", models.ArticleFilter{Limit: 20}, []string{third.Slug, second.Slug, first.Slug}},
		{"tag exact and case-sensitive", models.ArticleFilter{Tag: "Go", Limit: 20}, []string{third.Slug}},
		{"author substring ignores case", models.ArticleFilter{Author: "thedog", Limit: 20}, []string{second.Slug, first.Slug}},
		{"favorited by", models.ArticleFilter{Favorited: "ANN", Limit: 20}, []string{first.Slug}},
		{"combined", models.ArticleFilter{Tag: "go", Author: "jake", Limit: 20}, []string{first.Slug}},
		{"limit and offset", models.ArticleFilter{Limit: 1, Offset: 1}, []string{second.Slug}},
		{"no match", models.ArticleFilter{Tag: "cobol", Limit: 20}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			articles, total, err := repo.List(ctx, tt.filter, 0)
			require.NoError(t, err)
			slugs := make([]string, 0, len(articles))
			for _, a := range articles {
				slugs = append(slugs, a.Slug)
			}
			assert.Equal(t, tt.wantSlugs, slugs)
			if tt.filter.Offset == 0 {
				assert.Equal(t, int64(len(tt.wantSlugs)), total)
			}
		})
	}
}

func TestArticleRepository_ListFiltersMatchWildcardsLiterally(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()

	jake := createUser(t, db, "jake")
	walker := createUser(t, db, "dog_walker")
	byJake := createArticle(t, db, jake, "By Jake", "go")
	byWalker := createArticle(t, db, walker, "By Walker", "go")
	require.NoError(t, repo.Favorite(ctx, walker.ID, byJake.ID))

	tests := []struct {
		name      string
		filter    models.ArticleFilter
		wantSlugs []string
	}{
		{"percent is literal", models.ArticleFilter{Author: "%", Limit: 20}, []string{}},
		{"underscore is literal", models.ArticleFilter{Author: "_", Limit: 20}, []string{byWalker.Slug}},
		{"underscore does not match any char", models.ArticleFilter{Author: "j_ke", Limit: 20}, []string{}},
		{"backslash is literal", models.ArticleFilter{Author: `\`, Limit: 20}, []string{}},
		{"favorited underscore", models.ArticleFilter{Favorited: "g_w", Limit: 20}, []string{byJake.Slug}},
		{"favorited percent", models.ArticleFilter{Favorited: "%", Limit: 20}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			articles, total, err := repo.List(ctx, tt.filter, 0)
			require.NoError(t, err)
			slugs := make([]string, 0, len(articles))
			for _, a := range articles {
				slugs = append(slugs, a.Slug)
			}
			assert.Equal(t, tt.wantSlugs, slugs)
			assert.Equal(t, int64(len(tt.wantSlugs)), total)
		})
	}
}

func TestArticleRepository_ListQueryCountIsConstant(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()
	viewer := createUser(t, db, "viewer")

	run := func() int {
		n, stop := countQueries(t, db)
		defer stop()
		_, _, err := repo.List(ctx, models.ArticleFilter{Limit: 50}, viewer.ID)
		require.NoError(t, err)
		return *n
	}

	author := createUser(t, db, "author0")
	createArticle(t, db, author, "Only one", "t0")
	small := run()

	for i := 1; i <= 8; i++ {
		u := createUser(t, db, fmt.Sprintf("author%d", i))
		createArticle(t, db, u, fmt.Sprintf("Article %d", i), fmt.Sprintf("t%d", i), "shared")
	}
	large := run()

	assert.Equal(t, small, large)
}

func TestArticleRepository_Feed(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	users := NewUserRepository(db)
	ctx := context.Background()

	viewer := createUser(t, db, "viewer")
	author := createUser(t, db, "author")
	stranger := createUser(t, db, "stranger")
	a1 := createArticle(t, db, author, "Author one")
	createArticle(t, db, stranger, "Stranger one")
	a2 := createArticle(t, db, author, "Author two")

	articles, total, err := repo.Feed(ctx, viewer.ID, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.Zero(t, total)

	require.NoError(t, users.Follow(ctx, viewer.ID, author.ID))

	articles, total, err = repo.Feed(ctx, viewer.ID, 20, 0)
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, a2.Slug, articles[0].Slug)
	assert.Equal(t, a1.Slug, articles[1].Slug)
	assert.True(t, articles[0].AuthorFollowing)
}

func TestArticleRepository_UpdateRetitle(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()
	jake := createUser(t, db, "jake")
	a := createArticle(t, db, jake, "Old Title")
	createArticle(t, db, jake, "Taken")

	a.Retitle("New Title")
	require.NoError(t, repo.Update(ctx, a.ID, map[string]any{"title": a.Title, "slug": a.Slug}))

	_, err := repo.GetBySlug(ctx, "old-title", 0)
	assertAppErrorCode(t, err, models.CodeNotFound)
	got, err := repo.GetBySlug(ctx, "new-title", 0)
	require.NoError(t, err)
	assert.Equal(t, "New Title", got.Title)

	err = repo.Update(ctx, a.ID, map[string]any{"title": "Taken", "slug": "taken"})
	appErr := assertAppErrorCode(t, err, models.CodeConflict)
	assert.Contains(t, []string{"title", "slug"}, appErr.Field)
}

func TestArticleRepository_DeleteCascades(t *testing.T) {
	db := newTestDB(t)
	repo := NewArticleRepository(db)
	ctx := context.Background()
	jake := createUser(t, db, "jake")
	anna := createUser(t, db, "anna")
	a := createArticle(t, db, jake, "Doomed", "tag")
	require.NoError(t, repo.Favorite(ctx, anna.ID, a.ID))
	require.NoError(t, NewCommentRepository(db).Create(ctx, &models.Comment{ArticleID: a.ID, AuthorID: anna.ID, Body: "nice"}))

	require.NoError(t, repo.Delete(ctx, a.ID))

	for _, model := range []any{&models.Favorite{}, &models.ArticleTag{}, &models.Comment{}} {
		var n int64
		require.NoError(t, db.Model(model).Where("article_id = ?", a.ID).Count(&n).Error)
		assert.Zero(t, n)
	}
	_, err := repo.GetBySlug(ctx, a.Slug, 0)
	assertAppErrorCode(t, err, models.CodeNotFound)

	assertAppErrorCode(t, repo.Delete(ctx, a.ID), models.CodeNotFound)
}

func TestArticleDeletedMidWrite_Postgres(t *testing.T) {
	fkErr := &pgconn.PgError{
		Code:           "23503",
		Message:        `insert or update on table violates foreign key constraint`,
		ConstraintName: "fk_article",
	}

	tests := []struct {
		name  string
		table string
		write func(db *gorm.DB) error
	}{
		{"favorite", "favorites", func(db *gorm.DB) error {
			return NewArticleRepository(db).Favorite(context.Background(), 1, 42)
		}},
		{"comment", "comments", func(db *gorm.DB) error {
			return NewCommentRepository(db).Create(context.Background(),
				&models.Comment{ArticleID: 42, AuthorID: 1, Body: "late"})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			mock.ExpectBegin()
			mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "` + tt.table + `"`)).WillReturnError(fkErr)
			mock.ExpectRollback()

			assertAppErrorCode(t, tt.write(db), models.CodeNotFound)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

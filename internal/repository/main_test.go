package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"conduit/internal/config"
	"conduit/internal/database"
	"conduit/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newTestDB returns a fresh in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		Env:                      "test",
		DBDriver:                 "sqlite",
		DBSQLitePath:             ":memory:",
		DBSchemaMode:             "auto",
		DBConnMaxLifetimeMinutes: 60,
	}
	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// setupMockDB returns gorm over the postgres dialector backed by sqlmock.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@conduit.test", Password: "hash"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func createArticle(t *testing.T, db *gorm.DB, author *models.User, title string, tags ...string) *models.Article {
	t.Helper()
	a := &models.Article{AuthorID: author.ID, Title: title, Summary: "summary of " + title, Content: "body of " + title}
	require.NoError(t, NewArticleRepository(db).Create(context.Background(), a, tags))
	return a
}

var queryCounterSeq atomic.Int64

// countQueries counts SELECT statements issued through db until stop is called.
// Each call registers under a fresh name since GORM never reuses a removed one.
func countQueries(t *testing.T, db *gorm.DB) (n *int, stop func()) {
	t.Helper()
	count := 0
	name := fmt.Sprintf("test:count_queries_%d", queryCounterSeq.Add(1))
	require.NoError(t, db.Callback().Query().After("gorm:query").Register(name, func(*gorm.DB) {
		count++
	}))
	var once sync.Once
	stop = func() { once.Do(func() { _ = db.Callback().Query().Remove(name) }) }
	t.Cleanup(stop)
	return &count, stop
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"conduit/internal/auth"
	"conduit/internal/config"
	"conduit/internal/database"
	"conduit/internal/models"
	"conduit/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testSecret       = "service-test-secret-at-least-32-chars"
	testDefaultImage = "https://static.conduit.test/default-avatar.png"
)

func assertAppErrorCode(t *testing.T, err error, code string) *models.AppError {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
	return appErr
}

type published struct {
	userID uint
	event  models.ActivityEvent
}

type recordingPublisher struct {
	mu   sync.Mutex
	sent []published
	err  error
}

func (p *recordingPublisher) PublishUser(_ context.Context, userID uint, payload string) error {
	var ev models.ActivityEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{userID: userID, event: ev})
	return p.err
}

func (p *recordingPublisher) events(eventType string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, s := range p.sent {
		if s.event.Type == eventType {
			out = append(out, s)
		}
	}
	return out
}

// stack wires every service over a fresh sqlite database.
type stack struct {
	db        *gorm.DB
	issuer    *auth.Issuer
	publisher *recordingPublisher
	users     *UserService
	profiles  *ProfileService
	articles  *ArticleService
	comments  *CommentService
	tags      *TagService
}

func newStack(t *testing.T) *stack {
	t.Helper()
	db, err := database.Connect(&config.Config{
		Env:                      "test",
		DBDriver:                 "sqlite",
		DBSQLitePath:             ":memory:",
		DBSchemaMode:             "auto",
		DBConnMaxLifetimeMinutes: 60,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	userRepo := repository.NewUserRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	presenter := NewPresenter(testDefaultImage)
	publisher := &recordingPublisher{}
	issuer := auth.NewIssuer(testSecret, "conduit-api", "conduit-client", time.Hour)

	return &stack{
		db:        db,
		issuer:    issuer,
		publisher: publisher,
		users:     NewUserService(userRepo, NewBcryptHasher(bcrypt.MinCost), issuer, nil, presenter),
		profiles:  NewProfileService(userRepo, presenter, publisher),
		articles:  NewArticleService(articleRepo, userRepo, presenter, publisher),
		comments:  NewCommentService(repository.NewCommentRepository(db), articleRepo, presenter, publisher),
		tags:      NewTagService(repository.NewTagRepository(db, time.Minute)),
	}
}

func strPtr(s string) *string { return &s }

// register creates an account and returns its view and id.
func (s *stack) register(t *testing.T, username string) (*models.UserView, uint) {
	t.Helper()
	view, err := s.users.Register(context.Background(), RegisterInput{
		Email:    username + "@conduit.test",
		Username: username,
		Password: strPtr("password-" + username),
	})
	require.NoError(t, err)
	claims, err := s.issuer.Parse(view.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	return view, id
}

func (s *stack) publish(t *testing.T, authorID uint, title string, tags ...string) *models.ArticleView {
	t.Helper()
	view, err := s.articles.Create(context.Background(), authorID, CreateArticleInput{
		Title:       title,
		Description: "about " + title,
		Body:        "body of " + title,
		TagList:     tags,
	})
	require.NoError(t, err)
	return view
}

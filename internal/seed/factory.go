// Package seed provides helpers to create demo data for development and
// manual testing. It writes through the repositories so slugs, tags and
// uniqueness rules match what the API produces.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"conduit/internal/models"
	"conduit/internal/repository"
	"conduit/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated user.
const DefaultPassword = "password123"

var tagPool = []string{
	"dragons", "training", "golang", "webdev", "databases", "devops",
	"career", "testing", "security", "design", "productivity", "opensource",
}

// Factory builds domain entities and persists them through the repositories.
type Factory struct {
	users    repository.UserRepository
	articles repository.ArticleRepository
	comments repository.CommentRepository
	hasher   service.PasswordHasher
	faker    *gofakeit.Faker
	opts     Options

	// hashed once; bcrypt per user dominates seeding time otherwise
	passwordHash string
	seq          int
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	cost := bcrypt.DefaultCost
	if opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	return &Factory{
		users:    repository.NewUserRepository(db),
		articles: repository.NewArticleRepository(db),
		comments: repository.NewCommentRepository(db),
		hasher:   service.NewBcryptHasher(cost),
		faker:    gofakeit.New(opts.RandSeed),
		opts:     opts,
	}
}

func (f *Factory) defaultHash() (string, error) {
	if f.passwordHash == "" {
		hash, err := f.hasher.Hash(DefaultPassword)
		if err != nil {
			return "", err
		}
		f.passwordHash = hash
	}
	return f.passwordHash, nil
}

func (f *Factory) next() int {
	f.seq++
	return f.seq
}

// BuildUser returns an unsaved user with a unique username and email.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	username := fmt.Sprintf("%s%d", strings.ToLower(f.faker.Username()), f.next())
	image := fmt.Sprintf("https://i.pravatar.cc/150?u=%s", username)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Bio:      f.faker.Sentence(10),
		Image:    &image,
	}
	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser persists a generated user whose password is DefaultPassword
// unless an override sets one.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if user.Password == "" {
		hash, err := f.defaultHash()
		if err != nil {
			return nil, err
		}
		user.Password = hash
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildArticle returns an unsaved article by author with a unique title and
// a creation time spread over the last MaxDays days.
func (f *Factory) BuildArticle(author *models.User, overrides ...func(*models.Article)) *models.Article {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	age := time.Duration(f.faker.IntRange(0, maxDays*24*60)) * time.Minute

	title := strings.TrimSuffix(f.faker.Sentence(f.faker.IntRange(3, 7)), ".")
	article := &models.Article{
		AuthorID:  author.ID,
		Title:     fmt.Sprintf("%s %d", title, f.next()),
		Summary:   f.faker.Sentence(12),
		Content:   f.faker.Paragraph(f.faker.IntRange(2, 5), 4, 10, "\n\n"),
		CreatedAt: time.Now().Add(-age),
	}
	for _, override := range overrides {
		override(article)
	}
	return article
}

// PickTags returns between 0 and 3 distinct tags from the demo pool.
func (f *Factory) PickTags() []string {
	n := f.faker.IntRange(0, 3)
	picked := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for len(picked) < n {
		tag := tagPool[f.faker.IntRange(0, len(tagPool)-1)]
		if !seen[tag] {
			seen[tag] = true
			picked = append(picked, tag)
		}
	}
	return picked
}

// CreateArticle persists a generated article with tags.
func (f *Factory) CreateArticle(ctx context.Context, author *models.User, tags []string, overrides ...func(*models.Article)) (*models.Article, error) {
	article := f.BuildArticle(author, overrides...)
	if err := f.articles.Create(ctx, article, tags); err != nil {
		return nil, err
	}
	return article, nil
}

// CreateComment persists a generated comment on article.
func (f *Factory) CreateComment(ctx context.Context, author *models.User, article *models.Article, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		ArticleID: article.ID,
		AuthorID:  author.ID,
		Body:      f.faker.Sentence(f.faker.IntRange(5, 20)),
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// Follow makes follower follow followee.
func (f *Factory) Follow(ctx context.Context, follower, followee *models.User) error {
	return f.users.Follow(ctx, follower.ID, followee.ID)
}

// Favorite marks article as a favorite of user.
func (f *Factory) Favorite(ctx context.Context, user *models.User, article *models.Article) error {
	return f.articles.Favorite(ctx, user.ID, article.ID)
}

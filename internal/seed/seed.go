package seed

import (
	"context"
	"errors"
	"fmt"

	"conduit/internal/cache"
	"conduit/internal/middleware"
	"conduit/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers    int
	NumArticles int
	ShouldClean bool
	// SkipBcrypt hashes passwords at the minimum bcrypt cost.
	SkipBcrypt bool
	// MaxDays bounds how far back article creation times are spread.
	MaxDays int
	// RandSeed makes generated data reproducible; 0 picks a random seed.
	RandSeed int64
}

// Summary counts what a seeding run created.
type Summary struct {
	Users     int
	Follows   int
	Articles  int
	Favorites int
	Comments  int
}

func (s Summary) String() string {
	return fmt.Sprintf("users=%d follows=%d articles=%d favorites=%d comments=%d",
		s.Users, s.Follows, s.Articles, s.Favorites, s.Comments)
}

// Seeder populates a database with generated or fixture data.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// Factory exposes the underlying entity factory.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// ClearAll deletes every row of the domain tables, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		if err := db.Exec(`TRUNCATE TABLE comments, favorites, article_tags, tags, articles, follows, users RESTART IDENTITY CASCADE`).Error; err != nil {
			return fmt.Errorf("truncate: %w", err)
		}
	} else {
		for _, table := range []string{"comments", "favorites", "article_tags", "tags", "articles", "follows", "users"} {
			if err := db.Exec("DELETE FROM " + table).Error; err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}
	}
	cache.InvalidateTags(ctx)
	return nil
}

// Run generates NumUsers users who follow one another, NumArticles articles
// spread across them, and favorites and comments on those articles.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	middleware.Logger.InfoContext(ctx, "seeding database",
		"users", s.opts.NumUsers, "articles", s.opts.NumArticles, "clean", s.opts.ShouldClean)

	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	summary := &Summary{}
	f := s.factory

	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		user, err := f.CreateUser(ctx)
		if err != nil {
			return summary, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	summary.Users = len(users)
	if len(users) == 0 {
		return summary, nil
	}

	for _, follower := range users {
		for n := f.faker.IntRange(0, min(5, len(users)-1)); n > 0; n-- {
			followee := users[f.faker.IntRange(0, len(users)-1)]
			if followee.ID == follower.ID {
				continue
			}
			err := f.Follow(ctx, follower, followee)
			if errors.Is(err, models.ErrAlreadyFollowing) {
				continue
			}
			if err != nil {
				return summary, fmt.Errorf("follow: %w", err)
			}
			summary.Follows++
		}
	}

	articles := make([]*models.Article, 0, s.opts.NumArticles)
	for i := 0; i < s.opts.NumArticles; i++ {
		author := users[f.faker.IntRange(0, len(users)-1)]
		article, err := f.CreateArticle(ctx, author, f.PickTags())
		if err != nil {
			return summary, fmt.Errorf("create article: %w", err)
		}
		articles = append(articles, article)
	}
	summary.Articles = len(articles)

	for _, article := range articles {
		for n := f.faker.IntRange(0, min(4, len(users))); n > 0; n-- {
			fan := users[f.faker.IntRange(0, len(users)-1)]
			err := f.Favorite(ctx, fan, article)
			if errors.Is(err, models.ErrAlreadyFavorited) {
				continue
			}
			if err != nil {
				return summary, fmt.Errorf("favorite: %w", err)
			}
			summary.Favorites++
		}
		for n := f.faker.IntRange(0, 3); n > 0; n-- {
			commenter := users[f.faker.IntRange(0, len(users)-1)]
			if _, err := f.CreateComment(ctx, commenter, article); err != nil {
				return summary, fmt.Errorf("comment: %w", err)
			}
			summary.Comments++
		}
	}

	middleware.Logger.InfoContext(ctx, "seeding complete", "summary", summary.String())
	return summary, nil
}

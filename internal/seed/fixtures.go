package seed

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"os"

	"conduit/internal/cache"
	"conduit/internal/middleware"
	"conduit/internal/models"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.yml
var fixtureFS embed.FS

// Fixtures is a hand-written data set loaded from YAML.
type Fixtures struct {
	Users    []UserFixture    `yaml:"users"`
	Follows  []FollowFixture  `yaml:"follows"`
	Articles []ArticleFixture `yaml:"articles"`
}

// UserFixture describes one account. An empty password means DefaultPassword.
type UserFixture struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Bio      string `yaml:"bio"`
	Image    string `yaml:"image"`
}

// FollowFixture is a follow edge between two fixture users.
type FollowFixture struct {
	Follower string `yaml:"follower"`
	Followee string `yaml:"followee"`
}

// ArticleFixture describes an article with its favorites and comments.
type ArticleFixture struct {
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Body        string           `yaml:"body"`
	Author      string           `yaml:"author"`
	Tags        []string         `yaml:"tags"`
	FavoritedBy []string         `yaml:"favorited_by"`
	Comments    []CommentFixture `yaml:"comments"`
}

// CommentFixture is a comment on the enclosing article.
type CommentFixture struct {
	Author string `yaml:"author"`
	Body   string `yaml:"body"`
}

// DemoFixtures returns the built-in demo data set.
func DemoFixtures() (*Fixtures, error) {
	data, err := fixtureFS.ReadFile("fixtures/demo.yml")
	if err != nil {
		return nil, err
	}
	return ParseFixtures(data)
}

// LoadFixtures reads and parses a fixtures file.
func LoadFixtures(path string) (*Fixtures, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures decodes YAML fixtures, rejecting unknown keys and
// references to users the document does not define.
func ParseFixtures(data []byte) (*Fixtures, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var fx Fixtures
	if err := dec.Decode(&fx); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	if err := fx.validate(); err != nil {
		return nil, err
	}
	return &fx, nil
}

func (fx *Fixtures) validate() error {
	var errs []error
	users := make(map[string]bool, len(fx.Users))
	for i, u := range fx.Users {
		switch {
		case u.Username == "":
			errs = append(errs, fmt.Errorf("users[%d]: username is required", i))
		case u.Email == "":
			errs = append(errs, fmt.Errorf("users[%d]: email is required", i))
		case users[u.Username]:
			errs = append(errs, fmt.Errorf("users[%d]: duplicate username %q", i, u.Username))
		}
		users[u.Username] = true
	}

	ref := func(where, username string) {
		if !users[username] {
			errs = append(errs, fmt.Errorf("%s: unknown user %q", where, username))
		}
	}
	for i, f := range fx.Follows {
		ref(fmt.Sprintf("follows[%d].follower", i), f.Follower)
		ref(fmt.Sprintf("follows[%d].followee", i), f.Followee)
	}
	for i, a := range fx.Articles {
		if a.Title == "" {
			errs = append(errs, fmt.Errorf("articles[%d]: title is required", i))
		}
		ref(fmt.Sprintf("articles[%d].author", i), a.Author)
		for j, fan := range a.FavoritedBy {
			ref(fmt.Sprintf("articles[%d].favorited_by[%d]", i, j), fan)
		}
		for j, c := range a.Comments {
			ref(fmt.Sprintf("articles[%d].comments[%d].author", i, j), c.Author)
		}
	}
	return errors.Join(errs...)
}

// ApplyFixtures writes fx through the repositories and reports what it created.
func (s *Seeder) ApplyFixtures(ctx context.Context, fx *Fixtures) (*Summary, error) {
	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	f := s.factory
	summary := &Summary{}
	users := make(map[string]*models.User, len(fx.Users))

	for _, uf := range fx.Users {
		var password string
		if uf.Password != "" {
			hash, err := f.hasher.Hash(uf.Password)
			if err != nil {
				return summary, err
			}
			password = hash
		}
		user, err := f.CreateUser(ctx, func(u *models.User) {
			u.Username = uf.Username
			u.Email = uf.Email
			u.Bio = uf.Bio
			u.Password = password
			u.Image = nil
			if uf.Image != "" {
				u.Image = &uf.Image
			}
		})
		if err != nil {
			return summary, fmt.Errorf("create user %s: %w", uf.Username, err)
		}
		users[uf.Username] = user
		summary.Users++
	}

	for _, ff := range fx.Follows {
		if err := f.Follow(ctx, users[ff.Follower], users[ff.Followee]); err != nil {
			if errors.Is(err, models.ErrAlreadyFollowing) {
				continue
			}
			return summary, fmt.Errorf("follow %s -> %s: %w", ff.Follower, ff.Followee, err)
		}
		summary.Follows++
	}

	for _, af := range fx.Articles {
		article, err := f.CreateArticle(ctx, users[af.Author], af.Tags, func(a *models.Article) {
			a.Title = af.Title
			a.Summary = af.Description
			a.Content = af.Body
		})
		if err != nil {
			return summary, fmt.Errorf("create article %q: %w", af.Title, err)
		}
		summary.Articles++

		for _, fan := range af.FavoritedBy {
			if err := f.Favorite(ctx, users[fan], article); err != nil {
				if errors.Is(err, models.ErrAlreadyFavorited) {
					continue
				}
				return summary, fmt.Errorf("favorite %q: %w", af.Title, err)
			}
			summary.Favorites++
		}
		for _, cf := range af.Comments {
			body := cf.Body
			if _, err := f.CreateComment(ctx, users[cf.Author], article, func(c *models.Comment) {
				c.Body = body
			}); err != nil {
				return summary, fmt.Errorf("comment on %q: %w", af.Title, err)
			}
			summary.Comments++
		}
	}

	cache.InvalidateTags(ctx)
	middleware.Logger.InfoContext(ctx, "fixtures applied", "summary", summary.String())
	return summary, nil
}

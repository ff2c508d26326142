package models

import (
	"time"

	"gorm.io/gorm"
)

// Article is an authored, tagged piece of content addressed by its slug.
// Slug is always derived from Title; see Retitle.
type Article struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Title     string    `gorm:"size:255;uniqueIndex;not null" json:"title"`
	Slug      string    `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Summary   string    `gorm:"type:text;not null;default:''" json:"description"`
	Content   string    `gorm:"type:text;not null;default:''" json:"body"`
	Tags      []Tag     `gorm:"many2many:article_tags;" json:"-"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Computed per query for the current viewer.
	FavoritesCount  int64 `gorm:"->;-:migration" json:"favorites_count"`
	Favorited       bool  `gorm:"->;-:migration" json:"favorited"`
	AuthorFollowing bool  `gorm:"->;-:migration" json:"-"`
}

// Retitle sets the title and the slug derived from it.
func (a *Article) Retitle(title string) {
	a.Title = title
	a.Slug = Slugify(title)
}

// BeforeCreate keeps slug and title in lockstep for inserts.
func (a *Article) BeforeCreate(_ *gorm.DB) error {
	a.Slug = Slugify(a.Title)
	return nil
}

// TagNames returns the names of the loaded tags.
func (a *Article) TagNames() []string {
	names := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		names = append(names, t.Name)
	}
	return names
}

// Tag is a case-sensitive free-text label.
type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;uniqueIndex;not null" json:"name"`
}

// ArticleTag is the join row between articles and tags.
type ArticleTag struct {
	ArticleID uint `gorm:"primaryKey;autoIncrement:false"`
	TagID     uint `gorm:"primaryKey;autoIncrement:false;index"`
}

// TableName specifies the table name for GORM
func (ArticleTag) TableName() string {
	return "article_tags"
}

// Favorite records that a user favorited an article.
// The combination of UserID and ArticleID must be unique.
type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorites_user_article" json:"user_id"`
	ArticleID uint      `gorm:"not null;uniqueIndex:idx_favorites_user_article;index" json:"article_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is immutable once created and removed with its article.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ArticleID uint      `gorm:"not null;index" json:"article_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AuthorFollowing bool `gorm:"->;-:migration" json:"-"`
}

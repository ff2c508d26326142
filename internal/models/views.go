package models

import "time"

// ProfileView is a user as seen by a viewer.
type ProfileView struct {
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	Image     string  `json:"image"`
	Following bool    `json:"following"`
}

// UserView is the authenticated user's own account.
type UserView struct {
	Email    string  `json:"email"`
	Token    string  `json:"token,omitempty"`
	Username string  `json:"username"`
	Bio      *string `json:"bio"`
	Image    string  `json:"image"`
}

// ArticleView is an article as seen by a viewer.
type ArticleView struct {
	Slug           string      `json:"slug"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Body           string      `json:"body"`
	TagList        []string    `json:"tagList"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
	Favorited      bool        `json:"favorited"`
	FavoritesCount int64       `json:"favoritesCount"`
	Author         ProfileView `json:"author"`
}

// CommentView is a comment as seen by a viewer.
type CommentView struct {
	ID        uint        `json:"id"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
	Body      string      `json:"body"`
	Author    ProfileView `json:"author"`
}

// ArticleFilter narrows an article listing. Empty strings do not filter.
type ArticleFilter struct {
	Tag       string
	Author    string
	Favorited string
	Limit     int
	Offset    int
}

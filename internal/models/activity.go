package models

import "time"

// Realtime activity event types.
const (
	EventArticlePublished = "article.published"
	EventProfileFollowed  = "profile.followed"
	EventArticleFavorited = "article.favorited"
	EventCommentAdded     = "comment.added"
)

// ActivityEvent is pushed to a user's realtime channel.
type ActivityEvent struct {
	Type    string    `json:"type"`
	Actor   string    `json:"actor"`
	Article string    `json:"article,omitempty"`
	At      time.Time `json:"at"`
}

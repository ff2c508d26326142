package models

import (
	"time"
)

// Follow is a directed edge: Follower follows Followee.
// A pair appears at most once and a user never follows itself.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follows_pair" json:"follower_id"`
	FolloweeID uint      `gorm:"not null;uniqueIndex:idx_follows_pair;index:idx_follows_followee;check:chk_follows_not_self,follower_id <> followee_id" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`

	Follower User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Followee User `gorm:"foreignKey:FolloweeID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

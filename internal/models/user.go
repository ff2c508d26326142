// Package models contains data structures for the application's domain models.
package models

import (
	"strings"
	"time"
)

// UnusablePasswordPrefix marks a credential that can never verify.
const UnusablePasswordPrefix = "!"

// User represents an account. Users are never hard-deleted.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:254;uniqueIndex;not null" json:"email"`
	Username  string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Bio       string    `gorm:"type:text;not null;default:''" json:"bio"`
	Image     *string   `gorm:"size:500" json:"image"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Following is computed per query for the current viewer.
	Following bool `gorm:"->;-:migration" json:"following"`
}

// HasUsablePassword reports whether the stored credential can ever verify.
func (u *User) HasUsablePassword() bool {
	return u.Password != "" && !strings.HasPrefix(u.Password, UnusablePasswordPrefix)
}

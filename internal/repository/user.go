// Package repository implements the data access layer for the application.
package repository

import (
	"context"

	"conduit/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users and follow edges.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetProfile(ctx context.Context, username string, viewerID uint) (*models.User, error)
	Update(ctx context.Context, id uint, updates map[string]any) (*models.User, error)
	Follow(ctx context.Context, followerID, followeeID uint) error
	Unfollow(ctx context.Context, followerID, followeeID uint) error
	FollowerIDs(ctx context.Context, userID uint) ([]uint, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts user. A unique violation yields Conflict naming email or username.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translateWriteError(r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateReadError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, translateReadError(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateReadError(err, "User", username)
	}
	return &user, nil
}

// GetProfile loads a user with Following computed for viewerID in the same query.
func (r *userRepository) GetProfile(ctx context.Context, username string, viewerID uint) (*models.User, error) {
	var user models.User
	err := applyFollowing(readDB(r.db).WithContext(ctx), viewerID).
		Where("users.username = ?", username).
		First(&user).Error
	if err != nil {
		return nil, translateReadError(err, "User", username)
	}
	return &user, nil
}

// applyFollowing selects users.* plus a viewer-relative "following" column.
// Anonymous viewers get a constant false without touching the follows table.
func applyFollowing(db *gorm.DB, viewerID uint) *gorm.DB {
	if viewerID == 0 {
		return db.Model(&models.User{}).Select("users.*, false AS following")
	}
	return db.Model(&models.User{}).Select(
		"users.*, EXISTS(SELECT 1 FROM follows WHERE follows.followee_id = users.id AND follows.follower_id = ?) AS following",
		viewerID,
	)
}

// Update writes exactly the given columns and returns the refreshed row.
// Both happen in one transaction; an empty map only re-reads.
func (r *userRepository) Update(ctx context.Context, id uint, updates map[string]any) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			result := tx.Model(&models.User{}).Where("id = ?", id).Updates(updates)
			if result.Error != nil {
				return translateWriteError(result.Error)
			}
			if result.RowsAffected == 0 {
				return models.NewNotFoundError("User", id)
			}
		}
		if err := tx.First(&user, id).Error; err != nil {
			return translateReadError(err, "User", id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Follow inserts the edge. An existing edge, including one inserted by a
// concurrent request, yields ErrAlreadyFollowing.
func (r *userRepository) Follow(ctx context.Context, followerID, followeeID uint) error {
	err := r.db.WithContext(ctx).Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID}).Error
	if err == nil {
		return nil
	}
	if _, dup := uniqueViolation(err); dup {
		return models.ErrAlreadyFollowing
	}
	return models.NewInternalError(err)
}

// Unfollow removes the edge, or returns ErrNotFollowing when there was none.
func (r *userRepository) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFollowing
	}
	return nil
}

func (r *userRepository) FollowerIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("followee_id = ?", userID).
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

package service

import (
	"context"

	"conduit/internal/models"
	"conduit/internal/repository"
)

type ProfileService struct {
	users     repository.UserRepository
	presenter Presenter
	activity  activity
}

func NewProfileService(users repository.UserRepository, presenter Presenter, publisher ActivityPublisher) *ProfileService {
	return &ProfileService{users: users, presenter: presenter, activity: activity{publisher: publisher}}
}

// Get returns the profile as seen by viewerID (0 for anonymous).
func (s *ProfileService) Get(ctx context.Context, viewerID uint, username string) (*models.ProfileView, error) {
	user, err := s.users.GetProfile(ctx, username, viewerID)
	if err != nil {
		return nil, err
	}
	view := s.presenter.Profile(user, user.Following)
	return &view, nil
}

// Follow adds the edge viewerID -> username.
func (s *ProfileService) Follow(ctx context.Context, viewerID uint, username string) (*models.ProfileView, error) {
	target, err := s.target(ctx, viewerID, username)
	if err != nil {
		return nil, err
	}
	if err := s.users.Follow(ctx, viewerID, target.ID); err != nil {
		return nil, err
	}

	event := models.ActivityEvent{Type: models.EventProfileFollowed}
	if s.activity.enabled() {
		if viewer, err := s.users.GetByID(ctx, viewerID); err == nil {
			event.Actor = viewer.Username
		}
	}
	s.activity.emit(ctx, event, target.ID)

	view := s.presenter.Profile(target, true)
	return &view, nil
}

// Unfollow removes the edge viewerID -> username.
func (s *ProfileService) Unfollow(ctx context.Context, viewerID uint, username string) (*models.ProfileView, error) {
	target, err := s.target(ctx, viewerID, username)
	if err != nil {
		return nil, err
	}
	if err := s.users.Unfollow(ctx, viewerID, target.ID); err != nil {
		return nil, err
	}
	view := s.presenter.Profile(target, false)
	return &view, nil
}

func (s *ProfileService) target(ctx context.Context, viewerID uint, username string) (*models.User, error) {
	target, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if target.ID == viewerID {
		return nil, models.ErrSelfFollow
	}
	return target, nil
}

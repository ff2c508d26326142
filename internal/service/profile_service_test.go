package service

import (
	"context"
	"testing"

	"conduit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileService_Follow(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	_, jakeID := s.register(t, "jake")
	_, annaID := s.register(t, "anna")

	_, err := s.profiles.Follow(ctx, jakeID, "jake")
	assert.ErrorIs(t, err, models.ErrSelfFollow)
	_, err = s.profiles.Unfollow(ctx, jakeID, "jake")
	assert.ErrorIs(t, err, models.ErrSelfFollow)

	_, err = s.profiles.Follow(ctx, jakeID, "ghost")
	assertAppErrorCode(t, err, models.CodeNotFound)

	_, err = s.profiles.Unfollow(ctx, annaID, "jake")
	assert.ErrorIs(t, err, models.ErrNotFollowing)

	view, err := s.profiles.Follow(ctx, annaID, "jake")
	require.NoError(t, err)
	assert.True(t, view.Following)
	assert.Equal(t, "jake", view.Username)

	_, err = s.profiles.Follow(ctx, annaID, "jake")
	assert.ErrorIs(t, err, models.ErrAlreadyFollowing)

	events := s.publisher.events(models.EventProfileFollowed)
	require.Len(t, events, 1)
	assert.Equal(t, jakeID, events[0].userID)
	assert.Equal(t, "anna", events[0].event.Actor)

	view, err = s.profiles.Unfollow(ctx, annaID, "jake")
	require.NoError(t, err)
	assert.False(t, view.Following)

	var edges int64
	require.NoError(t, s.db.Model(&models.Follow{}).Count(&edges).Error)
	assert.Zero(t, edges)
}

func TestProfileService_GetIsViewerRelative(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	_, jakeID := s.register(t, "jake")
	_, annaID := s.register(t, "anna")
	_, err := s.profiles.Follow(ctx, annaID, "jake")
	require.NoError(t, err)

	tests := []struct {
		name   string
		viewer uint
		want   bool
	}{
		{"anonymous", 0, false},
		{"follower", annaID, true},
		{"self", jakeID, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := s.profiles.Get(ctx, tt.viewer, "jake")
			require.NoError(t, err)
			assert.Equal(t, tt.want, view.Following)
			assert.Equal(t, testDefaultImage, view.Image)
			assert.Nil(t, view.Bio)
		})
	}

	_, err = s.profiles.Get(ctx, 0, "ghost")
	assertAppErrorCode(t, err, models.CodeNotFound)
}

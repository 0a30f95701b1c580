package service

import (
	"context"
	"testing"

	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/notifications"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollow_SelfIsValidationError(t *testing.T) {
	t.Parallel()
	follows := noopFollowRepo()
	follows.followFn = func(context.Context, uint, uint) error {
		t.Fatal("self follow must not reach the store")
		return nil
	}
	svc := NewFollowService(follows, noopUserRepo(), nil)

	assertAppError(t, svc.Follow(context.Background(), 3, 3), models.CodeValidation)
	assertAppError(t, svc.Unfollow(context.Background(), 3, 3), models.CodeValidation)
}

func TestFollow_PublishesAndPropagatesConflict(t *testing.T) {
	t.Parallel()
	follows := noopFollowRepo()
	edges := map[[2]uint]bool{}
	follows.followFn = func(_ context.Context, a, b uint) error {
		if edges[[2]uint{a, b}] {
			return models.NewConflictError("already following")
		}
		edges[[2]uint{a, b}] = true
		return nil
	}
	pub := &recordingPublisher{}
	svc := NewFollowService(follows, noopUserRepo(), pub)

	require.NoError(t, svc.Follow(context.Background(), 1, 2))
	assertAppError(t, svc.Follow(context.Background(), 1, 2), models.CodeConflict)

	events := pub.published()
	require.Len(t, events, 1)
	assert.Equal(t, uint(2), events[0].userID)
	assert.Equal(t, notifications.EventFollowNew, events[0].event.Type)
}

func TestFollow_PublishFailureIsIgnored(t *testing.T) {
	t.Parallel()
	svc := NewFollowService(noopFollowRepo(), noopUserRepo(), &recordingPublisher{err: assert.AnError})
	assert.NoError(t, svc.Follow(context.Background(), 1, 2))
}

func TestListFollowers_UnknownUser(t *testing.T) {
	t.Parallel()
	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return nil, models.NewNotFoundError("User", id)
	}
	svc := NewFollowService(noopFollowRepo(), users, nil)

	_, err := svc.ListFollowers(context.Background(), 9, 10, 0)
	assertAppError(t, err, models.CodeNotFound)
	_, err = svc.ListFollowing(context.Background(), 9, 10, 0)
	assertAppError(t, err, models.CodeNotFound)
}

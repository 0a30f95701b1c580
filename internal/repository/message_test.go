package repository

import (
	"context"
	"testing"

	"github.com/00xu00/blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRepository_MarkReadOnlyByReceiver(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	a := createUser(t, db, "alice")
	b := createUser(t, db, "bob")
	msg := &models.Message{SenderID: a.ID, ReceiverID: b.ID, Content: "hi bob"}
	require.NoError(t, repo.Create(ctx, msg))

	n, err := repo.UnreadCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.MarkRead(ctx, msg.ID, a.ID)
	assert.True(t, models.IsCode(err, models.CodeNotFound))

	read, err := repo.MarkRead(ctx, msg.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	n, err = repo.UnreadCount(ctx, b.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMessageRepository_ConversationOrdering(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMessageRepository(db)
	ctx := context.Background()

	a := createUser(t, db, "alice")
	b := createUser(t, db, "bob")
	c := createUser(t, db, "carol")
	for _, m := range []*models.Message{
		{SenderID: a.ID, ReceiverID: b.ID, Content: "1"},
		{SenderID: b.ID, ReceiverID: a.ID, Content: "2"},
		{SenderID: c.ID, ReceiverID: a.ID, Content: "other"},
	} {
		require.NoError(t, repo.Create(ctx, m))
	}

	conv, err := repo.Conversation(ctx, a.ID, b.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, conv, 2)
	assert.Equal(t, "1", conv[0].Content)
	assert.Equal(t, "2", conv[1].Content)

	all, err := repo.ListForUser(ctx, a.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "other", all[0].Content)
}

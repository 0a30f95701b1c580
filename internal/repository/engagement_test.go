package repository

import (
	"context"
	"testing"

	"github.com/00xu00/blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngagementRepository_LikeCounterMatchesRows(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	post := createPost(t, db, author, "p1")
	readers := []*models.User{createUser(t, db, "r1"), createUser(t, db, "r2"), createUser(t, db, "r3")}

	for _, u := range readers {
		require.NoError(t, repo.Like(ctx, u.ID, post.ID))
	}
	require.NoError(t, repo.Unlike(ctx, readers[1].ID, post.ID))

	rows := countRows(t, db, &models.Like{}, "post_id = ?", post.ID)
	assert.Equal(t, int64(2), rows)
	assert.Equal(t, int(rows), reloadPost(t, db, post.ID).LikesCount)
}

func TestEngagementRepository_DuplicateLikeIsConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	post := createPost(t, db, author, "p1")

	require.NoError(t, repo.Like(ctx, author.ID, post.ID))
	err := repo.Like(ctx, author.ID, post.ID)

	assert.True(t, models.IsCode(err, models.CodeConflict), "got %v", err)
	assert.Equal(t, 1, reloadPost(t, db, post.ID).LikesCount)
}

func TestEngagementRepository_UnlikeWithoutLikeIsConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	author := createUser(t, db, "author")
	post := createPost(t, db, author, "p1")

	err := repo.Unlike(ctx, author.ID, post.ID)

	assert.True(t, models.IsCode(err, models.CodeConflict))
	assert.Equal(t, 0, reloadPost(t, db, post.ID).LikesCount)
}

func TestEngagementRepository_LikeMissingPostIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEngagementRepository(db)

	u := createUser(t, db, "u")
	err := repo.Like(context.Background(), u.ID, 999)

	assert.True(t, models.IsCode(err, models.CodeNotFound))
	assert.Zero(t, countRows(t, db, &models.Like{}, "user_id = ?", u.ID))
}

func TestEngagementRepository_FavoritesAndLookups(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "u")
	p1 := createPost(t, db, u, "p1")
	p2 := createPost(t, db, u, "p2")
	p3 := createPost(t, db, u, "p3")

	require.NoError(t, repo.Favorite(ctx, u.ID, p1.ID))
	require.NoError(t, repo.Favorite(ctx, u.ID, p3.ID))
	require.NoError(t, repo.Like(ctx, u.ID, p2.ID))

	err := repo.Favorite(ctx, u.ID, p1.ID)
	assert.True(t, models.IsCode(err, models.CodeConflict))

	favs, err := repo.FavoritedPostIDs(ctx, u.ID, []uint{p1.ID, p2.ID, p3.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{p1.ID, p3.ID}, favs)

	liked, err := repo.LikedPostIDs(ctx, u.ID, []uint{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{p2.ID}, liked)

	anon, err := repo.LikedPostIDs(ctx, 0, []uint{p2.ID})
	require.NoError(t, err)
	assert.Empty(t, anon)

	require.NoError(t, repo.Unfavorite(ctx, u.ID, p3.ID))
	assert.Equal(t, 0, reloadPost(t, db, p3.ID).FavoritesCount)
	assert.Equal(t, 1, reloadPost(t, db, p1.ID).FavoritesCount)

	err = repo.Unfavorite(ctx, u.ID, p3.ID)
	assert.True(t, models.IsCode(err, models.CodeConflict))
	assert.Equal(t, 0, reloadPost(t, db, p3.ID).FavoritesCount)
}

func TestEngagementRepository_CommentLikes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEngagementRepository(db)
	ctx := context.Background()

	u := createUser(t, db, "u")
	p := createPost(t, db, u, "p")
	c := &models.Comment{PostID: p.ID, UserID: u.ID, Content: "hi"}
	require.NoError(t, db.Create(c).Error)

	require.NoError(t, repo.LikeComment(ctx, u.ID, c.ID))
	assert.True(t, models.IsCode(repo.LikeComment(ctx, u.ID, c.ID), models.CodeConflict))

	var got models.Comment
	require.NoError(t, db.First(&got, c.ID).Error)
	assert.Equal(t, 1, got.LikesCount)

	ids, err := repo.LikedCommentIDs(ctx, u.ID, []uint{c.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint{c.ID}, ids)

	require.NoError(t, repo.UnlikeComment(ctx, u.ID, c.ID))
	assert.True(t, models.IsCode(repo.UnlikeComment(ctx, u.ID, c.ID), models.CodeConflict))
	require.NoError(t, db.First(&got, c.ID).Error)
	assert.Equal(t, 0, got.LikesCount)

	assert.True(t, models.IsCode(repo.LikeComment(ctx, u.ID, 404), models.CodeNotFound))
}

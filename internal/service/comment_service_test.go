package service

import (
	"context"
	"testing"
	"time"

	"github.com/00xu00/blog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uintPtr(v uint) *uint { return &v }

func comment(id uint, parent *uint, at time.Time) *models.Comment {
	return &models.Comment{ID: id, PostID: 1, ParentID: parent, CreatedAt: at}
}

func TestAssembleTree_NestsChainAndOrdersSiblings(t *testing.T) {
	t.Parallel()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	c1 := comment(1, nil, base)
	c2 := comment(2, uintPtr(1), base.Add(time.Minute))
	c3 := comment(3, uintPtr(2), base.Add(2*time.Minute))
	// Later sibling of c2 listed first to check ordering.
	c4 := comment(4, uintPtr(1), base.Add(3*time.Minute))
	orphan := comment(5, uintPtr(99), base)

	tree := assembleTree([]*models.Comment{c1}, []*models.Comment{c4, c3, c2, orphan}, map[uint]struct{}{3: {}})

	require.Len(t, tree, 1)
	root := tree[0]
	require.Len(t, root.Replies, 2)
	assert.Equal(t, uint(2), root.Replies[0].ID)
	assert.Equal(t, uint(4), root.Replies[1].ID)
	require.Len(t, root.Replies[0].Replies, 1)
	assert.Equal(t, uint(3), root.Replies[0].Replies[0].ID)
	assert.True(t, root.Replies[0].Replies[0].IsLiked)
	assert.False(t, root.IsLiked)
	assert.NotNil(t, root.Replies[1].Replies, "leaves carry an empty reply list")
	assert.Empty(t, root.Replies[1].Replies)
}

func TestListComments_BuildsTreeWithViewerLikes(t *testing.T) {
	t.Parallel()
	base := time.Now()
	comments := noopCommentRepo()
	comments.listTopLevelFn = func(_ context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
		assert.Equal(t, 20, limit)
		assert.Equal(t, 0, offset)
		return []*models.Comment{comment(1, nil, base), comment(10, nil, base.Add(time.Second))}, nil
	}
	comments.listDescendantsFn = func(_ context.Context, roots []uint) ([]*models.Comment, error) {
		assert.ElementsMatch(t, []uint{1, 10}, roots)
		return []*models.Comment{comment(2, uintPtr(1), base), comment(3, uintPtr(2), base)}, nil
	}
	engagement := noopEngagementRepo()
	var asked []uint
	engagement.likedCommentsFn = func(_ context.Context, userID uint, ids []uint) ([]uint, error) {
		asked = ids
		return []uint{2}, nil
	}
	svc := NewCommentService(comments, noopPostRepo(), engagement)

	tree, err := svc.ListComments(context.Background(), 1, 20, 0, 7)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.ElementsMatch(t, []uint{1, 10, 2, 3}, asked, "one like lookup covers every node")
	assert.True(t, tree[0].Replies[0].IsLiked)
	assert.Equal(t, uint(3), tree[0].Replies[0].Replies[0].ID)
	assert.Empty(t, tree[1].Replies)
}

func TestListComments_AnonymousSkipsLikeLookup(t *testing.T) {
	t.Parallel()
	comments := noopCommentRepo()
	comments.listTopLevelFn = func(context.Context, uint, int, int) ([]*models.Comment, error) {
		return []*models.Comment{comment(1, nil, time.Now())}, nil
	}
	engagement := noopEngagementRepo()
	engagement.likedCommentsFn = func(context.Context, uint, []uint) ([]uint, error) {
		t.Fatal("anonymous viewers have no likes to load")
		return nil, nil
	}
	svc := NewCommentService(comments, noopPostRepo(), engagement)

	tree, err := svc.ListComments(context.Background(), 1, 20, 0, 0)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.False(t, tree[0].IsLiked)
}

func TestListReplies(t *testing.T) {
	t.Parallel()
	base := time.Now()
	comments := noopCommentRepo()
	comments.listDescendantsFn = func(_ context.Context, roots []uint) ([]*models.Comment, error) {
		if roots[0] != 1 {
			return nil, nil
		}
		return []*models.Comment{comment(2, uintPtr(1), base), comment(3, uintPtr(2), base)}, nil
	}
	svc := NewCommentService(comments, noopPostRepo(), noopEngagementRepo())

	replies, err := svc.ListReplies(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, uint(2), replies[0].ID)
	require.Len(t, replies[0].Replies, 1)
	assert.Equal(t, uint(3), replies[0].Replies[0].ID)

	none, err := svc.ListReplies(context.Background(), 404, 0)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestCreateComment(t *testing.T) {
	t.Parallel()
	comments := noopCommentRepo()
	comments.getByIDFn = func(_ context.Context, id uint) (*models.Comment, error) {
		switch id {
		case 1:
			return &models.Comment{ID: 1, PostID: 1}, nil
		case 2:
			return &models.Comment{ID: 2, PostID: 2}, nil
		}
		return nil, models.NewNotFoundError("Comment", id)
	}
	var stored *models.Comment
	comments.createFn = func(_ context.Context, c *models.Comment) error {
		c.ID = 50
		stored = c
		return nil
	}
	svc := NewCommentService(comments, noopPostRepo(), noopEngagementRepo())
	ctx := context.Background()

	created, err := svc.CreateComment(ctx, CreateCommentInput{UserID: 3, PostID: 1, ParentID: uintPtr(1), Content: "  nice  "})
	require.NoError(t, err)
	assert.Equal(t, uint(50), created.ID)
	assert.Equal(t, "nice", stored.Content)

	_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: 3, PostID: 1, ParentID: uintPtr(2), Content: "x"})
	assertAppError(t, err, models.CodeValidation)

	_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: 3, PostID: 1, ParentID: uintPtr(9), Content: "x"})
	assertAppError(t, err, models.CodeNotFound)

	_, err = svc.CreateComment(ctx, CreateCommentInput{UserID: 3, PostID: 1, Content: "   "})
	assertAppError(t, err, models.CodeValidation)
}

func TestCreateComment_DraftPostHiddenFromOthers(t *testing.T) {
	t.Parallel()
	posts := noopPostRepo()
	posts.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, AuthorID: 1, Status: models.PostStatusDraft}, nil
	}
	svc := NewCommentService(noopCommentRepo(), posts, noopEngagementRepo())

	_, err := svc.CreateComment(context.Background(), CreateCommentInput{UserID: 2, PostID: 4, Content: "hi"})
	assertAppError(t, err, models.CodeNotFound)
}

func TestUpdateComment_Validation(t *testing.T) {
	t.Parallel()
	svc := NewCommentService(noopCommentRepo(), noopPostRepo(), noopEngagementRepo())

	_, err := svc.UpdateComment(context.Background(), 1, 1, " ")
	assertAppError(t, err, models.CodeValidation)

	c, err := svc.UpdateComment(context.Background(), 1, 1, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", c.Content)
}

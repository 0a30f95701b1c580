package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/repository"
	"github.com/00xu00/blog/internal/validation"
)

type CommentService struct {
	commentRepo    repository.CommentRepository
	postRepo       repository.PostRepository
	engagementRepo repository.EngagementRepository
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint   `json:"post_id" validate:"required"`
	ParentID *uint  `json:"parent_id"`
	Content  string `json:"content" validate:"required,max=2000"`
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	engagementRepo repository.EngagementRepository,
) *CommentService {
	return &CommentService{
		commentRepo:    commentRepo,
		postRepo:       postRepo,
		engagementRepo: engagementRepo,
	}
}

// ListComments returns a page of top-level comments of a post with their
// full reply trees.
func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int, viewerID uint) ([]*models.Comment, error) {
	roots, err := s.commentRepo.ListTopLevel(ctx, postID, limit, offset)
	if err != nil {
		return nil, err
	}
	if len(roots) == 0 {
		return []*models.Comment{}, nil
	}
	below, err := s.commentRepo.ListDescendants(ctx, commentIDs(roots))
	if err != nil {
		return nil, err
	}
	liked, err := s.likedSet(ctx, viewerID, roots, below)
	if err != nil {
		return nil, err
	}
	return assembleTree(roots, below, liked), nil
}

// ListReplies returns the tree below commentID. An unknown comment has no
// replies.
func (s *CommentService) ListReplies(ctx context.Context, commentID, viewerID uint) ([]*models.Comment, error) {
	below, err := s.commentRepo.ListDescendants(ctx, []uint{commentID})
	if err != nil {
		return nil, err
	}
	var direct []*models.Comment
	for _, c := range below {
		if c.ParentID != nil && *c.ParentID == commentID {
			direct = append(direct, c)
		}
	}
	if len(direct) == 0 {
		return []*models.Comment{}, nil
	}
	liked, err := s.likedSet(ctx, viewerID, below)
	if err != nil {
		return nil, err
	}
	return assembleTree(direct, below, liked), nil
}

func (s *CommentService) likedSet(ctx context.Context, viewerID uint, groups ...[]*models.Comment) (map[uint]struct{}, error) {
	if viewerID == 0 {
		return nil, nil
	}
	ids, err := s.engagementRepo.LikedCommentIDs(ctx, viewerID, commentIDs(groups...))
	if err != nil {
		return nil, fmt.Errorf("load liked comments: %w", err)
	}
	return idSet(ids), nil
}

// CreateComment adds a comment to a visible post. A parent must belong to
// the same post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if verr := validation.Struct(in); verr != nil {
		return nil, verr
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if !post.IsPublished() && post.AuthorID != in.UserID {
		return nil, models.NewNotFoundError("Post", in.PostID)
	}

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewValidationError("parent comment belongs to a different post")
		}
	}

	comment := &models.Comment{
		PostID:   in.PostID,
		UserID:   in.UserID,
		ParentID: in.ParentID,
		Content:  in.Content,
		Replies:  []*models.Comment{},
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, userID, commentID uint, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("content is required")
	}
	if len([]rune(content)) > 2000 {
		return nil, models.NewValidationError("content must be at most 2000 characters")
	}
	comment, err := s.commentRepo.UpdateContent(ctx, commentID, userID, content)
	if err != nil {
		return nil, err
	}
	comment.Replies = []*models.Comment{}
	return comment, nil
}

// DeleteComment removes the comment and everything below it, returning
// how many comments were removed.
func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) (int, error) {
	return s.commentRepo.DeleteSubtree(ctx, commentID, userID)
}

func (s *CommentService) LikeComment(ctx context.Context, userID, commentID uint) error {
	return s.engagementRepo.LikeComment(ctx, userID, commentID)
}

func (s *CommentService) UnlikeComment(ctx context.Context, userID, commentID uint) error {
	return s.engagementRepo.UnlikeComment(ctx, userID, commentID)
}

package server

import (
	"context"

	"github.com/00xu00/blog/internal/models"
	"github.com/00xu00/blog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts
// @Summary List published posts
// @Tags posts
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Post
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page, err := parsePagination(c, 20)
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)

	posts, err := s.postService.ListPosts(c.UserContext(), page.Limit, page.Offset, viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetLatestPosts handles GET /api/posts/latest
func (s *Server) GetLatestPosts(c *fiber.Ctx) error {
	page, err := parsePagination(c, 3)
	if err != nil {
		return nil
	}
	posts, err := s.postService.Latest(c.UserContext(), page.Limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetRecommendedPosts handles GET /api/posts/recommended
// @Summary Recommended posts
// @Description Personalized for authenticated callers, trending otherwise.
// @Tags posts
// @Param limit query int false "1..50, default 10"
// @Success 200 {array} models.Post
// @Router /posts/recommended [get]
func (s *Server) GetRecommendedPosts(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit", service.DefaultRecommendationLimit, 1, service.MaxRecommendationLimit)
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)

	posts, err := s.recommendationService.Recommend(c.UserContext(), viewerID, limit)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetMyPosts handles GET /api/posts/user/me, drafts included.
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	userID := currentUserID(c)
	page, err := parsePagination(c, 20)
	if err != nil {
		return nil
	}

	posts, err := s.postService.ListByAuthor(c.UserContext(), userID, page.Limit, page.Offset, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetMyLikedPosts handles GET /api/posts/user/me/likes
func (s *Server) GetMyLikedPosts(c *fiber.Ctx) error {
	page, err := parsePagination(c, 20)
	if err != nil {
		return nil
	}
	posts, err := s.postService.ListLiked(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetMyFavoritedPosts handles GET /api/posts/user/me/favorites
func (s *Server) GetMyFavoritedPosts(c *fiber.Ctx) error {
	page, err := parsePagination(c, 20)
	if err != nil {
		return nil
	}
	posts, err := s.postService.ListFavorited(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetUserPosts handles GET /api/posts/user/:id
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	authorID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, err := parsePagination(c, 20)
	if err != nil {
		return nil
	}
	viewerID, _ := s.optionalUserID(c)

	posts, err := s.postService.ListByAuthor(c.UserContext(), authorID, page.Limit, page.Offset, viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(posts)
}

// GetPost handles GET /api/posts/:id. Opening a post counts a view (once
// per client per window) and records it in the caller's history.
// @Summary Post detail
// @Tags posts
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	viewerID, _ := s.optionalUserID(c)

	post, err := s.postService.GetPost(ctx, id, viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	s.viewService.TrackView(ctx, post, c.IP(), viewerID)
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Security BearerAuth
// @Param request body service.CreatePostInput true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req service.CreatePostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.AuthorID = currentUserID(c)

	post, err := s.postService.CreatePost(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update own post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Param request body service.UpdatePostInput true "Changed fields"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdatePostInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.UserID = currentUserID(c)
	req.PostID = postID

	post, err := s.postService.UpdatePost(c.UserContext(), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), postID); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/posts/:id/like
// @Summary Like a post
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 409 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	return s.engage(c, s.engagementService.LikePost)
}

// UnlikePost handles POST /api/posts/:id/unlike
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	return s.engage(c, s.engagementService.UnlikePost)
}

// FavoritePost handles POST /api/posts/:id/favorite
func (s *Server) FavoritePost(c *fiber.Ctx) error {
	return s.engage(c, s.engagementService.FavoritePost)
}

// UnfavoritePost handles POST /api/posts/:id/unfavorite
func (s *Server) UnfavoritePost(c *fiber.Ctx) error {
	return s.engage(c, s.engagementService.UnfavoritePost)
}

type engageFunc func(ctx context.Context, userID, postID uint) (*models.Post, error)

func (s *Server) engage(c *fiber.Ctx, op engageFunc) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := op(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(post)
}

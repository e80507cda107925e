package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/karanagg166/playto/internal/engine"
	"github.com/karanagg166/playto/internal/middleware"
	"github.com/karanagg166/playto/internal/models"
	"github.com/karanagg166/playto/internal/repositories"
	"github.com/karanagg166/playto/internal/tree"
	"github.com/labstack/echo/v4"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	indexer        *tree.Indexer
	postRepository repositories.PostRepository // To verify targets and update comment counts
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(indexer *tree.Indexer, postRepo repositories.PostRepository) *CommentHandler {
	return &CommentHandler{
		indexer:        indexer,
		postRepository: postRepo,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetThread)
	g.GET("/comments/:id/path", h.GetPathToRoot)
}

// CreateComment adds a reply to a post's discussion tree. A null parent_id
// makes it a top-level comment; otherwise it nests under the given comment.
func (h *CommentHandler) CreateComment(c echo.Context) error {
	postID := c.Param("post_id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	validate := validator.New()
	if err := validate.Struct(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Verify post exists
	_, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	comment, err := h.indexer.AddComment(c.Request().Context(), postID, req.ParentID, middleware.ActorID(c), req.Content)
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Parent comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Increment comments count in the post
	go h.postRepository.IncrementCommentsCount(context.Background(), postID)

	return c.JSON(http.StatusCreated, comment)
}

// GetThread retrieves the post's full comment forest
func (h *CommentHandler) GetThread(c echo.Context) error {
	postID := c.Param("post_id")

	// Verify post exists
	_, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	thread, err := h.indexer.LoadTree(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, thread)
}

// GetPathToRoot retrieves a comment's ancestor chain, root first
func (h *CommentHandler) GetPathToRoot(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}

	path, err := h.indexer.PathToRoot(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Comment not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if path == nil {
		path = []models.Comment{}
	}
	return c.JSON(http.StatusOK, path)
}

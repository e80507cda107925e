package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/karanagg166/playto/internal/engine"
	"github.com/karanagg166/playto/internal/likes"
	"github.com/karanagg166/playto/internal/middleware"
	"github.com/karanagg166/playto/internal/models"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	ledger *likes.Ledger
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(ledger *likes.Ledger) *LikeHandler {
	return &LikeHandler{ledger: ledger}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/likes", h.LikePost)
	g.DELETE("/posts/:post_id/likes", h.UnlikePost)
	g.POST("/comments/:id/likes", h.LikeComment)
	g.DELETE("/comments/:id/likes", h.UnlikeComment)
}

// LikePost handles liking a post
func (h *LikeHandler) LikePost(c echo.Context) error {
	return h.apply(c, models.TargetPost, c.Param("post_id"), true)
}

// UnlikePost handles unliking a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	return h.apply(c, models.TargetPost, c.Param("post_id"), false)
}

// LikeComment handles liking a comment
func (h *LikeHandler) LikeComment(c echo.Context) error {
	if _, err := strconv.ParseUint(c.Param("id"), 10, 64); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}
	return h.apply(c, models.TargetComment, c.Param("id"), true)
}

// UnlikeComment handles unliking a comment
func (h *LikeHandler) UnlikeComment(c echo.Context) error {
	if _, err := strconv.ParseUint(c.Param("id"), 10, 64); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid comment ID")
	}
	return h.apply(c, models.TargetComment, c.Param("id"), false)
}

func (h *LikeHandler) apply(c echo.Context, kind models.TargetKind, targetID string, like bool) error {
	actorID := middleware.ActorID(c)

	var (
		count int64
		err   error
	)
	if like {
		count, err = h.ledger.Like(c.Request().Context(), actorID, kind, targetID)
	} else {
		count, err = h.ledger.Unlike(c.Request().Context(), actorID, kind, targetID)
	}
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrAlreadyLiked):
			return echo.NewHTTPError(http.StatusConflict, "Already liked")
		case errors.Is(err, engine.ErrNotLiked):
			return echo.NewHTTPError(http.StatusConflict, "Not liked")
		case errors.Is(err, engine.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "Target not found")
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"liked": like, "like_count": count})
}

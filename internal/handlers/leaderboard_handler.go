package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/karanagg166/playto/internal/karma"
	"github.com/karanagg166/playto/internal/repositories"
	"github.com/labstack/echo/v4"
)

// LeaderboardHandler handles HTTP requests for the karma leaderboard
type LeaderboardHandler struct {
	aggregator     *karma.Aggregator
	userRepository repositories.UserRepository // To attach usernames to entries
}

// NewLeaderboardHandler creates a new LeaderboardHandler
func NewLeaderboardHandler(aggregator *karma.Aggregator, userRepo repositories.UserRepository) *LeaderboardHandler {
	return &LeaderboardHandler{
		aggregator:     aggregator,
		userRepository: userRepo,
	}
}

// RegisterLeaderboardRoutes registers leaderboard routes
func (h *LeaderboardHandler) RegisterLeaderboardRoutes(g *echo.Group) {
	g.GET("/leaderboard", h.GetLeaderboard)
}

type leaderboardRow struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
	Karma     int64  `json:"karma"`
	Rank      int    `json:"rank"`
}

// GetLeaderboard returns the top users by karma earned in the trailing
// window. window_seconds and top_k query params override the defaults.
func (h *LeaderboardHandler) GetLeaderboard(c echo.Context) error {
	var window time.Duration
	if secs, err := strconv.ParseInt(c.QueryParam("window_seconds"), 10, 64); err == nil && secs > 0 {
		window = time.Duration(secs) * time.Second
	}
	topK, _ := strconv.Atoi(c.QueryParam("top_k"))

	entries, err := h.aggregator.Leaderboard(c.Request().Context(), window, topK)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.UserID)
	}
	users, err := h.userRepository.GetUsersByIDs(ids)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	byID := make(map[uint]leaderboardRow, len(users))
	for _, u := range users {
		byID[u.ID] = leaderboardRow{UserID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
	}

	rows := make([]leaderboardRow, 0, len(entries))
	for _, e := range entries {
		row := byID[e.UserID]
		row.UserID = e.UserID
		row.Karma = e.Karma
		row.Rank = e.Rank
		rows = append(rows, row)
	}
	return c.JSON(http.StatusOK, rows)
}

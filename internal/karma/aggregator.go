// Package karma computes the rolling leaderboard from the like ledger. Karma
// is never stored as a running total: each query rescans the trailing window,
// so contributions decay out automatically as their events age past the
// cutoff.
package karma

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/karanagg166/playto/internal/engine"
	"github.com/karanagg166/playto/internal/models"
	"github.com/karanagg166/playto/internal/repositories"
	"golang.org/x/sync/errgroup"
)

// AuthorResolver maps a like target to the user who authored it.
type AuthorResolver interface {
	ResolveAuthor(ctx context.Context, kind models.TargetKind, targetID string) (uint, error)
}

// Config carries the leaderboard policy knobs.
type Config struct {
	Window         time.Duration
	TopK           int
	PostWeight     int64
	CommentWeight  int64
	CountSelfLikes bool
}

// DefaultConfig returns the stock policy: 24h window, top 5, a post like
// worth 5 karma and a comment like worth 1, self-likes counted.
func DefaultConfig() Config {
	return Config{
		Window:         24 * time.Hour,
		TopK:           5,
		PostWeight:     5,
		CommentWeight:  1,
		CountSelfLikes: true,
	}
}

// Entry is one leaderboard row.
type Entry struct {
	UserID uint  `json:"user_id"`
	Karma  int64 `json:"karma"`
	Rank   int   `json:"rank"`
}

// Aggregator reads the like ledger (never mutating it) and resolves targets
// to authors through the resolver boundary.
type Aggregator struct {
	ledger   repositories.LikeStore
	resolver AuthorResolver
	cfg      Config
	now      func() time.Time
}

// NewAggregator creates a new Aggregator.
func NewAggregator(ledger repositories.LikeStore, resolver AuthorResolver, cfg Config) *Aggregator {
	if cfg.Window <= 0 {
		cfg.Window = 24 * time.Hour
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	return &Aggregator{ledger: ledger, resolver: resolver, cfg: cfg, now: time.Now}
}

// Leaderboard returns the top users by karma earned in the trailing window,
// ranked from 1. window <= 0 and topK <= 0 fall back to the configured
// defaults. Ties are broken by ascending user id, so repeated queries over
// the same events always agree.
func (a *Aggregator) Leaderboard(ctx context.Context, window time.Duration, topK int) ([]Entry, error) {
	if window <= 0 {
		window = a.cfg.Window
	}
	if topK <= 0 {
		topK = a.cfg.TopK
	}
	cutoff := a.now().Add(-window)

	var postEvents, commentEvents []models.LikeEvent
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		postEvents, err = a.ledger.EventsSince(gctx, models.TargetPost, cutoff)
		return err
	})
	g.Go(func() error {
		var err error
		commentEvents, err = a.ledger.EventsSince(gctx, models.TargetComment, cutoff)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	totals := make(map[uint]int64)
	authors := make(map[string]uint) // kind:target -> resolved author
	tally := func(events []models.LikeEvent, weight int64) error {
		for _, ev := range events {
			key := string(ev.TargetKind) + ":" + ev.TargetID
			author, ok := authors[key]
			if !ok {
				resolved, err := a.resolver.ResolveAuthor(ctx, ev.TargetKind, ev.TargetID)
				if err != nil {
					if errors.Is(err, engine.ErrNotFound) {
						continue
					}
					return err
				}
				author = resolved
				authors[key] = author
			}
			if !a.cfg.CountSelfLikes && ev.ActorID == author {
				continue
			}
			totals[author] += weight
		}
		return nil
	}
	if err := tally(postEvents, a.cfg.PostWeight); err != nil {
		return nil, err
	}
	if err := tally(commentEvents, a.cfg.CommentWeight); err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(totals))
	for userID, karma := range totals {
		entries = append(entries, Entry{UserID: userID, Karma: karma})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Karma != entries[j].Karma {
			return entries[i].Karma > entries[j].Karma
		}
		return entries[i].UserID < entries[j].UserID
	})
	if len(entries) > topK {
		entries = entries[:topK]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries, nil
}

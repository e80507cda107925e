package karma

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/karanagg166/playto/internal/models"
	"github.com/karanagg166/playto/internal/repositories"
	"github.com/karanagg166/playto/internal/tree"
)

// seedLike plants a like event with an explicit timestamp, bypassing the
// ledger so history can be backdated.
func seedLike(t *testing.T, store *repositories.MemoryStore, actor uint, kind models.TargetKind, targetID string, at time.Time) {
	t.Helper()
	err := store.Apply(context.Background(), func(tx repositories.LikeTx) error {
		return tx.Insert(&models.LikeEvent{
			ActorID:    actor,
			TargetKind: kind,
			TargetID:   targetID,
			CreatedAt:  at,
		})
	})
	if err != nil {
		t.Fatalf("seeding like failed: %v", err)
	}
}

func frozen(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// Fixture: user 1 owns a post, user 4 owns a comment under it. User 3 likes
// the post at t0, user 2 likes both the post and the comment at t0+2h.
func seedScenario(t *testing.T) (*repositories.MemoryStore, *Aggregator, time.Time) {
	t.Helper()
	ctx := context.Background()
	t0 := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	store := repositories.NewMemoryStore()
	post := &models.Post{AuthorID: 1, Content: "hello"}
	if err := store.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	comment, err := tree.NewIndexer(store).AddComment(ctx, post.ID.Hex(), nil, 4, "reply")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	commentID := strconv.FormatUint(uint64(comment.ID), 10)

	seedLike(t, store, 3, models.TargetPost, post.ID.Hex(), t0)
	seedLike(t, store, 2, models.TargetPost, post.ID.Hex(), t0.Add(2*time.Hour))
	seedLike(t, store, 2, models.TargetComment, commentID, t0.Add(2*time.Hour))

	resolver := repositories.NewAuthorResolver(store, store)
	agg := NewAggregator(store, resolver, DefaultConfig())
	return store, agg, t0
}

func TestLeaderboard(t *testing.T) {
	ctx := context.Background()

	t.Run("weights and ranks", func(t *testing.T) {
		_, agg, t0 := seedScenario(t)
		agg.now = frozen(t0.Add(3 * time.Hour))

		entries, err := agg.Leaderboard(ctx, 0, 0)
		if err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}
		want := []Entry{
			{UserID: 1, Karma: 10, Rank: 1},
			{UserID: 4, Karma: 1, Rank: 2},
		}
		if len(entries) != len(want) {
			t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
		}
		for i, e := range entries {
			if e != want[i] {
				t.Errorf("entry %d = %+v, want %+v", i, e, want[i])
			}
		}
	})

	t.Run("events decay out of the window", func(t *testing.T) {
		_, agg, t0 := seedScenario(t)
		agg.now = frozen(t0.Add(25 * time.Hour))

		entries, err := agg.Leaderboard(ctx, 0, 0)
		if err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}
		// Cutoff at t0+1h: user 3's like at t0 has aged out, user 2's pair
		// at t0+2h still counts.
		want := []Entry{
			{UserID: 1, Karma: 5, Rank: 1},
			{UserID: 4, Karma: 1, Rank: 2},
		}
		if len(entries) != len(want) {
			t.Fatalf("got %d entries, want %d: %+v", len(entries), len(want), entries)
		}
		for i, e := range entries {
			if e != want[i] {
				t.Errorf("entry %d = %+v, want %+v", i, e, want[i])
			}
		}
	})

	t.Run("an event exactly on the cutoff still counts", func(t *testing.T) {
		_, agg, t0 := seedScenario(t)
		agg.now = frozen(t0.Add(24 * time.Hour))

		entries, err := agg.Leaderboard(ctx, 0, 0)
		if err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}
		if len(entries) == 0 || entries[0].UserID != 1 || entries[0].Karma != 10 {
			t.Errorf("got %+v, want user 1 with karma 10", entries)
		}
	})

	t.Run("explicit window overrides the default", func(t *testing.T) {
		_, agg, t0 := seedScenario(t)
		agg.now = frozen(t0.Add(3 * time.Hour))

		// 30m window at t0+3h sees nothing.
		entries, err := agg.Leaderboard(ctx, 30*time.Minute, 0)
		if err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("got %+v, want empty board", entries)
		}
	})

	t.Run("topK truncates after ranking", func(t *testing.T) {
		_, agg, t0 := seedScenario(t)
		agg.now = frozen(t0.Add(3 * time.Hour))

		entries, err := agg.Leaderboard(ctx, 0, 1)
		if err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("got %d entries, want 1", len(entries))
		}
		if entries[0].UserID != 1 || entries[0].Rank != 1 {
			t.Errorf("got %+v, want user 1 at rank 1", entries[0])
		}
	})

	t.Run("ties break toward the lower user id", func(t *testing.T) {
		ctx := context.Background()
		t0 := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
		store := repositories.NewMemoryStore()

		// Users 6 and 5 each own a post with one like: equal karma.
		older := &models.Post{AuthorID: 6, Content: "a"}
		newer := &models.Post{AuthorID: 5, Content: "b"}
		for _, p := range []*models.Post{older, newer} {
			if err := store.CreatePost(ctx, p); err != nil {
				t.Fatalf("CreatePost failed: %v", err)
			}
		}
		seedLike(t, store, 2, models.TargetPost, older.ID.Hex(), t0)
		seedLike(t, store, 2, models.TargetPost, newer.ID.Hex(), t0)

		agg := NewAggregator(store, repositories.NewAuthorResolver(store, store), DefaultConfig())
		agg.now = frozen(t0.Add(time.Hour))

		entries, err := agg.Leaderboard(ctx, 0, 0)
		if err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}
		if len(entries) != 2 || entries[0].UserID != 5 || entries[1].UserID != 6 {
			t.Errorf("got %+v, want user 5 ranked before user 6", entries)
		}
	})

	t.Run("likes on vanished targets are skipped", func(t *testing.T) {
		store, agg, t0 := seedScenario(t)
		seedLike(t, store, 2, models.TargetPost, "0123456789abcdef01234567", t0.Add(time.Hour))
		agg.now = frozen(t0.Add(3 * time.Hour))

		entries, err := agg.Leaderboard(ctx, 0, 0)
		if err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}
		if len(entries) != 2 || entries[0].Karma != 10 {
			t.Errorf("got %+v, want the dangling like ignored", entries)
		}
	})
}

func TestLeaderboardSelfLikes(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	setup := func(t *testing.T, cfg Config) *Aggregator {
		store := repositories.NewMemoryStore()
		post := &models.Post{AuthorID: 1, Content: "mine"}
		if err := store.CreatePost(ctx, post); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
		seedLike(t, store, 1, models.TargetPost, post.ID.Hex(), t0)

		agg := NewAggregator(store, repositories.NewAuthorResolver(store, store), cfg)
		agg.now = frozen(t0.Add(time.Hour))
		return agg
	}

	t.Run("counted by default", func(t *testing.T) {
		agg := setup(t, DefaultConfig())
		entries, err := agg.Leaderboard(ctx, 0, 0)
		if err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}
		if len(entries) != 1 || entries[0].UserID != 1 || entries[0].Karma != 5 {
			t.Errorf("got %+v, want user 1 with karma 5", entries)
		}
	})

	t.Run("excluded when disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.CountSelfLikes = false
		agg := setup(t, cfg)
		entries, err := agg.Leaderboard(ctx, 0, 0)
		if err != nil {
			t.Fatalf("Leaderboard failed: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("got %+v, want empty board", entries)
		}
	})
}

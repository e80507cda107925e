package likes

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"testing"

	"github.com/karanagg166/playto/internal/engine"
	"github.com/karanagg166/playto/internal/models"
	"github.com/karanagg166/playto/internal/repositories"
	"github.com/karanagg166/playto/internal/tree"
)

func newFixture(t *testing.T) (*repositories.MemoryStore, *Ledger, *models.Post, *models.Comment) {
	t.Helper()
	ctx := context.Background()

	store := repositories.NewMemoryStore()
	ledger := NewLedger(store, store)

	post := &models.Post{AuthorID: 1, Content: "hello"}
	if err := store.CreatePost(ctx, post); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	ix := tree.NewIndexer(store)
	comment, err := ix.AddComment(ctx, post.ID.Hex(), nil, 2, "first")
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	return store, ledger, post, comment
}

func TestLike(t *testing.T) {
	ctx := context.Background()

	t.Run("like on a post increments the cached counter", func(t *testing.T) {
		store, ledger, post, _ := newFixture(t)

		count, err := ledger.Like(ctx, 7, models.TargetPost, post.ID.Hex())
		if err != nil {
			t.Fatalf("Like failed: %v", err)
		}
		if count != 1 {
			t.Errorf("new count = %d, want 1", count)
		}
		stored, _ := store.GetPostByID(ctx, post.ID.Hex())
		if stored.LikesCount != 1 {
			t.Errorf("cached count = %d, want 1", stored.LikesCount)
		}
	})

	t.Run("like on a comment increments the cached counter", func(t *testing.T) {
		store, ledger, _, comment := newFixture(t)
		targetID := strconv.FormatUint(uint64(comment.ID), 10)

		count, err := ledger.Like(ctx, 7, models.TargetComment, targetID)
		if err != nil {
			t.Fatalf("Like failed: %v", err)
		}
		if count != 1 {
			t.Errorf("new count = %d, want 1", count)
		}
		stored, _ := store.Get(ctx, comment.ID)
		if stored.LikeCount != 1 {
			t.Errorf("cached count = %d, want 1", stored.LikeCount)
		}
	})

	t.Run("second like from the same actor fails with ErrAlreadyLiked", func(t *testing.T) {
		store, ledger, post, _ := newFixture(t)

		if _, err := ledger.Like(ctx, 7, models.TargetPost, post.ID.Hex()); err != nil {
			t.Fatalf("Like failed: %v", err)
		}
		if _, err := ledger.Like(ctx, 7, models.TargetPost, post.ID.Hex()); !errors.Is(err, engine.ErrAlreadyLiked) {
			t.Errorf("got %v, want ErrAlreadyLiked", err)
		}
		stored, _ := store.GetPostByID(ctx, post.ID.Hex())
		if stored.LikesCount != 1 {
			t.Errorf("cached count = %d after rejected duplicate, want 1", stored.LikesCount)
		}
	})

	t.Run("like on a missing post leaves no ledger row behind", func(t *testing.T) {
		store, ledger, _, _ := newFixture(t)
		missing := "0123456789abcdef01234567"

		if _, err := ledger.Like(ctx, 7, models.TargetPost, missing); !errors.Is(err, engine.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
		live, _ := store.CountLive(ctx, models.TargetPost, missing)
		if live != 0 {
			t.Errorf("%d ledger rows survived the rollback, want 0", live)
		}
	})

	t.Run("like on a missing comment rolls back", func(t *testing.T) {
		store, ledger, _, _ := newFixture(t)

		if _, err := ledger.Like(ctx, 7, models.TargetComment, "999"); !errors.Is(err, engine.ErrNotFound) {
			t.Fatalf("got %v, want ErrNotFound", err)
		}
		live, _ := store.CountLive(ctx, models.TargetComment, "999")
		if live != 0 {
			t.Errorf("%d ledger rows survived the rollback, want 0", live)
		}
	})

	t.Run("unknown target kind fails", func(t *testing.T) {
		_, ledger, _, _ := newFixture(t)
		if _, err := ledger.Like(ctx, 7, models.TargetKind("story"), "1"); !errors.Is(err, engine.ErrNotFound) {
			t.Errorf("got %v, want ErrNotFound", err)
		}
	})
}

func TestUnlike(t *testing.T) {
	ctx := context.Background()

	t.Run("unlike removes the event and decrements the counter", func(t *testing.T) {
		store, ledger, post, _ := newFixture(t)

		if _, err := ledger.Like(ctx, 7, models.TargetPost, post.ID.Hex()); err != nil {
			t.Fatalf("Like failed: %v", err)
		}
		count, err := ledger.Unlike(ctx, 7, models.TargetPost, post.ID.Hex())
		if err != nil {
			t.Fatalf("Unlike failed: %v", err)
		}
		if count != 0 {
			t.Errorf("new count = %d, want 0", count)
		}
		live, _ := store.CountLive(ctx, models.TargetPost, post.ID.Hex())
		if live != 0 {
			t.Errorf("live events = %d, want 0", live)
		}
	})

	t.Run("unlike without a live like fails with ErrNotLiked", func(t *testing.T) {
		store, ledger, post, _ := newFixture(t)

		if _, err := ledger.Unlike(ctx, 7, models.TargetPost, post.ID.Hex()); !errors.Is(err, engine.ErrNotLiked) {
			t.Errorf("got %v, want ErrNotLiked", err)
		}
		stored, _ := store.GetPostByID(ctx, post.ID.Hex())
		if stored.LikesCount != 0 {
			t.Errorf("cached count = %d after rejected unlike, want 0", stored.LikesCount)
		}
	})

	t.Run("re-like after unlike succeeds", func(t *testing.T) {
		_, ledger, post, _ := newFixture(t)

		if _, err := ledger.Like(ctx, 7, models.TargetPost, post.ID.Hex()); err != nil {
			t.Fatalf("Like failed: %v", err)
		}
		if _, err := ledger.Unlike(ctx, 7, models.TargetPost, post.ID.Hex()); err != nil {
			t.Fatalf("Unlike failed: %v", err)
		}
		count, err := ledger.Like(ctx, 7, models.TargetPost, post.ID.Hex())
		if err != nil {
			t.Fatalf("re-Like failed: %v", err)
		}
		if count != 1 {
			t.Errorf("new count = %d, want 1", count)
		}
	})
}

// TestLikeRace drives N concurrent likes from one actor on one target:
// exactly one must succeed, the rest must see ErrAlreadyLiked, and the
// counter must move by exactly 1.
func TestLikeRace(t *testing.T) {
	ctx := context.Background()
	store, ledger, post, _ := newFixture(t)

	const n = 32
	results := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.Like(ctx, 7, models.TargetPost, post.ID.Hex())
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, duplicates int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, engine.ErrAlreadyLiked):
			duplicates++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if successes != 1 || duplicates != n-1 {
		t.Errorf("got %d successes and %d duplicates, want 1 and %d", successes, duplicates, n-1)
	}

	stored, _ := store.GetPostByID(ctx, post.ID.Hex())
	if stored.LikesCount != 1 {
		t.Errorf("cached count = %d, want 1", stored.LikesCount)
	}
	live, _ := store.CountLive(ctx, models.TargetPost, post.ID.Hex())
	if live != 1 {
		t.Errorf("live events = %d, want 1", live)
	}
}

// TestCounterExactness runs a random like/unlike workload across several
// actors and targets; at quiescence every cached counter must equal the
// number of live ledger rows for its target.
func TestCounterExactness(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewMemoryStore()
	ledger := NewLedger(store, store)
	ix := tree.NewIndexer(store)

	var postIDs []string
	for i := 0; i < 3; i++ {
		p := &models.Post{AuthorID: uint(i + 1), Content: fmt.Sprintf("p%d", i)}
		if err := store.CreatePost(ctx, p); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
		postIDs = append(postIDs, p.ID.Hex())
	}
	var commentIDs []string
	for i := 0; i < 3; i++ {
		c, err := ix.AddComment(ctx, postIDs[0], nil, uint(i+1), "c")
		if err != nil {
			t.Fatalf("AddComment failed: %v", err)
		}
		commentIDs = append(commentIDs, strconv.FormatUint(uint64(c.ID), 10))
	}

	rng := rand.New(rand.NewSource(99))
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		actor := uint(w + 1)
		ops := make([]int, 200)
		for i := range ops {
			ops[i] = rng.Intn(12)
		}
		wg.Add(1)
		go func(actor uint, ops []int) {
			defer wg.Done()
			for _, op := range ops {
				kind, target := models.TargetPost, postIDs[op%3]
				if op%2 == 1 {
					kind, target = models.TargetComment, commentIDs[op%3]
				}
				var err error
				if op < 6 {
					_, err = ledger.Like(ctx, actor, kind, target)
				} else {
					_, err = ledger.Unlike(ctx, actor, kind, target)
				}
				if err != nil && !errors.Is(err, engine.ErrAlreadyLiked) && !errors.Is(err, engine.ErrNotLiked) {
					t.Errorf("actor %d: %v", actor, err)
				}
			}
		}(actor, ops)
	}
	wg.Wait()

	for _, id := range postIDs {
		live, _ := store.CountLive(ctx, models.TargetPost, id)
		p, _ := store.GetPostByID(ctx, id)
		if p.LikesCount != live {
			t.Errorf("post %s: cached %d, live %d", id, p.LikesCount, live)
		}
	}
	for _, id := range commentIDs {
		live, _ := store.CountLive(ctx, models.TargetComment, id)
		n, _ := strconv.ParseUint(id, 10, 64)
		c, _ := store.Get(ctx, uint(n))
		if c.LikeCount != live {
			t.Errorf("comment %s: cached %d, live %d", id, c.LikeCount, live)
		}
	}
}

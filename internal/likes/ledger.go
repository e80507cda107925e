// Package likes enforces like uniqueness and keeps the cached counters on
// posts and comments exact under concurrency.
package likes

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/karanagg166/playto/internal/engine"
	"github.com/karanagg166/playto/internal/models"
	"github.com/karanagg166/playto/internal/repositories"
)

// PostCounters is the slice of the post store the ledger needs: cached
// counter mutation with the new value returned.
type PostCounters interface {
	AddToLikesCount(ctx context.Context, postID string, delta int64) (int64, error)
}

// Ledger owns the like event table and the cached like counters; nothing
// else writes either. Operations on the same target are serialized by a
// keyed mutex, and each folds its uniqueness check, event row and counter
// delta into one store transaction, so two racing likes from one actor end
// as one success and one ErrAlreadyLiked, never two counter increments.
type Ledger struct {
	store repositories.LikeStore
	posts PostCounters
	locks *engine.KeyedMutex
	now   func() time.Time
}

// NewLedger creates a new Ledger.
func NewLedger(store repositories.LikeStore, posts PostCounters) *Ledger {
	return &Ledger{
		store: store,
		posts: posts,
		locks: engine.NewKeyedMutex(),
		now:   time.Now,
	}
}

// Like records a like and returns the target's new cached count. Fails with
// engine.ErrAlreadyLiked if the actor already holds a live like, or
// engine.ErrNotFound if the target does not exist; neither changes any state.
func (l *Ledger) Like(ctx context.Context, actorID uint, kind models.TargetKind, targetID string) (int64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: unknown target kind %q", engine.ErrNotFound, kind)
	}
	key := targetKey(kind, targetID)
	l.locks.Lock(key)
	defer l.locks.Unlock(key)

	var newCount int64
	err := l.store.Apply(ctx, func(tx repositories.LikeTx) error {
		ev := &models.LikeEvent{
			ActorID:    actorID,
			TargetKind: kind,
			TargetID:   targetID,
			CreatedAt:  l.now(),
		}
		if err := tx.Insert(ev); err != nil {
			return err
		}
		// A missing target surfaces here as ErrNotFound from the counter,
		// rolling the event row back with it.
		count, err := l.bumpCounter(ctx, tx, kind, targetID, +1)
		if err != nil {
			return err
		}
		newCount = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newCount, nil
}

// Unlike removes a live like and returns the target's new cached count.
// Fails with engine.ErrNotLiked if no live like exists.
func (l *Ledger) Unlike(ctx context.Context, actorID uint, kind models.TargetKind, targetID string) (int64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("%w: unknown target kind %q", engine.ErrNotFound, kind)
	}
	key := targetKey(kind, targetID)
	l.locks.Lock(key)
	defer l.locks.Unlock(key)

	var newCount int64
	err := l.store.Apply(ctx, func(tx repositories.LikeTx) error {
		if err := tx.Delete(actorID, kind, targetID); err != nil {
			return err
		}
		count, err := l.bumpCounter(ctx, tx, kind, targetID, -1)
		if err != nil {
			return err
		}
		newCount = count
		return nil
	})
	if err != nil {
		return 0, err
	}
	return newCount, nil
}

func (l *Ledger) bumpCounter(ctx context.Context, tx repositories.LikeTx, kind models.TargetKind, targetID string, delta int64) (int64, error) {
	switch kind {
	case models.TargetPost:
		return l.posts.AddToLikesCount(ctx, targetID, delta)
	case models.TargetComment:
		id, err := strconv.ParseUint(targetID, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid comment ID %q", engine.ErrNotFound, targetID)
		}
		return tx.AddToCommentLikeCount(uint(id), delta)
	default:
		return 0, fmt.Errorf("%w: unknown target kind %q", engine.ErrNotFound, kind)
	}
}

func targetKey(kind models.TargetKind, targetID string) string {
	return string(kind) + ":" + targetID
}

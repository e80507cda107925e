package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/karanagg166/playto/internal/engine"
	"github.com/karanagg166/playto/internal/models"
	"gorm.io/gorm"
)

// LikeTx is the mutation scope handed to like ledger transactions.
type LikeTx interface {
	// Insert appends a ledger row, failing with engine.ErrAlreadyLiked when
	// the (actor, kind, target) unique index rejects it. The index, not an
	// application pre-check, is what makes concurrent duplicate likes safe.
	Insert(ev *models.LikeEvent) error
	// Delete removes the actor's live event for the target, failing with
	// engine.ErrNotLiked when there is none.
	Delete(actorID uint, kind models.TargetKind, targetID string) error
	// AddToCommentLikeCount adjusts a comment's cached counter and returns
	// the new value, failing with engine.ErrNotFound for an unknown comment.
	AddToCommentLikeCount(commentID uint, delta int64) (int64, error)
}

// LikeStore defines the interface for like ledger storage
type LikeStore interface {
	// Apply runs fn inside a transaction; fn's effects are all-or-nothing.
	Apply(ctx context.Context, fn func(tx LikeTx) error) error
	// EventsSince returns the live events of one kind created at or after
	// the cutoff.
	EventsSince(ctx context.Context, kind models.TargetKind, since time.Time) ([]models.LikeEvent, error)
	// CountLive returns the number of live events for a target.
	CountLive(ctx context.Context, kind models.TargetKind, targetID string) (int64, error)
}

// PostgresLikeStore implements LikeStore for PostgreSQL
type PostgresLikeStore struct {
	db *gorm.DB
}

// NewPostgresLikeStore creates a new PostgresLikeStore
func NewPostgresLikeStore(db *gorm.DB) *PostgresLikeStore {
	return &PostgresLikeStore{db: db}
}

// Apply runs fn inside a GORM transaction
func (s *PostgresLikeStore) Apply(ctx context.Context, fn func(tx LikeTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(pgLikeTx{db: tx})
	})
}

// EventsSince retrieves live events of one kind within the trailing window.
// The (target_kind, created_at) index bounds the scan to the window size.
func (s *PostgresLikeStore) EventsSince(ctx context.Context, kind models.TargetKind, since time.Time) ([]models.LikeEvent, error) {
	var events []models.LikeEvent
	err := s.db.WithContext(ctx).
		Where("target_kind = ? AND created_at >= ?", kind, since).
		Find(&events).Error
	if err != nil {
		return nil, err
	}
	return events, nil
}

// CountLive retrieves the number of live events for a specific target
func (s *PostgresLikeStore) CountLive(ctx context.Context, kind models.TargetKind, targetID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.LikeEvent{}).
		Where("target_kind = ? AND target_id = ?", kind, targetID).
		Count(&count).Error
	return count, err
}

type pgLikeTx struct {
	db *gorm.DB
}

func (t pgLikeTx) Insert(ev *models.LikeEvent) error {
	if err := t.db.Create(ev).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: actor %d on %s %s", engine.ErrAlreadyLiked, ev.ActorID, ev.TargetKind, ev.TargetID)
		}
		return err
	}
	return nil
}

func (t pgLikeTx) Delete(actorID uint, kind models.TargetKind, targetID string) error {
	res := t.db.
		Where("actor_id = ? AND target_kind = ? AND target_id = ?", actorID, kind, targetID).
		Delete(&models.LikeEvent{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: actor %d on %s %s", engine.ErrNotLiked, actorID, kind, targetID)
	}
	return nil
}

func (t pgLikeTx) AddToCommentLikeCount(commentID uint, delta int64) (int64, error) {
	res := t.db.Model(&models.Comment{}).
		Where("id = ?", commentID).
		UpdateColumn("like_count", gorm.Expr("like_count + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, fmt.Errorf("%w: comment %d", engine.ErrNotFound, commentID)
	}
	var comment models.Comment
	if err := t.db.Select("like_count").First(&comment, commentID).Error; err != nil {
		return 0, err
	}
	return comment.LikeCount, nil
}

package models

import "time"

// TargetKind discriminates what a like event points at.
type TargetKind string

const (
	TargetPost    TargetKind = "post"
	TargetComment TargetKind = "comment"
)

// Valid reports whether k is one of the known kinds.
func (k TargetKind) Valid() bool {
	return k == TargetPost || k == TargetComment
}

// LikeEvent is one live like in the ledger. Target ids are strings for both
// kinds: post ObjectID hex, or the decimal form of a comment id. The composite
// unique index enforces at most one live like per actor per target at the
// storage layer; application code treats the resulting duplicate-key error as
// ErrAlreadyLiked rather than pre-checking.
type LikeEvent struct {
	ID         uint       `json:"id" gorm:"primaryKey"`
	ActorID    uint       `json:"actor_id" gorm:"not null;uniqueIndex:idx_actor_target"`
	TargetKind TargetKind `json:"target_kind" gorm:"size:16;not null;uniqueIndex:idx_actor_target;index:idx_kind_created,priority:1"`
	TargetID   string     `json:"target_id" gorm:"size:24;not null;uniqueIndex:idx_actor_target"`
	CreatedAt  time.Time  `json:"created_at" gorm:"index:idx_kind_created,priority:2"`
}

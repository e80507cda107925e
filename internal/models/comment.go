package models

import "time"

// Comment is a node in a post's discussion tree, positioned by a preorder
// interval encoding: a node's descendants are exactly the rows whose [lft,rgt]
// lies strictly inside its own. The (tree_id, lft) index is what lets a whole
// thread load with one range scan.
//
// Interval invariants, maintained by the tree indexer:
//   - lft < rgt
//   - for a child C of parent P: P.lft < C.lft and C.rgt < P.rgt
//   - sibling intervals are disjoint, ordered by creation
//   - rgt - lft is odd; (rgt-lft-1)/2 is the number of descendants
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TreeID    string    `json:"tree_id" gorm:"size:24;not null;index:idx_tree_lft,priority:1"` // Post ObjectID hex
	ParentID  *uint     `json:"parent_id" gorm:"index"`                                        // Nullable for top-level comments
	AuthorID  uint      `json:"author_id" gorm:"not null;index"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Lft       int       `json:"lft" gorm:"not null;index:idx_tree_lft,priority:2"`
	Rgt       int       `json:"rgt" gorm:"not null"`
	Depth     int       `json:"depth" gorm:"not null"`
	LikeCount int64     `json:"like_count" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
}

// HasReplies reports whether the comment has at least one descendant.
func (c Comment) HasReplies() bool {
	return c.Rgt-c.Lft > 1
}

// CreateCommentRequest defines the request body for replying to a post or to
// another comment.
type CreateCommentRequest struct {
	ParentID *uint  `json:"parent_id"`
	Content  string `json:"content" validate:"required,min=1,max=1000"`
}

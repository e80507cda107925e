// Package tree maintains the preorder interval encoding of discussion
// threads: each comment carries a [lft,rgt] span such that descendants are
// exactly the rows whose span lies strictly inside it. Writes pay O(n) shift
// cost so that an arbitrarily deep thread reads back with a single range
// scan. Discussion threads have many viewers and occasional repliers, so
// the trade runs the right way.
package tree

import (
	"context"
	"fmt"

	"github.com/karanagg166/playto/internal/engine"
	"github.com/karanagg166/playto/internal/models"
	"github.com/karanagg166/playto/internal/repositories"
)

// Indexer performs all interval-maintaining mutations and the read paths
// built on them. Mutations on the same tree are serialized by a keyed mutex
// on top of the store transaction; different trees proceed in parallel.
type Indexer struct {
	store repositories.TreeStore
	locks *engine.KeyedMutex
}

// NewIndexer creates a new Indexer over the given store.
func NewIndexer(store repositories.TreeStore) *Indexer {
	return &Indexer{store: store, locks: engine.NewKeyedMutex()}
}

// AddComment inserts a reply into the tree. A nil parentID creates a
// top-level comment appended after the tree's existing roots; otherwise a
// 2-wide gap is opened at the parent's rgt boundary and the new leaf takes
// it, becoming the parent's last child. Shift and insert commit as one unit.
func (ix *Indexer) AddComment(ctx context.Context, treeID string, parentID *uint, authorID uint, content string) (*models.Comment, error) {
	ix.locks.Lock(treeID)
	defer ix.locks.Unlock(treeID)

	node := &models.Comment{
		TreeID:   treeID,
		ParentID: parentID,
		AuthorID: authorID,
		Content:  content,
	}

	err := ix.store.Mutate(ctx, treeID, func(tx repositories.TreeTx) error {
		if parentID == nil {
			maxRight, err := tx.MaxRight(treeID)
			if err != nil {
				return err
			}
			node.Lft = maxRight + 1
			node.Rgt = node.Lft + 1
			node.Depth = 0
		} else {
			parent, err := tx.Get(*parentID)
			if err != nil {
				return err
			}
			if parent.TreeID != treeID {
				return fmt.Errorf("%w: comment %d is not in tree %s", engine.ErrNotFound, *parentID, treeID)
			}

			insertionPoint := parent.Rgt
			if err := tx.ShiftIntervals(treeID, insertionPoint, 2); err != nil {
				return err
			}
			node.Lft = insertionPoint
			node.Rgt = insertionPoint + 1
			node.Depth = parent.Depth + 1

			// Re-read the parent and verify strict containment before
			// committing; failure here means the shift itself is broken.
			shifted, err := tx.Get(*parentID)
			if err != nil {
				return err
			}
			if shifted.Lft >= node.Lft || node.Rgt >= shifted.Rgt {
				return fmt.Errorf("%w: child [%d,%d] not contained in parent [%d,%d]",
					engine.ErrInvariantViolation, node.Lft, node.Rgt, shifted.Lft, shifted.Rgt)
			}
		}

		if node.Lft >= node.Rgt || (node.Rgt-node.Lft)%2 == 0 {
			return fmt.Errorf("%w: interval [%d,%d]", engine.ErrInvariantViolation, node.Lft, node.Rgt)
		}
		return tx.Insert(node)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

// LoadTree fetches the whole thread with one range scan and reconstructs the
// comment forest in memory.
func (ix *Indexer) LoadTree(ctx context.Context, treeID string) ([]*ThreadNode, error) {
	rows, err := ix.store.RangeQuery(ctx, treeID, 1, 0)
	if err != nil {
		return nil, err
	}
	return BuildForest(rows), nil
}

// PathToRoot returns the node's ancestors, root first. Ancestors are exactly
// the nodes whose interval strictly contains the node's, all of which sit at
// lft positions below it.
func (ix *Indexer) PathToRoot(ctx context.Context, nodeID uint) ([]models.Comment, error) {
	node, err := ix.store.Get(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if node.Lft <= 1 {
		return nil, nil
	}
	rows, err := ix.store.RangeQuery(ctx, node.TreeID, 1, node.Lft-1)
	if err != nil {
		return nil, err
	}
	var path []models.Comment
	for _, row := range rows {
		if row.Lft < node.Lft && row.Rgt > node.Rgt {
			path = append(path, row)
		}
	}
	return path, nil
}

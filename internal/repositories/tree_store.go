package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/karanagg166/playto/internal/engine"
	"github.com/karanagg166/playto/internal/models"
	"gorm.io/gorm"
)

// TreeTx is the mutation scope handed to tree indexer transactions. All calls
// see and produce uncommitted state; an error returned from the enclosing
// Mutate callback rolls every one of them back.
type TreeTx interface {
	Get(nodeID uint) (*models.Comment, error)
	MaxRight(treeID string) (int, error)
	// ShiftIntervals adds delta to every lft >= threshold and every
	// rgt >= threshold within the tree.
	ShiftIntervals(treeID string, threshold, delta int) error
	// Insert appends a new comment row, failing with engine.ErrConflict if
	// the id already exists.
	Insert(c *models.Comment) error
}

// TreeStore defines the interface for comment tree storage
type TreeStore interface {
	Get(ctx context.Context, nodeID uint) (*models.Comment, error)
	// RangeQuery returns the tree's comments with low <= lft, ordered by
	// ascending lft (preorder). high <= 0 means no upper bound, otherwise
	// lft <= high.
	RangeQuery(ctx context.Context, treeID string, low, high int) ([]models.Comment, error)
	MaxRight(ctx context.Context, treeID string) (int, error)
	// Mutate runs fn inside a transaction scoped to one tree; fn's effects
	// are all-or-nothing. Only the tree indexer calls Mutate.
	Mutate(ctx context.Context, treeID string, fn func(tx TreeTx) error) error
}

// PostgresTreeStore implements TreeStore for PostgreSQL
type PostgresTreeStore struct {
	db *gorm.DB
}

// NewPostgresTreeStore creates a new PostgresTreeStore
func NewPostgresTreeStore(db *gorm.DB) *PostgresTreeStore {
	return &PostgresTreeStore{db: db}
}

// Get retrieves a comment by id from PostgreSQL
func (s *PostgresTreeStore) Get(ctx context.Context, nodeID uint) (*models.Comment, error) {
	return pgTreeTx{db: s.db.WithContext(ctx)}.Get(nodeID)
}

// RangeQuery retrieves a slice of the tree in preorder from PostgreSQL
func (s *PostgresTreeStore) RangeQuery(ctx context.Context, treeID string, low, high int) ([]models.Comment, error) {
	var comments []models.Comment
	q := s.db.WithContext(ctx).
		Where("tree_id = ? AND lft >= ?", treeID, low).
		Order("lft ASC")
	if high > 0 {
		q = q.Where("lft <= ?", high)
	}
	if err := q.Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// MaxRight retrieves the largest rgt in the tree, 0 for an empty tree
func (s *PostgresTreeStore) MaxRight(ctx context.Context, treeID string) (int, error) {
	return pgTreeTx{db: s.db.WithContext(ctx)}.MaxRight(treeID)
}

// Mutate runs fn inside a GORM transaction
func (s *PostgresTreeStore) Mutate(ctx context.Context, treeID string, fn func(tx TreeTx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(pgTreeTx{db: tx})
	})
}

type pgTreeTx struct {
	db *gorm.DB
}

func (t pgTreeTx) Get(nodeID uint) (*models.Comment, error) {
	var comment models.Comment
	if err := t.db.First(&comment, nodeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: comment %d", engine.ErrNotFound, nodeID)
		}
		return nil, err
	}
	return &comment, nil
}

func (t pgTreeTx) MaxRight(treeID string) (int, error) {
	var max int
	err := t.db.Model(&models.Comment{}).
		Where("tree_id = ?", treeID).
		Select("COALESCE(MAX(rgt), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

func (t pgTreeTx) ShiftIntervals(treeID string, threshold, delta int) error {
	err := t.db.Model(&models.Comment{}).
		Where("tree_id = ? AND lft >= ?", treeID, threshold).
		UpdateColumn("lft", gorm.Expr("lft + ?", delta)).Error
	if err != nil {
		return err
	}
	return t.db.Model(&models.Comment{}).
		Where("tree_id = ? AND rgt >= ?", treeID, threshold).
		UpdateColumn("rgt", gorm.Expr("rgt + ?", delta)).Error
}

func (t pgTreeTx) Insert(c *models.Comment) error {
	if err := t.db.Create(c).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: comment %d already exists", engine.ErrConflict, c.ID)
		}
		return err
	}
	return nil
}

package repositories

import (
	"context"
	"fmt"
	"strconv"

	"github.com/karanagg166/playto/internal/engine"
	"github.com/karanagg166/playto/internal/models"
)

// AuthorResolver maps a like target to the user who authored it, reading
// posts from the post store and comments from the tree store.
type AuthorResolver struct {
	posts PostRepository
	trees TreeStore
}

// NewAuthorResolver creates a new AuthorResolver
func NewAuthorResolver(posts PostRepository, trees TreeStore) *AuthorResolver {
	return &AuthorResolver{posts: posts, trees: trees}
}

// ResolveAuthor returns the author of the given target.
func (r *AuthorResolver) ResolveAuthor(ctx context.Context, kind models.TargetKind, targetID string) (uint, error) {
	switch kind {
	case models.TargetPost:
		post, err := r.posts.GetPostByID(ctx, targetID)
		if err != nil {
			return 0, err
		}
		return post.AuthorID, nil
	case models.TargetComment:
		id, err := strconv.ParseUint(targetID, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid comment ID %q", engine.ErrNotFound, targetID)
		}
		comment, err := r.trees.Get(ctx, uint(id))
		if err != nil {
			return 0, err
		}
		return comment.AuthorID, nil
	default:
		return 0, fmt.Errorf("%w: unknown target kind %q", engine.ErrNotFound, kind)
	}
}

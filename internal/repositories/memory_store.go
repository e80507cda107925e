package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/karanagg166/playto/internal/engine"
	"github.com/karanagg166/playto/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is an in-process implementation of TreeStore, LikeStore,
// PostRepository and UserRepository backed by maps. It backs the engine tests
// and the embedded (databaseless) mode; the semantics match the
// Postgres/Mongo implementations, including all-or-nothing transaction scopes.
//
// Each concern has its own mutex so that, as with the real stores, tree
// mutations and like transactions never block each other. Lock order is
// always ledger -> comments/posts, never the reverse.
type MemoryStore struct {
	commentsMu    sync.Mutex
	comments      map[uint]*models.Comment
	nextCommentID uint

	eventsMu    sync.Mutex
	events      map[string]*models.LikeEvent
	nextEventID uint

	postsMu sync.Mutex
	posts   map[string]*models.Post

	usersMu    sync.Mutex
	users      map[uint]*models.User
	nextUserID uint
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		comments: make(map[uint]*models.Comment),
		events:   make(map[string]*models.LikeEvent),
		posts:    make(map[string]*models.Post),
		users:    make(map[uint]*models.User),
	}
}

func eventKey(actorID uint, kind models.TargetKind, targetID string) string {
	return fmt.Sprintf("%d|%s|%s", actorID, kind, targetID)
}

// ---- TreeStore ----

// Get retrieves a comment by id.
func (s *MemoryStore) Get(ctx context.Context, nodeID uint) (*models.Comment, error) {
	s.commentsMu.Lock()
	defer s.commentsMu.Unlock()
	return memTreeTx{s: s}.Get(nodeID)
}

// RangeQuery retrieves a slice of the tree in preorder.
func (s *MemoryStore) RangeQuery(ctx context.Context, treeID string, low, high int) ([]models.Comment, error) {
	s.commentsMu.Lock()
	defer s.commentsMu.Unlock()

	var out []models.Comment
	for _, c := range s.comments {
		if c.TreeID != treeID || c.Lft < low {
			continue
		}
		if high > 0 && c.Lft > high {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lft < out[j].Lft })
	return out, nil
}

// MaxRight retrieves the largest rgt in the tree, 0 for an empty tree.
func (s *MemoryStore) MaxRight(ctx context.Context, treeID string) (int, error) {
	s.commentsMu.Lock()
	defer s.commentsMu.Unlock()
	return memTreeTx{s: s}.MaxRight(treeID)
}

// Mutate runs fn against the comment table under the comments lock; on error
// the tree is restored from a snapshot taken before fn ran.
func (s *MemoryStore) Mutate(ctx context.Context, treeID string, fn func(tx TreeTx) error) error {
	s.commentsMu.Lock()
	defer s.commentsMu.Unlock()

	snapshot := make(map[uint]models.Comment)
	for id, c := range s.comments {
		if c.TreeID == treeID {
			snapshot[id] = *c
		}
	}
	nextID := s.nextCommentID

	if err := fn(memTreeTx{s: s}); err != nil {
		for id, c := range s.comments {
			if c.TreeID == treeID {
				delete(s.comments, id)
			}
		}
		for id, c := range snapshot {
			row := c
			s.comments[id] = &row
		}
		s.nextCommentID = nextID
		return err
	}
	return nil
}

type memTreeTx struct {
	s *MemoryStore
}

func (t memTreeTx) Get(nodeID uint) (*models.Comment, error) {
	c, ok := t.s.comments[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: comment %d", engine.ErrNotFound, nodeID)
	}
	row := *c
	return &row, nil
}

func (t memTreeTx) MaxRight(treeID string) (int, error) {
	max := 0
	for _, c := range t.s.comments {
		if c.TreeID == treeID && c.Rgt > max {
			max = c.Rgt
		}
	}
	return max, nil
}

func (t memTreeTx) ShiftIntervals(treeID string, threshold, delta int) error {
	for _, c := range t.s.comments {
		if c.TreeID != treeID {
			continue
		}
		if c.Lft >= threshold {
			c.Lft += delta
		}
		if c.Rgt >= threshold {
			c.Rgt += delta
		}
	}
	return nil
}

func (t memTreeTx) Insert(c *models.Comment) error {
	if c.ID == 0 {
		t.s.nextCommentID++
		c.ID = t.s.nextCommentID
	} else if _, ok := t.s.comments[c.ID]; ok {
		return fmt.Errorf("%w: comment %d already exists", engine.ErrConflict, c.ID)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	row := *c
	t.s.comments[c.ID] = &row
	return nil
}

// ---- LikeStore ----

// Apply runs fn under the ledger lock, undoing its effects on error.
func (s *MemoryStore) Apply(ctx context.Context, fn func(tx LikeTx) error) error {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	tx := &memLikeTx{s: s}
	if err := fn(tx); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		return err
	}
	return nil
}

// EventsSince retrieves live events of one kind within the trailing window.
func (s *MemoryStore) EventsSince(ctx context.Context, kind models.TargetKind, since time.Time) ([]models.LikeEvent, error) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	var out []models.LikeEvent
	for _, ev := range s.events {
		if ev.TargetKind == kind && !ev.CreatedAt.Before(since) {
			out = append(out, *ev)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// CountLive retrieves the number of live events for a specific target.
func (s *MemoryStore) CountLive(ctx context.Context, kind models.TargetKind, targetID string) (int64, error) {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	var count int64
	for _, ev := range s.events {
		if ev.TargetKind == kind && ev.TargetID == targetID {
			count++
		}
	}
	return count, nil
}

type memLikeTx struct {
	s    *MemoryStore
	undo []func()
}

func (t *memLikeTx) Insert(ev *models.LikeEvent) error {
	key := eventKey(ev.ActorID, ev.TargetKind, ev.TargetID)
	if _, ok := t.s.events[key]; ok {
		return fmt.Errorf("%w: actor %d on %s %s", engine.ErrAlreadyLiked, ev.ActorID, ev.TargetKind, ev.TargetID)
	}
	t.s.nextEventID++
	ev.ID = t.s.nextEventID
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	row := *ev
	t.s.events[key] = &row
	t.undo = append(t.undo, func() { delete(t.s.events, key) })
	return nil
}

func (t *memLikeTx) Delete(actorID uint, kind models.TargetKind, targetID string) error {
	key := eventKey(actorID, kind, targetID)
	ev, ok := t.s.events[key]
	if !ok {
		return fmt.Errorf("%w: actor %d on %s %s", engine.ErrNotLiked, actorID, kind, targetID)
	}
	delete(t.s.events, key)
	t.undo = append(t.undo, func() { t.s.events[key] = ev })
	return nil
}

func (t *memLikeTx) AddToCommentLikeCount(commentID uint, delta int64) (int64, error) {
	t.s.commentsMu.Lock()
	defer t.s.commentsMu.Unlock()

	c, ok := t.s.comments[commentID]
	if !ok {
		return 0, fmt.Errorf("%w: comment %d", engine.ErrNotFound, commentID)
	}
	c.LikeCount += delta
	t.undo = append(t.undo, func() {
		t.s.commentsMu.Lock()
		defer t.s.commentsMu.Unlock()
		if c, ok := t.s.comments[commentID]; ok {
			c.LikeCount -= delta
		}
	})
	return c.LikeCount, nil
}

// ---- PostRepository ----

// CreatePost creates a new post.
func (s *MemoryStore) CreatePost(ctx context.Context, post *models.Post) error {
	s.postsMu.Lock()
	defer s.postsMu.Unlock()

	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	row := *post
	s.posts[post.ID.Hex()] = &row
	return nil
}

// GetPostByID retrieves a post by its hex id.
func (s *MemoryStore) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	s.postsMu.Lock()
	defer s.postsMu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, fmt.Errorf("%w: post %s", engine.ErrNotFound, id)
	}
	row := *p
	return &row, nil
}

// GetAllPosts retrieves posts newest-first with pagination.
func (s *MemoryStore) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	s.postsMu.Lock()
	defer s.postsMu.Unlock()

	all := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	if skip >= int64(len(all)) {
		return nil, nil
	}
	all = all[skip:]
	if limit > 0 && limit < int64(len(all)) {
		all = all[:limit]
	}
	return all, nil
}

// AddToLikesCount adjusts the likes count of a post and returns the new value.
func (s *MemoryStore) AddToLikesCount(ctx context.Context, postID string, delta int64) (int64, error) {
	s.postsMu.Lock()
	defer s.postsMu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return 0, fmt.Errorf("%w: post %s", engine.ErrNotFound, postID)
	}
	p.LikesCount += delta
	return p.LikesCount, nil
}

// IncrementCommentsCount increments the comments count of a post.
func (s *MemoryStore) IncrementCommentsCount(ctx context.Context, postID string) error {
	s.postsMu.Lock()
	defer s.postsMu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return fmt.Errorf("%w: post %s", engine.ErrNotFound, postID)
	}
	p.CommentsCount++
	return nil
}

// ---- UserRepository ----

// CreateUser creates a new user.
func (s *MemoryStore) CreateUser(user *models.User) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("%w: username or email already registered", engine.ErrConflict)
		}
	}
	s.nextUserID++
	user.ID = s.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	row := *user
	s.users[user.ID] = &row
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *MemoryStore) GetUserByID(id uint) (*models.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", engine.ErrNotFound, id)
	}
	row := *u
	return &row, nil
}

// GetUserByEmail retrieves a user by email.
func (s *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	for _, u := range s.users {
		if u.Email == email {
			row := *u
			return &row, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", engine.ErrNotFound, email)
}

// GetUsersByIDs retrieves a batch of users by their IDs.
func (s *MemoryStore) GetUsersByIDs(ids []uint) ([]models.User, error) {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	var users []models.User
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			users = append(users, *u)
		}
	}
	return users, nil
}

package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"wavegram/backend/internal/entity"
	apperrors "wavegram/backend/pkg/errors"
)

// MemoryStore is a fully in-process Store used by tests and local runs.
//
// Transactions stage their writes privately and validate at commit time:
// every document a transaction read must still carry the version it read,
// and a transaction that scanned collections must commit against the same
// store generation it began at. Validation failures surface as the conflict
// kind, matching the MongoDB-backed store.
type MemoryStore struct {
	mu       sync.Mutex
	gen      uint64
	users    map[string]*entity.User
	posts    map[string]*entity.Post
	comments map[string]*entity.Comment
	versions map[string]uint64
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]*entity.User),
		posts:    make(map[string]*entity.Post),
		comments: make(map[string]*entity.Comment),
		versions: make(map[string]uint64),
	}
}

// Begin starts a new transaction.
func (s *MemoryStore) Begin(ctx context.Context) (Txn, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewStoreFailed("begin", err)
	}
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	return &memoryTxn{
		store:   s,
		snapGen: gen,
		reads:   make(map[string]uint64),
		writes:  make(map[string]memWrite),
	}, nil
}

// Close releases the store. No-op for the in-memory implementation.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

const (
	kindUser    = "user/"
	kindPost    = "post/"
	kindComment = "comment/"
)

type memWrite struct {
	user    *entity.User
	post    *entity.Post
	comment *entity.Comment
	delete  bool
}

type memoryTxn struct {
	store   *MemoryStore
	snapGen uint64
	reads   map[string]uint64
	writes  map[string]memWrite
	scanned bool
	done    bool
}

func (t *memoryTxn) recordRead(key string, version uint64) {
	if _, ok := t.reads[key]; !ok {
		t.reads[key] = version
	}
}

// Users

func (t *memoryTxn) GetUser(ctx context.Context, id string) (*entity.User, error) {
	if w, ok := t.writes[kindUser+id]; ok {
		if w.delete {
			return nil, apperrors.NewUserNotFound(id)
		}
		return w.user.Clone(), nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.recordRead(kindUser+id, t.store.versions[kindUser+id])
	user, ok := t.store.users[id]
	if !ok {
		return nil, apperrors.NewUserNotFound(id)
	}
	return user.Clone(), nil
}

func (t *memoryTxn) PutUser(ctx context.Context, user *entity.User) error {
	t.writes[kindUser+user.ID] = memWrite{user: user.Clone()}
	return nil
}

func (t *memoryTxn) DeleteUser(ctx context.Context, id string) error {
	t.writes[kindUser+id] = memWrite{delete: true}
	return nil
}

// Posts

func (t *memoryTxn) GetPost(ctx context.Context, id string) (*entity.Post, error) {
	if w, ok := t.writes[kindPost+id]; ok {
		if w.delete {
			return nil, apperrors.NewPostNotFound(id)
		}
		return w.post.Clone(), nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.recordRead(kindPost+id, t.store.versions[kindPost+id])
	post, ok := t.store.posts[id]
	if !ok {
		return nil, apperrors.NewPostNotFound(id)
	}
	return post.Clone(), nil
}

func (t *memoryTxn) PutPost(ctx context.Context, post *entity.Post) error {
	t.writes[kindPost+post.ID] = memWrite{post: post.Clone()}
	return nil
}

func (t *memoryTxn) DeletePost(ctx context.Context, id string) error {
	t.writes[kindPost+id] = memWrite{delete: true}
	return nil
}

// Comments

func (t *memoryTxn) GetComment(ctx context.Context, id string) (*entity.Comment, error) {
	if w, ok := t.writes[kindComment+id]; ok {
		if w.delete {
			return nil, apperrors.NewCommentNotFound(id)
		}
		return w.comment.Clone(), nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.recordRead(kindComment+id, t.store.versions[kindComment+id])
	comment, ok := t.store.comments[id]
	if !ok {
		return nil, apperrors.NewCommentNotFound(id)
	}
	return comment.Clone(), nil
}

func (t *memoryTxn) PutComment(ctx context.Context, comment *entity.Comment) error {
	t.writes[kindComment+comment.ID] = memWrite{comment: comment.Clone()}
	return nil
}

func (t *memoryTxn) DeleteComment(ctx context.Context, id string) error {
	t.writes[kindComment+id] = memWrite{delete: true}
	return nil
}

// Lookups and scans. Scans merge committed state with the transaction's own
// staged writes and pin the transaction to the generation it began at.

func (t *memoryTxn) FindUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	users := t.userView()
	for _, u := range users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperrors.NewUserNotFound(username)
}

func (t *memoryTxn) FindUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	users := t.userView()
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NewUserNotFound(email)
}

func (t *memoryTxn) AllUsers(ctx context.Context) ([]*entity.User, error) {
	users := t.userView()
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (t *memoryTxn) AllPosts(ctx context.Context) ([]*entity.Post, error) {
	posts := t.postView(func(*entity.Post) bool { return true })
	sortPostsNewestFirst(posts)
	return posts, nil
}

func (t *memoryTxn) PostsByOwner(ctx context.Context, ownerID string) ([]*entity.Post, error) {
	posts := t.postView(func(p *entity.Post) bool { return p.Owner == ownerID })
	sortPostsNewestFirst(posts)
	return posts, nil
}

func (t *memoryTxn) CommentsByOwner(ctx context.Context, ownerID string) ([]*entity.Comment, error) {
	comments := t.commentView(func(c *entity.Comment) bool { return c.Owner == ownerID })
	sortCommentsOldestFirst(comments)
	return comments, nil
}

func (t *memoryTxn) CommentsByPost(ctx context.Context, postID string) ([]*entity.Comment, error) {
	comments := t.commentView(func(c *entity.Comment) bool { return c.PostID == postID })
	sortCommentsOldestFirst(comments)
	return comments, nil
}

func (t *memoryTxn) PostsLikedBy(ctx context.Context, userID string) ([]*entity.Post, error) {
	posts := t.postView(func(p *entity.Post) bool { return p.Likes.Has(userID) })
	sortPostsNewestFirst(posts)
	return posts, nil
}

func (t *memoryTxn) CommentsLikedBy(ctx context.Context, userID string) ([]*entity.Comment, error) {
	comments := t.commentView(func(c *entity.Comment) bool { return c.Likes.Has(userID) })
	sortCommentsOldestFirst(comments)
	return comments, nil
}

func (t *memoryTxn) UsersLinkedTo(ctx context.Context, userID string) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range t.userView() {
		if u.Followers.Has(userID) || u.Following.Has(userID) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memoryTxn) userView() []*entity.User {
	t.scanned = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var out []*entity.User
	for id, u := range t.store.users {
		if w, ok := t.writes[kindUser+id]; ok {
			if w.delete {
				continue
			}
			u = w.user
		}
		out = append(out, u.Clone())
	}
	for key, w := range t.writes {
		if w.user != nil {
			if _, exists := t.store.users[w.user.ID]; !exists && key == kindUser+w.user.ID {
				out = append(out, w.user.Clone())
			}
		}
	}
	return out
}

func (t *memoryTxn) postView(match func(*entity.Post) bool) []*entity.Post {
	t.scanned = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var out []*entity.Post
	for id, p := range t.store.posts {
		if w, ok := t.writes[kindPost+id]; ok {
			if w.delete {
				continue
			}
			p = w.post
		}
		if match(p) {
			out = append(out, p.Clone())
		}
	}
	for key, w := range t.writes {
		if w.post != nil {
			if _, exists := t.store.posts[w.post.ID]; !exists && key == kindPost+w.post.ID && match(w.post) {
				out = append(out, w.post.Clone())
			}
		}
	}
	return out
}

func (t *memoryTxn) commentView(match func(*entity.Comment) bool) []*entity.Comment {
	t.scanned = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	var out []*entity.Comment
	for id, c := range t.store.comments {
		if w, ok := t.writes[kindComment+id]; ok {
			if w.delete {
				continue
			}
			c = w.comment
		}
		if match(c) {
			out = append(out, c.Clone())
		}
	}
	for key, w := range t.writes {
		if w.comment != nil {
			if _, exists := t.store.comments[w.comment.ID]; !exists && key == kindComment+w.comment.ID && match(w.comment) {
				out = append(out, w.comment.Clone())
			}
		}
	}
	return out
}

func sortPostsNewestFirst(posts []*entity.Post) {
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

func sortCommentsOldestFirst(comments []*entity.Comment) {
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
}

// Commit validates reads and applies all staged writes atomically.
func (t *memoryTxn) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	if len(t.writes) == 0 {
		// Read-only: nothing was staged, nothing to validate.
		return nil
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if t.scanned && t.store.gen != t.snapGen {
		return apperrors.NewConflict("commit", nil)
	}
	for key, version := range t.reads {
		if t.store.versions[key] != version {
			return apperrors.NewConflict("commit", nil)
		}
	}

	t.store.gen++
	gen := t.store.gen
	for key, w := range t.writes {
		t.store.versions[key] = gen
		switch {
		case w.user != nil:
			t.store.users[w.user.ID] = w.user.Clone()
		case w.post != nil:
			t.store.posts[w.post.ID] = w.post.Clone()
		case w.comment != nil:
			t.store.comments[w.comment.ID] = w.comment.Clone()
		case w.delete:
			switch {
			case strings.HasPrefix(key, kindUser):
				delete(t.store.users, strings.TrimPrefix(key, kindUser))
			case strings.HasPrefix(key, kindPost):
				delete(t.store.posts, strings.TrimPrefix(key, kindPost))
			default:
				delete(t.store.comments, strings.TrimPrefix(key, kindComment))
			}
		}
	}
	return nil
}

// Abort discards all staged writes. Safe to call more than once and after a
// failed Commit.
func (t *memoryTxn) Abort(ctx context.Context) error {
	t.done = true
	t.writes = make(map[string]memWrite)
	return nil
}

package social

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"wavegram/backend/internal/entity"
	"wavegram/backend/internal/store"
	apperrors "wavegram/backend/pkg/errors"
)

func newTestService(t *testing.T) (*Service, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	return NewService(st), st
}

func seedUser(t *testing.T, st store.Store, id, username string) *entity.User {
	t.Helper()
	now := time.Now().UTC()
	user := &entity.User{
		ID:        id,
		Username:  username,
		Email:     username + "@example.com",
		FullName:  "User " + username,
		Password:  "hashed",
		Followers: entity.IDSet{},
		Following: entity.IDSet{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := store.WithTxn(context.Background(), st, func(txn store.Txn) error {
		return txn.PutUser(context.Background(), user)
	})
	require.NoError(t, err)
	return user
}

func seedPost(t *testing.T, st store.Store, id, ownerID, message string) *entity.Post {
	t.Helper()
	now := time.Now().UTC()
	post := &entity.Post{
		ID:        id,
		Owner:     ownerID,
		Message:   message,
		Likes:     entity.IDSet{},
		Comments:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := store.WithTxn(context.Background(), st, func(txn store.Txn) error {
		return txn.PutPost(context.Background(), post)
	})
	require.NoError(t, err)
	return post
}

func seedComment(t *testing.T, st store.Store, id, postID, ownerID, text string) *entity.Comment {
	t.Helper()
	now := time.Now().UTC()
	comment := &entity.Comment{
		ID:        id,
		PostID:    postID,
		Owner:     ownerID,
		Text:      text,
		Likes:     entity.IDSet{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	ctx := context.Background()
	err := store.WithTxn(ctx, st, func(txn store.Txn) error {
		post, err := txn.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		if err := txn.PutComment(ctx, comment); err != nil {
			return err
		}
		post.AppendComment(comment.ID)
		return txn.PutPost(ctx, post)
	})
	require.NoError(t, err)
	return comment
}

// graphSnapshot captures every reachable document for before/after
// comparison in atomicity tests.
type graphSnapshot struct {
	Users    map[string]*entity.User
	Posts    map[string]*entity.Post
	Comments map[string]*entity.Comment
}

func snapshot(t *testing.T, st store.Store) *graphSnapshot {
	t.Helper()
	ctx := context.Background()
	snap := &graphSnapshot{
		Users:    make(map[string]*entity.User),
		Posts:    make(map[string]*entity.Post),
		Comments: make(map[string]*entity.Comment),
	}
	err := store.WithTxn(ctx, st, func(txn store.Txn) error {
		users, err := txn.AllUsers(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			snap.Users[u.ID] = u
		}
		posts, err := txn.AllPosts(ctx)
		if err != nil {
			return err
		}
		for _, p := range posts {
			snap.Posts[p.ID] = p
			comments, err := txn.CommentsByPost(ctx, p.ID)
			if err != nil {
				return err
			}
			for _, c := range comments {
				snap.Comments[c.ID] = c
			}
		}
		return nil
	})
	require.NoError(t, err)
	return snap
}

// flakyStore wraps a Store and fails the Nth write inside a transaction,
// simulating a mid-cascade store failure.
type flakyStore struct {
	inner  store.Store
	failAt int
	writes int
}

func (f *flakyStore) Begin(ctx context.Context) (store.Txn, error) {
	txn, err := f.inner.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &flakyTxn{Txn: txn, parent: f}, nil
}

func (f *flakyStore) Close(ctx context.Context) error {
	return f.inner.Close(ctx)
}

func (f *flakyStore) tick() error {
	f.writes++
	if f.writes == f.failAt {
		return apperrors.NewStoreFailed("injected write failure", nil)
	}
	return nil
}

type flakyTxn struct {
	store.Txn
	parent *flakyStore
}

func (t *flakyTxn) PutUser(ctx context.Context, user *entity.User) error {
	if err := t.parent.tick(); err != nil {
		return err
	}
	return t.Txn.PutUser(ctx, user)
}

func (t *flakyTxn) DeleteUser(ctx context.Context, id string) error {
	if err := t.parent.tick(); err != nil {
		return err
	}
	return t.Txn.DeleteUser(ctx, id)
}

func (t *flakyTxn) PutPost(ctx context.Context, post *entity.Post) error {
	if err := t.parent.tick(); err != nil {
		return err
	}
	return t.Txn.PutPost(ctx, post)
}

func (t *flakyTxn) DeletePost(ctx context.Context, id string) error {
	if err := t.parent.tick(); err != nil {
		return err
	}
	return t.Txn.DeletePost(ctx, id)
}

func (t *flakyTxn) PutComment(ctx context.Context, comment *entity.Comment) error {
	if err := t.parent.tick(); err != nil {
		return err
	}
	return t.Txn.PutComment(ctx, comment)
}

func (t *flakyTxn) DeleteComment(ctx context.Context, id string) error {
	if err := t.parent.tick(); err != nil {
		return err
	}
	return t.Txn.DeleteComment(ctx, id)
}

// Package store defines the entity-store boundary for the social graph.
//
// Every multi-document mutation in the engine runs inside a Txn obtained
// from a Store. A Txn either commits all of its writes or none of them, and
// no other transaction ever observes its intermediate state. The store is
// passed explicitly into the engine; there is no package-level handle.
package store

import (
	"context"

	"wavegram/backend/internal/entity"
)

// Txn is a single atomic unit of reads and writes against the entity store.
//
// Reads inside the transaction observe its own staged writes. Commit fails
// with a conflict error when a concurrent transaction has modified state
// this transaction depended on; conflict is the only retryable failure.
type Txn interface {
	GetUser(ctx context.Context, id string) (*entity.User, error)
	PutUser(ctx context.Context, user *entity.User) error
	DeleteUser(ctx context.Context, id string) error

	GetPost(ctx context.Context, id string) (*entity.Post, error)
	PutPost(ctx context.Context, post *entity.Post) error
	DeletePost(ctx context.Context, id string) error

	GetComment(ctx context.Context, id string) (*entity.Comment, error)
	PutComment(ctx context.Context, comment *entity.Comment) error
	DeleteComment(ctx context.Context, id string) error

	FindUserByUsername(ctx context.Context, username string) (*entity.User, error)
	FindUserByEmail(ctx context.Context, email string) (*entity.User, error)
	AllUsers(ctx context.Context) ([]*entity.User, error)

	// AllPosts returns every post, newest first.
	AllPosts(ctx context.Context) ([]*entity.Post, error)
	// PostsByOwner returns the user's posts, newest first.
	PostsByOwner(ctx context.Context, ownerID string) ([]*entity.Post, error)
	// CommentsByOwner returns the user's comments in creation order.
	CommentsByOwner(ctx context.Context, ownerID string) ([]*entity.Comment, error)
	// CommentsByPost returns a post's comments in creation order.
	CommentsByPost(ctx context.Context, postID string) ([]*entity.Comment, error)
	// PostsLikedBy returns every post whose like set contains userID.
	PostsLikedBy(ctx context.Context, userID string) ([]*entity.Post, error)
	// CommentsLikedBy returns every comment whose like set contains userID.
	CommentsLikedBy(ctx context.Context, userID string) ([]*entity.Comment, error)
	// UsersLinkedTo returns every user whose followers or following set
	// contains userID.
	UsersLinkedTo(ctx context.Context, userID string) ([]*entity.User, error)

	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
}

// Store hands out transactions against one logical entity database.
type Store interface {
	Begin(ctx context.Context) (Txn, error)
	Close(ctx context.Context) error
}

// WithTxn runs fn inside a transaction. The transaction commits only when fn
// returns nil; every other exit path aborts, so no caller can leak a partial
// multi-step mutation.
func WithTxn(ctx context.Context, s Store, fn func(txn Txn) error) error {
	txn, err := s.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(txn); err != nil {
		_ = txn.Abort(ctx)
		return err
	}
	if err := txn.Commit(ctx); err != nil {
		_ = txn.Abort(ctx)
		return err
	}
	return nil
}

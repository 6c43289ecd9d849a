package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"wavegram/backend/internal/entity"
	apperrors "wavegram/backend/pkg/errors"
)

const (
	collUsers    = "users"
	collPosts    = "posts"
	collComments = "comments"
)

// MongoStore implements Store on MongoDB sessions with multi-document
// transactions. Snapshot read concern plus majority write concern give the
// isolation the engine assumes: no transaction observes another's
// intermediate state.
type MongoStore struct {
	client     *mongo.Client
	db         *mongo.Database
	txnTimeout time.Duration
}

// NewMongoStore connects to MongoDB and verifies connectivity.
func NewMongoStore(ctx context.Context, uri, dbName string, txnTimeout time.Duration) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, apperrors.NewStoreFailed("connect", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, apperrors.NewStoreFailed("ping", err)
	}
	return &MongoStore{
		client:     client,
		db:         client.Database(dbName),
		txnTimeout: txnTimeout,
	}, nil
}

// EnsureIndexes creates the unique indexes the engine relies on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	users := s.db.Collection(collUsers)
	_, err := users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return apperrors.NewStoreFailed("ensure indexes", err)
	}
	return nil
}

// Begin starts a session-backed transaction with the store's deadline.
func (s *MongoStore) Begin(ctx context.Context) (Txn, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, apperrors.NewStoreFailed("start session", err)
	}

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := sess.StartTransaction(txnOpts); err != nil {
		sess.EndSession(ctx)
		return nil, apperrors.NewStoreFailed("start transaction", err)
	}

	txnCtx, cancel := context.WithTimeout(ctx, s.txnTimeout)
	return &mongoTxn{
		db:     s.db,
		sess:   sess,
		ctx:    txnCtx,
		cancel: cancel,
	}, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return apperrors.NewStoreFailed("disconnect", err)
	}
	return nil
}

type mongoTxn struct {
	db     *mongo.Database
	sess   mongo.Session
	ctx    context.Context
	cancel context.CancelFunc
	ended  bool
}

// sc binds the session to the transaction-scoped context so every operation
// shares the deadline set at Begin.
func (t *mongoTxn) sc() mongo.SessionContext {
	return mongo.NewSessionContext(t.ctx, t.sess)
}

// mapError translates driver errors into the engine's error kinds.
func mapError(operation string, err error) error {
	var se mongo.ServerError
	if errors.As(err, &se) &&
		(se.HasErrorLabel("TransientTransactionError") || se.HasErrorLabel("UnknownTransactionCommitResult")) {
		return apperrors.NewConflict(operation, err)
	}
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.NewConflict(operation, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		// The transaction overran the store deadline; the caller may retry
		// the whole operation from scratch.
		return apperrors.NewConflict(operation, err)
	}
	return apperrors.NewStoreFailed(operation, err)
}

// Users

func (t *mongoTxn) GetUser(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	err := t.db.Collection(collUsers).FindOne(t.sc(), bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewUserNotFound(id)
	}
	if err != nil {
		return nil, mapError("get user", err)
	}
	return &user, nil
}

func (t *mongoTxn) PutUser(ctx context.Context, user *entity.User) error {
	_, err := t.db.Collection(collUsers).ReplaceOne(
		t.sc(), bson.M{"_id": user.ID}, user, options.Replace().SetUpsert(true))
	if err != nil {
		return mapError("put user", err)
	}
	return nil
}

func (t *mongoTxn) DeleteUser(ctx context.Context, id string) error {
	if _, err := t.db.Collection(collUsers).DeleteOne(t.sc(), bson.M{"_id": id}); err != nil {
		return mapError("delete user", err)
	}
	return nil
}

// Posts

func (t *mongoTxn) GetPost(ctx context.Context, id string) (*entity.Post, error) {
	var post entity.Post
	err := t.db.Collection(collPosts).FindOne(t.sc(), bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewPostNotFound(id)
	}
	if err != nil {
		return nil, mapError("get post", err)
	}
	return &post, nil
}

func (t *mongoTxn) PutPost(ctx context.Context, post *entity.Post) error {
	_, err := t.db.Collection(collPosts).ReplaceOne(
		t.sc(), bson.M{"_id": post.ID}, post, options.Replace().SetUpsert(true))
	if err != nil {
		return mapError("put post", err)
	}
	return nil
}

func (t *mongoTxn) DeletePost(ctx context.Context, id string) error {
	if _, err := t.db.Collection(collPosts).DeleteOne(t.sc(), bson.M{"_id": id}); err != nil {
		return mapError("delete post", err)
	}
	return nil
}

// Comments

func (t *mongoTxn) GetComment(ctx context.Context, id string) (*entity.Comment, error) {
	var comment entity.Comment
	err := t.db.Collection(collComments).FindOne(t.sc(), bson.M{"_id": id}).Decode(&comment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewCommentNotFound(id)
	}
	if err != nil {
		return nil, mapError("get comment", err)
	}
	return &comment, nil
}

func (t *mongoTxn) PutComment(ctx context.Context, comment *entity.Comment) error {
	_, err := t.db.Collection(collComments).ReplaceOne(
		t.sc(), bson.M{"_id": comment.ID}, comment, options.Replace().SetUpsert(true))
	if err != nil {
		return mapError("put comment", err)
	}
	return nil
}

func (t *mongoTxn) DeleteComment(ctx context.Context, id string) error {
	if _, err := t.db.Collection(collComments).DeleteOne(t.sc(), bson.M{"_id": id}); err != nil {
		return mapError("delete comment", err)
	}
	return nil
}

// Lookups and scans

func (t *mongoTxn) FindUserByUsername(ctx context.Context, username string) (*entity.User, error) {
	var user entity.User
	err := t.db.Collection(collUsers).FindOne(t.sc(), bson.M{"username": username}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewUserNotFound(username)
	}
	if err != nil {
		return nil, mapError("find user by username", err)
	}
	return &user, nil
}

func (t *mongoTxn) FindUserByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	err := t.db.Collection(collUsers).FindOne(t.sc(), bson.M{"email": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NewUserNotFound(email)
	}
	if err != nil {
		return nil, mapError("find user by email", err)
	}
	return &user, nil
}

func (t *mongoTxn) AllUsers(ctx context.Context) ([]*entity.User, error) {
	return t.findUsers("all users", bson.M{}, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
}

func (t *mongoTxn) AllPosts(ctx context.Context) ([]*entity.Post, error) {
	return t.findPosts("all posts", bson.M{}, sortNewestFirst())
}

func (t *mongoTxn) PostsByOwner(ctx context.Context, ownerID string) ([]*entity.Post, error) {
	return t.findPosts("posts by owner", bson.M{"owner": ownerID}, sortNewestFirst())
}

func (t *mongoTxn) CommentsByOwner(ctx context.Context, ownerID string) ([]*entity.Comment, error) {
	return t.findComments("comments by owner", bson.M{"owner": ownerID}, sortOldestFirst())
}

func (t *mongoTxn) CommentsByPost(ctx context.Context, postID string) ([]*entity.Comment, error) {
	return t.findComments("comments by post", bson.M{"postId": postID}, sortOldestFirst())
}

func (t *mongoTxn) PostsLikedBy(ctx context.Context, userID string) ([]*entity.Post, error) {
	return t.findPosts("posts liked by", bson.M{"likes": userID}, sortNewestFirst())
}

func (t *mongoTxn) CommentsLikedBy(ctx context.Context, userID string) ([]*entity.Comment, error) {
	return t.findComments("comments liked by", bson.M{"likes": userID}, sortOldestFirst())
}

func (t *mongoTxn) UsersLinkedTo(ctx context.Context, userID string) ([]*entity.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"followers": userID},
		bson.M{"following": userID},
	}}
	return t.findUsers("users linked to", filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
}

func (t *mongoTxn) findUsers(operation string, filter bson.M, opts *options.FindOptions) ([]*entity.User, error) {
	cursor, err := t.db.Collection(collUsers).Find(t.sc(), filter, opts)
	if err != nil {
		return nil, mapError(operation, err)
	}
	var users []*entity.User
	if err := cursor.All(t.sc(), &users); err != nil {
		return nil, mapError(operation, err)
	}
	return users, nil
}

func (t *mongoTxn) findPosts(operation string, filter bson.M, opts *options.FindOptions) ([]*entity.Post, error) {
	cursor, err := t.db.Collection(collPosts).Find(t.sc(), filter, opts)
	if err != nil {
		return nil, mapError(operation, err)
	}
	var posts []*entity.Post
	if err := cursor.All(t.sc(), &posts); err != nil {
		return nil, mapError(operation, err)
	}
	return posts, nil
}

func (t *mongoTxn) findComments(operation string, filter bson.M, opts *options.FindOptions) ([]*entity.Comment, error) {
	cursor, err := t.db.Collection(collComments).Find(t.sc(), filter, opts)
	if err != nil {
		return nil, mapError(operation, err)
	}
	var comments []*entity.Comment
	if err := cursor.All(t.sc(), &comments); err != nil {
		return nil, mapError(operation, err)
	}
	return comments, nil
}

func sortNewestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
}

func sortOldestFirst() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
}

// Commit commits the transaction and releases the session.
func (t *mongoTxn) Commit(ctx context.Context) error {
	if t.ended {
		return nil
	}
	t.ended = true
	defer t.end(ctx)
	if err := t.sess.CommitTransaction(t.sc()); err != nil {
		return mapError("commit", err)
	}
	return nil
}

// Abort rolls the transaction back. Safe after a failed Commit.
func (t *mongoTxn) Abort(ctx context.Context) error {
	if t.ended {
		return nil
	}
	t.ended = true
	defer t.end(ctx)
	if err := t.sess.AbortTransaction(t.sc()); err != nil {
		return mapError("abort", err)
	}
	return nil
}

func (t *mongoTxn) end(ctx context.Context) {
	t.cancel()
	t.sess.EndSession(ctx)
}

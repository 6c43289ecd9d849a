package social

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"wavegram/backend/internal/entity"
	"wavegram/backend/internal/store"
	apperrors "wavegram/backend/pkg/errors"
)

// AddComment creates a comment under a post. The comment document and the
// parent post's comment list are written in the same transaction, so the
// bidirectional link is created atomically.
func (s *Service) AddComment(ctx context.Context, postID, ownerID, text string) (*entity.Comment, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, apperrors.NewValidation("commentText", "must not be empty")
	}
	if len(trimmed) > entity.MaxCommentLength {
		return nil, apperrors.NewValidation("commentText", "too long")
	}

	var comment *entity.Comment
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		if _, err := txn.GetUser(ctx, ownerID); err != nil {
			return err
		}
		post, err := txn.GetPost(ctx, postID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		comment = &entity.Comment{
			ID:        entity.NewID(),
			PostID:    postID,
			Owner:     ownerID,
			Text:      trimmed,
			Likes:     entity.IDSet{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := txn.PutComment(ctx, comment); err != nil {
			return err
		}
		post.AppendComment(comment.ID)
		post.UpdatedAt = now
		return txn.PutPost(ctx, post)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("comment added",
		zap.String("comment_id", comment.ID),
		zap.String("post_id", postID),
		zap.String("owner_id", ownerID),
	)
	return comment, nil
}

// GetComment returns a single comment.
func (s *Service) GetComment(ctx context.Context, commentID string) (*entity.Comment, error) {
	var comment *entity.Comment
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		var err error
		comment, err = txn.GetComment(ctx, commentID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

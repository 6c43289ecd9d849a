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

// CreatePost creates a post owned by ownerID.
func (s *Service) CreatePost(ctx context.Context, ownerID, message string) (*entity.Post, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.NewValidation("message", "must not be empty")
	}

	var post *entity.Post
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		if _, err := txn.GetUser(ctx, ownerID); err != nil {
			return err
		}
		now := time.Now().UTC()
		post = &entity.Post{
			ID:        entity.NewID(),
			Owner:     ownerID,
			Message:   message,
			Likes:     entity.IDSet{},
			Comments:  []string{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		return txn.PutPost(ctx, post)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("post created",
		zap.String("post_id", post.ID), zap.String("owner_id", ownerID))
	return post, nil
}

// UpdatePost replaces a post's message. Only the owner may update it.
func (s *Service) UpdatePost(ctx context.Context, postID, requesterID, message string) (*entity.Post, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.NewValidation("message", "must not be empty")
	}

	var updated *entity.Post
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		post, err := txn.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		if post.Owner != requesterID {
			return apperrors.NewForbidden(requesterID, "update post "+postID)
		}
		post.Message = message
		post.UpdatedAt = time.Now().UTC()
		updated = post
		return txn.PutPost(ctx, post)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

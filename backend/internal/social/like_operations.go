package social

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wavegram/backend/internal/entity"
	"wavegram/backend/internal/store"
	apperrors "wavegram/backend/pkg/errors"
)

// SetLike moves the actor's like on a post or comment to the desired state.
//
// A like is single-sided: membership in the target's like set. The toggle
// still runs in a transaction so the actor-existence check and the write
// commit against the same state.
func (s *Service) SetLike(ctx context.Context, actorID string, kind TargetKind, targetID string, desired bool) (*LikeResult, error) {
	var result *LikeResult
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		if _, err := txn.GetUser(ctx, actorID); err != nil {
			return err
		}

		switch kind {
		case TargetPost:
			post, err := txn.GetPost(ctx, targetID)
			if err != nil {
				return err
			}
			changed := toggleLike(&post.Likes, actorID, desired)
			if changed {
				post.UpdatedAt = time.Now().UTC()
				if err := txn.PutPost(ctx, post); err != nil {
					return err
				}
			}
			result = &LikeResult{Liked: desired, Changed: changed, LikeCount: post.Likes.Len()}
		case TargetComment:
			comment, err := txn.GetComment(ctx, targetID)
			if err != nil {
				return err
			}
			changed := toggleLike(&comment.Likes, actorID, desired)
			if changed {
				comment.UpdatedAt = time.Now().UTC()
				if err := txn.PutComment(ctx, comment); err != nil {
					return err
				}
			}
			result = &LikeResult{Liked: desired, Changed: changed, LikeCount: comment.Likes.Len()}
		default:
			return apperrors.NewValidation("target", "unknown like target kind")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("like toggled",
		zap.String("actor_id", actorID),
		zap.String("target_kind", string(kind)),
		zap.String("target_id", targetID),
		zap.Bool("liked", result.Liked),
		zap.Bool("changed", result.Changed),
	)
	return result, nil
}

func toggleLike(likes *entity.IDSet, actorID string, desired bool) bool {
	if desired {
		return likes.Add(actorID)
	}
	return likes.Remove(actorID)
}

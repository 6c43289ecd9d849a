package social

import (
	"context"
	"time"

	"go.uber.org/zap"

	"wavegram/backend/internal/store"
	apperrors "wavegram/backend/pkg/errors"
)

// SetFollow moves the follow edge follower->target to the desired state.
//
// The edge lives on two documents (target.Followers and follower.Following)
// and both writes commit in one transaction, so a reader never observes an
// asymmetric edge. Repeating the same desired state is a no-op that still
// succeeds, with Changed=false.
func (s *Service) SetFollow(ctx context.Context, followerID, targetID string, desired bool) (*FollowResult, error) {
	if followerID == targetID {
		return nil, apperrors.NewSelfReference(followerID)
	}

	var result *FollowResult
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		target, err := txn.GetUser(ctx, targetID)
		if err != nil {
			return err
		}
		follower, err := txn.GetUser(ctx, followerID)
		if err != nil {
			return err
		}

		var changedTarget, changedFollower bool
		if desired {
			changedTarget = target.Followers.Add(followerID)
			changedFollower = follower.Following.Add(targetID)
		} else {
			changedTarget = target.Followers.Remove(followerID)
			changedFollower = follower.Following.Remove(targetID)
		}

		// Both sides of the edge must agree before the toggle; a one-sided
		// edge means a previous writer bypassed the transaction.
		if changedTarget != changedFollower {
			return apperrors.NewIntegrityViolation(
				"asymmetric follow edge between " + followerID + " and " + targetID)
		}

		if changedTarget {
			now := time.Now().UTC()
			target.UpdatedAt = now
			follower.UpdatedAt = now
			if err := txn.PutUser(ctx, target); err != nil {
				return err
			}
			if err := txn.PutUser(ctx, follower); err != nil {
				return err
			}
		}

		result = &FollowResult{
			Following:     desired,
			Changed:       changedTarget,
			FollowerCount: target.Followers.Len(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("follow toggled",
		zap.String("follower_id", followerID),
		zap.String("target_id", targetID),
		zap.Bool("following", result.Following),
		zap.Bool("changed", result.Changed),
	)
	return result, nil
}

// IsFollowing reports whether follower currently follows target.
func (s *Service) IsFollowing(ctx context.Context, followerID, targetID string) (bool, error) {
	var following bool
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		target, err := txn.GetUser(ctx, targetID)
		if err != nil {
			return err
		}
		following = target.Followers.Has(followerID)
		return nil
	})
	return following, err
}

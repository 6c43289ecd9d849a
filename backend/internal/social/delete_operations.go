package social

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wavegram/backend/internal/store"
	apperrors "wavegram/backend/pkg/errors"
)

// DeleteUser removes a user and every trace of them from the graph as one
// atomic transaction:
//
//  1. the user's own comments are detached from their parent posts and
//     deleted, so no post ever references a missing comment;
//  2. the user's posts are deleted together with all of their comments,
//     whoever wrote them;
//  3. the user's id is stripped from every remaining like set;
//  4. the user's id is stripped from every other user's follower and
//     following sets;
//  5. the user record itself is deleted.
//
// Steps 1-2 run before 3-4 so like/follow cleanup scans never see documents
// that are about to disappear, and 3-4 run before 5 so no other document is
// left pointing at a user that no longer exists. Any failure aborts the
// whole transaction; a partially deleted account is never visible.
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		if _, err := txn.GetUser(ctx, userID); err != nil {
			return err
		}

		// Step 1: own comments off other posts.
		comments, err := txn.CommentsByOwner(ctx, userID)
		if err != nil {
			return err
		}
		for _, comment := range comments {
			post, err := txn.GetPost(ctx, comment.PostID)
			if err != nil {
				if apperrors.IsNotFound(err) {
					return apperrors.NewIntegrityViolation(
						fmt.Sprintf("comment %s references missing post %s", comment.ID, comment.PostID))
				}
				return err
			}
			if !post.DetachComment(comment.ID) {
				return apperrors.NewIntegrityViolation(
					fmt.Sprintf("comment %s not listed on its post %s", comment.ID, post.ID))
			}
			post.UpdatedAt = time.Now().UTC()
			if err := txn.PutPost(ctx, post); err != nil {
				return err
			}
			if err := txn.DeleteComment(ctx, comment.ID); err != nil {
				return err
			}
		}

		// Step 2: own posts, with all their comments.
		posts, err := txn.PostsByOwner(ctx, userID)
		if err != nil {
			return err
		}
		for _, post := range posts {
			if err := s.deletePostTree(ctx, txn, post.ID); err != nil {
				return err
			}
		}

		// Step 3: likes left on other people's content.
		likedPosts, err := txn.PostsLikedBy(ctx, userID)
		if err != nil {
			return err
		}
		for _, post := range likedPosts {
			post.Likes.Remove(userID)
			post.UpdatedAt = time.Now().UTC()
			if err := txn.PutPost(ctx, post); err != nil {
				return err
			}
		}
		likedComments, err := txn.CommentsLikedBy(ctx, userID)
		if err != nil {
			return err
		}
		for _, comment := range likedComments {
			comment.Likes.Remove(userID)
			comment.UpdatedAt = time.Now().UTC()
			if err := txn.PutComment(ctx, comment); err != nil {
				return err
			}
		}

		// Step 4: follow edges in both directions.
		linked, err := txn.UsersLinkedTo(ctx, userID)
		if err != nil {
			return err
		}
		for _, other := range linked {
			other.Followers.Remove(userID)
			other.Following.Remove(userID)
			other.UpdatedAt = time.Now().UTC()
			if err := txn.PutUser(ctx, other); err != nil {
				return err
			}
		}

		// Step 5: the user record.
		return txn.DeleteUser(ctx, userID)
	})
	if err != nil {
		if apperrors.IsErrorType(err, apperrors.ErrorTypeIntegrity) {
			s.logger.Error("account deletion aborted on integrity violation",
				zap.String("user_id", userID), zap.Error(err))
		}
		return err
	}

	s.logger.Info("account deleted", zap.String("user_id", userID))
	return nil
}

// DeletePost deletes a post and all of its comments as one transaction.
// Only the post's owner may delete it.
func (s *Service) DeletePost(ctx context.Context, postID, requesterID string) error {
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		post, err := txn.GetPost(ctx, postID)
		if err != nil {
			return err
		}
		if post.Owner != requesterID {
			return apperrors.NewForbidden(requesterID, "delete post "+postID)
		}
		return s.deletePostTree(ctx, txn, postID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("post deleted",
		zap.String("post_id", postID), zap.String("requester_id", requesterID))
	return nil
}

// DeleteComment deletes a comment and removes its id from the parent post's
// comment list, atomically. Only the comment's owner may delete it.
func (s *Service) DeleteComment(ctx context.Context, commentID, requesterID string) error {
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		comment, err := txn.GetComment(ctx, commentID)
		if err != nil {
			return err
		}
		if comment.Owner != requesterID {
			return apperrors.NewForbidden(requesterID, "delete comment "+commentID)
		}

		post, err := txn.GetPost(ctx, comment.PostID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewIntegrityViolation(
					fmt.Sprintf("comment %s references missing post %s", commentID, comment.PostID))
			}
			return err
		}
		if !post.DetachComment(commentID) {
			return apperrors.NewIntegrityViolation(
				fmt.Sprintf("comment %s not listed on its post %s", commentID, post.ID))
		}
		post.UpdatedAt = time.Now().UTC()
		if err := txn.PutPost(ctx, post); err != nil {
			return err
		}
		return txn.DeleteComment(ctx, commentID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("comment deleted",
		zap.String("comment_id", commentID), zap.String("requester_id", requesterID))
	return nil
}

// deletePostTree deletes a post and every comment attached to it inside the
// caller's transaction. The post's comment list and the comment documents
// must mirror each other exactly; any divergence aborts the cascade.
func (s *Service) deletePostTree(ctx context.Context, txn store.Txn, postID string) error {
	post, err := txn.GetPost(ctx, postID)
	if err != nil {
		return err
	}

	for _, commentID := range post.Comments {
		if _, err := txn.GetComment(ctx, commentID); err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewIntegrityViolation(
					fmt.Sprintf("post %s lists missing comment %s", postID, commentID))
			}
			return err
		}
		if err := txn.DeleteComment(ctx, commentID); err != nil {
			return err
		}
	}

	// Comments pointing at the post but absent from its list violate the
	// bidirectional-link invariant.
	strays, err := txn.CommentsByPost(ctx, postID)
	if err != nil {
		return err
	}
	if len(strays) > 0 {
		return apperrors.NewIntegrityViolation(
			fmt.Sprintf("post %s has %d comments not present in its comment list", postID, len(strays)))
	}

	return txn.DeletePost(ctx, postID)
}

package social

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"wavegram/backend/internal/entity"
	"wavegram/backend/internal/store"
	apperrors "wavegram/backend/pkg/errors"
)

// All counts in the view layer are computed from relationship state at read
// time. Nothing below maintains a stored counter, so the toggle and cascade
// paths never have a second number to keep in sync. The cost is O(set size)
// per read, which holds up at feed scale but not beyond; revisit before
// follower sets grow unbounded.

// Profile is the aggregate view of a user.
type Profile struct {
	ID             string         `json:"id"`
	Username       string         `json:"username"`
	FullName       string         `json:"fullName"`
	Email          string         `json:"email"`
	AvatarURL      string         `json:"avatarUrl"`
	FollowersCount int            `json:"followersCount"`
	FollowingCount int            `json:"followingCount"`
	PostsCount     int            `json:"postsCount"`
	Posts          []*entity.Post `json:"posts"`
}

// PostedBy identifies a post's author in feed views.
type PostedBy struct {
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// PostSummary is a feed entry with read-time counts.
type PostSummary struct {
	ID            string    `json:"id"`
	Message       string    `json:"message"`
	PostedBy      PostedBy  `json:"postedBy"`
	TotalLikes    int       `json:"totalLikes"`
	TotalComments int       `json:"totalComments"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// CommentSummary is a comment with author info and read-time like count.
type CommentSummary struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	Text       string    `json:"commentText"`
	PostedBy   PostedBy  `json:"postedBy"`
	TotalLikes int       `json:"totalLikes"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserSummary identifies a user in follower/following lists.
type UserSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

// GetUserProfile returns the profile for a username with counts computed
// from the live follower/following sets and post list.
func (s *Service) GetUserProfile(ctx context.Context, username string) (*Profile, error) {
	var profile *Profile
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		user, err := txn.FindUserByUsername(ctx, username)
		if err != nil {
			return err
		}
		posts, err := txn.PostsByOwner(ctx, user.ID)
		if err != nil {
			return err
		}
		profile = &Profile{
			ID:             user.ID,
			Username:       user.Username,
			FullName:       user.FullName,
			Email:          user.Email,
			AvatarURL:      user.Avatar.URL,
			FollowersCount: user.Followers.Len(),
			FollowingCount: user.Following.Len(),
			PostsCount:     len(posts),
			Posts:          posts,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// GetPostFeed returns every post newest-first with author info and
// read-time like/comment counts.
func (s *Service) GetPostFeed(ctx context.Context) ([]*PostSummary, error) {
	var feed []*PostSummary
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		posts, err := txn.AllPosts(ctx)
		if err != nil {
			return err
		}
		authors := make(map[string]*entity.User)
		feed = make([]*PostSummary, 0, len(posts))
		for _, post := range posts {
			author, ok := authors[post.Owner]
			if !ok {
				author, err = txn.GetUser(ctx, post.Owner)
				if err != nil {
					if apperrors.IsNotFound(err) {
						return apperrors.NewIntegrityViolation(
							"post " + post.ID + " owned by missing user " + post.Owner)
					}
					return err
				}
				authors[post.Owner] = author
			}
			feed = append(feed, &PostSummary{
				ID:            post.ID,
				Message:       post.Message,
				PostedBy:      summarizeAuthor(author),
				TotalLikes:    post.Likes.Len(),
				TotalComments: len(post.Comments),
				CreatedAt:     post.CreatedAt,
				UpdatedAt:     post.UpdatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return feed, nil
}

// GetUserPosts returns the posts owned by a username, newest first.
func (s *Service) GetUserPosts(ctx context.Context, username string) ([]*entity.Post, error) {
	var posts []*entity.Post
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		user, err := txn.FindUserByUsername(ctx, username)
		if err != nil {
			return err
		}
		posts, err = txn.PostsByOwner(ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost returns a single post.
func (s *Service) GetPost(ctx context.Context, postID string) (*entity.Post, error) {
	var post *entity.Post
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		var err error
		post, err = txn.GetPost(ctx, postID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return post, nil
}

// GetPostComments returns a post's comments in creation order with author
// info and read-time like counts.
func (s *Service) GetPostComments(ctx context.Context, postID string) ([]*CommentSummary, error) {
	var summaries []*CommentSummary
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		if _, err := txn.GetPost(ctx, postID); err != nil {
			return err
		}
		comments, err := txn.CommentsByPost(ctx, postID)
		if err != nil {
			return err
		}
		authors := make(map[string]*entity.User)
		summaries = make([]*CommentSummary, 0, len(comments))
		for _, comment := range comments {
			author, ok := authors[comment.Owner]
			if !ok {
				author, err = txn.GetUser(ctx, comment.Owner)
				if err != nil {
					if apperrors.IsNotFound(err) {
						return apperrors.NewIntegrityViolation(
							"comment " + comment.ID + " owned by missing user " + comment.Owner)
					}
					return err
				}
				authors[comment.Owner] = author
			}
			summaries = append(summaries, &CommentSummary{
				ID:         comment.ID,
				PostID:     comment.PostID,
				Text:       comment.Text,
				PostedBy:   summarizeAuthor(author),
				TotalLikes: comment.Likes.Len(),
				CreatedAt:  comment.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// GetFollowers returns summaries for every follower of a username.
func (s *Service) GetFollowers(ctx context.Context, username string) ([]*UserSummary, error) {
	ids, err := s.edgeMembers(ctx, username, func(u *entity.User) []string { return u.Followers.Values() })
	if err != nil {
		return nil, err
	}
	return s.summarizeUsers(ctx, ids)
}

// GetFollowing returns summaries for every user a username follows.
func (s *Service) GetFollowing(ctx context.Context, username string) ([]*UserSummary, error) {
	ids, err := s.edgeMembers(ctx, username, func(u *entity.User) []string { return u.Following.Values() })
	if err != nil {
		return nil, err
	}
	return s.summarizeUsers(ctx, ids)
}

func (s *Service) edgeMembers(ctx context.Context, username string, pick func(*entity.User) []string) ([]string, error) {
	var ids []string
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		user, err := txn.FindUserByUsername(ctx, username)
		if err != nil {
			return err
		}
		ids = pick(user)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// summarizeUsers resolves member ids to user summaries, fanning the lookups
// out concurrently; each lookup runs in its own read transaction. Members
// deleted between the set read and the lookup are skipped rather than
// failing the whole list.
func (s *Service) summarizeUsers(ctx context.Context, ids []string) ([]*UserSummary, error) {
	summaries := make([]*UserSummary, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, id := range ids {
		g.Go(func() error {
			var user *entity.User
			err := store.WithTxn(gctx, s.store, func(txn store.Txn) error {
				var err error
				user, err = txn.GetUser(gctx, id)
				return err
			})
			if err != nil {
				if apperrors.IsNotFound(err) {
					return nil
				}
				return err
			}
			mu.Lock()
			summaries[i] = &UserSummary{
				ID:        user.ID,
				Username:  user.Username,
				FullName:  user.FullName,
				AvatarURL: user.Avatar.URL,
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*UserSummary, 0, len(summaries))
	for _, summary := range summaries {
		if summary != nil {
			out = append(out, summary)
		}
	}
	return out, nil
}

func summarizeAuthor(user *entity.User) PostedBy {
	return PostedBy{
		Username:  user.Username,
		FullName:  user.FullName,
		AvatarURL: user.Avatar.URL,
	}
}

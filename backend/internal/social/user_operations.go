package social

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"wavegram/backend/internal/entity"
	"wavegram/backend/internal/store"
	apperrors "wavegram/backend/pkg/errors"
)

// RegisterParams carries the fields needed to create an account. Password
// must already be hashed by the caller.
type RegisterParams struct {
	Username     string
	Email        string
	FullName     string
	PasswordHash string
	AvatarURL    string
	AvatarID     string
}

// defaultAvatarURL mirrors the placeholder service used for accounts
// registered without an avatar.
const defaultAvatarURL = "https://avatar.iran.liara.run/username?username=%s"

// Register creates a user after checking username and email uniqueness.
// Username and email are lowercased and trimmed before storage.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*entity.User, error) {
	username := strings.ToLower(strings.TrimSpace(params.Username))
	email := strings.ToLower(strings.TrimSpace(params.Email))
	fullName := strings.TrimSpace(params.FullName)

	if username == "" {
		return nil, apperrors.NewValidation("username", "must not be empty")
	}
	if email == "" {
		return nil, apperrors.NewValidation("email", "must not be empty")
	}
	if fullName == "" {
		return nil, apperrors.NewValidation("fullName", "must not be empty")
	}
	if params.PasswordHash == "" {
		return nil, apperrors.NewValidation("password", "must not be empty")
	}

	avatarURL := params.AvatarURL
	if avatarURL == "" {
		avatarURL = fmt.Sprintf(defaultAvatarURL, fullName)
	}

	var user *entity.User
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		if _, err := txn.FindUserByUsername(ctx, username); err == nil {
			return apperrors.NewDuplicate("username")
		} else if !apperrors.IsNotFound(err) {
			return err
		}
		if _, err := txn.FindUserByEmail(ctx, email); err == nil {
			return apperrors.NewDuplicate("email")
		} else if !apperrors.IsNotFound(err) {
			return err
		}

		now := time.Now().UTC()
		user = &entity.User{
			ID:        entity.NewID(),
			Username:  username,
			Email:     email,
			FullName:  fullName,
			Password:  params.PasswordHash,
			Avatar:    entity.Avatar{URL: avatarURL, PublicID: params.AvatarID},
			Followers: entity.IDSet{},
			Following: entity.IDSet{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		return txn.PutUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// UserByID fetches a user by id.
func (s *Service) UserByID(ctx context.Context, userID string) (*entity.User, error) {
	var user *entity.User
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		var err error
		user, err = txn.GetUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UserByLogin fetches a user by username or email for credential checks.
func (s *Service) UserByLogin(ctx context.Context, login string) (*entity.User, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	var user *entity.User
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		var err error
		user, err = txn.FindUserByUsername(ctx, login)
		if apperrors.IsNotFound(err) {
			user, err = txn.FindUserByEmail(ctx, login)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// StoreRefreshToken persists the user's current refresh token.
func (s *Service) StoreRefreshToken(ctx context.Context, userID, token string) error {
	return s.updateUser(ctx, userID, func(user *entity.User) error {
		user.RefreshToken = token
		return nil
	})
}

// ClearRefreshToken removes the user's refresh token on logout.
func (s *Service) ClearRefreshToken(ctx context.Context, userID string) error {
	return s.updateUser(ctx, userID, func(user *entity.User) error {
		user.RefreshToken = ""
		return nil
	})
}

// UpdateProfileParams carries optional profile updates; empty fields are
// left unchanged.
type UpdateProfileParams struct {
	Username string
	Email    string
	FullName string
}

// UpdateProfile applies profile changes, re-checking uniqueness for any new
// username or email.
func (s *Service) UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (*entity.User, error) {
	username := strings.ToLower(strings.TrimSpace(params.Username))
	email := strings.ToLower(strings.TrimSpace(params.Email))
	fullName := strings.TrimSpace(params.FullName)
	if username == "" && email == "" && fullName == "" {
		return nil, apperrors.NewValidation("profile", "nothing to update")
	}

	var updated *entity.User
	err := store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		user, err := txn.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if username != "" && username != user.Username {
			if _, err := txn.FindUserByUsername(ctx, username); err == nil {
				return apperrors.NewDuplicate("username")
			} else if !apperrors.IsNotFound(err) {
				return err
			}
			user.Username = username
		}
		if email != "" && email != user.Email {
			if _, err := txn.FindUserByEmail(ctx, email); err == nil {
				return apperrors.NewDuplicate("email")
			} else if !apperrors.IsNotFound(err) {
				return err
			}
			user.Email = email
		}
		if fullName != "" {
			user.FullName = fullName
		}
		user.UpdatedAt = time.Now().UTC()
		updated = user
		return txn.PutUser(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateAvatar replaces the user's avatar reference. The binary itself
// lives in external media storage; only the opaque reference changes here.
func (s *Service) UpdateAvatar(ctx context.Context, userID, url, publicID string) (*entity.User, error) {
	if url == "" {
		return nil, apperrors.NewValidation("avatar", "url must not be empty")
	}
	var updated *entity.User
	err := s.updateUser(ctx, userID, func(user *entity.User) error {
		user.Avatar = entity.Avatar{URL: url, PublicID: publicID}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RemoveAvatar clears the user's avatar reference.
func (s *Service) RemoveAvatar(ctx context.Context, userID string) (*entity.User, error) {
	var updated *entity.User
	err := s.updateUser(ctx, userID, func(user *entity.User) error {
		user.Avatar = entity.Avatar{}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) updateUser(ctx context.Context, userID string, mutate func(*entity.User) error) error {
	return store.WithTxn(ctx, s.store, func(txn store.Txn) error {
		user, err := txn.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		if err := mutate(user); err != nil {
			return err
		}
		user.UpdatedAt = time.Now().UTC()
		return txn.PutUser(ctx, user)
	})
}

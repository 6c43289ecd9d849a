// Package social implements the social-graph consistency engine: idempotent
// follow/like toggles, cascade deletions, and read-time aggregation views.
//
// Relationships are memberships in sets embedded on the entity documents,
// not rows with constraints, so every multi-document mutation here runs in a
// single store transaction and either commits whole or not at all.
package social

import (
	"wavegram/backend/internal/store"
	"wavegram/backend/pkg/logger"

	"go.uber.org/zap"
)

// Service executes all graph mutations and views against an entity store.
// The store is passed in explicitly; Service holds no other shared state.
type Service struct {
	store  store.Store
	logger *zap.Logger
}

// NewService creates a new social-graph service
func NewService(st store.Store) *Service {
	return &Service{
		store:  st,
		logger: logger.Get(),
	}
}

// TargetKind selects the entity a like applies to.
type TargetKind string

const (
	// TargetPost likes a post
	TargetPost TargetKind = "post"
	// TargetComment likes a comment
	TargetComment TargetKind = "comment"
)

// FollowResult reports the committed state after a follow toggle.
type FollowResult struct {
	Following     bool `json:"following"`
	Changed       bool `json:"changed"`
	FollowerCount int  `json:"followerCount"`
}

// LikeResult reports the committed state after a like toggle.
type LikeResult struct {
	Liked     bool `json:"liked"`
	Changed   bool `json:"changed"`
	LikeCount int  `json:"likeCount"`
}

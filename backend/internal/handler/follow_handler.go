package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wavegram/backend/internal/social"
)

type followRequest struct {
	// Flag is the desired follow state. Omitted means toggle.
	Flag *bool `json:"flag"`
}

// FollowUnfollow sets or toggles the follow edge from the authenticated
// user to the target user. Conflicting concurrent toggles are retried once;
// the toggle is idempotent so the replay is safe.
func (h *Handler) FollowUnfollow(c *gin.Context) {
	targetID := c.Param("userId")
	followerID := currentUserID(c)
	ctx := c.Request.Context()

	var req followRequest
	_ = c.ShouldBindJSON(&req)

	desired := true
	if req.Flag != nil {
		desired = *req.Flag
	} else {
		following, err := h.service.IsFollowing(ctx, followerID, targetID)
		if err != nil {
			h.respondError(c, err)
			return
		}
		desired = !following
	}

	var result *social.FollowResult
	err := retryOnConflict(ctx, func() error {
		var err error
		result, err = h.service.SetFollow(ctx, followerID, targetID, desired)
		return err
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetFollowers lists a user's followers.
func (h *Handler) GetFollowers(c *gin.Context) {
	followers, err := h.service.GetFollowers(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followers": followers})
}

// GetFollowing lists the users a user follows.
func (h *Handler) GetFollowing(c *gin.Context) {
	following, err := h.service.GetFollowing(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"followings": following})
}

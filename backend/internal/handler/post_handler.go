package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wavegram/backend/internal/social"
)

type createPostRequest struct {
	Message string `json:"message" binding:"required"`
}

// CreatePost creates a post owned by the authenticated user.
func (h *Handler) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), currentUserID(c), req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// GetPosts returns the feed, newest first, with read-time counts.
func (h *Handler) GetPosts(c *gin.Context) {
	feed, err := h.service.GetPostFeed(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": feed})
}

// GetUserPosts returns all posts by a username.
func (h *Handler) GetUserPosts(c *gin.Context) {
	posts, err := h.service.GetUserPosts(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// GetPost returns a single post.
func (h *Handler) GetPost(c *gin.Context) {
	post, err := h.service.GetPost(c.Request.Context(), c.Param("postId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

type updatePostRequest struct {
	Message string `json:"message" binding:"required"`
}

// UpdatePost replaces a post's message; owner only.
func (h *Handler) UpdatePost(c *gin.Context) {
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.service.UpdatePost(c.Request.Context(), c.Param("postId"), currentUserID(c), req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost deletes a post and its comments; owner only.
func (h *Handler) DeletePost(c *gin.Context) {
	if err := h.service.DeletePost(c.Request.Context(), c.Param("postId"), currentUserID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "post deleted"})
}

type likeRequest struct {
	Flag bool `json:"flag"`
}

// LikePost sets the authenticated user's like on a post.
func (h *Handler) LikePost(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var result *social.LikeResult
	err := retryOnConflict(ctx, func() error {
		var err error
		result, err = h.service.SetLike(ctx, currentUserID(c), social.TargetPost, c.Param("postId"), req.Flag)
		return err
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

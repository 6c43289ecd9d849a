package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wavegram/backend/internal/social"
)

type addCommentRequest struct {
	CommentText string `json:"commentText" binding:"required"`
}

// AddComment creates a comment under a post.
func (h *Handler) AddComment(c *gin.Context) {
	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.service.AddComment(c.Request.Context(), c.Param("postId"), currentUserID(c), req.CommentText)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// GetPostComments lists a post's comments with authors and like counts.
func (h *Handler) GetPostComments(c *gin.Context) {
	comments, err := h.service.GetPostComments(c.Request.Context(), c.Param("postId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// DeleteComment deletes a comment; owner only.
func (h *Handler) DeleteComment(c *gin.Context) {
	if err := h.service.DeleteComment(c.Request.Context(), c.Param("commentId"), currentUserID(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "comment deleted"})
}

// LikeComment sets the authenticated user's like on a comment.
func (h *Handler) LikeComment(c *gin.Context) {
	var req likeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var result *social.LikeResult
	err := retryOnConflict(ctx, func() error {
		var err error
		result, err = h.service.SetLike(ctx, currentUserID(c), social.TargetComment, c.Param("commentId"), req.Flag)
		return err
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

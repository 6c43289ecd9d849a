// Package handler wires the engine to its HTTP surface. Handlers translate
// transport input into engine calls and engine error kinds into statuses;
// all consistency logic lives in internal/social.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wavegram/backend/internal/auth"
	"wavegram/backend/internal/social"
	"wavegram/backend/pkg/config"
	apperrors "wavegram/backend/pkg/errors"
	"wavegram/backend/pkg/logger"
)

// Handler holds the dependencies shared by all routes.
type Handler struct {
	service *social.Service
	tokens  *auth.Manager
	cfg     *config.Config
	logger  *zap.Logger
}

// New creates a Handler.
func New(service *social.Service, tokens *auth.Manager, cfg *config.Config) *Handler {
	return &Handler{
		service: service,
		tokens:  tokens,
		cfg:     cfg,
		logger:  logger.Get(),
	}
}

// Router assembles the gin engine with all routes and middleware.
func (h *Handler) Router() *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(h.logger))
	router.Use(gin.Recovery())
	router.Use(h.corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")

	users := api.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.POST("/logout", h.RequireAuth(), h.Logout)
		users.GET("/profile/:username", h.RequireAuth(), h.GetProfile)
		users.GET("/profile/get/me", h.RequireAuth(), h.GetMyProfile)
		users.DELETE("/profile/get/me", h.RequireAuth(), h.DeleteMyAccount)
		users.PATCH("/profile/me/update-account", h.RequireAuth(), h.UpdateAccount)
		users.PATCH("/profile/me/avatar", h.RequireAuth(), h.UpdateAvatar)
		users.DELETE("/profile/me/avatar", h.RequireAuth(), h.RemoveAvatar)

		follow := users.Group("/follow", h.RequireAuth())
		{
			follow.POST("/:userId", h.FollowUnfollow)
			follow.GET("/followers/:username", h.GetFollowers)
			follow.GET("/followings/:username", h.GetFollowing)
		}
	}

	posts := api.Group("/posts", h.RequireAuth())
	{
		posts.POST("", h.CreatePost)
		posts.GET("", h.GetPosts)
		posts.GET("/user-posts/:username", h.GetUserPosts)
		posts.GET("/:postId", h.GetPost)
		posts.PUT("/:postId", h.UpdatePost)
		posts.DELETE("/:postId", h.DeletePost)
		posts.PATCH("/:postId/like", h.LikePost)
		posts.POST("/:postId/comments", h.AddComment)
		posts.GET("/:postId/comments", h.GetPostComments)
		posts.DELETE("/:postId/comments/:commentId", h.DeleteComment)
		posts.PATCH("/:postId/comments/:commentId/like", h.LikeComment)
	}

	return router
}

func (h *Handler) corsMiddleware() gin.HandlerFunc {
	origin := h.cfg.CORSOrigin
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// respondError maps engine error kinds onto HTTP statuses. Integrity
// violations are logged loudly: they mean committed state broke an
// invariant and must never be papered over.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.IsErrorType(err, apperrors.ErrorTypeForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case apperrors.IsErrorType(err, apperrors.ErrorTypeSelfReference):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsErrorType(err, apperrors.ErrorTypeValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsConflict(err):
		c.JSON(http.StatusConflict, gin.H{"error": "please retry", "retryable": true})
	case apperrors.IsErrorType(err, apperrors.ErrorTypeIntegrity):
		h.logger.Error("integrity violation surfaced to caller", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal inconsistency detected"})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
	}
}

// retryOnConflict re-runs an idempotent operation once after a transaction
// conflict. Toggles are safe to replay; nothing else is retried here.
func retryOnConflict(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !apperrors.IsRetryable(err) {
		return err
	}
	select {
	case <-time.After(25 * time.Millisecond):
	case <-ctx.Done():
		return err
	}
	return fn()
}

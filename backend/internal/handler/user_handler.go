package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wavegram/backend/internal/auth"
	"wavegram/backend/internal/social"
)

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	FullName  string `json:"fullName" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
	AvatarURL string `json:"avatarUrl"`
	AvatarID  string `json:"avatarId"`
}

// Register creates a new account.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := auth.HashPassword(req.Password, h.cfg.BcryptCost)
	if err != nil {
		h.logger.Error("failed to hash password", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		return
	}

	user, err := h.service.Register(c.Request.Context(), social.RegisterParams{
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: hash,
		AvatarURL:    req.AvatarURL,
		AvatarID:     req.AvatarID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

// Login checks credentials and issues a token pair.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	login := req.Username
	if login == "" {
		login = req.Email
	}
	if login == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username or email required"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.service.UserByLogin(ctx, login)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !auth.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid credentials"})
		return
	}

	accessToken, refreshToken, err := h.tokens.GenerateTokenPair(user.ID, user.Email, user.Username)
	if err != nil {
		h.logger.Error("failed to generate tokens", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
		return
	}
	if err := h.service.StoreRefreshToken(ctx, user.ID, refreshToken); err != nil {
		h.respondError(c, err)
		return
	}

	secure := h.cfg.IsProduction()
	c.SetCookie("accessToken", accessToken, int(h.cfg.AccessTokenExpiry.Seconds()), "/", "", secure, true)
	c.SetCookie("refreshToken", refreshToken, int(h.cfg.RefreshTokenExpiry.Seconds()), "/", "", secure, true)
	c.JSON(http.StatusOK, gin.H{
		"user":         user,
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
	})
}

// Logout clears the stored refresh token and the auth cookies.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.service.ClearRefreshToken(c.Request.Context(), currentUserID(c)); err != nil {
		h.respondError(c, err)
		return
	}

	secure := h.cfg.IsProduction()
	c.SetCookie("accessToken", "", -1, "/", "", secure, true)
	c.SetCookie("refreshToken", "", -1, "/", "", secure, true)
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// GetProfile returns a profile by username.
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.service.GetUserProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// GetMyProfile returns the authenticated user's profile.
func (h *Handler) GetMyProfile(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := h.service.UserByID(ctx, currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	profile, err := h.service.GetUserProfile(ctx, user.Username)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// DeleteMyAccount deletes the authenticated user and cascades over their
// posts, comments, likes, and follow edges.
func (h *Handler) DeleteMyAccount(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), currentUserID(c)); err != nil {
		h.respondError(c, err)
		return
	}

	secure := h.cfg.IsProduction()
	c.SetCookie("accessToken", "", -1, "/", "", secure, true)
	c.SetCookie("refreshToken", "", -1, "/", "", secure, true)
	c.JSON(http.StatusOK, gin.H{"status": "account deleted"})
}

type updateAccountRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// UpdateAccount updates profile fields on the authenticated user.
func (h *Handler) UpdateAccount(c *gin.Context) {
	var req updateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), currentUserID(c), social.UpdateProfileParams{
		Username: req.Username,
		Email:    req.Email,
		FullName: req.FullName,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type updateAvatarRequest struct {
	URL      string `json:"url" binding:"required"`
	PublicID string `json:"publicId"`
}

// UpdateAvatar stores a new avatar reference. The upload itself happens in
// the media storage collaborator; only the opaque reference passes through.
func (h *Handler) UpdateAvatar(c *gin.Context) {
	var req updateAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.UpdateAvatar(c.Request.Context(), currentUserID(c), req.URL, req.PublicID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// RemoveAvatar clears the avatar reference.
func (h *Handler) RemoveAvatar(c *gin.Context) {
	user, err := h.service.RemoveAvatar(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

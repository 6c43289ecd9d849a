package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"wavegram/backend/internal/auth"
	"wavegram/backend/internal/entity"
	"wavegram/backend/internal/social"
	"wavegram/backend/internal/store"
	"wavegram/backend/pkg/config"
)

func newTestRouter(t *testing.T) (*gin.Engine, *Handler, *store.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	cfg := &config.Config{
		Env:                "test",
		CORSOrigin:         "*",
		BcryptCost:         bcrypt.MinCost,
		AccessTokenExpiry:  time.Minute,
		RefreshTokenExpiry: time.Hour,
	}
	tokens := auth.NewManager("access-secret", "refresh-secret", time.Minute, time.Hour, "wavegram-test")
	h := New(social.NewService(st), tokens, cfg)
	return h.Router(), h, st
}

func doJSON(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

// registerAndLogin creates an account through the API and returns the user
// id and a valid access token.
func registerAndLogin(t *testing.T, router *gin.Engine, username string) (userID, token string) {
	t.Helper()

	rec := doJSON(router, http.MethodPost, "/api/v1/users/register", "", gin.H{
		"username": username,
		"email":    username + "@example.com",
		"fullName": "User " + username,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode(t, rec)["user"].(map[string]any)
	userID = user["id"].(string)

	rec = doJSON(router, http.MethodPost, "/api/v1/users/login", "", gin.H{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token = decode(t, rec)["accessToken"].(string)
	return userID, token
}

func TestHealth(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rec := doJSON(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestRegisterValidation(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/api/v1/users/register", "", gin.H{
		"username": "alice",
		"email":    "not-an-email",
		"fullName": "Alice",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, http.MethodPost, "/api/v1/users/register", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"fullName": "Alice",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	router, _, _ := newTestRouter(t)
	registerAndLogin(t, router, "alice")

	rec := doJSON(router, http.MethodPost, "/api/v1/users/register", "", gin.H{
		"username": "ALICE",
		"email":    "second@example.com",
		"fullName": "Second",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	router, _, _ := newTestRouter(t)
	registerAndLogin(t, router, "alice")

	rec := doJSON(router, http.MethodPost, "/api/v1/users/login", "", gin.H{
		"username": "alice",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	router, _, _ := newTestRouter(t)
	rec := doJSON(router, http.MethodPost, "/api/v1/users/login", "", gin.H{
		"username": "nobody",
		"password": "password123",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	router, h, _ := newTestRouter(t)

	rec := doJSON(router, http.MethodGet, "/api/v1/posts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(router, http.MethodGet, "/api/v1/posts", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The accessToken cookie is accepted in place of the header.
	registerAndLogin(t, router, "alice")
	access, _, err := h.tokens.GenerateTokenPair("any", "a@b.c", "alice")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/posts", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: access})
	cookieRec := httptest.NewRecorder()
	router.ServeHTTP(cookieRec, req)
	assert.Equal(t, http.StatusOK, cookieRec.Code)
}

func TestGetProfile(t *testing.T) {
	router, _, _ := newTestRouter(t)
	_, token := registerAndLogin(t, router, "alice")

	rec := doJSON(router, http.MethodGet, "/api/v1/users/profile/alice", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode(t, rec)
	assert.Equal(t, "alice", profile["username"])
	assert.Equal(t, float64(0), profile["followersCount"])

	rec = doJSON(router, http.MethodGet, "/api/v1/users/profile/nobody", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowToggleAndLists(t *testing.T) {
	router, _, _ := newTestRouter(t)
	aliceID, _ := registerAndLogin(t, router, "alice")
	_, bobToken := registerAndLogin(t, router, "bob")

	// Explicit flag sets the state.
	rec := doJSON(router, http.MethodPost, "/api/v1/users/follow/"+aliceID, bobToken, gin.H{"flag": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["following"])
	assert.Equal(t, true, body["changed"])
	assert.Equal(t, float64(1), body["followerCount"])

	// Same flag again: success, nothing changed.
	rec = doJSON(router, http.MethodPost, "/api/v1/users/follow/"+aliceID, bobToken, gin.H{"flag": true})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, false, body["changed"])
	assert.Equal(t, float64(1), body["followerCount"])

	rec = doJSON(router, http.MethodGet, "/api/v1/users/follow/followers/alice", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	followers := decode(t, rec)["followers"].([]any)
	require.Len(t, followers, 1)
	assert.Equal(t, "bob", followers[0].(map[string]any)["username"])

	// No flag in the body toggles the current state off.
	rec = doJSON(router, http.MethodPost, "/api/v1/users/follow/"+aliceID, bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, false, body["following"])
	assert.Equal(t, float64(0), body["followerCount"])
}

func TestFollowSelf(t *testing.T) {
	router, _, _ := newTestRouter(t)
	aliceID, token := registerAndLogin(t, router, "alice")

	rec := doJSON(router, http.MethodPost, "/api/v1/users/follow/"+aliceID, token, gin.H{"flag": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostLifecycle(t *testing.T) {
	router, _, _ := newTestRouter(t)
	_, aliceToken := registerAndLogin(t, router, "alice")
	_, bobToken := registerAndLogin(t, router, "bob")

	rec := doJSON(router, http.MethodPost, "/api/v1/posts", aliceToken, gin.H{"message": "hello world"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	postID := decode(t, rec)["id"].(string)

	rec = doJSON(router, http.MethodGet, "/api/v1/posts", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	posts := decode(t, rec)["posts"].([]any)
	require.Len(t, posts, 1)
	feedEntry := posts[0].(map[string]any)
	assert.Equal(t, "hello world", feedEntry["message"])
	assert.Equal(t, "alice", feedEntry["postedBy"].(map[string]any)["username"])

	// Only the owner may update or delete.
	rec = doJSON(router, http.MethodPut, "/api/v1/posts/"+postID, bobToken, gin.H{"message": "hijack"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(router, http.MethodDelete, "/api/v1/posts/"+postID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(router, http.MethodPut, "/api/v1/posts/"+postID, aliceToken, gin.H{"message": "edited"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edited", decode(t, rec)["message"])

	rec = doJSON(router, http.MethodDelete, "/api/v1/posts/"+postID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doJSON(router, http.MethodGet, "/api/v1/posts/"+postID, aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLikeToggle(t *testing.T) {
	router, _, _ := newTestRouter(t)
	_, aliceToken := registerAndLogin(t, router, "alice")
	_, bobToken := registerAndLogin(t, router, "bob")

	rec := doJSON(router, http.MethodPost, "/api/v1/posts", aliceToken, gin.H{"message": "like me"})
	require.Equal(t, http.StatusCreated, rec.Code)
	postID := decode(t, rec)["id"].(string)

	rec = doJSON(router, http.MethodPatch, "/api/v1/posts/"+postID+"/like", bobToken, gin.H{"flag": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, true, body["liked"])
	assert.Equal(t, float64(1), body["likeCount"])

	rec = doJSON(router, http.MethodPatch, "/api/v1/posts/"+postID+"/like", bobToken, gin.H{"flag": false})
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, false, body["liked"])
	assert.Equal(t, float64(0), body["likeCount"])

	rec = doJSON(router, http.MethodPatch, "/api/v1/posts/p-ghost/like", bobToken, gin.H{"flag": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCommentFlow(t *testing.T) {
	router, _, _ := newTestRouter(t)
	_, aliceToken := registerAndLogin(t, router, "alice")
	_, bobToken := registerAndLogin(t, router, "bob")

	rec := doJSON(router, http.MethodPost, "/api/v1/posts", aliceToken, gin.H{"message": "post"})
	require.Equal(t, http.StatusCreated, rec.Code)
	postID := decode(t, rec)["id"].(string)

	rec = doJSON(router, http.MethodPost, "/api/v1/posts/"+postID+"/comments", bobToken,
		gin.H{"commentText": "nice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	commentID := decode(t, rec)["id"].(string)

	rec = doJSON(router, http.MethodPost, "/api/v1/posts/"+postID+"/comments", bobToken,
		gin.H{"commentText": strings.Repeat("x", entity.MaxCommentLength+1)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(router, http.MethodGet, "/api/v1/posts/"+postID+"/comments", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	comments := decode(t, rec)["comments"].([]any)
	require.Len(t, comments, 1)
	assert.Equal(t, "nice", comments[0].(map[string]any)["commentText"])

	rec = doJSON(router, http.MethodPatch, "/api/v1/posts/"+postID+"/comments/"+commentID+"/like",
		aliceToken, gin.H{"flag": true})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["likeCount"])

	// Only the comment owner may delete it.
	rec = doJSON(router, http.MethodDelete, "/api/v1/posts/"+postID+"/comments/"+commentID, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = doJSON(router, http.MethodDelete, "/api/v1/posts/"+postID+"/comments/"+commentID, bobToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteAccountCascades(t *testing.T) {
	router, _, _ := newTestRouter(t)
	aliceID, aliceToken := registerAndLogin(t, router, "alice")
	_, bobToken := registerAndLogin(t, router, "bob")

	rec := doJSON(router, http.MethodPost, "/api/v1/posts", aliceToken, gin.H{"message": "soon gone"})
	require.Equal(t, http.StatusCreated, rec.Code)
	postID := decode(t, rec)["id"].(string)
	rec = doJSON(router, http.MethodPost, "/api/v1/users/follow/"+aliceID, bobToken, gin.H{"flag": true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(router, http.MethodDelete, "/api/v1/users/profile/get/me", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(router, http.MethodGet, "/api/v1/posts/"+postID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = doJSON(router, http.MethodGet, "/api/v1/users/profile/alice", bobToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(router, http.MethodGet, "/api/v1/users/follow/followings/bob", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["followings"])
}

func TestUpdateAccount(t *testing.T) {
	router, _, _ := newTestRouter(t)
	_, token := registerAndLogin(t, router, "alice")

	rec := doJSON(router, http.MethodPatch, "/api/v1/users/profile/me/update-account", token,
		gin.H{"fullName": "Alice Q"})
	require.Equal(t, http.StatusOK, rec.Code)
	user := decode(t, rec)["user"].(map[string]any)
	assert.Equal(t, "Alice Q", user["fullName"])

	rec = doJSON(router, http.MethodPatch, "/api/v1/users/profile/me/update-account", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutClearsRefreshToken(t *testing.T) {
	router, _, st := newTestRouter(t)
	aliceID, token := registerAndLogin(t, router, "alice")

	rec := doJSON(router, http.MethodPost, "/api/v1/users/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	user, err := social.NewService(st).UserByID(context.Background(), aliceID)
	require.NoError(t, err)
	assert.Empty(t, user.RefreshToken)
}

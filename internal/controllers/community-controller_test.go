package controllers

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franciscosanchezn/insight-hub-api/internal/auth"
	"github.com/franciscosanchezn/insight-hub-api/internal/middleware"
	"github.com/franciscosanchezn/insight-hub-api/internal/models"
	"github.com/franciscosanchezn/insight-hub-api/internal/services"
)

type communityFixture struct {
	router   *gin.Engine
	issuer   *auth.SessionIssuer
	accounts services.AccountService
	admins   services.AdminService
}

func newCommunityFixture(t *testing.T) *communityFixture {
	t.Helper()
	db := newTestDB(t)
	f := &communityFixture{
		issuer:   newIssuer(t),
		accounts: services.NewAccountService(db),
		admins:   services.NewAdminService(db),
	}
	controller := NewCommunityController(services.NewForumService(db, f.accounts), f.accounts, f.admins)

	f.router = gin.New()
	community := f.router.Group("/community")
	community.GET("/posts", controller.ListPosts)
	community.GET("/posts/:id", controller.GetPost)
	community.POST("/posts", middleware.SessionAuth(f.issuer), controller.CreatePost)
	community.POST("/posts/:id/comments", middleware.SessionAuth(f.issuer), middleware.RequireAccount(), controller.CreateComment)
	return f
}

func (f *communityFixture) accountToken(t *testing.T, account *models.Account) string {
	t.Helper()
	token, err := f.issuer.Issue(account.ID, account.Email, time.Hour)
	require.NoError(t, err)
	return token
}

func (f *communityFixture) createPost(t *testing.T, token string, body map[string]interface{}) models.Post {
	t.Helper()
	w := performRequest(f.router, http.MethodPost, "/community/posts", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var post models.Post
	decode(t, w, &post)
	return post
}

func TestCreateAndReadPost(t *testing.T) {
	f := newCommunityFixture(t)
	author := createAccount(t, f.accounts, "1", "ana@example.com", "Ana Lopez", "")
	createAccount(t, f.accounts, "2", "bo@example.com", "Bo Kim", "")
	token := f.accountToken(t, author)

	post := f.createPost(t, token, map[string]interface{}{
		"post_type": "forum",
		"title":     "  Study group  ",
		"content":   "Anyone for #Physics with @Bo_Kim?",
		"tags":      []string{"Exams"},
	})
	assert.Equal(t, "Study group", post.Title)
	assert.Equal(t, "Ana Lopez", post.AuthorName)
	assert.Equal(t, "ana@example.com", post.AuthorEmail)
	require.Len(t, post.Mentions, 1)
	assert.Equal(t, "bo@example.com", post.Mentions[0].MentionedEmail)

	names := make([]string, 0, len(post.Tags))
	for _, tag := range post.Tags {
		names = append(names, tag.Name)
	}
	assert.ElementsMatch(t, []string{"exams", "physics"}, names)

	w := performRequest(f.router, http.MethodGet, fmt.Sprintf("/community/posts/%d", post.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var fetched models.Post
	decode(t, w, &fetched)
	assert.Equal(t, 1, fetched.ViewCount)

	w = performRequest(f.router, http.MethodGet, "/community/posts?tag=%23physics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list postListResponse
	decode(t, w, &list)
	assert.Equal(t, int64(1), list.Total)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 20, list.PageSize)
}

func TestListPostsValidation(t *testing.T) {
	f := newCommunityFixture(t)

	w := performRequest(f.router, http.MethodGet, "/community/posts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"posts":[],"total":0,"page":1,"page_size":20}`, w.Body.String())

	for _, query := range []string{"post_type=blog", "page=0", "page=x", "page_size=101", "page_size=0"} {
		t.Run(query, func(t *testing.T) {
			w := performRequest(f.router, http.MethodGet, "/community/posts?"+query, "", nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestGetPostErrors(t *testing.T) {
	f := newCommunityFixture(t)

	assert.Equal(t, http.StatusBadRequest, performRequest(f.router, http.MethodGet, "/community/posts/abc", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, performRequest(f.router, http.MethodGet, "/community/posts/0", "", nil).Code)

	w := performRequest(f.router, http.MethodGet, "/community/posts/42", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrPostNotFound)
}

func TestCreatePostRequiresSession(t *testing.T) {
	f := newCommunityFixture(t)
	body := map[string]interface{}{"post_type": "forum", "title": "t", "content": "c"}

	assert.Equal(t, http.StatusUnauthorized, performRequest(f.router, http.MethodPost, "/community/posts", "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, performRequest(f.router, http.MethodPost, "/community/posts", "garbage", body).Code)
}

func TestCreatePostRejectsInvalidBody(t *testing.T) {
	f := newCommunityFixture(t)
	token := f.accountToken(t, createAccount(t, f.accounts, "1", "ana@example.com", "Ana", ""))

	cases := map[string]map[string]interface{}{
		"missing title":   {"post_type": "forum", "content": "c"},
		"unknown type":    {"post_type": "blog", "title": "t", "content": "c"},
		"bad image url":   {"post_type": "forum", "title": "t", "content": "c", "image_url": "not a url"},
		"missing content": {"post_type": "forum", "title": "t"},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := performRequest(f.router, http.MethodPost, "/community/posts", token, body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), models.ErrPostInvalidData)
		})
	}
}

func TestNoticePosts(t *testing.T) {
	f := newCommunityFixture(t)
	notice := map[string]interface{}{"post_type": "notice", "title": "Office hours", "content": "Moved to Friday"}

	t.Run("plain account is refused", func(t *testing.T) {
		token := f.accountToken(t, createAccount(t, f.accounts, "1", "ana@example.com", "Ana", ""))
		w := performRequest(f.router, http.MethodPost, "/community/posts", token, notice)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), models.ErrNoticeAdminOnly)
	})

	t.Run("account with admin email", func(t *testing.T) {
		email := "staff@example.com"
		admin := &models.Admin{Username: "staff", Email: &email, Active: true}
		require.NoError(t, admin.SetPassword("pw"))
		require.NoError(t, f.admins.CreateAdmin(context.Background(), admin))
		account := createAccount(t, f.accounts, "2", email, "Staff Member", "")

		post := f.createPost(t, f.accountToken(t, account), notice)
		assert.Equal(t, noticeAuthorName, post.AuthorName)
		assert.Equal(t, email, post.AuthorEmail)
	})

	t.Run("admin session", func(t *testing.T) {
		admin := &models.Admin{Username: "operator", Active: true}
		require.NoError(t, admin.SetPassword("pw"))
		require.NoError(t, f.admins.CreateAdmin(context.Background(), admin))
		token, err := f.issuer.IssueAdmin(admin.ID, time.Hour)
		require.NoError(t, err)

		post := f.createPost(t, token, notice)
		assert.Equal(t, noticeAuthorName, post.AuthorName)
		assert.Equal(t, "operator@admin.local", post.AuthorEmail)

		forum := map[string]interface{}{"post_type": "forum", "title": "t", "content": "c"}
		w := performRequest(f.router, http.MethodPost, "/community/posts", token, forum)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestCreateComment(t *testing.T) {
	f := newCommunityFixture(t)
	ana := createAccount(t, f.accounts, "1", "ana@example.com", "Ana", "")
	createAccount(t, f.accounts, "2", "bo@example.com", "Bo", "")
	token := f.accountToken(t, ana)
	post := f.createPost(t, token, map[string]interface{}{"post_type": "request", "title": "Help", "content": "Need notes"})

	target := fmt.Sprintf("/community/posts/%d/comments", post.ID)
	w := performRequest(f.router, http.MethodPost, target, token, map[string]interface{}{"content": "ping @bo@example.com"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var comment models.Comment
	decode(t, w, &comment)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Equal(t, "Ana", comment.AuthorName)
	require.Len(t, comment.Mentions, 1)
	assert.Equal(t, "bo@example.com", comment.Mentions[0].MentionedEmail)

	w = performRequest(f.router, http.MethodPost, target, token, map[string]interface{}{"content": "reply", "parent_id": comment.ID})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = performRequest(f.router, http.MethodPost, target, token, map[string]interface{}{"content": "orphan", "parent_id": 999})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(f.router, http.MethodPost, "/community/posts/999/comments", token, map[string]interface{}{"content": "lost"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(f.router, http.MethodPost, target, token, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateCommentRefusesAdminSession(t *testing.T) {
	f := newCommunityFixture(t)
	token, err := f.issuer.IssueAdmin(1, time.Hour)
	require.NoError(t, err)

	w := performRequest(f.router, http.MethodPost, "/community/posts/1/comments", token, map[string]interface{}{"content": "hi"})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

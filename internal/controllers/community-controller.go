package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/franciscosanchezn/insight-hub-api/internal/auth"
	"github.com/franciscosanchezn/insight-hub-api/internal/middleware"
	"github.com/franciscosanchezn/insight-hub-api/internal/models"
	"github.com/franciscosanchezn/insight-hub-api/internal/services"
)

// noticeAuthorName is shown as the author of every notice post
const noticeAuthorName = "Global Partnership Center"

// CommunityController handles HTTP requests of the community board
type CommunityController struct {
	forum    services.ForumService
	accounts services.AccountService
	admins   services.AdminService
}

// NewCommunityController creates a new instance of CommunityController
func NewCommunityController(forum services.ForumService, accounts services.AccountService, admins services.AdminService) *CommunityController {
	return &CommunityController{forum: forum, accounts: accounts, admins: admins}
}

type postListResponse struct {
	Posts    []models.Post `json:"posts"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type createPostRequest struct {
	PostType models.PostType `json:"post_type" binding:"required"`
	Title    string          `json:"title" binding:"required,max=200"`
	Content  string          `json:"content" binding:"required"`
	ImageURL *string         `json:"image_url" binding:"omitempty,url,max=500"`
	Tags     []string        `json:"tags" binding:"max=20"`
	Mentions []string        `json:"mentions" binding:"max=50"`
}

type createCommentRequest struct {
	Content  string   `json:"content" binding:"required"`
	ParentID *uint    `json:"parent_id"`
	Mentions []string `json:"mentions" binding:"max=50"`
}

// ListPosts godoc
// @Summary List community posts
// @Description Pinned posts first, then newest first
// @Tags community
// @Produce json
// @Param post_type query string false "notice, forum or request"
// @Param tag query string false "Tag name"
// @Param search query string false "Search in title and content"
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size (1-100)" default(20)
// @Success 200 {object} postListResponse
// @Failure 400 {object} models.APIError
// @Failure 500 {object} models.APIError
// @Router /community/posts [get]
func (cc *CommunityController) ListPosts(c *gin.Context) {
	filter := services.PostFilter{
		PostType: models.PostType(c.Query("post_type")),
		Tag:      strings.TrimPrefix(c.Query("tag"), "#"),
		Search:   c.Query("search"),
		Page:     1,
		PageSize: 20,
	}
	if filter.PostType != "" && !filter.PostType.Valid() {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrPostInvalidData, "post_type must be notice, forum or request"))
		return
	}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, "page must be a positive integer"))
			return
		}
		filter.Page = page
	}
	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 || size > 100 {
			c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, "page_size must be between 1 and 100"))
			return
		}
		filter.PageSize = size
	}

	posts, total, err := cc.forum.ListPosts(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("Failed to list posts")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to retrieve posts"))
		return
	}
	for i := range posts {
		presentPost(&posts[i])
	}
	if posts == nil {
		posts = []models.Post{}
	}
	c.JSON(http.StatusOK, postListResponse{Posts: posts, Total: total, Page: filter.Page, PageSize: filter.PageSize})
}

// GetPost godoc
// @Summary Get a post
// @Description Returns a post and counts the view
// @Tags community
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.APIError
// @Failure 404 {object} models.APIError
// @Router /community/posts/{id} [get]
func (cc *CommunityController) GetPost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	post, err := cc.forum.GetPost(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrPostNotFound, "Post not found"))
		return
	}
	if err != nil {
		log.WithError(err).WithField("post_id", id).Error("Failed to load post")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to retrieve post"))
		return
	}
	presentPost(post)
	c.JSON(http.StatusOK, post)
}

// CreatePost godoc
// @Summary Create a post
// @Description Tags and @mentions are also extracted from the content. Notice posts are reserved to admins.
// @Tags community
// @Accept json
// @Produce json
// @Param post body createPostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.APIError
// @Failure 401 {object} map[string]string
// @Failure 403 {object} models.APIError
// @Security BearerAuth
// @Router /community/posts [post]
func (cc *CommunityController) CreatePost(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrPostInvalidData, "Invalid request body", map[string]interface{}{"reason": err.Error()}))
		return
	}
	if !req.PostType.Valid() {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrPostInvalidData, "post_type must be notice, forum or request"))
		return
	}

	principal, _ := middleware.PrincipalFrom(c)
	author, status, apiErr := cc.resolveAuthor(c.Request.Context(), principal, req.PostType)
	if apiErr != nil {
		c.JSON(status, apiErr)
		return
	}

	post, err := cc.forum.CreatePost(c.Request.Context(), services.NewPost{
		PostType:    req.PostType,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		ImageURL:    req.ImageURL,
		Tags:        req.Tags,
		Mentions:    req.Mentions,
		AuthorID:    author.ID,
		AuthorEmail: author.Email,
		AuthorName:  author.Name,
	})
	if err != nil {
		log.WithError(err).Error("Failed to create post")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to create post"))
		return
	}
	c.JSON(http.StatusCreated, post)
}

// CreateComment godoc
// @Summary Comment on a post
// @Tags community
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param comment body createCommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.APIError
// @Failure 401 {object} map[string]string
// @Failure 404 {object} models.APIError
// @Security BearerAuth
// @Router /community/posts/{id}/comments [post]
func (cc *CommunityController) CreateComment(c *gin.Context) {
	postID, ok := parseID(c)
	if !ok {
		return
	}
	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrValidationFailed, "Invalid request body", map[string]interface{}{"reason": err.Error()}))
		return
	}

	principal, _ := middleware.PrincipalFrom(c)
	account, err := cc.accounts.FindByID(c.Request.Context(), principal.ID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "User not found"))
		return
	}

	comment, err := cc.forum.CreateComment(c.Request.Context(), services.NewComment{
		PostID:      postID,
		ParentID:    req.ParentID,
		Content:     req.Content,
		Mentions:    req.Mentions,
		AuthorID:    account.ID,
		AuthorEmail: account.Email,
		AuthorName:  account.DisplayName,
	})
	if errors.Is(err, services.ErrNotFound) {
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrPostNotFound, "Post or parent comment not found"))
		return
	}
	if err != nil {
		log.WithError(err).WithField("post_id", postID).Error("Failed to create comment")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to create comment"))
		return
	}
	c.JSON(http.StatusCreated, comment)
}

type postAuthor struct {
	ID    uint
	Email string
	Name  string
}

// resolveAuthor decides who a new post is attributed to. Admin sessions may only
// publish notices; accounts may publish notices when their email belongs to an admin.
func (cc *CommunityController) resolveAuthor(ctx context.Context, principal auth.Principal, postType models.PostType) (postAuthor, int, *models.APIError) {
	if principal.IsAdmin() {
		if postType != models.PostTypeNotice {
			apiErr := models.NewAPIError(models.ErrForbidden, "Admin sessions can only publish notices")
			return postAuthor{}, http.StatusForbidden, &apiErr
		}
		admin, err := cc.admins.GetByID(ctx, principal.ID)
		if err != nil {
			apiErr := models.NewAPIError(models.ErrForbidden, "Admin not found")
			return postAuthor{}, http.StatusForbidden, &apiErr
		}
		author := postAuthor{Name: noticeAuthorName, Email: admin.Username + "@admin.local"}
		if admin.Email != nil && *admin.Email != "" {
			author.Email = *admin.Email
			if account, err := cc.accounts.FindByEmail(ctx, author.Email); err == nil {
				author.ID = account.ID
			}
		}
		return author, 0, nil
	}

	account, err := cc.accounts.FindByID(ctx, principal.ID)
	if err != nil {
		apiErr := models.NewAPIError(models.ErrUnauthorized, "User not found")
		return postAuthor{}, http.StatusUnauthorized, &apiErr
	}
	author := postAuthor{ID: account.ID, Email: account.Email, Name: account.DisplayName}
	if postType == models.PostTypeNotice {
		if _, err := cc.admins.GetByEmail(ctx, account.Email); err != nil {
			apiErr := models.NewAPIError(models.ErrNoticeAdminOnly, "Only admins can create notice posts")
			return postAuthor{}, http.StatusForbidden, &apiErr
		}
		author.Name = noticeAuthorName
	}
	return author, 0, nil
}

// presentPost applies display rules before a post is returned
func presentPost(post *models.Post) {
	if post.PostType == models.PostTypeNotice {
		post.AuthorName = noticeAuthorName
	}
	if post.Tags == nil {
		post.Tags = []models.Tag{}
	}
	if post.Mentions == nil {
		post.Mentions = []models.PostMention{}
	}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, "Invalid ID format"))
		return 0, false
	}
	return uint(id), true
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/franciscosanchezn/insight-hub-api/internal/models"
	"gorm.io/gorm"
)

// PostFilter narrows ListPosts results
type PostFilter struct {
	PostType models.PostType
	Tag      string
	Search   string
	Page     int
	PageSize int
}

// NewPost carries everything needed to create a post
type NewPost struct {
	PostType    models.PostType
	Title       string
	Content     string
	ImageURL    *string
	Tags        []string
	Mentions    []string
	AuthorID    uint
	AuthorEmail string
	AuthorName  string
}

// NewComment carries everything needed to create a comment
type NewComment struct {
	PostID      uint
	ParentID    *uint
	Content     string
	Mentions    []string
	AuthorID    uint
	AuthorEmail string
	AuthorName  string
}

// ForumService provides the community board persistence and the tag/mention bookkeeping
type ForumService interface {
	// ListPosts returns one page of posts and the total count matching the filter
	ListPosts(ctx context.Context, filter PostFilter) ([]models.Post, int64, error)
	// GetPost retrieves a post and counts the view
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	// CreatePost stores a post together with its tags and resolved mentions
	CreatePost(ctx context.Context, input NewPost) (*models.Post, error)
	// CreateComment stores a comment together with its resolved mentions
	CreateComment(ctx context.Context, input NewComment) (*models.Comment, error)
}

type forumService struct {
	db       *gorm.DB
	resolver *MentionResolver
}

// NewForumService creates a new instance of ForumService
func NewForumService(db *gorm.DB, accounts AccountService) ForumService {
	return &forumService{db: db, resolver: NewMentionResolver(accounts)}
}

func (s *forumService) ListPosts(ctx context.Context, filter PostFilter) ([]models.Post, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	query := s.db.WithContext(ctx).Model(&models.Post{})
	if filter.PostType != "" {
		query = query.Where("post_type = ?", filter.PostType)
	}
	if filter.Tag != "" {
		query = query.Where("id IN (?)", s.db.Table("post_tags").
			Select("post_tags.post_id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("tags.name = ?", strings.ToLower(filter.Tag)))
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("title LIKE ? OR content LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	var posts []models.Post
	err := query.
		Preload("Tags").
		Preload("Mentions").
		Order("is_pinned DESC").
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&posts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	return posts, total, nil
}

func (s *forumService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Preload("Tags").Preload("Mentions").First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	if err := s.db.WithContext(ctx).Model(&post).UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error; err != nil {
		return nil, fmt.Errorf("count view of post %d: %w", id, err)
	}
	post.ViewCount++
	return &post, nil
}

func (s *forumService) CreatePost(ctx context.Context, input NewPost) (*models.Post, error) {
	mentions, err := s.resolver.Resolve(ctx, mergeMentions(input.Mentions, input.Content))
	if err != nil {
		return nil, fmt.Errorf("resolve mentions: %w", err)
	}
	tagNames := NormalizeTags(append(append([]string{}, input.Tags...), ExtractTags(input.Content)...))

	post := &models.Post{
		PostType:    input.PostType,
		Title:       input.Title,
		Content:     input.Content,
		ImageURL:    input.ImageURL,
		AuthorID:    input.AuthorID,
		AuthorEmail: input.AuthorEmail,
		AuthorName:  input.AuthorName,
	}
	for _, m := range mentions {
		post.Mentions = append(post.Mentions, models.PostMention{MentionedEmail: m.Email, MentionedName: m.Name})
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := findOrCreateTags(tx, tagNames)
		if err != nil {
			return err
		}
		post.Tags = tags
		return tx.Create(post).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

func (s *forumService) CreateComment(ctx context.Context, input NewComment) (*models.Comment, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).Select("id").First(&post, input.PostID).Error; err != nil {
		return nil, translate(err)
	}
	if input.ParentID != nil {
		var parent models.Comment
		err := s.db.WithContext(ctx).Where("id = ? AND post_id = ?", *input.ParentID, input.PostID).First(&parent).Error
		if err != nil {
			return nil, translate(err)
		}
	}

	mentions, err := s.resolver.Resolve(ctx, mergeMentions(input.Mentions, input.Content))
	if err != nil {
		return nil, fmt.Errorf("resolve mentions: %w", err)
	}

	comment := &models.Comment{
		PostID:      input.PostID,
		ParentID:    input.ParentID,
		Content:     input.Content,
		AuthorID:    input.AuthorID,
		AuthorEmail: input.AuthorEmail,
		AuthorName:  input.AuthorName,
	}
	for _, m := range mentions {
		comment.Mentions = append(comment.Mentions, models.CommentMention{MentionedEmail: m.Email, MentionedName: m.Name})
	}

	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

func findOrCreateTags(tx *gorm.DB, names []string) ([]models.Tag, error) {
	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		var tag models.Tag
		if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("tag %q: %w", name, err)
		}
		tags = append(tags, tag)
	}
	return tags, nil
}

// mergeMentions combines explicitly listed mentions with the ones written in the body
func mergeMentions(explicit []string, content string) []string {
	all := make([]string, 0, len(explicit))
	for _, m := range explicit {
		if m = strings.TrimPrefix(strings.TrimSpace(m), "@"); m != "" {
			all = append(all, m)
		}
	}
	return dedupe(append(all, ExtractMentions(content)...), false)
}

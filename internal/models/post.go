package models

import (
	"time"
)

// PostType classifies community posts
type PostType string

const (
	PostTypeNotice  PostType = "notice"
	PostTypeForum   PostType = "forum"
	PostTypeRequest PostType = "request"
)

// Valid reports whether the post type is one of the known kinds
func (t PostType) Valid() bool {
	switch t {
	case PostTypeNotice, PostTypeForum, PostTypeRequest:
		return true
	}
	return false
}

// Post represents a community post with its tags and mentions
type Post struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	PostType    PostType      `gorm:"not null;index" json:"post_type"`
	Title       string        `gorm:"not null" json:"title"`
	Content     string        `gorm:"type:text;not null" json:"content"`
	AuthorID    uint          `gorm:"not null" json:"-"`
	AuthorEmail string        `gorm:"not null" json:"author_email"`
	AuthorName  string        `json:"author_name"`
	IsPinned    bool          `json:"is_pinned"`
	ViewCount   int           `json:"view_count"`
	ImageURL    *string       `json:"image_url"`
	IsResolved  bool          `json:"is_resolved"`
	Tags        []Tag         `gorm:"many2many:post_tags;" json:"tags"`
	Mentions    []PostMention `json:"mentions"`
	Comments    []Comment     `json:"-"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Post) TableName() string {
	return "posts"
}

// Comment is a reply on a post, optionally nested under another comment
type Comment struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	PostID      uint             `gorm:"not null;index" json:"post_id"`
	Content     string           `gorm:"type:text;not null" json:"content"`
	AuthorID    uint             `gorm:"not null" json:"-"`
	AuthorEmail string           `gorm:"not null" json:"author_email"`
	AuthorName  string           `json:"author_name"`
	ParentID    *uint            `json:"parent_id"`
	Mentions    []CommentMention `json:"mentions"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Comment) TableName() string {
	return "comments"
}

// Tag is a lower-cased hashtag shared across posts
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

func (Tag) TableName() string {
	return "tags"
}

// PostMention records an account referenced from a post body
type PostMention struct {
	ID             uint    `gorm:"primaryKey" json:"-"`
	PostID         uint    `gorm:"not null;index" json:"-"`
	MentionedEmail string  `gorm:"not null;index" json:"mentioned_email"`
	MentionedName  *string `json:"mentioned_name"`
}

func (PostMention) TableName() string {
	return "post_mentions"
}

// CommentMention records an account referenced from a comment body
type CommentMention struct {
	ID             uint    `gorm:"primaryKey" json:"-"`
	CommentID      uint    `gorm:"not null;index" json:"-"`
	MentionedEmail string  `gorm:"not null;index" json:"mentioned_email"`
	MentionedName  *string `json:"mentioned_name"`
}

func (CommentMention) TableName() string {
	return "comment_mentions"
}

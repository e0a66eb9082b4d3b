package model

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("condition check failed")
	ErrInvalidCursor = errors.New("invalid page cursor")
)

// PostStore defines persistence operations for posts.
type PostStore interface {
	Put(ctx context.Context, post Post) error
	GetByID(ctx context.Context, id string, filter PostFilter) (Post, error)
	GetOne(ctx context.Context, filter PostFilter) (Post, error)
	ScanAll(ctx context.Context, filter PostFilter, fields []PostField) ([]Post, error)
	QueryPage(ctx context.Context, filter PostFilter, page PageRequest, fields []PostField) (Page, error)
	Count(ctx context.Context, filter PostFilter) (int, error)
	Update(ctx context.Context, id string, patch PostPatch, condition PostFilter) (Post, error)
}

// Renderer converts stored post content into its display form.
type Renderer interface {
	Render(source string) (string, error)
}

// Post represents a stored blog post.
type Post struct {
	ID          string       `json:"id"`
	Author      string       `json:"author"`
	Title       string       `json:"title"`
	Content     string       `json:"content,omitempty"`
	Slug        string       `json:"slug"`
	Tags        []string     `json:"tags"`
	Meta        Meta         `json:"meta"`
	Attachments []Attachment `json:"attachments,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   *time.Time   `json:"updated_at"`
	PublishedAt *time.Time   `json:"published_at"`
	DeletedAt   *time.Time   `json:"-"`
}

// Meta holds page metadata of a post.
type Meta struct {
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Language    string   `json:"language"`
	Keywords    []string `json:"keywords"`
	Title       string   `json:"title"`
}

// Attachment describes a binary file attached to a post.
type Attachment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Key         string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// SortTime is the instant posts are ordered by in listings.
func (p Post) SortTime() time.Time {
	if p.PublishedAt != nil {
		return *p.PublishedAt
	}
	return p.CreatedAt
}

// PostPatch lists the fields to merge into a stored post. Nil fields are left untouched.
type PostPatch struct {
	Author      *string
	Title       *string
	Content     *string
	Tags        *[]string
	Meta        *Meta
	Attachments *[]Attachment
	PublishedAt *time.Time
	UpdatedAt   *time.Time
	DeletedAt   *time.Time
}

// Apply merges the patch into post.
func (p PostPatch) Apply(post *Post) {
	if p.Author != nil {
		post.Author = *p.Author
	}
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Tags != nil {
		post.Tags = append([]string(nil), (*p.Tags)...)
	}
	if p.Meta != nil {
		post.Meta = *p.Meta
	}
	if p.Attachments != nil {
		post.Attachments = append([]Attachment(nil), (*p.Attachments)...)
	}
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		post.PublishedAt = &t
	}
	if p.UpdatedAt != nil {
		t := *p.UpdatedAt
		post.UpdatedAt = &t
	}
	if p.DeletedAt != nil {
		t := *p.DeletedAt
		post.DeletedAt = &t
	}
}

// PageRequest selects a single page of a listing.
type PageRequest struct {
	Cursor string
	Limit  int
}

// Page is one page of a listing. NextCursor is empty on the last page.
type Page struct {
	Items      []Post
	NextCursor string
}

// CreatePostParams contains parameters to create a post.
type CreatePostParams struct {
	Author      string
	Title       string
	Content     string
	Tags        []string
	Meta        Meta
	PublishedAt *time.Time
}

// UpdatePostParams contains the fields a caller may change on a post.
type UpdatePostParams struct {
	Author      *string
	Title       *string
	Content     *string
	Tags        *[]string
	Meta        *Meta
	PublishedAt *time.Time
}

// AddAttachmentParams describes an uploaded attachment.
type AddAttachmentParams struct {
	PostID      string
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

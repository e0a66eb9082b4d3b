package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"
)

// PostFilter is a conjunction of predicates over stored posts. Zero fields are ignored.
type PostFilter struct {
	NotDeleted bool
	// PublishedBefore keeps posts with a publish date at or before the instant.
	PublishedBefore *time.Time
	// PublishedFrom and PublishedTo bound the publish date, both inclusive.
	PublishedFrom *time.Time
	PublishedTo   *time.Time
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Title         string
	Slug          string
}

// Match reports whether post satisfies every predicate of the filter.
func (f PostFilter) Match(post Post) bool {
	if f.NotDeleted && post.DeletedAt != nil {
		return false
	}
	if f.PublishedBefore != nil || f.PublishedFrom != nil || f.PublishedTo != nil {
		if post.PublishedAt == nil {
			return false
		}
		if f.PublishedBefore != nil && post.PublishedAt.After(*f.PublishedBefore) {
			return false
		}
		if f.PublishedFrom != nil && post.PublishedAt.Before(*f.PublishedFrom) {
			return false
		}
		if f.PublishedTo != nil && post.PublishedAt.After(*f.PublishedTo) {
			return false
		}
	}
	if f.CreatedFrom != nil && post.CreatedAt.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && post.CreatedAt.After(*f.CreatedTo) {
		return false
	}
	if f.Title != "" && post.Title != f.Title {
		return false
	}
	if f.Slug != "" && post.Slug != f.Slug {
		return false
	}
	return true
}

// PostField names a projectable post attribute.
type PostField string

const (
	FieldID          PostField = "id"
	FieldAuthor      PostField = "author"
	FieldTitle       PostField = "title"
	FieldContent     PostField = "content"
	FieldSlug        PostField = "slug"
	FieldTags        PostField = "tags"
	FieldMeta        PostField = "meta"
	FieldAttachments PostField = "attachments"
	FieldCreatedAt   PostField = "created_at"
	FieldUpdatedAt   PostField = "updated_at"
	FieldPublishedAt PostField = "published_at"
	FieldDeletedAt   PostField = "deleted_at"
)

// AllPostFields lists every field in storage order.
var AllPostFields = []PostField{
	FieldID, FieldAuthor, FieldTitle, FieldContent, FieldSlug, FieldTags, FieldMeta,
	FieldAttachments, FieldCreatedAt, FieldUpdatedAt, FieldPublishedAt, FieldDeletedAt,
}

// Project returns a copy of post holding only the given fields. No fields means all of them.
func Project(post Post, fields []PostField) Post {
	if len(fields) == 0 {
		return post
	}
	var out Post
	for _, f := range fields {
		switch f {
		case FieldID:
			out.ID = post.ID
		case FieldAuthor:
			out.Author = post.Author
		case FieldTitle:
			out.Title = post.Title
		case FieldContent:
			out.Content = post.Content
		case FieldSlug:
			out.Slug = post.Slug
		case FieldTags:
			out.Tags = post.Tags
		case FieldMeta:
			out.Meta = post.Meta
		case FieldAttachments:
			out.Attachments = post.Attachments
		case FieldCreatedAt:
			out.CreatedAt = post.CreatedAt
		case FieldUpdatedAt:
			out.UpdatedAt = post.UpdatedAt
		case FieldPublishedAt:
			out.PublishedAt = post.PublishedAt
		case FieldDeletedAt:
			out.DeletedAt = post.DeletedAt
		}
	}
	return out
}

type cursorKey struct {
	SortTime time.Time `json:"t"`
	ID       string    `json:"id"`
}

// EncodeCursor builds the continuation key pointing just after post.
func EncodeCursor(post Post) string {
	b, _ := json.Marshal(cursorKey{SortTime: post.SortTime().UTC(), ID: post.ID})
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeCursor parses a continuation key produced by EncodeCursor.
func DecodeCursor(cursor string) (time.Time, string, error) {
	b, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	var key cursorKey
	if err := json.Unmarshal(b, &key); err != nil {
		return time.Time{}, "", fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if key.ID == "" || key.SortTime.IsZero() {
		return time.Time{}, "", ErrInvalidCursor
	}
	return key.SortTime, key.ID, nil
}

// Before reports whether a comes before b in newest-first order.
func Before(a, b Post) bool {
	at, bt := a.SortTime(), b.SortTime()
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return a.ID > b.ID
}

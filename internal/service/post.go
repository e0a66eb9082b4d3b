package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/postkeeper-server/internal/apperror"
	"github.com/dtroode/postkeeper-server/internal/logger"
	"github.com/dtroode/postkeeper-server/internal/model"
)

// summaryFields is the projection used by listings. Content is only served by single-post lookups.
var summaryFields = []model.PostField{
	model.FieldID,
	model.FieldAuthor,
	model.FieldTitle,
	model.FieldSlug,
	model.FieldTags,
	model.FieldMeta,
	model.FieldAttachments,
	model.FieldCreatedAt,
	model.FieldUpdatedAt,
	model.FieldPublishedAt,
}

var notDeleted = model.PostFilter{NotDeleted: true}

type Post struct {
	postStore model.PostStore
	renderer  model.Renderer
	storage   model.Storage
	pageSize  int
	now       func() time.Time
	logger    *logger.Logger
}

func NewPost(
	postStore model.PostStore,
	renderer model.Renderer,
	storage model.Storage,
	pageSize int,
	logger *logger.Logger,
) *Post {
	return &Post{
		postStore: postStore,
		renderer:  renderer,
		storage:   storage,
		pageSize:  pageSize,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		logger:    logger,
	}
}

// CreatePost stores a new post. A live post with the same title created earlier the same day is rejected.
func (s *Post) CreatePost(ctx context.Context, params model.CreatePostParams) (model.Post, error) {
	params.Author = strings.TrimSpace(params.Author)
	params.Title = strings.TrimSpace(params.Title)
	params.Tags = normalizeSet(params.Tags)
	params.Meta.Keywords = normalizeSet(params.Meta.Keywords)
	if err := validateCreate(params); err != nil {
		return model.Post{}, err
	}

	now := s.now()
	dayStart, dayEnd := dayBounds(now)
	_, err := s.postStore.GetOne(ctx, model.PostFilter{
		NotDeleted:  true,
		Title:       params.Title,
		CreatedFrom: &dayStart,
		CreatedTo:   &dayEnd,
	})
	if err == nil {
		return model.Post{}, apperror.NewErrPostAlreadyExists(params.Title)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.Post{}, fmt.Errorf("failed to check title uniqueness: %w", err)
	}

	post := model.Post{
		ID:          uuid.NewString(),
		Author:      params.Author,
		Title:       params.Title,
		Content:     params.Content,
		Slug:        Slugify(params.Title),
		Tags:        params.Tags,
		Meta:        params.Meta,
		CreatedAt:   now,
		PublishedAt: utcPtr(params.PublishedAt),
	}

	if err := s.postStore.Put(ctx, post); err != nil {
		return model.Post{}, fmt.Errorf("failed to save post: %w", err)
	}

	s.logger.Info("PostService: post created", "id", post.ID, "slug", post.Slug)

	return post, nil
}

// DeletePost soft-deletes a live post. Deleting an already deleted post fails.
func (s *Post) DeletePost(ctx context.Context, id string) error {
	if _, err := s.getLive(ctx, id); err != nil {
		return err
	}

	now := s.now()
	_, err := s.postStore.Update(ctx, id, model.PostPatch{DeletedAt: &now}, notDeleted)
	if errors.Is(err, model.ErrConflict) {
		return apperror.NewErrPostConflict(id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	s.logger.Info("PostService: post deleted", "id", id)

	return nil
}

// UpdatePost merges the supplied fields into a live post and stamps its update time.
func (s *Post) UpdatePost(ctx context.Context, id string, params model.UpdatePostParams) (model.Post, error) {
	if err := validateUpdate(&params); err != nil {
		return model.Post{}, err
	}
	if _, err := s.getLive(ctx, id); err != nil {
		return model.Post{}, err
	}

	now := s.now()
	patch := model.PostPatch{
		Author:      params.Author,
		Title:       params.Title,
		Content:     params.Content,
		Tags:        params.Tags,
		Meta:        params.Meta,
		PublishedAt: utcPtr(params.PublishedAt),
		UpdatedAt:   &now,
	}

	post, err := s.postStore.Update(ctx, id, patch, notDeleted)
	if errors.Is(err, model.ErrConflict) {
		return model.Post{}, apperror.NewErrPostConflict(id)
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to update post: %w", err)
	}

	return post, nil
}

// GetPostByID returns a live post with its content rendered.
func (s *Post) GetPostByID(ctx context.Context, id string) (model.Post, error) {
	post, err := s.getLive(ctx, id)
	if err != nil {
		return model.Post{}, err
	}
	return s.render(post)
}

// GetPostByDateAndSlug returns the live post published on the given UTC day under slug.
func (s *Post) GetPostByDateAndSlug(ctx context.Context, year, month, day int, slug string) (model.Post, error) {
	if month < 1 || month > 12 {
		return model.Post{}, apperror.NewErrInvalidInput(fmt.Sprintf("month must be between 1 and 12, got %d", month))
	}
	if day < 1 || day > 31 {
		return model.Post{}, apperror.NewErrInvalidInput(fmt.Sprintf("day must be between 1 and 31, got %d", day))
	}
	if slug == "" {
		return model.Post{}, apperror.NewErrInvalidInput("slug is required")
	}

	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if start.Day() != day {
		// Days such as Feb 30 have no posts.
		return model.Post{}, apperror.NewErrPostNotFound(slug)
	}
	_, end := dayBounds(start)

	post, err := s.postStore.GetOne(ctx, model.PostFilter{
		NotDeleted:    true,
		PublishedFrom: &start,
		PublishedTo:   &end,
		Slug:          slug,
	})
	if errors.Is(err, model.ErrNotFound) {
		return model.Post{}, apperror.NewErrPostNotFound(slug)
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to get post by date and slug: %w", err)
	}

	return s.render(post)
}

// ListPosts returns one page of the public feed, newest first.
func (s *Post) ListPosts(ctx context.Context, cursor string) (model.Page, error) {
	page, err := s.postStore.QueryPage(ctx, s.publishedFilter(), model.PageRequest{Cursor: cursor, Limit: s.pageSize}, summaryFields)
	if errors.Is(err, model.ErrInvalidCursor) {
		return model.Page{}, apperror.NewErrInvalidInput("invalid cursor")
	}
	if err != nil {
		return model.Page{}, fmt.Errorf("failed to list posts: %w", err)
	}
	return page, nil
}

// ListAllPosts returns every published post, newest first.
func (s *Post) ListAllPosts(ctx context.Context) ([]model.Post, error) {
	posts, err := s.postStore.ScanAll(ctx, s.publishedFilter(), summaryFields)
	if err != nil {
		return nil, fmt.Errorf("failed to list all posts: %w", err)
	}
	return posts, nil
}

// CountPublished returns the size of the public feed.
func (s *Post) CountPublished(ctx context.Context) (int, error) {
	n, err := s.postStore.Count(ctx, s.publishedFilter())
	if err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

func (s *Post) publishedFilter() model.PostFilter {
	now := s.now()
	return model.PostFilter{NotDeleted: true, PublishedBefore: &now}
}

func (s *Post) getLive(ctx context.Context, id string) (model.Post, error) {
	post, err := s.postStore.GetByID(ctx, id, notDeleted)
	if errors.Is(err, model.ErrNotFound) {
		return model.Post{}, apperror.NewErrPostNotFound(id)
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to get post by id: %w", err)
	}
	return post, nil
}

func (s *Post) render(post model.Post) (model.Post, error) {
	html, err := s.renderer.Render(post.Content)
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to render post %s: %w", post.ID, err)
	}
	post.Content = html
	return post, nil
}

func validateCreate(params model.CreatePostParams) error {
	switch {
	case params.Author == "":
		return apperror.NewErrInvalidInput("author is required")
	case params.Title == "":
		return apperror.NewErrInvalidInput("title is required")
	case strings.TrimSpace(params.Content) == "":
		return apperror.NewErrInvalidInput("content is required")
	case len(params.Tags) == 0:
		return apperror.NewErrInvalidInput("at least one tag is required")
	case len(params.Meta.Keywords) == 0:
		return apperror.NewErrInvalidInput("at least one meta keyword is required")
	}
	return nil
}

func validateUpdate(params *model.UpdatePostParams) error {
	if params.Author != nil {
		author := strings.TrimSpace(*params.Author)
		if author == "" {
			return apperror.NewErrInvalidInput("author must not be empty")
		}
		params.Author = &author
	}
	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			return apperror.NewErrInvalidInput("title must not be empty")
		}
		params.Title = &title
	}
	if params.Content != nil && strings.TrimSpace(*params.Content) == "" {
		return apperror.NewErrInvalidInput("content must not be empty")
	}
	if params.Tags != nil {
		tags := normalizeSet(*params.Tags)
		if len(tags) == 0 {
			return apperror.NewErrInvalidInput("tags must not be empty")
		}
		params.Tags = &tags
	}
	if params.Meta != nil {
		meta := *params.Meta
		meta.Keywords = normalizeSet(meta.Keywords)
		if len(meta.Keywords) == 0 {
			return apperror.NewErrInvalidInput("meta keywords must not be empty")
		}
		params.Meta = &meta
	}
	return nil
}

// normalizeSet trims values, drops blanks and duplicates, and keeps first-seen order.
func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// dayBounds returns the first and last instant of t's UTC day.
func dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Microsecond)
	return &v
}

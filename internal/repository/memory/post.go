// Package memory implements an in-memory post store for development and testing.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dtroode/postkeeper-server/internal/model"
)

const defaultPageLimit = 10

// PostRepository keeps posts in a map guarded by a mutex.
type PostRepository struct {
	mu    sync.RWMutex
	posts map[string]model.Post
}

// NewPostRepository creates an empty store.
func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[string]model.Post)}
}

var _ model.PostStore = (*PostRepository)(nil)

// Put stores post, replacing any post with the same id.
func (r *PostRepository) Put(ctx context.Context, post model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string, filter model.PostFilter) (model.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok || !filter.Match(post) {
		return model.Post{}, model.ErrNotFound
	}
	return clonePost(post), nil
}

func (r *PostRepository) GetOne(ctx context.Context, filter model.PostFilter) (model.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, post := range r.posts {
		if filter.Match(post) {
			return clonePost(post), nil
		}
	}
	return model.Post{}, model.ErrNotFound
}

func (r *PostRepository) ScanAll(ctx context.Context, filter model.PostFilter, fields []model.PostField) ([]model.Post, error) {
	matched := r.sorted(filter)
	out := make([]model.Post, 0, len(matched))
	for _, post := range matched {
		out = append(out, model.Project(post, fields))
	}
	return out, nil
}

// QueryPage returns up to page.Limit posts after page.Cursor in newest-first order.
func (r *PostRepository) QueryPage(ctx context.Context, filter model.PostFilter, page model.PageRequest, fields []model.PostField) (model.Page, error) {
	var (
		afterTime time.Time
		afterID   string
	)
	if page.Cursor != "" {
		var err error
		afterTime, afterID, err = model.DecodeCursor(page.Cursor)
		if err != nil {
			return model.Page{}, err
		}
	}
	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	matched := r.sorted(filter)
	if page.Cursor != "" {
		pivot := model.Post{ID: afterID, CreatedAt: afterTime}
		start := len(matched)
		for i, post := range matched {
			if model.Before(pivot, post) {
				start = i
				break
			}
		}
		matched = matched[start:]
	}

	result := model.Page{}
	if len(matched) > limit {
		result.NextCursor = model.EncodeCursor(matched[limit-1])
		matched = matched[:limit]
	}
	result.Items = make([]model.Post, 0, len(matched))
	for _, post := range matched {
		result.Items = append(result.Items, model.Project(post, fields))
	}
	return result, nil
}

func (r *PostRepository) Count(ctx context.Context, filter model.PostFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, post := range r.posts {
		if filter.Match(post) {
			n++
		}
	}
	return n, nil
}

// Update applies patch to the post with id if it satisfies condition, else fails with model.ErrConflict.
func (r *PostRepository) Update(ctx context.Context, id string, patch model.PostPatch, condition model.PostFilter) (model.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok || !condition.Match(post) {
		return model.Post{}, model.ErrConflict
	}

	patch.Apply(&post)
	r.posts[id] = clonePost(post)
	return clonePost(post), nil
}

func (r *PostRepository) sorted(filter model.PostFilter) []model.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []model.Post
	for _, post := range r.posts {
		if filter.Match(post) {
			out = append(out, clonePost(post))
		}
	}
	slices.SortFunc(out, func(a, b model.Post) int {
		switch {
		case model.Before(a, b):
			return -1
		case model.Before(b, a):
			return 1
		default:
			return 0
		}
	})
	return out
}

func clonePost(p model.Post) model.Post {
	p.Tags = slices.Clone(p.Tags)
	p.Meta.Keywords = slices.Clone(p.Meta.Keywords)
	p.Attachments = slices.Clone(p.Attachments)
	p.UpdatedAt = cloneTime(p.UpdatedAt)
	p.PublishedAt = cloneTime(p.PublishedAt)
	p.DeletedAt = cloneTime(p.DeletedAt)
	return p
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

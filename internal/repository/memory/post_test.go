package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/postkeeper-server/internal/model"
)

var base = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	t := base.Add(d)
	return &t
}

func seed(t *testing.T, r *PostRepository, posts ...model.Post) {
	t.Helper()
	for _, p := range posts {
		require.NoError(t, r.Put(context.Background(), p))
	}
}

func TestPostRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	r := NewPostRepository()
	seed(t, r,
		model.Post{ID: "live", Title: "Live", Tags: []string{"go"}, CreatedAt: base},
		model.Post{ID: "gone", Title: "Gone", CreatedAt: base, DeletedAt: at(time.Hour)},
	)

	got, err := r.GetByID(ctx, "live", model.PostFilter{NotDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, "Live", got.Title)

	_, err = r.GetByID(ctx, "gone", model.PostFilter{NotDeleted: true})
	assert.ErrorIs(t, err, model.ErrNotFound)

	got, err = r.GetByID(ctx, "gone", model.PostFilter{})
	require.NoError(t, err)
	assert.NotNil(t, got.DeletedAt)

	_, err = r.GetByID(ctx, "missing", model.PostFilter{})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPostRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	r := NewPostRepository()
	seed(t, r, model.Post{ID: "p", Tags: []string{"go"}, CreatedAt: base})

	got, err := r.GetByID(ctx, "p", model.PostFilter{})
	require.NoError(t, err)
	got.Tags[0] = "changed"

	again, err := r.GetByID(ctx, "p", model.PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, again.Tags)
}

func TestPostRepository_GetOne(t *testing.T) {
	ctx := context.Background()
	r := NewPostRepository()
	seed(t, r, model.Post{ID: "p", Slug: "hello", CreatedAt: base, PublishedAt: at(time.Hour)})

	from, to := base, base.Add(24*time.Hour-time.Nanosecond)
	got, err := r.GetOne(ctx, model.PostFilter{NotDeleted: true, Slug: "hello", PublishedFrom: &from, PublishedTo: &to})
	require.NoError(t, err)
	assert.Equal(t, "p", got.ID)

	_, err = r.GetOne(ctx, model.PostFilter{Slug: "other"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestPostRepository_Update(t *testing.T) {
	ctx := context.Background()
	r := NewPostRepository()
	seed(t, r, model.Post{ID: "p", Title: "T", Content: "old", CreatedAt: base})

	content := "new"
	got, err := r.Update(ctx, "p", model.PostPatch{Content: &content}, model.PostFilter{NotDeleted: true})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Content)
	assert.Equal(t, "T", got.Title)

	deleted := base.Add(time.Hour)
	_, err = r.Update(ctx, "p", model.PostPatch{DeletedAt: &deleted}, model.PostFilter{NotDeleted: true})
	require.NoError(t, err)

	_, err = r.Update(ctx, "p", model.PostPatch{DeletedAt: &deleted}, model.PostFilter{NotDeleted: true})
	assert.ErrorIs(t, err, model.ErrConflict)

	_, err = r.Update(ctx, "missing", model.PostPatch{Content: &content}, model.PostFilter{})
	assert.ErrorIs(t, err, model.ErrConflict)
}

func TestPostRepository_QueryPage(t *testing.T) {
	ctx := context.Background()
	r := NewPostRepository()

	// Seven published posts, two share a publish instant, plus a draft, a scheduled and a deleted post.
	for i := 0; i < 6; i++ {
		seed(t, r, model.Post{ID: fmt.Sprintf("p%d", i), CreatedAt: base, PublishedAt: at(time.Duration(i) * time.Hour)})
	}
	seed(t, r,
		model.Post{ID: "p6", CreatedAt: base, PublishedAt: at(5 * time.Hour)},
		model.Post{ID: "draft", CreatedAt: base},
		model.Post{ID: "scheduled", CreatedAt: base, PublishedAt: at(100 * time.Hour)},
		model.Post{ID: "deleted", CreatedAt: base, PublishedAt: at(time.Hour), DeletedAt: at(2 * time.Hour)},
	)

	now := base.Add(10 * time.Hour)
	filter := model.PostFilter{NotDeleted: true, PublishedBefore: &now}
	fields := []model.PostField{model.FieldID, model.FieldTitle}

	var ids []string
	cursor := ""
	pages := 0
	for {
		page, err := r.QueryPage(ctx, filter, model.PageRequest{Cursor: cursor, Limit: 3}, fields)
		require.NoError(t, err)
		pages++
		for _, p := range page.Items {
			assert.Nil(t, p.PublishedAt)
			ids = append(ids, p.ID)
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	assert.Equal(t, []string{"p6", "p5", "p4", "p3", "p2", "p1", "p0"}, ids)
	assert.Equal(t, 3, pages)

	count, err := r.Count(ctx, filter)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestPostRepository_QueryPage_ExactMultiple(t *testing.T) {
	ctx := context.Background()
	r := NewPostRepository()
	seed(t, r,
		model.Post{ID: "a", CreatedAt: base},
		model.Post{ID: "b", CreatedAt: base.Add(time.Hour)},
	)

	page, err := r.QueryPage(ctx, model.PostFilter{}, model.PageRequest{Limit: 2}, nil)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Empty(t, page.NextCursor)
}

func TestPostRepository_QueryPage_InvalidCursor(t *testing.T) {
	_, err := NewPostRepository().QueryPage(context.Background(), model.PostFilter{}, model.PageRequest{Cursor: "!!"}, nil)
	assert.ErrorIs(t, err, model.ErrInvalidCursor)
}

func TestPostRepository_ScanAll(t *testing.T) {
	ctx := context.Background()
	r := NewPostRepository()
	for i := 0; i < 250; i++ {
		seed(t, r, model.Post{ID: fmt.Sprintf("p%03d", i), Content: "body", CreatedAt: base.Add(time.Duration(i) * time.Minute)})
	}

	all, err := r.ScanAll(ctx, model.PostFilter{}, []model.PostField{model.FieldID, model.FieldCreatedAt})
	require.NoError(t, err)
	require.Len(t, all, 250)
	assert.Equal(t, "p249", all[0].ID)
	assert.Equal(t, "p000", all[249].ID)
	assert.Empty(t, all[0].Content)
}

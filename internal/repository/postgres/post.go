package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/postkeeper-server/internal/model"
)

var _ model.PostStore = (*PostRepository)(nil)

const (
	scanBatchSize    = 100
	defaultPageLimit = 10
	sortExpr         = "COALESCE(published_at, created_at)"
)

type PostRepository struct {
	db *Connection
}

func NewPostRepository(db *Connection) *PostRepository {
	return &PostRepository{
		db: db,
	}
}

// Put inserts post or overwrites the stored post with the same id.
func (r *PostRepository) Put(ctx context.Context, post model.Post) error {
	meta, attachments, err := encodeJSONColumns(post)
	if err != nil {
		return err
	}
	tags := post.Tags
	if tags == nil {
		tags = []string{}
	}

	const query = `
		INSERT INTO posts (id, author, title, content, slug, tags, meta, attachments, created_at, updated_at, published_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			author = EXCLUDED.author,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			slug = EXCLUDED.slug,
			tags = EXCLUDED.tags,
			meta = EXCLUDED.meta,
			attachments = EXCLUDED.attachments,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			published_at = EXCLUDED.published_at,
			deleted_at = EXCLUDED.deleted_at`

	_, err = r.db.Exec(ctx, query,
		post.ID, post.Author, post.Title, post.Content, post.Slug, tags, meta, attachments,
		post.CreatedAt, post.UpdatedAt, post.PublishedAt, post.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to put post: %w", err)
	}
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string, filter model.PostFilter) (model.Post, error) {
	q := newQuery()
	cond := q.where(filter, "id = "+q.arg(id))
	cols := selectColumns(nil)

	query := fmt.Sprintf("SELECT %s FROM posts WHERE %s", columnList(cols), cond)
	post, err := scanPost(r.db.QueryRow(ctx, query, q.args...), cols)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Post{}, model.ErrNotFound
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to get post by id: %w", err)
	}
	return post, nil
}

// GetOne returns some post matching filter. Which one is unspecified when several match.
func (r *PostRepository) GetOne(ctx context.Context, filter model.PostFilter) (model.Post, error) {
	q := newQuery()
	cond := q.where(filter)
	cols := selectColumns(nil)

	query := fmt.Sprintf("SELECT %s FROM posts WHERE %s LIMIT 1", columnList(cols), cond)
	post, err := scanPost(r.db.QueryRow(ctx, query, q.args...), cols)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Post{}, model.ErrNotFound
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// ScanAll follows page cursors until the listing is exhausted.
func (r *PostRepository) ScanAll(ctx context.Context, filter model.PostFilter, fields []model.PostField) ([]model.Post, error) {
	var (
		all    []model.Post
		cursor string
	)
	for {
		page, err := r.QueryPage(ctx, filter, model.PageRequest{Cursor: cursor, Limit: scanBatchSize}, fields)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

// QueryPage returns one page in newest-first order, starting after page.Cursor.
func (r *PostRepository) QueryPage(ctx context.Context, filter model.PostFilter, page model.PageRequest, fields []model.PostField) (model.Page, error) {
	limit := page.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	q := newQuery()
	var extra []string
	if page.Cursor != "" {
		sortTime, id, err := model.DecodeCursor(page.Cursor)
		if err != nil {
			return model.Page{}, err
		}
		extra = append(extra, fmt.Sprintf("(%s, id) < (%s, %s)", sortExpr, q.arg(sortTime), q.arg(id)))
	}
	cond := q.where(filter, extra...)
	cols := selectColumns(fields)

	query := fmt.Sprintf("SELECT %s FROM posts WHERE %s ORDER BY %s DESC, id DESC LIMIT %s",
		columnList(cols), cond, sortExpr, q.arg(limit+1))

	rows, err := r.db.Query(ctx, query, q.args...)
	if err != nil {
		return model.Page{}, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		post, err := scanPost(rows, cols)
		if err != nil {
			return model.Page{}, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return model.Page{}, fmt.Errorf("failed to read posts: %w", err)
	}

	result := model.Page{}
	if len(posts) > limit {
		result.NextCursor = model.EncodeCursor(posts[limit-1])
		posts = posts[:limit]
	}
	result.Items = make([]model.Post, 0, len(posts))
	for _, post := range posts {
		result.Items = append(result.Items, model.Project(post, fields))
	}
	return result, nil
}

func (r *PostRepository) Count(ctx context.Context, filter model.PostFilter) (int, error) {
	q := newQuery()
	query := "SELECT COUNT(*) FROM posts WHERE " + q.where(filter)

	var n int
	if err := r.db.QueryRow(ctx, query, q.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}

// Update applies patch to the post with id only while it satisfies condition.
// It fails with model.ErrConflict when no row qualifies.
func (r *PostRepository) Update(ctx context.Context, id string, patch model.PostPatch, condition model.PostFilter) (model.Post, error) {
	q := newQuery()
	idArg := q.arg(id)
	set, err := q.set(patch)
	if err != nil {
		return model.Post{}, err
	}
	cond := q.where(condition, "id = "+idArg)
	cols := selectColumns(nil)

	query := fmt.Sprintf("UPDATE posts SET %s WHERE %s RETURNING %s", set, cond, columnList(cols))
	post, err := scanPost(r.db.QueryRow(ctx, query, q.args...), cols)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Post{}, model.ErrConflict
	}
	if err != nil {
		return model.Post{}, fmt.Errorf("failed to update post: %w", err)
	}
	return post, nil
}

// query accumulates positional arguments for a single statement.
type query struct {
	args []any
}

func newQuery() *query {
	return &query{}
}

func (q *query) arg(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// where compiles filter, plus any extra predicates, into a conjunction.
func (q *query) where(filter model.PostFilter, extra ...string) string {
	var preds []string
	preds = append(preds, extra...)

	if filter.NotDeleted {
		preds = append(preds, "deleted_at IS NULL")
	}
	if filter.PublishedBefore != nil || filter.PublishedFrom != nil || filter.PublishedTo != nil {
		preds = append(preds, "published_at IS NOT NULL")
	}
	if filter.PublishedBefore != nil {
		preds = append(preds, "published_at <= "+q.arg(*filter.PublishedBefore))
	}
	if filter.PublishedFrom != nil {
		preds = append(preds, "published_at >= "+q.arg(*filter.PublishedFrom))
	}
	if filter.PublishedTo != nil {
		preds = append(preds, "published_at <= "+q.arg(*filter.PublishedTo))
	}
	if filter.CreatedFrom != nil {
		preds = append(preds, "created_at >= "+q.arg(*filter.CreatedFrom))
	}
	if filter.CreatedTo != nil {
		preds = append(preds, "created_at <= "+q.arg(*filter.CreatedTo))
	}
	if filter.Title != "" {
		preds = append(preds, "title = "+q.arg(filter.Title))
	}
	if filter.Slug != "" {
		preds = append(preds, "slug = "+q.arg(filter.Slug))
	}

	if len(preds) == 0 {
		return "TRUE"
	}
	return strings.Join(preds, " AND ")
}

// set compiles the non-nil fields of patch into a SET list.
func (q *query) set(patch model.PostPatch) (string, error) {
	var sets []string
	add := func(col string, v any) {
		sets = append(sets, col+" = "+q.arg(v))
	}

	if patch.Author != nil {
		add("author", *patch.Author)
	}
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Content != nil {
		add("content", *patch.Content)
	}
	if patch.Tags != nil {
		tags := *patch.Tags
		if tags == nil {
			tags = []string{}
		}
		add("tags", tags)
	}
	if patch.Meta != nil {
		b, err := json.Marshal(*patch.Meta)
		if err != nil {
			return "", fmt.Errorf("failed to encode post meta: %w", err)
		}
		add("meta", b)
	}
	if patch.Attachments != nil {
		b, err := json.Marshal(toAttachmentRows(*patch.Attachments))
		if err != nil {
			return "", fmt.Errorf("failed to encode post attachments: %w", err)
		}
		add("attachments", b)
	}
	if patch.PublishedAt != nil {
		add("published_at", *patch.PublishedAt)
	}
	if patch.UpdatedAt != nil {
		add("updated_at", *patch.UpdatedAt)
	}
	if patch.DeletedAt != nil {
		add("deleted_at", *patch.DeletedAt)
	}

	if len(sets) == 0 {
		return "id = id", nil
	}
	return strings.Join(sets, ", "), nil
}

// selectColumns returns the columns to read for a projection. The ordering keys are always read.
func selectColumns(fields []model.PostField) []model.PostField {
	if len(fields) == 0 {
		return model.AllPostFields
	}
	want := make(map[model.PostField]bool, len(fields)+3)
	for _, f := range fields {
		want[f] = true
	}
	want[model.FieldID] = true
	want[model.FieldCreatedAt] = true
	want[model.FieldPublishedAt] = true

	cols := make([]model.PostField, 0, len(want))
	for _, f := range model.AllPostFields {
		if want[f] {
			cols = append(cols, f)
		}
	}
	return cols
}

func columnList(cols []model.PostField) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func scanPost(row pgx.Row, cols []model.PostField) (model.Post, error) {
	var (
		post        model.Post
		meta        []byte
		attachments []byte
	)
	dest := make([]any, len(cols))
	for i, c := range cols {
		switch c {
		case model.FieldID:
			dest[i] = &post.ID
		case model.FieldAuthor:
			dest[i] = &post.Author
		case model.FieldTitle:
			dest[i] = &post.Title
		case model.FieldContent:
			dest[i] = &post.Content
		case model.FieldSlug:
			dest[i] = &post.Slug
		case model.FieldTags:
			dest[i] = &post.Tags
		case model.FieldMeta:
			dest[i] = &meta
		case model.FieldAttachments:
			dest[i] = &attachments
		case model.FieldCreatedAt:
			dest[i] = &post.CreatedAt
		case model.FieldUpdatedAt:
			dest[i] = &post.UpdatedAt
		case model.FieldPublishedAt:
			dest[i] = &post.PublishedAt
		case model.FieldDeletedAt:
			dest[i] = &post.DeletedAt
		}
	}

	if err := row.Scan(dest...); err != nil {
		return model.Post{}, err
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &post.Meta); err != nil {
			return model.Post{}, fmt.Errorf("failed to decode post meta: %w", err)
		}
	}
	if len(attachments) > 0 {
		var rows []attachmentRow
		if err := json.Unmarshal(attachments, &rows); err != nil {
			return model.Post{}, fmt.Errorf("failed to decode post attachments: %w", err)
		}
		post.Attachments = fromAttachmentRows(rows)
	}

	post.CreatedAt = post.CreatedAt.UTC()
	post.UpdatedAt = utc(post.UpdatedAt)
	post.PublishedAt = utc(post.PublishedAt)
	post.DeletedAt = utc(post.DeletedAt)

	return post, nil
}

// attachmentRow is the stored form of an attachment; it keeps the object key.
type attachmentRow struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Key         string    `json:"key"`
	CreatedAt   time.Time `json:"created_at"`
}

func toAttachmentRows(in []model.Attachment) []attachmentRow {
	out := make([]attachmentRow, 0, len(in))
	for _, a := range in {
		out = append(out, attachmentRow(a))
	}
	return out
}

func fromAttachmentRows(in []attachmentRow) []model.Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]model.Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, model.Attachment(a))
	}
	return out
}

func encodeJSONColumns(post model.Post) (meta, attachments []byte, err error) {
	meta, err = json.Marshal(post.Meta)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode post meta: %w", err)
	}
	attachments, err = json.Marshal(toAttachmentRows(post.Attachments))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode post attachments: %w", err)
	}
	return meta, attachments, nil
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dtroode/postkeeper-server/internal/apperror"
	"github.com/dtroode/postkeeper-server/internal/logger"
	"github.com/dtroode/postkeeper-server/internal/model"
)

const (
	maxBodySize       = 1 << 20
	maxUploadSize     = 32 << 20
	maxUploadInMemory = 8 << 20
)

// PostService defines business operations for posts.
type PostService interface {
	CreatePost(ctx context.Context, params model.CreatePostParams) (model.Post, error)
	DeletePost(ctx context.Context, id string) error
	UpdatePost(ctx context.Context, id string, params model.UpdatePostParams) (model.Post, error)
	GetPostByID(ctx context.Context, id string) (model.Post, error)
	GetPostByDateAndSlug(ctx context.Context, year, month, day int, slug string) (model.Post, error)
	ListPosts(ctx context.Context, cursor string) (model.Page, error)
	ListAllPosts(ctx context.Context) ([]model.Post, error)
	CountPublished(ctx context.Context) (int, error)
	Archive(ctx context.Context) (map[string]int, error)
	AddAttachment(ctx context.Context, params model.AddAttachmentParams) (model.Attachment, error)
	GetAttachment(ctx context.Context, postID, attachmentID string) (model.Attachment, io.ReadCloser, error)
}

// Authorizer checks that a principal holds the roles an operation requires.
type Authorizer interface {
	Authorize(principal *model.Principal, required ...string) error
}

// Post handles HTTP endpoints for posts.
type Post struct {
	postService    PostService
	authorizer     Authorizer
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewPost creates a new Post handler.
func NewPost(postService PostService, authorizer Authorizer, contextManager model.ContextManager, logger *logger.Logger) *Post {
	return &Post{
		postService:    postService,
		authorizer:     authorizer,
		contextManager: contextManager,
		logger:         logger,
	}
}

type listResponse struct {
	Items      []model.Post `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
	Total      int          `json:"total"`
}

type createPostRequest struct {
	Author      string     `json:"author"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Tags        []string   `json:"tags"`
	Meta        model.Meta `json:"meta"`
	PublishedAt *time.Time `json:"published_at"`
}

type updatePostRequest struct {
	Author      *string     `json:"author"`
	Title       *string     `json:"title"`
	Content     *string     `json:"content"`
	Tags        *[]string   `json:"tags"`
	Meta        *model.Meta `json:"meta"`
	PublishedAt *time.Time  `json:"published_at"`
}

// ListPosts returns one page of the public feed.
func (h *Post) ListPosts(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	h.logger.Debug("Post handler: processing list posts request", "cursor", cursor)

	page, err := h.postService.ListPosts(r.Context(), cursor)
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	total, err := h.postService.CountPublished(r.Context())
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	items := page.Items
	if items == nil {
		items = []model.Post{}
	}
	WriteJSON(w, http.StatusOK, listResponse{Items: items, NextCursor: page.NextCursor, Total: total})
}

// ListAllPosts returns every published post.
func (h *Post) ListAllPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.postService.ListAllPosts(r.Context())
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	WriteJSON(w, http.StatusOK, posts)
}

// Archive returns published post counts per month.
func (h *Post) Archive(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.postService.Archive(r.Context())
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, buckets)
}

func (h *Post) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.postService.GetPostByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

// GetPostByDateAndSlug resolves the /{year}/{month}/{day}/{slug} permalink.
func (h *Post) GetPostByDateAndSlug(w http.ResponseWriter, r *http.Request) {
	var date [3]int
	for i, name := range []string{"year", "month", "day"} {
		n, err := strconv.Atoi(chi.URLParam(r, name))
		if err != nil {
			WriteError(w, r, h.logger, apperror.NewErrInvalidInput(name+" must be a number"))
			return
		}
		date[i] = n
	}

	post, err := h.postService.GetPostByDateAndSlug(r.Context(), date[0], date[1], date[2], chi.URLParam(r, "slug"))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

func (h *Post) CreatePost(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, model.RolePostCreate) {
		return
	}

	var req createPostRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	post, err := h.postService.CreatePost(r.Context(), model.CreatePostParams{
		Author:      req.Author,
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		Meta:        req.Meta,
		PublishedAt: req.PublishedAt,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Post handler: post created", "post_id", post.ID, "title", post.Title)
	WriteJSON(w, http.StatusCreated, post)
}

func (h *Post) UpdatePost(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, model.RolePostUpdate) {
		return
	}

	var req updatePostRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	post, err := h.postService.UpdatePost(r.Context(), chi.URLParam(r, "id"), model.UpdatePostParams{
		Author:      req.Author,
		Title:       req.Title,
		Content:     req.Content,
		Tags:        req.Tags,
		Meta:        req.Meta,
		PublishedAt: req.PublishedAt,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

func (h *Post) DeletePost(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, model.RolePostDelete) {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.postService.DeletePost(r.Context(), id); err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Post handler: post deleted", "post_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// AddAttachment stores the multipart "file" field as an attachment of the post.
func (h *Post) AddAttachment(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, model.RolePostUpdate) {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadInMemory); err != nil {
		WriteError(w, r, h.logger, apperror.NewErrInvalidInput("invalid multipart body"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, r, h.logger, apperror.NewErrInvalidInput("file field is required"))
		return
	}
	defer file.Close()

	attachment, err := h.postService.AddAttachment(r.Context(), model.AddAttachmentParams{
		PostID:      chi.URLParam(r, "id"),
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Post handler: attachment added",
		"post_id", chi.URLParam(r, "id"),
		"attachment_id", attachment.ID,
		"size", attachment.Size)
	WriteJSON(w, http.StatusCreated, attachment)
}

// GetAttachment streams attachment bytes to the client.
func (h *Post) GetAttachment(w http.ResponseWriter, r *http.Request) {
	attachment, body, err := h.postService.GetAttachment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "attachmentID"))
	if err != nil {
		WriteError(w, r, h.logger, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", attachment.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": attachment.Name}))
	if attachment.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(attachment.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn("Post handler: attachment stream interrupted",
			"attachment_id", attachment.ID,
			"error", err)
	}
}

func (h *Post) authorize(w http.ResponseWriter, r *http.Request, roles ...string) bool {
	principal, _ := h.contextManager.GetPrincipalFromContext(r.Context())
	if err := h.authorizer.Authorize(principal, roles...); err != nil {
		WriteError(w, r, h.logger, err)
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperror.NewErrInvalidInput("request body too large")
		}
		return apperror.NewErrInvalidInput("invalid request body: " + err.Error())
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/dtroode/postkeeper-server/internal/apperror"
	"github.com/dtroode/postkeeper-server/internal/model"
)

const defaultContentType = "application/octet-stream"

var errStorageDisabled = errors.New("attachment storage is not configured")

// AddAttachment uploads the attachment bytes and records the attachment on a live post.
// The uploaded object is removed again if the post was deleted in the meantime.
func (s *Post) AddAttachment(ctx context.Context, params model.AddAttachmentParams) (model.Attachment, error) {
	if s.storage == nil {
		return model.Attachment{}, errStorageDisabled
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return model.Attachment{}, apperror.NewErrInvalidInput("attachment name is required")
	}
	if params.Body == nil {
		return model.Attachment{}, apperror.NewErrInvalidInput("attachment body is required")
	}

	post, err := s.getLive(ctx, params.PostID)
	if err != nil {
		return model.Attachment{}, err
	}

	contentType := params.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	now := s.now()
	att := model.Attachment{
		ID:          uuid.NewString(),
		Name:        name,
		ContentType: contentType,
		Size:        params.Size,
		CreatedAt:   now,
	}
	att.Key = model.AttachmentKey(post.ID, att.ID)

	if err := s.storage.Upload(ctx, att.Key, params.Body, params.Size, contentType); err != nil {
		return model.Attachment{}, fmt.Errorf("failed to upload attachment: %w", err)
	}

	attachments := append(append([]model.Attachment(nil), post.Attachments...), att)
	_, err = s.postStore.Update(ctx, post.ID, model.PostPatch{Attachments: &attachments, UpdatedAt: &now}, notDeleted)
	if err != nil {
		if delErr := s.storage.Delete(ctx, att.Key); delErr != nil {
			s.logger.Error("PostService: failed to remove orphaned attachment", "key", att.Key, "error", delErr)
		}
		if errors.Is(err, model.ErrConflict) {
			return model.Attachment{}, apperror.NewErrPostConflict(post.ID)
		}
		return model.Attachment{}, fmt.Errorf("failed to record attachment: %w", err)
	}

	s.logger.Info("PostService: attachment added", "post_id", post.ID, "attachment_id", att.ID, "size", att.Size)

	return att, nil
}

// GetAttachment returns attachment metadata and a reader over its bytes. The caller closes the reader.
func (s *Post) GetAttachment(ctx context.Context, postID, attachmentID string) (model.Attachment, io.ReadCloser, error) {
	if s.storage == nil {
		return model.Attachment{}, nil, errStorageDisabled
	}

	post, err := s.getLive(ctx, postID)
	if err != nil {
		return model.Attachment{}, nil, err
	}

	var (
		att   model.Attachment
		found bool
	)
	for _, a := range post.Attachments {
		if a.ID == attachmentID {
			att, found = a, true
			break
		}
	}
	if !found {
		return model.Attachment{}, nil, apperror.NewErrAttachmentNotFound(attachmentID)
	}
	if att.Key == "" {
		att.Key = model.AttachmentKey(post.ID, att.ID)
	}

	body, err := s.storage.Download(ctx, att.Key)
	if errors.Is(err, model.ErrNotFound) {
		return model.Attachment{}, nil, apperror.NewErrAttachmentNotFound(attachmentID)
	}
	if err != nil {
		return model.Attachment{}, nil, fmt.Errorf("failed to download attachment: %w", err)
	}

	return att, body, nil
}

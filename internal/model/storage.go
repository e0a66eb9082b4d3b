package model

import (
	"context"
	"io"
)

// Storage keeps attachment bytes in object storage.
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// AttachmentKey is the object key attachment bytes are stored under.
func AttachmentKey(postID, attachmentID string) string {
	return "posts/" + postID + "/" + attachmentID
}

package storage

import (
	"context"
	"io"
)

// ImageUploader stores and removes user-uploaded images
type ImageUploader interface {
	UploadImage(ctx context.Context, body io.Reader, size int64, originalFilename, contentType, userID string) (*UploadResult, error)
	DeleteImage(ctx context.Context, key string) error
}

var _ ImageUploader = (*S3Uploader)(nil)

package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const imagePrefix = "images/"

// ObjectAPI is the subset of the S3 client the uploader needs
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Uploader handles image uploads to AWS S3
type S3Uploader struct {
	client  ObjectAPI
	bucket  string
	region  string
	baseURL string
	now     func() time.Time
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key          string `json:"key"`
	FileName     string `json:"fileName"`
	URL          string `json:"url"`
	OriginalName string `json:"originalName"`
	ContentType  string `json:"contentType"`
	Size         int64  `json:"size"`
}

// NewS3Uploader loads the default AWS credential chain for region
func NewS3Uploader(ctx context.Context, region, bucket, baseURL string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3UploaderWithClient(s3.NewFromConfig(cfg), region, bucket, baseURL), nil
}

// NewS3UploaderWithClient wraps an existing client. An empty baseURL falls
// back to the bucket's virtual-hosted URL.
func NewS3UploaderWithClient(client ObjectAPI, region, bucket, baseURL string) *S3Uploader {
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3Uploader{
		client:  client,
		bucket:  bucket,
		region:  region,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
}

// ImageKey builds images/<yyyy>/<mm>/<uuid><ext>
func ImageKey(now time.Time, originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return fmt.Sprintf("%s%d/%02d/%s%s", imagePrefix, now.Year(), now.Month(), uuid.New().String(), ext)
}

// FileNameForKey flattens a key into a single path segment for URLs
func FileNameForKey(key string) string {
	return strings.ReplaceAll(key, "/", "_")
}

// KeyForFileName reverses FileNameForKey and rejects anything outside images/
func KeyForFileName(fileName string) (string, error) {
	if fileName == "" || strings.Contains(fileName, "/") || strings.Contains(fileName, "..") {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}
	key := strings.ReplaceAll(fileName, "_", "/")
	if !strings.HasPrefix(key, imagePrefix) || strings.Count(key, "/") != 3 {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}
	return key, nil
}

// UploadImage stores the image under a fresh key and returns its public URL
func (u *S3Uploader) UploadImage(ctx context.Context, body io.Reader, size int64, originalFilename, contentType, userID string) (*UploadResult, error) {
	now := u.now()
	key := ImageKey(now, originalFilename)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		CacheControl:  aws.String("max-age=86400"),
		Metadata: map[string]string{
			"user-id":           userID,
			"original-filename": originalFilename,
			"upload-timestamp":  now.Format(time.RFC3339),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:          key,
		FileName:     FileNameForKey(key),
		URL:          u.baseURL + "/" + key,
		OriginalName: originalFilename,
		ContentType:  contentType,
		Size:         size,
	}, nil
}

// DeleteImage deletes an object from the bucket
func (u *S3Uploader) DeleteImage(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}
	return nil
}

package persistence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/dfryer1193/feedapi/blog/domain"
	"github.com/gabriel-vasile/mimetype"
)

var _ domain.ImageStore = (*S3ImageStore)(nil)

// s3API is the part of the S3 client the image store needs.
type s3API interface {
	PutObjectWithContext(ctx aws.Context, input *s3.PutObjectInput, opts ...request.Option) (*s3.PutObjectOutput, error)
	DeleteObjectWithContext(ctx aws.Context, input *s3.DeleteObjectInput, opts ...request.Option) (*s3.DeleteObjectOutput, error)
}

// S3ImageStore keeps uploaded images as objects under images/ in a bucket.
// The object key doubles as the image URL recorded on the post.
type S3ImageStore struct {
	client s3API
	bucket string
	now    func() time.Time
}

func NewS3ImageStore(client *s3.S3, bucket string) *S3ImageStore {
	return newS3ImageStore(client, bucket)
}

func newS3ImageStore(client s3API, bucket string) *S3ImageStore {
	return &S3ImageStore{
		client: client,
		bucket: bucket,
		now:    time.Now,
	}
}

func (s *S3ImageStore) Save(ctx context.Context, filename string, content io.Reader) (string, error) {
	body, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}

	key := path.Join(ImageURLPrefix, imageObjectName(s.now(), filename))
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(mimetype.Detect(body).String()),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image %s: %w", key, err)
	}

	return key, nil
}

func (s *S3ImageStore) Delete(ctx context.Context, imageURL string) error {
	key := strings.TrimPrefix(strings.ReplaceAll(imageURL, `\`, "/"), "/")
	if !strings.HasPrefix(key, ImageURLPrefix+"/") {
		return fmt.Errorf("invalid image path %q", imageURL)
	}

	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", key, err)
	}
	return nil
}

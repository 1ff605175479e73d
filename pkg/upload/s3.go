package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store stores sweet images in an S3 bucket. Returned URLs point at
// the bucket's public base URL, so the bucket (or the prefix) should be
// readable by storefront visitors.
type S3Store struct {
	client  *s3.Client
	bucket  string
	prefix  string
	baseURL string
	maxSize int64
}

// NewS3Store creates an S3 image store.
//
// Parameters:
//   - client: AWS S3 client from aws-sdk-go-v2
//   - bucket: S3 bucket name
//   - prefix: key prefix for images (e.g. "sweets/")
//   - baseURL: public base URL the keys resolve under, e.g.
//     "https://my-bucket.s3.amazonaws.com"
//   - maxSize: maximum image size in bytes (0 = no limit)
func NewS3Store(client *s3.Client, bucket, prefix, baseURL string, maxSize int64) *S3Store {
	for len(baseURL) > 1 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &S3Store{
		client:  client,
		bucket:  bucket,
		prefix:  prefix,
		baseURL: baseURL,
		maxSize: maxSize,
	}
}

// Save uploads the image and returns its public URL.
func (s *S3Store) Save(ctx context.Context, contentType string, size int64, r io.Reader) (string, error) {
	ext := extensionFor(contentType)
	if ext == "" {
		return "", ErrNotAnImage
	}
	if s.maxSize > 0 && size > s.maxSize {
		return "", ErrTooLarge
	}

	// PutObject needs a seekable body, so the image is buffered. Sweet
	// photos are small; the handler's size limit bounds the buffer.
	var buf bytes.Buffer
	if s.maxSize > 0 {
		n, err := io.Copy(&buf, io.LimitReader(r, s.maxSize+1))
		if err != nil {
			return "", err
		}
		if n > s.maxSize {
			return "", ErrTooLarge
		}
	} else if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}

	key := s.prefix + generateImageID() + ext
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"upload-time": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload failed: %w", err)
	}

	return s.baseURL + "/" + key, nil
}

// Cleanup removes images under the prefix older than maxAge.
func (s *S3Store) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var toDelete []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, obj := range page.Contents {
			if obj.LastModified != nil && obj.LastModified.Before(cutoff) && obj.Key != nil {
				toDelete = append(toDelete, *obj.Key)
			}
		}
	}

	for _, key := range toDelete {
		s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
	}
	return nil
}

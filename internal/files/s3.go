package files

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Store puts uploads into a bucket fronted by a public base URL.
type S3Store struct {
	bucket   string
	baseURL  string
	s3Client *s3.Client
}

func NewS3Store(bucket, baseURL string, s3Client *s3.Client) *S3Store {
	return &S3Store{bucket: bucket, baseURL: baseURL, s3Client: s3Client}
}

func (s *S3Store) Save(ctx context.Context, ext, contentType string, r io.Reader) (string, error) {
	const op = "files.S3Store.Save"

	key := "files/" + newName(ext)

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})

	if err != nil {
		return "", fmt.Errorf("%s: put object: %w", op, err)
	}

	return s.baseURL + "/" + key, nil
}

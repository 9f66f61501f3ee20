package aws

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type s3Store struct {
	s3Client *s3.Client
	bucket   string
}

// NewStore creates an S3-backed blob store.
func NewStore(bucketName string) *s3Store {
	cfg, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}
}

func (s *s3Store) Save(ctx context.Context, originalName string, r io.Reader) (string, int64, error) {
	// PutObject needs a seekable body for signing, so the blob is buffered.
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, err
	}

	storedName := uuid.New().String() + "-" + filepath.Base(originalName)
	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storedName),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		logrus.WithError(err).WithField("stored_name", storedName).Error("Failed to upload blob to S3")
		return "", 0, fmt.Errorf("failed to upload blob: %w", err)
	}

	return storedName, int64(len(data)), nil
}

func (s *s3Store) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storedName),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get blob %s: %w", storedName, err)
	}
	return resp.Body, nil
}

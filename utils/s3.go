package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3DocumentStore stores documents in an S3-compatible bucket (R2).
type S3DocumentStore struct {
	client *s3.Client
	bucket string
}

// NewS3DocumentStore builds a client against the R2 endpoint from config.
func NewS3DocumentStore(cfg *Config) (*S3DocumentStore, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("R2_BUCKET_NAME is not set")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID, cfg.S3AccessSecret, "",
		)),
		awsconfig.WithEndpointResolver(aws.EndpointResolverFunc(
			func(service, region string) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL: fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.S3AccountID),
				}, nil
			}),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	return &S3DocumentStore{client: s3.NewFromConfig(awsCfg), bucket: cfg.S3Bucket}, nil
}

// Save uploads the bytes under a category/owner prefix and returns the key.
func (s *S3DocumentStore) Save(data []byte, category string, ownerID uint, filename string) (string, error) {
	extension := path.Ext(filename)
	if extension == "" {
		extension = ".bin"
	}
	key := path.Join(category, fmt.Sprintf("user_%d", ownerID), uuid.NewString()+extension)

	_, err := s.client.PutObject(context.TODO(), &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}
	return key, nil
}

// Delete removes the object. A missing key is not an error.
func (s *S3DocumentStore) Delete(relativePath string) error {
	if relativePath == "" {
		return nil
	}
	_, err := s.client.DeleteObject(context.TODO(), &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(relativePath),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from R2: %w", err)
	}
	return nil
}

// Read downloads the object's bytes.
func (s *S3DocumentStore) Read(relativePath string) ([]byte, error) {
	out, err := s.client.GetObject(context.TODO(), &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(relativePath),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read from R2: %w", err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

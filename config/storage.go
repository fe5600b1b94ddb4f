package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the S3 client and bucket for profile picture blobs
type S3Config struct {
	Client     *s3.Client
	BucketName string
}

// NewS3Config initializes the S3 client using environment variables
func NewS3Config(ctx context.Context) (*S3Config, error) {
	bucket := os.Getenv("S3_BUCKET_NAME")
	if bucket == "" {
		bucket = "userhub-profile-pictures" // default bucket name
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(os.Getenv("AWS_REGION")),
	)
	if err != nil {
		return nil, err
	}

	return &S3Config{
		Client:     s3.NewFromConfig(awsCfg),
		BucketName: bucket,
	}, nil
}

// DeleteByURL removes the object a previously issued public URL points at.
// The caller decides whether a failure aborts the surrounding operation;
// account deletion treats it as best-effort.
func (s *S3Config) DeleteByURL(ctx context.Context, rawURL string) error {
	key, err := s.objectKeyFromURL(rawURL)
	if err != nil {
		return err
	}

	_, err = s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %q: %w", key, err)
	}
	return nil
}

// objectKeyFromURL extracts the object key from a public URL of the form
// https://<bucket>.s3.amazonaws.com/<key> or
// https://<bucket>.s3.<region>.amazonaws.com/<key>.
func (s *S3Config) objectKeyFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid blob reference %q: %w", rawURL, err)
	}
	if !strings.HasPrefix(u.Host, s.BucketName+".s3") {
		return "", fmt.Errorf("blob reference %q does not belong to bucket %s", rawURL, s.BucketName)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", fmt.Errorf("blob reference %q has no object key", rawURL)
	}
	return key, nil
}

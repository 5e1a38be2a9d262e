package transcription

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStore abstracts the storage operations the pipeline needs
type ObjectStore interface {
	// List returns the object keys under prefix
	List(ctx context.Context, bucket, prefix string) ([]string, error)

	// Copy duplicates an object inside the same bucket
	Copy(ctx context.Context, bucket, srcKey, dstKey string) error

	// Put writes an object
	Put(ctx context.Context, bucket, key string, body []byte, contentType string) error

	// Delete removes an object
	Delete(ctx context.Context, bucket, key string) error
}

// s3API is the subset of the S3 client the store uses
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Store implements ObjectStore against S3
type S3Store struct {
	client s3API
}

func NewS3Store(client s3API) *S3Store {
	return &S3Store{client: client}
}

func (s *S3Store) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, err)
	}

	keys := make([]string, 0, len(resp.Contents))
	for _, obj := range resp.Contents {
		keys = append(keys, aws.ToString(obj.Key))
	}
	return keys, nil
}

func (s *S3Store) Copy(ctx context.Context, bucket, srcKey, dstKey string) error {
	source := bucket + "/" + srcKey
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(bucket),
		CopySource: aws.String(url.PathEscape(source)),
		Key:        aws.String(dstKey),
	})
	if err != nil {
		return fmt.Errorf("failed to copy s3://%s to %s: %w", source, dstKey, err)
	}
	return nil
}

func (s *S3Store) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *S3Store) Delete(ctx context.Context, bucket, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}

// S3URI renders the canonical object reference
func S3URI(bucket, key string) string {
	return "s3://" + bucket + "/" + key
}

// ReportKeyFor derives the call-report key from the recording key:
// the .wav suffix is replaced by _report.json; any other key gets the
// report filename appended under the same prefix.
func ReportKeyFor(recordingKey, filename string) string {
	if strings.HasSuffix(recordingKey, ".wav") {
		return strings.TrimSuffix(recordingKey, ".wav") + "_report.json"
	}
	return strings.TrimSuffix(recordingKey, "/") + "/" + filename
}

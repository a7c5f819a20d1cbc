// Package s3 stores blobs in any S3 compatible service (MinIO, R2, AWS)
// through minio-go.
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aussiebroadwan/mediagate/internal/mediagate/store/blob"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// sha256MetaKey is the user metadata key holding the content digest.
const sha256MetaKey = "Content-Sha256"

// Config points at an S3-compatible endpoint such as MinIO or R2.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

func (c Config) validate() error {
	switch {
	case c.Endpoint == "":
		return errors.New("s3: endpoint is required")
	case c.Bucket == "":
		return errors.New("s3: bucket is required")
	case c.AccessKey == "" || c.SecretKey == "":
		return errors.New("s3: access key and secret key are required")
	}
	return nil
}

// Store keeps blobs in a single bucket.
type Store struct {
	client *minio.Client
	bucket string
	region string
}

// New connects to the endpoint and creates the bucket when it is missing.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	s := &Store{client: client, bucket: cfg.Bucket, region: cfg.Region}
	if err := s.ensureBucket(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return mapError(err, "bucket_exists")
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		// Lost a race with another replica.
		if code := minio.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return mapError(err, "make_bucket")
	}
	return nil
}

// Put uploads r. A zero Size streams with an unknown length; the content
// digest travels as user metadata.
func (s *Store) Put(ctx context.Context, obj blob.Object, r io.Reader) error {
	meta := make(map[string]string, len(obj.Metadata)+1)
	for k, v := range obj.Metadata {
		meta[k] = v
	}
	if obj.SHA256 != "" {
		meta[sha256MetaKey] = obj.SHA256
	}

	size := obj.Size
	if size == 0 {
		size = -1
	}
	_, err := s.client.PutObject(ctx, s.bucket, obj.Key, r, size, minio.PutObjectOptions{
		ContentType:  obj.ContentType,
		UserMetadata: meta,
	})
	if err != nil {
		return mapError(err, "put")
	}
	return nil
}

// Get stats the object first so a missing key surfaces as blob.ErrNotFound
// instead of failing on the first Read.
func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, blob.Object, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		return nil, blob.Object{}, mapError(err, "stat")
	}

	rc, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, blob.Object{}, mapError(err, "get")
	}

	obj := blob.Object{
		Key:         key,
		ContentType: info.ContentType,
		Size:        info.Size,
		Metadata:    make(map[string]string, len(info.UserMetadata)),
	}
	for k, v := range info.UserMetadata {
		if k == sha256MetaKey {
			obj.SHA256 = v
			continue
		}
		obj.Metadata[k] = v
	}
	return rc, obj, nil
}

// Delete treats a missing key as already deleted.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if errors.Is(mapError(err, "delete"), blob.ErrNotFound) {
			return nil
		}
		return mapError(err, "delete")
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	ok, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return mapError(err, "ping")
	}
	if !ok {
		return fmt.Errorf("s3: bucket %q does not exist", s.bucket)
	}
	return nil
}

func mapError(err error, op string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("s3: %s: %w", op, blob.ErrNotFound)
	case "AccessDenied":
		return fmt.Errorf("s3: %s: access denied: %w", op, err)
	default:
		return fmt.Errorf("s3: %s: %w", op, err)
	}
}

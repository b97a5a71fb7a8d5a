// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package artifact stores function deployment packages in an S3 compatible
// bucket so that functions can be created from the bucket instead of inline
// archives.
package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is the global S3 endpoint.
	DefaultEndpoint = "s3.amazonaws.com"

	contentType = "application/zip"
)

var (
	ErrBucketEmpty  = errors.New("artifact bucket name is required")
	ErrEmptyArchive = errors.New("archive is empty")

	errBucketCheck = errors.New("failed checking artifact bucket")
	errUpload      = errors.New("failed uploading artifact")
)

// ObjectStore is the subset of the minio client used for uploads.
type ObjectStore interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, object string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Config struct {
	// Bucket receives the archives.
	Bucket string `mapstructure:"bucket"`

	// Prefix is prepended to every object key.
	// (Optional). Defaults to the empty string.
	Prefix string `mapstructure:"prefix"`

	// Endpoint of the object store, without scheme.
	// (Optional). Defaults to s3.amazonaws.com.
	Endpoint string `mapstructure:"endpoint"`

	// Region of the bucket.
	Region string `mapstructure:"region"`

	// Insecure disables TLS. Only meant for local object stores.
	Insecure bool `mapstructure:"insecure"`

	AccessKeyID     string `mapstructure:"accessKeyID"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`
	SessionToken    string `mapstructure:"sessionToken"`
}

// Location identifies an uploaded archive.
type Location struct {
	Bucket  string
	Key     string
	Version string
}

type Uploader struct {
	store  ObjectStore
	bucket string
	prefix string
	region string
	logger *zap.Logger
}

// NewClient builds a minio client for config.
func NewClient(config Config) (*minio.Client, error) {
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(config.AccessKeyID, config.SecretAccessKey, config.SessionToken),
		Secure: !config.Insecure,
		Region: config.Region,
	})
}

// New creates an Uploader writing through store.
func New(config Config, store ObjectStore, logger *zap.Logger) (*Uploader, error) {
	if config.Bucket == "" {
		return nil, ErrBucketEmpty
	}
	if logger == nil {
		logger = sallust.Default()
	}
	return &Uploader{
		store:  store,
		bucket: config.Bucket,
		prefix: config.Prefix,
		region: config.Region,
		logger: logger,
	}, nil
}

// Key is the object key of the named archive.
func (u *Uploader) Key(name string) string {
	return path.Join(u.prefix, name+".zip")
}

// Upload stores archive under the key of name, creating the bucket when it
// does not exist yet.
func (u *Uploader) Upload(ctx context.Context, name string, archive []byte) (Location, error) {
	if len(archive) == 0 {
		return Location{}, fmt.Errorf("%w: %s", ErrEmptyArchive, name)
	}

	exists, err := u.store.BucketExists(ctx, u.bucket)
	if err != nil {
		return Location{}, fmt.Errorf("%w: %w", errBucketCheck, err)
	}
	if !exists {
		u.logger.Info("creating artifact bucket", zap.String("bucket", u.bucket))
		if err := u.store.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{Region: u.region}); err != nil {
			return Location{}, fmt.Errorf("%w: %w", errBucketCheck, err)
		}
	}

	key := u.Key(name)
	info, err := u.store.PutObject(ctx, u.bucket, key, bytes.NewReader(archive), int64(len(archive)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return Location{}, fmt.Errorf("%w %s: %w", errUpload, key, err)
	}
	u.logger.Info("uploaded artifact", zap.String("bucket", u.bucket), zap.String("key", key), zap.Int64("size", info.Size))
	return Location{Bucket: u.bucket, Key: key, Version: info.VersionID}, nil
}

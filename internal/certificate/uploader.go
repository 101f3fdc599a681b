package certificate

import (
	"context"
	"fmt"
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"bloodlink/internal/platform/config"
)

// MinioUploader stores certificates in a MinIO/S3 bucket and returns public
// object URLs. Injected into the workflow so tests can substitute a fake.
type MinioUploader struct {
	client     *minio.Client
	bucket     string
	publicBase string
}

// NewMinioUploader builds the client and ensures the bucket exists.
func NewMinioUploader(ctx context.Context, cfg config.Storage) (*MinioUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &MinioUploader{client: client, bucket: cfg.Bucket, publicBase: cfg.PublicBase}, nil
}

// Upload puts the local file under key with the given raw content type and
// returns the public URL.
func (u *MinioUploader) Upload(ctx context.Context, key, path, contentType string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat artifact: %w", err)
	}

	_, err = u.client.PutObject(ctx, u.bucket, key, f, stat.Size(), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload certificate: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", u.publicBase, u.bucket, key), nil
}

// Remove deletes an object; used by operational tooling, not the hot path.
func (u *MinioUploader) Remove(ctx context.Context, key string) error {
	if err := u.client.RemoveObject(ctx, u.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove certificate: %w", err)
	}
	return nil
}

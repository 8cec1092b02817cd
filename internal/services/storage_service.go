package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StorageService stores instrument photos and certificate scans in object
// storage. Object names are tenant-scoped so presigned links never cross
// tenants.
type StorageService interface {
	UploadPhoto(ctx context.Context, tenantID, instrumentID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error)
	UploadCertificateScan(ctx context.Context, tenantID, instrumentID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error)
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectName string) error
	EnsureBucket(ctx context.Context) error
}

type minioStorage struct {
	client *minio.Client
	bucket string
}

func NewMinioStorage(endpoint, accessKey, secretKey, bucket string, useSSL bool) (StorageService, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, err
	}
	return &minioStorage{client: client, bucket: bucket}, nil
}

func (m *minioStorage) UploadPhoto(ctx context.Context, tenantID, instrumentID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	return m.upload(ctx, objectName(tenantID, instrumentID, "photos", filename), reader, size, contentType)
}

func (m *minioStorage) UploadCertificateScan(ctx context.Context, tenantID, instrumentID uuid.UUID, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	return m.upload(ctx, objectName(tenantID, instrumentID, "certificates", filename), reader, size, contentType)
}

func (m *minioStorage) upload(ctx context.Context, name string, reader io.Reader, size int64, contentType string) (string, error) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := m.client.PutObject(ctx, m.bucket, name, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

func (m *minioStorage) PresignedURL(ctx context.Context, name string, expiry time.Duration) (string, error) {
	url, err := m.client.PresignedGetObject(ctx, m.bucket, name, expiry, nil)
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (m *minioStorage) DeleteObject(ctx context.Context, name string) error {
	return m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{})
}

func (m *minioStorage) EnsureBucket(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func objectName(tenantID, instrumentID uuid.UUID, kind, filename string) string {
	return fmt.Sprintf("%s/%s/%s/%s-%s", tenantID.String(), kind, instrumentID.String(), uuid.NewString()[:8], path.Base(filename))
}

package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
)

const uploadsPrefix = "/uploads/"

// MinioImageStore range les images de combinaisons dans le bucket produits
type MinioImageStore struct {
	client *minio.Client
	bucket string
}

func NewMinioImageStore(client *minio.Client, bucket string) *MinioImageStore {
	return &MinioImageStore{client: client, bucket: bucket}
}

func (s *MinioImageStore) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("upload MinIO %s: %w", objectName, err)
	}
	return uploadsPrefix + objectName, nil
}

// SignedURL accepte l'URL relative renvoyée par Upload
func (s *MinioImageStore) SignedURL(ctx context.Context, imageURL string, ttl time.Duration) (string, error) {
	key := strings.TrimPrefix(imageURL, uploadsPrefix)
	if key == "" {
		return "", fmt.Errorf("URL d'image vide")
	}
	signed, err := s.client.PresignedGetObject(ctx, s.bucket, key, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("URL signée %s: %w", key, err)
	}
	return signed.String(), nil
}

package blobstore

import (
	"context"
	"fmt"
	"net/http"

	"cloud.google.com/go/storage"
)

// FirebaseStore uploads media to a Firebase (Google Cloud Storage) bucket.
type FirebaseStore struct {
	bucket     *storage.BucketHandle
	bucketName string
}

// NewFirebaseStore wraps a bucket handle obtained from the Firebase app.
func NewFirebaseStore(bucket *storage.BucketHandle, bucketName string) *FirebaseStore {
	return &FirebaseStore{bucket: bucket, bucketName: bucketName}
}

func (s *FirebaseStore) Store(ctx context.Context, data []byte, id string) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	objectName := "vidspace_videos/" + id
	w := s.bucket.Object(objectName).NewWriter(ctx)
	w.ContentType = http.DetectContentType(data)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, objectName), nil
}

func (s *FirebaseStore) Resolve(ctx context.Context, ref string) (Resolved, error) {
	return resolveURL(ref)
}

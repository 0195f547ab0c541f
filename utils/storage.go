package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

var ErrObjectNotFound = errors.New("object not found")

// StoredObject is an open object body plus the metadata needed to serve it.
type StoredObject struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

func getGoogleClient(ctx context.Context) (*storage.Client, error) {
	// ADC unless explicit JSON is provided (local development).
	if credJSON := os.Getenv("GCS_CREDENTIALS_JSON"); strings.TrimSpace(credJSON) != "" {
		return storage.NewClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
	}
	return storage.NewClient(ctx)
}

func gcsBucket() (string, error) {
	bucketName := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucketName == "" {
		return "", errors.New("GCS_BUCKET is required")
	}
	return bucketName, nil
}

// PutObject stores data under objectKey with the configured provider.
func PutObject(ctx context.Context, objectKey string, data []byte, contentType string) error {
	if !ValidObjectKey(objectKey) {
		return fmt.Errorf("invalid object key %q", objectKey)
	}
	switch GetStorageProvider() {
	case StorageProviderGCS:
		return uploadBytesToGCS(ctx, objectKey, data, contentType)
	case StorageProviderLocal:
		return writeLocalObject(objectKey, data)
	default:
		return fmt.Errorf("storage provider %q not supported", GetStorageProvider())
	}
}

// OpenObject opens a stored object for streaming. Callers close Body.
func OpenObject(ctx context.Context, objectKey string) (*StoredObject, error) {
	if !ValidObjectKey(objectKey) {
		return nil, fmt.Errorf("invalid object key %q", objectKey)
	}
	switch GetStorageProvider() {
	case StorageProviderGCS:
		return openGCSObject(ctx, objectKey)
	case StorageProviderLocal:
		return openLocalObject(objectKey)
	default:
		return nil, fmt.Errorf("storage provider %q not supported", GetStorageProvider())
	}
}

// DeleteObject removes an object; a missing object is not an error.
func DeleteObject(ctx context.Context, objectKey string) error {
	if !ValidObjectKey(objectKey) {
		return fmt.Errorf("invalid object key %q", objectKey)
	}
	switch GetStorageProvider() {
	case StorageProviderGCS:
		client, err := getGoogleClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close()
		bucketName, err := gcsBucket()
		if err != nil {
			return err
		}
		err = client.Bucket(bucketName).Object(objectKey).Delete(ctx)
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil
		}
		return err
	case StorageProviderLocal:
		err := os.Remove(filepath.Join(localUploadDir(), filepath.FromSlash(objectKey)))
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("storage provider %q not supported", GetStorageProvider())
	}
}

func uploadBytesToGCS(ctx context.Context, objectName string, data []byte, contentType string) error {
	client, err := getGoogleClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	bucketName, err := gcsBucket()
	if err != nil {
		return err
	}

	wc := client.Bucket(bucketName).Object(objectName).NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to upload bytes to Google Cloud Storage: %v", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %v", err)
	}
	return nil
}

type gcsReadCloser struct {
	*storage.Reader
	client *storage.Client
}

func (r gcsReadCloser) Close() error {
	err := r.Reader.Close()
	_ = r.client.Close()
	return err
}

func openGCSObject(ctx context.Context, objectKey string) (*StoredObject, error) {
	client, err := getGoogleClient(ctx)
	if err != nil {
		return nil, err
	}
	bucketName, err := gcsBucket()
	if err != nil {
		client.Close()
		return nil, err
	}
	reader, err := client.Bucket(bucketName).Object(objectKey).NewReader(ctx)
	if err != nil {
		client.Close()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	return &StoredObject{
		Body:        gcsReadCloser{Reader: reader, client: client},
		ContentType: reader.Attrs.ContentType,
		Size:        reader.Attrs.Size,
	}, nil
}

func writeLocalObject(objectKey string, data []byte) error {
	full := filepath.Join(localUploadDir(), filepath.FromSlash(objectKey))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, data, 0o644)
}

func openLocalObject(objectKey string) (*StoredObject, error) {
	full := filepath.Join(localUploadDir(), filepath.FromSlash(objectKey))
	f, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &StoredObject{
		Body:        f,
		ContentType: mime.TypeByExtension(filepath.Ext(full)),
		Size:        info.Size(),
	}, nil
}

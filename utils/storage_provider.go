package utils

import (
	"os"
	"strings"
)

const (
	StorageProviderGCS   = "gcs"
	StorageProviderLocal = "local"
)

func GetStorageProvider() string {
	provider := strings.TrimSpace(strings.ToLower(os.Getenv("STORAGE_PROVIDER")))
	if provider == "" {
		return StorageProviderGCS
	}
	return provider
}

func localUploadDir() string {
	if dir := strings.TrimSpace(os.Getenv("LOCAL_UPLOAD_DIR")); dir != "" {
		return dir
	}
	return "uploads"
}

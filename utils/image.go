package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/mmdatafocus/ledger_backend/config"
)

const MaxUploadSizeBytes int64 = 5 * 1024 * 1024

var uploadMimeTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"image/gif":       ".gif",
	"application/pdf": ".pdf",
}

// UploadImage stores an uploaded document image under folder and returns its
// access URL. A nil header means "no upload" and yields "".
// The upload completes before the caller writes the owning record.
func UploadImage(ctx context.Context, folder string, fh *multipart.FileHeader) (string, error) {
	if fh == nil {
		return "", nil
	}
	if fh.Size > MaxUploadSizeBytes {
		return "", NewValidationError("file size exceeds 5MB limit")
	}
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxUploadSizeBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > MaxUploadSizeBytes {
		return "", NewValidationError("file size exceeds 5MB limit")
	}

	mimeType := http.DetectContentType(data)
	ext, ok := uploadMimeTypes[mimeType]
	if !ok {
		return "", NewValidationError(fmt.Sprintf("unsupported file type: %s", mimeType))
	}

	data, err = DownscaleImage(data, mimeType, config.MaxImageWidth())
	if err != nil {
		config.LogError(config.GetLogger(), "utils", "UploadImage", "DownscaleImage", fh.Filename, err)
		return "", NewValidationError("invalid image file")
	}

	objectKey := path.Join(folder, uuid.NewString()+ext)
	if err := PutObject(ctx, objectKey, data, mimeType); err != nil {
		config.LogError(config.GetLogger(), "utils", "UploadImage", "PutObject", objectKey, err)
		return "", err
	}
	return BuildObjectAccessURL(objectKey), nil
}

// DownscaleImage shrinks jpeg/png images wider than maxWidth, keeping the
// aspect ratio. Other types, and images already small enough, are returned as is.
func DownscaleImage(data []byte, mimeType string, maxWidth int) ([]byte, error) {
	var format imaging.Format
	switch mimeType {
	case "image/jpeg":
		format = imaging.JPEG
	case "image/png":
		format = imaging.PNG
	default:
		return data, nil
	}
	if maxWidth <= 0 {
		return data, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, err
	}
	if img.Bounds().Dx() <= maxWidth {
		return data, nil
	}
	resized := imaging.Resize(img, maxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

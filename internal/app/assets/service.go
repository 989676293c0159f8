/*
Package assets issues presigned URLs for the media files referenced from
section property bags (hero images, gallery photos). Uploads and
downloads go straight to the S3-compatible bucket; this service only
signs them.
*/
package assets

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"layoutsync/internal/pkg/errs"
)

const (
	// MaxAssetSizeMB is the maximum allowed media file size in megabytes.
	MaxAssetSizeMB = 5

	// MaxAssetSize is the maximum allowed media file size in bytes.
	MaxAssetSize = MaxAssetSizeMB * 1024 * 1024

	// PresignedURLDuration is how long a signed URL stays valid.
	PresignedURLDuration = 5 * time.Minute
)

// AllowedMIMETypes is the set of permitted media types for section assets.
var AllowedMIMETypes = map[string]struct{}{
	"image/jpeg":    {},
	"image/png":     {},
	"image/webp":    {},
	"image/gif":     {},
	"image/svg+xml": {},
}

// ExtToMIME maps file extensions to their expected MIME types.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
}

// ServiceConfig holds the credentials for the S3-compatible bucket.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// Service signs upload and download URLs for section media and removes
// objects that are no longer referenced.
type Service interface {
	// PresignUpload signs a PUT for the given key, type, and size.
	PresignUpload(ctx context.Context, key, mimeType string, fileSize int64, duration time.Duration) (string, error)

	// PresignDownload signs a GET for the given key.
	PresignDownload(ctx context.Context, key string, duration time.Duration) (string, error)

	// Delete removes the object with the given key from the bucket.
	Delete(ctx context.Context, key string) error
}

// NewService returns the S3-backed implementation.
func NewService(cfg ServiceConfig) (Service, error) {
	return newS3Client(cfg)
}

// ValidateFileSize checks the declared upload size.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxAssetSize {
		return errs.NewError(errs.ErrAssetTooLarge)
	}

	return nil
}

// ValidateFileType checks that the name's extension and the declared MIME
// type agree and are allowed.
func ValidateFileType(fileName, mimeType string) *errs.CustomError {
	lowerMimeType := strings.ToLower(mimeType)

	if _, ok := AllowedMIMETypes[lowerMimeType]; !ok {
		return errs.NewError(errs.ErrAssetTypeInvalid)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) < 2 {
		return errs.NewError(errs.ErrAssetTypeInvalid)
	}

	expectedMIME, ok := ExtToMIME[ext]
	if !ok || expectedMIME != lowerMimeType {
		return errs.NewError(errs.ErrAssetTypeInvalid)
	}

	return nil
}

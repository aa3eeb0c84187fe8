package utils

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// MaxFileSize is the default upload limit, 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
)

// SupportedImageTypes lists the MIME types accepted for product images
var SupportedImageTypes = []string{"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp"}

var (
	// UploadDir is the directory where locally hosted images are stored
	// Can be overridden for testing
	UploadDir = "./uploads"
)

// ValidationError represents caller input that fails a local precondition
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// ImageContentType returns the media type of the uploaded file, falling back
// to the filename extension when the part carries no Content-Type
func ImageContentType(fileHeader *multipart.FileHeader) string {
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(fileHeader.Filename)))
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

// ValidateImage checks that an image is present, of a supported type and no
// larger than maxSizeBytes. It performs no I/O.
func ValidateImage(fileHeader *multipart.FileHeader, maxSizeBytes int64) error {
	if fileHeader == nil {
		return &ValidationError{
			Code:    "MISSING_FILE",
			Message: "An image file is required",
		}
	}

	if !isSupportedImageType(ImageContentType(fileHeader)) {
		return &ValidationError{
			Code:    "INVALID_FILE_TYPE",
			Message: "Supported formats: JPEG, PNG, GIF, WebP",
		}
	}

	if fileHeader.Size > maxSizeBytes {
		return &ValidationError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("Image size must be less than %sMB", formatMegabytes(maxSizeBytes)),
		}
	}

	return nil
}

func isSupportedImageType(contentType string) bool {
	for _, t := range SupportedImageTypes {
		if t == contentType {
			return true
		}
	}
	return false
}

func formatMegabytes(bytes int64) string {
	mb := float64(bytes) / (1024 * 1024)
	if mb == float64(int64(mb)) {
		return fmt.Sprintf("%d", int64(mb))
	}
	return fmt.Sprintf("%.1f", mb)
}

// SaveUploadedFile saves the uploaded file to the local filesystem
// Returns the name of the saved file inside uploadDir
func SaveUploadedFile(fileHeader *multipart.FileHeader, uploadDir string) (filename string, err error) {
	// Create uploads directory if it doesn't exist
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	// Generate unique filename to prevent collisions
	filename = fmt.Sprintf("%d_%s",
		time.Now().UnixNano(),
		strings.ReplaceAll(filepath.Base(fileHeader.Filename), " ", "_"))

	fullPath := filepath.Join(uploadDir, filename)

	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer func() {
		if closeErr := dst.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close destination file: %w", closeErr)
		}
	}()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return filename, nil
}

// GetImageURL returns the URL path for accessing a locally hosted image
func GetImageURL(filename string) string {
	if filename == "" {
		return ""
	}
	return fmt.Sprintf("/api/v1/uploads/%s", filename)
}

package utils

import (
	"bytes"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestFileHeader creates a multipart.FileHeader for testing
func createTestFileHeader(filename, contentType string, size int64, content []byte) *multipart.FileHeader {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, _ := writer.CreatePart(h)
	part.Write(content)
	writer.Close()

	reader := multipart.NewReader(body, writer.Boundary())
	form, _ := reader.ReadForm(int64(len(content)) + 1024)

	if len(form.File["image"]) > 0 {
		fileHeader := form.File["image"][0]
		// Override size for testing purposes
		fileHeader.Size = size
		return fileHeader
	}

	return nil
}

func TestValidateImage_Success(t *testing.T) {
	for _, contentType := range SupportedImageTypes {
		t.Run(contentType, func(t *testing.T) {
			content := []byte("fake image content")
			fileHeader := createTestFileHeader("gown.img", contentType, int64(len(content)), content)
			require.NotNil(t, fileHeader)

			assert.NoError(t, ValidateImage(fileHeader, MaxFileSize))
		})
	}
}

func TestValidateImage_MissingFile(t *testing.T) {
	err := ValidateImage(nil, MaxFileSize)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "MISSING_FILE", validationErr.Code)
}

func TestValidateImage_FileTooLarge(t *testing.T) {
	// A 12MB JPEG against the 10MB limit
	content := []byte("fake jpeg content")
	fileHeader := createTestFileHeader("gown.jpg", "image/jpeg", 12*1024*1024, content)
	require.NotNil(t, fileHeader)

	err := ValidateImage(fileHeader, MaxFileSize)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "FILE_TOO_LARGE", validationErr.Code)
	assert.Equal(t, "Image size must be less than 10MB", validationErr.Message)
}

func TestValidateImage_CustomLimit(t *testing.T) {
	content := []byte("fake png content")
	fileHeader := createTestFileHeader("veil.png", "image/png", 3*1024*1024/2, content)
	require.NotNil(t, fileHeader)

	err := ValidateImage(fileHeader, 1024*1024)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "less than 1MB")
}

func TestValidateImage_UnsupportedTypes(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		contentType string
	}{
		{"svg image", "logo.svg", "image/svg+xml"},
		{"pdf document", "invoice.pdf", "application/pdf"},
		{"bmp image", "old.bmp", "image/bmp"},
		{"no type and no extension", "upload", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := []byte("content")
			fileHeader := createTestFileHeader(tt.filename, tt.contentType, int64(len(content)), content)
			require.NotNil(t, fileHeader)

			err := ValidateImage(fileHeader, MaxFileSize)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, "INVALID_FILE_TYPE", validationErr.Code)
			assert.Equal(t, "Supported formats: JPEG, PNG, GIF, WebP", validationErr.Message)
		})
	}
}

func TestImageContentType(t *testing.T) {
	content := []byte("x")

	withParams := createTestFileHeader("a.png", "IMAGE/PNG; charset=binary", 1, content)
	assert.Equal(t, "image/png", ImageContentType(withParams))

	fromExtension := createTestFileHeader("a.webp", "", 1, content)
	assert.Equal(t, "image/webp", ImageContentType(fromExtension))
}

func TestSaveUploadedFile(t *testing.T) {
	content := []byte("fake png content")
	fileHeader := createTestFileHeader("bridal veil.png", "image/png", int64(len(content)), content)
	require.NotNil(t, fileHeader)

	dir := t.TempDir()
	filename, err := SaveUploadedFile(fileHeader, dir)
	require.NoError(t, err)

	assert.Contains(t, filename, "bridal_veil.png")
	saved, err := os.ReadFile(filepath.Join(dir, filename))
	require.NoError(t, err)
	assert.Equal(t, content, saved)
}

func TestGetImageURL(t *testing.T) {
	assert.Equal(t, "", GetImageURL(""))
	assert.Equal(t, "/api/v1/uploads/1_a.png", GetImageURL("1_a.png"))
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError("TEST_CODE", "Test error message")
	assert.Equal(t, "Test error message", err.Error())
}

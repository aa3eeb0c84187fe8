package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"sync"
)

// MockS3Service is a mock implementation of S3Service for testing
type MockS3Service struct {
	uploadedFiles map[string][]byte // map of S3 key to file content
	contentTypes  map[string]string
	failUploads   error
	mu            sync.RWMutex
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{
		uploadedFiles: make(map[string][]byte),
		contentTypes:  make(map[string]string),
	}
}

// FailUploadsWith makes every following upload return err
func (m *MockS3Service) FailUploadsWith(err error) {
	m.mu.Lock()
	m.failUploads = err
	m.mu.Unlock()
}

// UploadFile simulates uploading a file to S3
func (m *MockS3Service) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, contentType string) (string, error) {
	m.mu.RLock()
	failErr := m.failUploads
	m.mu.RUnlock()
	if failErr != nil {
		return "", failErr
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	s3Key := fmt.Sprintf("products/mock_%s", fileHeader.Filename)

	m.mu.Lock()
	m.uploadedFiles[s3Key] = content
	m.contentTypes[s3Key] = contentType
	m.mu.Unlock()

	return s3Key, nil
}

// ObjectURL returns a mock object URL
func (m *MockS3Service) ObjectURL(s3Key string) string {
	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s", s3Key)
}

// ContentType returns the content type recorded for an uploaded key
func (m *MockS3Service) ContentType(s3Key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.contentTypes[s3Key]
}

// FileExists checks if a file exists in mock storage
func (m *MockS3Service) FileExists(s3Key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.uploadedFiles[s3Key]
	return exists
}

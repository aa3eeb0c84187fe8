package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"sync"

	"github.com/herecomesthebride/boutique-api/utils"
)

// MockImageService is a mock implementation of ImageService for testing
type MockImageService struct {
	uploaded  []string // filenames in upload order
	uploadErr error
	mu        sync.RWMutex
}

// NewMockImageService creates a new mock image service
func NewMockImageService() *MockImageService {
	return &MockImageService{}
}

// SetAsMockForTesting sets this mock as the global image service instance for testing
func (m *MockImageService) SetAsMockForTesting() {
	SetImageService(m)
}

// FailWith makes every following upload return err after validation
func (m *MockImageService) FailWith(err error) {
	m.mu.Lock()
	m.uploadErr = err
	m.mu.Unlock()
}

// UploadImage validates the file and returns a predictable URL
func (m *MockImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImage(fileHeader, utils.MaxFileSize); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadErr != nil {
		return "", m.uploadErr
	}
	m.uploaded = append(m.uploaded, fileHeader.Filename)

	return fmt.Sprintf("https://images.test/%s", fileHeader.Filename), nil
}

// Uploaded returns the filenames uploaded so far (for testing assertions)
func (m *MockImageService) Uploaded() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.uploaded))
	copy(out, m.uploaded)
	return out
}

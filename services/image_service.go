package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/herecomesthebride/boutique-api/utils"
	"go.uber.org/zap"
)

// ImageService validates product images and hands them to an image host
type ImageService interface {
	// UploadImage validates the file, uploads it and returns its public URL
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)
}

var imageServiceInstance ImageService

// InitImageService sets the image service used by the HTTP handlers
func InitImageService(service ImageService) ImageService {
	imageServiceInstance = service
	return imageServiceInstance
}

// GetImageService returns the initialized image service instance
func GetImageService() ImageService {
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceInstance = service
}

// HTTPImageService uploads to an Imgur-compatible image hosting endpoint
type HTTPImageService struct {
	endpoint   string
	clientID   string
	maxSize    int64
	httpClient *http.Client
}

// NewHTTPImageService creates a client for the hosting endpoint authenticated by clientID
func NewHTTPImageService(endpoint, clientID string, maxSize int64) *HTTPImageService {
	return &HTTPImageService{
		endpoint: endpoint,
		clientID: clientID,
		maxSize:  maxSize,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// hostResponse is the JSON envelope returned by the image host
type hostResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		Link  string          `json:"link"`
		Error json.RawMessage `json:"error"`
	} `json:"data"`
}

// errorMessage extracts the provider's error text, which is either a string
// or an object with a message field
func (r *hostResponse) errorMessage() string {
	if len(r.Data.Error) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(r.Data.Error, &text); err == nil {
		return text
	}
	var detail struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(r.Data.Error, &detail); err == nil {
		return detail.Message
	}
	return ""
}

// UploadImage posts the file as multipart form data and returns the hosted link
func (s *HTTPImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImage(fileHeader, s.maxSize); err != nil {
		return "", err
	}

	body, contentType, err := buildUploadBody(fileHeader)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Client-ID "+s.clientID)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call image host: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image host response: %w", err)
	}

	var envelope hostResponse
	decodeErr := json.Unmarshal(raw, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		message := ""
		if decodeErr == nil {
			message = envelope.errorMessage()
		}
		if message == "" {
			message = fmt.Sprintf("Image upload failed: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		return "", &UploadError{StatusCode: resp.StatusCode, Message: message}
	}

	if decodeErr != nil || !envelope.Success || envelope.Data.Link == "" {
		return "", &UploadError{StatusCode: resp.StatusCode, Message: "Image upload failed: Invalid response"}
	}

	zap.L().Info("Image uploaded", zap.String("url", envelope.Data.Link))
	return envelope.Data.Link, nil
}

func buildUploadBody(fileHeader *multipart.FileHeader) (*bytes.Buffer, string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename="%s"`, escapeQuotes(filepath.Base(fileHeader.Filename))))
	h.Set("Content-Type", utils.ImageContentType(fileHeader))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}
	if err := writer.WriteField("type", "file"); err != nil {
		return nil, "", fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}

// S3ImageService stores images in an S3 bucket
type S3ImageService struct {
	s3Service S3Interface
	maxSize   int64
}

// NewS3ImageService creates an image service on top of s3Service
func NewS3ImageService(s3Service S3Interface, maxSize int64) *S3ImageService {
	return &S3ImageService{s3Service: s3Service, maxSize: maxSize}
}

// UploadImage validates and uploads an image file to S3, returning its object URL
func (s *S3ImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImage(fileHeader, s.maxSize); err != nil {
		return "", err
	}

	s3Key, err := s.s3Service.UploadFile(ctx, fileHeader, utils.ImageContentType(fileHeader))
	if err != nil {
		return "", &UploadError{StatusCode: http.StatusBadGateway, Message: fmt.Sprintf("Image upload failed: %v", err)}
	}

	return s.s3Service.ObjectURL(s3Key), nil
}

// LocalImageService writes images to disk; they are served by the uploads endpoint
type LocalImageService struct {
	uploadDir string
	baseURL   string
	maxSize   int64
}

// NewLocalImageService stores images in uploadDir. baseURL prefixes the
// returned paths and may be empty for host-relative URLs.
func NewLocalImageService(uploadDir, baseURL string, maxSize int64) *LocalImageService {
	return &LocalImageService{
		uploadDir: uploadDir,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		maxSize:   maxSize,
	}
}

// UploadImage validates the file and saves it under the upload directory
func (s *LocalImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if err := utils.ValidateImage(fileHeader, s.maxSize); err != nil {
		return "", err
	}

	filename, err := utils.SaveUploadedFile(fileHeader, s.uploadDir)
	if err != nil {
		return "", &UploadError{StatusCode: http.StatusInternalServerError, Message: fmt.Sprintf("Image upload failed: %v", err)}
	}

	return s.baseURL + utils.GetImageURL(filename), nil
}

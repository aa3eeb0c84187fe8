package controllers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/herecomesthebride/boutique-api/services"
	"github.com/herecomesthebride/boutique-api/utils"
)

// servableExtensions maps the extensions of locally hosted images to their content type
var servableExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// UploadImage handles POST /api/v1/admin/uploads - uploads a product image to the image host
func UploadImage(c *gin.Context) {
	// A missing part is reported by the validation below
	fileHeader, _ := c.FormFile("image")

	url, err := services.GetImageService().UploadImage(c.Request.Context(), fileHeader)
	if err != nil {
		respondServiceError(c, err, "Failed to upload image")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    gin.H{"url": url},
	})
}

// GetUploadedImage handles GET /api/v1/uploads/:filename - serves locally hosted product images
func GetUploadedImage(c *gin.Context) {
	filename := c.Param("filename")

	// Validate filename is not empty
	if filename == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Filename is required")
		return
	}

	// Security: Prevent directory traversal attacks
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		respondError(c, http.StatusBadRequest, "INVALID_FILENAME", "Invalid filename")
		return
	}

	ext := strings.ToLower(filepath.Ext(filename))
	contentType, ok := servableExtensions[ext]
	if !ok {
		respondError(c, http.StatusBadRequest, "INVALID_FILE_TYPE", "Supported formats: JPEG, PNG, GIF, WebP")
		return
	}

	filePath := filepath.Join(utils.UploadDir, filename)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		respondError(c, http.StatusNotFound, "FILE_NOT_FOUND", "Image not found")
		return
	}

	// Serve the file with appropriate headers
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400") // Cache for 24 hours
	c.File(filePath)
}

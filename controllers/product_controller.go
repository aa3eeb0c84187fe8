package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/herecomesthebride/boutique-api/models"
	"github.com/herecomesthebride/boutique-api/services"
)

// ProductResponse is a product as shown by the public site
type ProductResponse struct {
	models.Product
	Available bool `json:"available"`
}

// ProductRequest represents the request body for creating or replacing a product
type ProductRequest struct {
	ID               string  `json:"id" binding:"omitempty,max=128"`
	Name             string  `json:"name" binding:"required"`
	Category         string  `json:"category" binding:"required"`
	Description      string  `json:"description"`
	Price            string  `json:"price" binding:"required"`
	Sold             bool    `json:"sold"`
	ImageURL         *string `json:"imageUrl" binding:"omitempty"`
	ImagePlaceholder *string `json:"imagePlaceholder" binding:"omitempty"`
}

func (r ProductRequest) toProduct() models.Product {
	return models.Product{
		ID:               r.ID,
		Name:             r.Name,
		Category:         r.Category,
		Description:      r.Description,
		Price:            r.Price,
		Sold:             r.Sold,
		ImageURL:         r.ImageURL,
		ImagePlaceholder: r.ImagePlaceholder,
	}
}

func toProductResponses(products []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, ProductResponse{Product: p, Available: p.Available()})
	}
	return out
}

// ListProducts handles GET /api/v1/products - lists the catalog, seeding it on first use
func ListProducts(c *gin.Context) {
	products, err := services.GetProductRepository().GetProducts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to load products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    toProductResponses(products),
	})
}

// ListCategories handles GET /api/v1/products/categories
func ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    models.Categories,
	})
}

// CreateProduct handles POST /api/v1/admin/products - creates or overwrites a product
func CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	product, err := services.GetProductRepository().AddProduct(c.Request.Context(), req.toProduct())
	if err != nil {
		respondServiceError(c, err, "Failed to save product")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    ProductResponse{Product: product, Available: product.Available()},
	})
}

// UpdateProduct handles PUT /api/v1/admin/products/:id - replaces the product's fields
func UpdateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	// The path decides which record is updated
	product := req.toProduct()
	product.ID = c.Param("id")

	repo := services.GetProductRepository()
	if err := repo.UpdateProduct(c.Request.Context(), product); err != nil {
		respondServiceError(c, err, "Failed to update product")
		return
	}

	// Respond with the merged record, including fields the request left out
	product, err := repo.GetProduct(c.Request.Context(), product.ID)
	if err != nil {
		respondServiceError(c, err, "Failed to load product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    ProductResponse{Product: product, Available: product.Available()},
	})
}

// DeleteProduct handles DELETE /api/v1/admin/products/:id
func DeleteProduct(c *gin.Context) {
	id := c.Param("id")
	if err := services.GetProductRepository().DeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Failed to delete product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"id": id},
	})
}

// ResetProducts handles POST /api/v1/admin/products/reset - restores every default catalog record
func ResetProducts(c *gin.Context) {
	repo := services.GetProductRepository()
	if err := repo.InitializeProducts(c.Request.Context()); err != nil {
		respondServiceError(c, err, "Failed to reset products")
		return
	}

	products, err := repo.GetProducts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to load products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    toProductResponses(products),
	})
}

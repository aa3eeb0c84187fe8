package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/herecomesthebride/boutique-api/models"
	"github.com/herecomesthebride/boutique-api/store"
	"github.com/herecomesthebride/boutique-api/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductsTopic is the hub topic published after every product write
const ProductsTopic = "products"

// ProductRepository reads and writes the product collection
type ProductRepository interface {
	// GetProducts returns every product, seeding the default catalog when the collection is empty
	GetProducts(ctx context.Context) ([]models.Product, error)

	// GetProduct returns the stored product with id or ErrProductNotFound
	GetProduct(ctx context.Context, id string) (models.Product, error)

	// InitializeProducts upserts every default catalog record
	InitializeProducts(ctx context.Context) error

	// AddProduct creates or overwrites the product at its id, assigning an id when empty
	AddProduct(ctx context.Context, product models.Product) (models.Product, error)

	// UpdateProduct merges the product's fields into the stored record
	UpdateProduct(ctx context.Context, product models.Product) error

	// DeleteProduct removes the product; deleting a missing id is a no-op
	DeleteProduct(ctx context.Context, id string) error
}

// GormProductRepository implements ProductRepository on the products table
type GormProductRepository struct {
	db   *gorm.DB
	hub  *store.Hub
	seed func() []models.Product
	now  func() time.Time
}

var productRepositoryInstance ProductRepository

// NewGormProductRepository creates a repository over db. Writes are announced
// on hub when it is not nil.
func NewGormProductRepository(db *gorm.DB, hub *store.Hub) *GormProductRepository {
	return &GormProductRepository{
		db:   db,
		hub:  hub,
		seed: models.DefaultProducts,
		now:  time.Now,
	}
}

// InitProductRepository sets the repository used by the HTTP handlers
func InitProductRepository(repo ProductRepository) ProductRepository {
	productRepositoryInstance = repo
	return productRepositoryInstance
}

// GetProductRepository returns the initialized product repository
func GetProductRepository() ProductRepository {
	return productRepositoryInstance
}

// ListProducts reads the collection as stored, without seeding
func (r *GormProductRepository) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, ClassifyStoreError(err)
	}
	return products, nil
}

// GetProducts reads every product. An empty collection is treated as
// uninitialized: the default catalog is written and returned as the result.
func (r *GormProductRepository) GetProducts(ctx context.Context) ([]models.Product, error) {
	products, err := r.ListProducts(ctx)
	if err != nil {
		zap.L().Error("Failed to fetch products", zap.Error(err))
		return nil, err
	}

	if len(products) == 0 {
		zap.L().Info("No products found, initializing with default products")
		if err := r.InitializeProducts(ctx); err != nil {
			return nil, err
		}
		return r.seed(), nil
	}

	zap.L().Debug("Fetched products", zap.Int("count", len(products)))
	return products, nil
}

// GetProduct reads a single product
func (r *GormProductRepository) GetProduct(ctx context.Context, id string) (models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Product{}, ErrProductNotFound
	}
	if err != nil {
		return models.Product{}, ClassifyStoreError(err)
	}
	return product, nil
}

// InitializeProducts upserts every seed record concurrently; it succeeds only
// if every write succeeds
func (r *GormProductRepository) InitializeProducts(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, product := range r.seed() {
		product := product
		g.Go(func() error {
			return r.upsert(gctx, &product)
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Failed to initialize products", zap.Error(err))
		return ClassifyStoreError(err)
	}

	r.publish()
	zap.L().Info("Products initialized successfully")
	return nil
}

// AddProduct upserts the product at its id. An existing record is overwritten.
func (r *GormProductRepository) AddProduct(ctx context.Context, product models.Product) (models.Product, error) {
	if product.ID == "" {
		product.ID = fmt.Sprintf("product-%d", r.now().UnixMilli())
	}
	if err := validateProduct(product); err != nil {
		return models.Product{}, err
	}

	if err := r.upsert(ctx, &product); err != nil {
		zap.L().Error("Failed to add product", zap.String("product_id", product.ID), zap.Error(err))
		return models.Product{}, ClassifyStoreError(err)
	}

	r.publish()
	zap.L().Info("Product added", zap.String("product_id", product.ID), zap.String("name", product.Name))
	return product, nil
}

// UpdateProduct merges the product into the stored record. Optional fields
// left nil keep their stored value; an empty image URL clears the image.
// Returns ErrProductNotFound when no record has the product's id.
func (r *GormProductRepository) UpdateProduct(ctx context.Context, product models.Product) error {
	if product.ID == "" {
		return utils.NewValidationError("VALIDATION_ERROR", "Product id is required")
	}
	if err := validateProduct(product); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"name":        product.Name,
		"category":    product.Category,
		"description": product.Description,
		"price":       product.Price,
		"sold":        product.Sold,
	}
	if product.ImageURL != nil {
		if *product.ImageURL == "" {
			updates["image_url"] = nil
		} else {
			updates["image_url"] = *product.ImageURL
		}
	}
	if product.ImagePlaceholder != nil {
		updates["image_placeholder"] = *product.ImagePlaceholder
	}

	result := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", product.ID).Updates(updates)
	if result.Error != nil {
		zap.L().Error("Failed to update product", zap.String("product_id", product.ID), zap.Error(result.Error))
		return ClassifyStoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}

	r.publish()
	zap.L().Info("Product updated", zap.String("product_id", product.ID))
	return nil
}

// DeleteProduct permanently removes the product
func (r *GormProductRepository) DeleteProduct(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if result.Error != nil {
		zap.L().Error("Failed to delete product", zap.String("product_id", id), zap.Error(result.Error))
		return ClassifyStoreError(result.Error)
	}

	if result.RowsAffected > 0 {
		r.publish()
		zap.L().Info("Product deleted", zap.String("product_id", id))
	}
	return nil
}

func (r *GormProductRepository) upsert(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "category", "description", "price", "sold",
			"image_url", "image_placeholder", "updated_at",
		}),
	}).Create(product).Error
}

func (r *GormProductRepository) publish() {
	if r.hub != nil {
		r.hub.Publish(ProductsTopic)
	}
}

func validateProduct(product models.Product) error {
	if !models.IsValidCategory(product.Category) {
		return utils.NewValidationError("INVALID_CATEGORY", fmt.Sprintf("Unknown category %q", product.Category))
	}
	return nil
}

// IsNotFound reports whether err means the targeted product does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

package config

import (
	"fmt"

	"github.com/herecomesthebride/boutique-api/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ProductsChannel is the NOTIFY channel raised on every write to the products table
const ProductsChannel = "products_changed"

var DB *gorm.DB

// ConnectDatabase establishes a connection to the PostgreSQL database
func ConnectDatabase(databaseURL string) error {
	if databaseURL == "" {
		// Fallback to default local database URL for development
		databaseURL = DefaultDatabaseURL
		zap.S().Infof("DATABASE_URL not set, using default: %s", databaseURL)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	zap.L().Info("Database connection established successfully")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// SetDB sets the database instance (primarily for testing)
func SetDB(db *gorm.DB) {
	DB = db
}

// Migrate creates the product and key-value tables. On PostgreSQL it also
// installs the trigger that feeds the products live channel.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Product{}, &models.KVEntry{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	statements := []string{
		fmt.Sprintf(`CREATE OR REPLACE FUNCTION notify_products_changed() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('%s', TG_OP);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql`, ProductsChannel),
		`DROP TRIGGER IF EXISTS products_changed ON products`,
		`CREATE TRIGGER products_changed AFTER INSERT OR UPDATE OR DELETE ON products
	FOR EACH STATEMENT EXECUTE FUNCTION notify_products_changed()`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to install products trigger: %w", err)
		}
	}

	return nil
}

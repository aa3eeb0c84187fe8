package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/herecomesthebride/boutique-api/config"
	"github.com/herecomesthebride/boutique-api/controllers"
	"github.com/herecomesthebride/boutique-api/middleware"
	"go.uber.org/zap"
)

// setupRouter registers every route. auth authenticates admin requests; it
// is EnsureValidToken in production.
func setupRouter(cfg *config.Config, auth gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(zap.L().Named("http")))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowHeaders("Authorization")
	corsConfig.AddAllowMethods(http.MethodPatch)
	router.Use(cors.New(corsConfig))

	adminRole := cfg.AdminRole
	if adminRole == "" {
		adminRole = "admin"
	}

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		v1.GET("/products", controllers.ListProducts)
		v1.GET("/products/categories", controllers.ListCategories)
		v1.POST("/dream-dress-requests", controllers.SubmitDreamDressRequest)
		v1.POST("/appointment-requests", controllers.SubmitAppointmentRequest)
		v1.GET("/uploads/:filename", controllers.GetUploadedImage)

		admin := v1.Group("/admin", auth, middleware.RequireRole(adminRole, cfg.AdminScope))
		{
			admin.GET("/session", controllers.GetAdminSession)

			admin.POST("/products", controllers.CreateProduct)
			admin.PUT("/products/:id", controllers.UpdateProduct)
			admin.DELETE("/products/:id", controllers.DeleteProduct)
			admin.POST("/products/reset", controllers.ResetProducts)
			admin.GET("/products/stream", controllers.StreamProducts)

			admin.POST("/uploads", controllers.UploadImage)

			admin.GET("/dream-dress-requests", controllers.ListDreamDressRequests)
			admin.PATCH("/dream-dress-requests/:id/status", controllers.UpdateDreamDressRequestStatus)
			admin.GET("/appointment-requests", controllers.ListAppointmentRequests)
			admin.PATCH("/appointment-requests/:id/status", controllers.UpdateAppointmentRequestStatus)
			admin.GET("/requests/stream", controllers.StreamRequests)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Bridal Boutique API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	tables, err := db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}

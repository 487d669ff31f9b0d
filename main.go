package main

import (
	"log"

	"quizhub/config"
	"quizhub/handlers"
	"quizhub/middleware"
	"quizhub/models"
	"quizhub/routes"
	"quizhub/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Quiz{},
		&models.Question{},
		&models.Answer{},
		&models.Sitting{},
		&models.Progress{},
		&models.CSVUpload{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	// Initialize services
	authService := services.NewAuthService(db, cfg.JWTSecret)
	catalogService := services.NewCatalogService(db)
	sittingService := services.NewSittingService(db, redisClient, cfg.RetainSittings)
	progressService := services.NewProgressService(db)
	provisionService := services.NewProvisionService(db, cfg.UploadDir)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	sittingHandler := handlers.NewSittingHandler(catalogService, sittingService, progressService)
	progressHandler := handlers.NewProgressHandler(progressService)
	uploadHandler := handlers.NewUploadHandler(provisionService)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, authHandler, catalogHandler, sittingHandler, progressHandler, uploadHandler, cfg.JWTSecret)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

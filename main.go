package main

import (
	"fmt"
	"log"
	"os"

	"main/config"
	"main/handler"
	"main/middleware"
	"main/repository"
	"main/services"
	"main/usecase"
	"main/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil && os.Getenv("GO_ENV") != "test" {
		log.Println("No .env file found, relying on environment")
	}

	requiredEnvVars := []string{
		"MONGO_URI",
		"MONGO_DB",
		"JWT_SECRET_KEY",
	}
	for _, envVar := range requiredEnvVars {
		if os.Getenv(envVar) == "" && os.Getenv("GO_ENV") != "test" {
			log.Fatalf("Required environment variable %s is not set", envVar)
		}
	}

	utils.InitValidator()
	utils.InitJWT()
	utils.InitMongoClient()
}

func setupRouter() *gin.Engine {
	gin.SetMode(utils.GetEnvAsString("GIN_MODE", gin.ReleaseMode))
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.MetricsMiddleware())

	dbConfig := config.LoadDatabaseConfig()
	storageConfig := config.LoadStorageConfig()
	redisConfig := config.LoadRedisConfig()

	clipsRepo := repository.GetClipsRepo(utils.MongoClient, dbConfig.DatabaseName)
	tagsRepo := repository.GetTagsRepo(utils.MongoClient, dbConfig.DatabaseName)
	sessionsRepo := repository.GetSessionsRepo(utils.MongoClient, dbConfig.DatabaseName)

	if err := repository.SetupIndexes(utils.MongoClient.Database(dbConfig.DatabaseName)); err != nil {
		log.Printf("Warning: failed to create indexes: %v", err)
	}

	imageStorage, err := services.NewImageStorage(storageConfig)
	if err != nil {
		log.Fatalf("Failed to initialize image storage: %v", err)
	}

	var cache usecase.RecentCache
	if clipCache, err := services.NewClipCache(redisConfig.URL, redisConfig.CacheTTL); err != nil {
		log.Printf("Warning: Redis unavailable, recent-list cache disabled: %v", err)
	} else {
		services.GlobalClipCache = clipCache
		cache = clipCache
	}

	clipService := &usecase.ClipService{
		Clips:         clipsRepo,
		Tags:          tagsRepo,
		Images:        imageStorage,
		Cache:         cache,
		MaxImageBytes: utils.GetEnvAsInt("IMAGE_BYTE_BUDGET", 1024*1024),
	}
	tagService := &usecase.TagService{Tags: tagsRepo}

	clipHandler := handler.NewClipHandler(clipService)
	tagHandler := handler.NewTagHandler(tagService)
	syncHandler := handler.NewSyncHandler(clipService)
	imageHandler := handler.NewImageHandler(clipService)

	passwordHash := utils.GetEnvAsString("SYNC_PASSWORD_HASH", "")
	if passwordHash == "" {
		if plain := utils.GetEnvAsString("SYNC_PASSWORD", ""); plain != "" {
			if passwordHash, err = services.HashSyncPassword(plain); err != nil {
				log.Fatalf("Failed to hash sync password: %v", err)
			}
		}
	}
	sessionHandler := handler.NewSessionHandler(sessionsRepo, passwordHash, services.VerifySyncPassword)

	// Public routes (no authentication required)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.POST("/api/auth/session", sessionHandler.CreateSession)

	// Protected routes (authentication required)
	headerMode := utils.GetEnvAsString("AUTH_MODE", "session") == "header"
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(headerMode))
	{
		clips := protected.Group("/clips")
		{
			clips.GET("", clipHandler.ListClips)
			clips.GET("/:id", clipHandler.GetClip)
			clips.POST("", clipHandler.CreateClip)
			clips.PATCH("/:id", clipHandler.UpdateClip)
			clips.DELETE("/:id", clipHandler.DeleteClip)
		}

		tags := protected.Group("/tags")
		{
			tags.GET("", tagHandler.ListTags)
			tags.POST("", tagHandler.CreateTag)
			tags.DELETE("/:id", tagHandler.DeleteTag)
		}

		sync := protected.Group("/sync")
		{
			sync.GET("/pull", syncHandler.Pull)
			sync.POST("/push", syncHandler.Push)
		}

		protected.GET("/images/:id", imageHandler.GetImage)
		protected.GET("/sessions", sessionHandler.GetActiveSessions)
		protected.GET("/stats", handler.GetServerStats)
	}

	return router
}

func main() {
	router := setupRouter()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	serverAddr := fmt.Sprintf(":%s", port)
	log.Printf("Server starting on %s", serverAddr)
	if err := router.Run(serverAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

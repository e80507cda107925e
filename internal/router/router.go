package router

import (
	"log"

	"github.com/karanagg166/playto/internal/handlers"
	"github.com/karanagg166/playto/internal/karma"
	"github.com/karanagg166/playto/internal/likes"
	"github.com/karanagg166/playto/internal/middleware"
	"github.com/karanagg166/playto/internal/models"
	"github.com/karanagg166/playto/internal/repositories"
	"github.com/karanagg166/playto/internal/tree"
	"github.com/karanagg166/playto/pkg/config"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, cfg *config.Config) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Comment{},
		&models.LikeEvent{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mgClient.Database(cfg.MongoDatabase))
	treeStore := repositories.NewPostgresTreeStore(pgdb)
	likeStore := repositories.NewPostgresLikeStore(pgdb)

	// --- Initialize Engines ---
	indexer := tree.NewIndexer(treeStore)
	ledger := likes.NewLedger(likeStore, postRepo)
	resolver := repositories.NewAuthorResolver(postRepo, treeStore)
	aggregator := karma.NewAggregator(likeStore, resolver, cfg.Karma())

	// --- Unprotected routes ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	public := e.Group("/api/v1")
	leaderboardHandler := handlers.NewLeaderboardHandler(aggregator, userRepo)
	leaderboardHandler.RegisterLeaderboardRoutes(public)
	log.Println("Leaderboard routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	authHandler.RegisterProfileRoutes(api)

	postHandler := handlers.NewPostHandler(postRepo, indexer)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	commentHandler := handlers.NewCommentHandler(indexer, postRepo)
	commentHandler.RegisterCommentRoutes(api)
	log.Println("Comment routes configured.")

	likeHandler := handlers.NewLikeHandler(ledger)
	likeHandler.RegisterLikeRoutes(api)
	log.Println("Like routes configured.")

	log.Println("All routes configured.")
}

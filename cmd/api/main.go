package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kei-Shiro/road/internal/config"
	"github.com/Kei-Shiro/road/internal/delivery/http/handler"
	"github.com/Kei-Shiro/road/internal/delivery/http/middleware"
	"github.com/Kei-Shiro/road/internal/platform/database"
	"github.com/Kei-Shiro/road/internal/platform/queue"
	"github.com/Kei-Shiro/road/internal/platform/remote"
	"github.com/Kei-Shiro/road/internal/platform/storage"
	"github.com/Kei-Shiro/road/internal/repository/postgres"
	"github.com/Kei-Shiro/road/internal/service"
	"github.com/Kei-Shiro/road/internal/worker"
)

func main() {
	zlog, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer zlog.Sync()
	log := zlog.Sugar()

	cfg := config.Load()

	// Base de données locale, source de vérité relationnelle
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("could not connect to database", "error", err)
	}
	defer db.Close()
	if err := database.Migrate(db); err != nil {
		log.Fatalw("could not run migrations", "error", err)
	}

	// Magasin distant: Redis si configuré, sinon implémentation hors-ligne
	remoteStore := remote.Noop()
	if cfg.RedisAddr != "" {
		store, err := remote.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, log)
		if err != nil {
			log.Warnw("remote store unreachable at boot, running offline", "error", err)
		} else {
			remoteStore = store
		}
	} else {
		log.Infow("no remote store configured, running offline")
	}

	// RabbitMQ: mode dégradé si indisponible
	publisher, err := queue.NewRabbitPublisher(cfg.RabbitURL)
	if err != nil {
		log.Warnw("could not connect to RabbitMQ, async features disabled", "error", err)
		publisher = nil
	} else {
		defer publisher.Close()
	}

	consumer, err := queue.NewRabbitConsumer(cfg.RabbitURL, log)
	if err != nil {
		log.Warnw("could not connect RabbitMQ consumer", "error", err)
	} else {
		defer consumer.Close()
	}

	// MinIO pour les photos des signalements
	storagePlatform, err := storage.NewMinioStorage(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseSSL)
	if err != nil {
		log.Warnw("could not connect to MinIO", "error", err)
	}
	storageService := service.NewStorageService(storagePlatform, cfg.PhotoBucket)
	if storagePlatform != nil {
		if err := storageService.Initialize(context.Background()); err != nil {
			log.Warnw("could not initialize storage bucket", "error", err)
		}
	}

	// Injection des dépendances
	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	signalementRepo := postgres.NewSignalementRepository(db)
	configRepo := postgres.NewConfigurationRepository(db)
	auditRepo := postgres.NewAuditRepository(db)

	authService := service.NewAuthService(
		userRepo, sessionRepo, remoteStore, log,
		cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL,
		cfg.MaxLoginAttempts, cfg.LockDuration,
	)
	signalementService := service.NewSignalementService(signalementRepo, configRepo, remoteStore, publisher, log)
	configService := service.NewConfigService(configRepo, remoteStore, log)
	mapService := service.NewMapService(
		cfg.TilesDirectory, cfg.TileServerURL,
		cfg.MapCenterLat, cfg.MapCenterLng, cfg.MapDefaultZoom, log,
	)

	authHandler := handler.NewAuthHandler(authService)
	signalementHandler := handler.NewSignalementHandler(signalementService, storageService)
	configHandler := handler.NewConfigHandler(configService)
	mapHandler := handler.NewMapHandler(mapService)
	adminHandler := handler.NewAdminHandler(authService, auditRepo)

	// Worker d'audit alimenté par la file d'événements
	if consumer != nil {
		auditConsumer := worker.NewAuditConsumer(consumer, auditRepo, log)
		go func() {
			if err := auditConsumer.Start(context.Background()); err != nil {
				log.Warnw("audit consumer stopped", "error", err)
			}
		}()
	}

	// Configuration du routeur
	r := gin.Default()

	// Configuration CORS (permissif pour le dev)
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // À restreindre en prod
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authMiddleware := middleware.AuthMiddleware(authService, userRepo)
	rateLimiter := middleware.NewRateLimiter(log)

	// Routes API versionnées
	api := r.Group("/api/v1")
	{
		// Auth, avec rate limiting sur les endpoints publics
		auth := api.Group("/auth")
		auth.Use(rateLimiter.Limit(20, time.Minute))
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/unlock", authHandler.Unlock)

			protected := auth.Group("")
			protected.Use(authMiddleware)
			{
				protected.POST("/logout", authHandler.Logout)
				protected.GET("/profile", authHandler.GetProfile)
				protected.PUT("/profile", authHandler.UpdateProfile)
			}
		}

		// Carte: config et tuiles publiques, préchargement réservé
		mapGroup := api.Group("/map")
		{
			mapGroup.GET("/config", mapHandler.Config)
			mapGroup.GET("/tiles/:z/:x/:y", mapHandler.GetTile)
			mapGroup.POST("/preload", authMiddleware, middleware.ManagerAndAbove(), mapHandler.Preload)
		}

		// Signalements
		signalements := api.Group("/signalements")
		signalements.Use(authMiddleware)
		{
			signalements.GET("", signalementHandler.List)
			signalements.GET("/bounds", signalementHandler.ListByBounds)
			signalements.GET("/stats", signalementHandler.Stats)
			signalements.GET("/upload-url", signalementHandler.GetUploadURL)
			signalements.GET("/download-url", signalementHandler.GetDownloadURL)
			signalements.POST("", signalementHandler.Create)
			signalements.POST("/sync", signalementHandler.Sync)
			signalements.GET("/:id", signalementHandler.Get)
			signalements.PUT("/:id", signalementHandler.Update)
			signalements.DELETE("/:id", middleware.ManagerAndAbove(), signalementHandler.Delete)
		}

		// Configuration (prix unitaire du chiffrage)
		configGroup := api.Group("/config")
		configGroup.Use(authMiddleware)
		{
			configGroup.GET("", configHandler.List)
			configGroup.GET("/:key", configHandler.Get)
			configGroup.PUT("", middleware.ManagerAndAbove(), configHandler.Set)
		}

		// Administration
		admin := api.Group("/admin")
		admin.Use(authMiddleware)
		{
			admin.GET("/audit", middleware.ManagerAndAbove(), adminHandler.ListAudit)

			users := admin.Group("/users")
			users.Use(middleware.AdminOnly())
			{
				users.GET("", adminHandler.ListUsers)
				users.POST("", adminHandler.CreateUser)
				users.GET("/:id", adminHandler.GetUser)
				users.DELETE("/:id", adminHandler.DeleteUser)
				users.POST("/:id/unlock", adminHandler.UnlockUser)
			}
		}
	}

	// Santé
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"remote": remoteStore.Probe(c.Request.Context()),
		})
	})

	log.Infow("server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalw("server stopped", "error", err)
	}
}

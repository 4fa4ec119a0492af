package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weather-display-backend/internal/auth"
	"weather-display-backend/internal/config"
	"weather-display-backend/internal/database"
	"weather-display-backend/internal/handler"
	"weather-display-backend/internal/middleware"
	"weather-display-backend/internal/models"
	"weather-display-backend/internal/provider"
	"weather-display-backend/internal/repository"
	"weather-display-backend/internal/service"
	"weather-display-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()

	// 2. Initialize logger
	logger, err := newLogger(cfg.Server.GinMode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// 3. Connect to database and run migrations
	db := database.Connect(cfg)

	// 4. Initialize repositories
	userRepo := repository.NewUserRepo(db)
	deviceRepo := repository.NewDeviceRepo(db)
	apiKeyRepo := repository.NewAPIKeyRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	// 5. Initialize the authentication engine
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost, logger)
	sessionAuth := auth.NewSessionAuthenticator(userRepo, hasher, logger)
	apiKeyAuth := auth.NewAPIKeyAuthenticator(apiKeyRepo, userRepo, hasher, logger)
	engine := auth.NewEngine(sessionAuth, apiKeyAuth, cfg.Auth.BasicRealm, cfg.Auth.BearerRealm, logger)

	// 6. Initialize upstream provider clients
	weatherClient := provider.NewWeatherClient(cfg.Providers.WeatherBaseURL, cfg.Providers.Timeout, logger)
	airQualityClient := provider.NewAirQualityClient(cfg.Providers.AirQualityBaseURL, cfg.Providers.Timeout, logger)
	geoClient := provider.NewGeoClient(cfg.Providers.GeocodingBaseURL, cfg.Providers.Timeout, logger)
	addressClient := provider.NewAddressClient(cfg.Providers.NominatimBaseURL, cfg.Providers.Timeout, logger)
	astronomyClient := provider.NewAstronomyClient(
		cfg.Providers.AstronomyBaseURL,
		cfg.Providers.AstronomyAppID,
		cfg.Providers.AstronomyAppSecret,
		cfg.Providers.Timeout,
		logger,
	)
	if !astronomyClient.Configured() {
		logger.Warn("astronomy API credentials not set, moon phase data disabled")
	}

	// 7. Initialize services
	userService := service.NewUserService(userRepo, deviceRepo, apiKeyRepo, auditRepo, hasher, logger)
	deviceService := service.NewDeviceService(deviceRepo, addressClient, auditRepo, logger)
	apiKeyService := service.NewAPIKeyService(apiKeyRepo, auditRepo, hasher, logger)
	weatherService := service.NewWeatherService(weatherClient, airQualityClient, astronomyClient, logger)
	workerService := service.NewWorkerService(deviceRepo, cfg.Worker.Interval, cfg.Worker.StaleThreshold, logger)

	// 8. Initialize handlers
	authHandler := handler.NewAuthHandler(userService)
	deviceHandler := handler.NewDeviceHandler(deviceService, weatherService)
	apiKeyHandler := handler.NewAPIKeyHandler(apiKeyService, deviceService)
	adminHandler := handler.NewAdminHandler(userService, apiKeyService)
	geoHandler := handler.NewGeoHandler(geoClient)

	// 9. Setup router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg))

	registerRoutes(router, engine, authHandler, deviceHandler, apiKeyHandler, adminHandler, geoHandler)

	// 10. Start the stale device worker
	workerCtx, stopWorker := context.WithCancel(context.Background())
	go workerService.Start(workerCtx)

	// 11. Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	stopWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger(ginMode string) (*zap.Logger, error) {
	if ginMode == "release" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func registerRoutes(
	router *gin.Engine,
	engine *auth.Engine,
	authHandler *handler.AuthHandler,
	deviceHandler *handler.DeviceHandler,
	apiKeyHandler *handler.APIKeyHandler,
	adminHandler *handler.AdminHandler,
	geoHandler *handler.GeoHandler,
) {
	anyUser := auth.DefaultPolicy()
	sessionOnly := auth.Policy{Methods: []auth.Method{auth.MethodSession}}
	adminOnly := auth.Policy{Roles: []string{models.RoleAdmin}}

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{"status": "healthy", "time": time.Now().UTC()})
	})

	api := router.Group("/api")

	// Account routes. /me accepts only Basic Auth so an API key leak
	// cannot be used to read account details.
	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.GET("/me", middleware.RequireAuth(engine, sessionOnly), authHandler.Me)
	authRoutes.POST("/logout", middleware.RequireAuth(engine, anyUser), authHandler.Logout)

	// Location search for the device setup flow
	api.GET("/geocode", middleware.RequireAuth(engine, anyUser), geoHandler.Search)

	// Device management
	devices := api.Group("/devices", middleware.RequireAuth(engine, anyUser))
	devices.GET("", deviceHandler.List)
	devices.POST("", deviceHandler.Create)
	devices.GET("/:device_id", deviceHandler.Get)
	devices.PATCH("/:device_id", deviceHandler.Update)
	devices.DELETE("/:device_id", deviceHandler.Delete)

	// Display-facing routes. The weather endpoint is public so a
	// display only needs its device_id; the richer payloads require
	// credentials.
	display := api.Group("/device/:device_id")
	display.GET("/weather", deviceHandler.Weather)
	display.GET("/data", middleware.RequireAuth(engine, anyUser), deviceHandler.Data)
	display.GET("/esp", middleware.RequireAuth(engine, anyUser), deviceHandler.ESP)

	// Per-user resources
	users := api.Group("/users/:user_id")
	users.GET("/apikeys", middleware.RequireAuth(engine, anyUser), apiKeyHandler.ListForUser)
	users.POST("/apikeys", middleware.RequireAuth(engine, adminOnly), apiKeyHandler.Generate)
	users.GET("/devices", middleware.RequireAuth(engine, anyUser), apiKeyHandler.UserDevices)

	// API key lifecycle
	apiKeys := api.Group("/apikeys")
	apiKeys.POST("/:key_id/viewed", middleware.RequireAuth(engine, anyUser), apiKeyHandler.MarkViewed)
	apiKeys.POST("/:key_id/regenerate", middleware.RequireAuth(engine, anyUser), apiKeyHandler.Regenerate)
	apiKeys.DELETE("/:key_id", middleware.RequireAuth(engine, adminOnly), apiKeyHandler.Delete)

	// Administration
	admin := api.Group("/admin", middleware.RequireAuth(engine, adminOnly))
	admin.GET("/users", adminHandler.ListUsers)
	admin.PUT("/users/:user_id/role", adminHandler.UpdateRole)
	admin.DELETE("/users/:user_id", adminHandler.DeleteUser)
	admin.GET("/users/:user_id/stats", adminHandler.UserStats)
	admin.GET("/apikeys", adminHandler.ListAPIKeys)
}

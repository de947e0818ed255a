// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/skunkglobal/suite-server/internal/cache"
	"github.com/skunkglobal/suite-server/internal/config"
	"github.com/skunkglobal/suite-server/internal/handlers"
	"github.com/skunkglobal/suite-server/internal/middleware"
	"github.com/skunkglobal/suite-server/internal/models"
	"github.com/skunkglobal/suite-server/internal/services"
	"github.com/skunkglobal/suite-server/internal/skunkapi"
	"github.com/skunkglobal/suite-server/internal/store"
	"github.com/skunkglobal/suite-server/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	cacheStore := cache.New()
	apiClient := skunkapi.NewClient(
		cfg.Suite.APIBase(),
		cfg.Suite.NormalizedSiteURL(),
		time.Duration(cfg.Suite.APITimeout)*time.Second,
	)
	licenseStore := store.NewLicenseStore(db)

	authService := services.NewAuthService(db, cfg)
	licenseService := services.NewLicenseService(licenseStore, apiClient, cacheStore)
	productService := services.NewProductService(cfg.Suite.PluginsDir)
	updateService := services.NewUpdateService(
		apiClient,
		licenseService,
		cacheStore,
		cfg.Suite.NormalizedSiteURL(),
		cfg.Suite.PluginsDir,
	)

	registerInstalledPlugins(updateService, productService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	licenseHandler := handlers.NewLicenseHandler(licenseService)
	updateHandler := handlers.NewUpdateHandler(updateService)
	productHandler := handlers.NewProductHandler(productService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/login", authHandler.Login)
		}

		// License routes
		licenses := v1.Group("/license")
		licenses.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			licenses.POST("/activate", licenseHandler.Activate)
			licenses.POST("/deactivate", licenseHandler.Deactivate)
			licenses.POST("/validate", licenseHandler.Validate)
			licenses.GET("/details", licenseHandler.Details)
		}

		// Update resolver routes
		updates := v1.Group("/updates")
		updates.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			updates.POST("/check", updateHandler.Check)
			updates.GET("/plugins/:slug", updateHandler.PluginInfo)
			updates.POST("/filter", updateHandler.Filter)
			updates.POST("/completed", updateHandler.Completed)
		}

		// Product catalog routes
		products := v1.Group("/products")
		products.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			products.GET("", productHandler.List)
			products.GET("/states", productHandler.States)
		}
	}

	return r
}

// registerInstalledPlugins seeds the update resolver with every installed
// suite plugin. Paid companions are picked up through the manifest probe.
func registerInstalledPlugins(updateService *services.UpdateService, productService *services.ProductService) {
	companion := func(proSlug string) (string, bool) {
		manifest, err := productService.ReadManifest(proSlug)
		if err != nil {
			return "", false
		}
		return manifest.Version, true
	}

	for _, key := range models.ProductKeys {
		slug, version, ok := productService.InstalledPlugin(key)
		if !ok {
			continue
		}
		updateService.Register(slug, version, key, companion)
		logrus.WithFields(logrus.Fields{
			"product": key,
			"slug":    slug,
			"version": version,
		}).Info("Registered plugin for update checks")
	}
}

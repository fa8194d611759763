// internal/router/router.go
package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/javajoker/jewelry-backend/internal/cache"
	"github.com/javajoker/jewelry-backend/internal/config"
	"github.com/javajoker/jewelry-backend/internal/handlers"
	"github.com/javajoker/jewelry-backend/internal/middleware"
	"github.com/javajoker/jewelry-backend/internal/services"
	"github.com/javajoker/jewelry-backend/internal/utils"
)

func Initialize(db *gorm.DB, cacheClient cache.Client, cfg *config.Config) (*gin.Engine, error) {
	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	auditService := services.NewAuditService(db)
	catalogStore := services.NewGormCatalogStore(db)
	priceCache := services.NewPriceCache(cacheClient, time.Duration(cfg.Redis.PriceTTL)*time.Second)

	authService := services.NewAuthService(db, cfg)
	materialService := services.NewMaterialService(db)
	productService := services.NewProductService(db, catalogStore, priceCache, cfg)
	recalcService := services.NewRecalculationService(catalogStore, priceCache, storageService, auditService, cfg.Pricing)
	checkoutService := services.NewCheckoutService(catalogStore, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	adminHandler := handlers.NewAdminHandler(authService, auditService)
	materialHandler := handlers.NewMaterialHandler(materialService)
	productHandler := handlers.NewProductHandler(productService)
	pricingHandler := handlers.NewPricingHandler(recalcService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))
	r.Use(middleware.NewRateLimiter(rate.Limit(cfg.Server.RateLimit), cfg.Server.RateBurst).Middleware())
	r.Use(middleware.AuditLogMiddleware(auditService))

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
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Storefront routes (public)
		products := v1.Group("/products")
		{
			products.GET("", productHandler.GetPublicProducts)
			products.GET("/:slug", productHandler.GetPublicProduct)
			products.GET("/:slug/price", productHandler.GetPrice)
		}

		checkout := v1.Group("/checkout")
		{
			checkout.POST("/intent", checkoutHandler.CreatePaymentIntent)
		}

		// Back-office routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.StaffRequired())
		{
			// Product management
			adminProducts := admin.Group("/products")
			{
				adminProducts.GET("", productHandler.GetProducts)
				adminProducts.POST("", productHandler.CreateProduct)
				adminProducts.POST("/preview-price", productHandler.PreviewPrice)
				adminProducts.GET("/:id", productHandler.GetProduct)
				adminProducts.PUT("/:id", productHandler.UpdateProduct)
				adminProducts.DELETE("/:id", middleware.AdminRequired(), productHandler.DeleteProduct)
				adminProducts.GET("/:id/price-history", productHandler.GetPriceHistory)
			}

			// Material catalog
			metals := admin.Group("/metals")
			{
				metals.GET("", materialHandler.GetMetals)
				metals.GET("/:id", materialHandler.GetMetal)
				metals.POST("", middleware.AdminRequired(), materialHandler.CreateMetal)
				metals.PUT("/:id", middleware.AdminRequired(), materialHandler.UpdateMetal)
				metals.DELETE("/:id", middleware.AdminRequired(), materialHandler.DeleteMetal)
				metals.POST("/:id/variants", middleware.AdminRequired(), materialHandler.AddMetalVariant)
				metals.PUT("/:id/variants/:index", middleware.AdminRequired(), materialHandler.UpdateMetalVariant)
			}

			gemstones := admin.Group("/gemstones")
			{
				gemstones.GET("", materialHandler.GetGemstones)
				gemstones.GET("/:id", materialHandler.GetGemstone)
				gemstones.POST("", middleware.AdminRequired(), materialHandler.CreateGemstone)
				gemstones.PUT("/:id", middleware.AdminRequired(), materialHandler.UpdateGemstone)
				gemstones.DELETE("/:id", middleware.AdminRequired(), materialHandler.DeleteGemstone)
				gemstones.POST("/:id/variants", middleware.AdminRequired(), materialHandler.AddGemstoneVariant)
				gemstones.PUT("/:id/variants/:index", middleware.AdminRequired(), materialHandler.UpdateGemstoneVariant)
			}

			// Catalog re-pricing
			pricing := admin.Group("/pricing")
			pricing.Use(middleware.AdminRequired())
			{
				pricing.POST("/recalculate", pricingHandler.Recalculate)
				pricing.GET("/preview/export", pricingHandler.ExportPreview)
				pricing.GET("/runs", pricingHandler.GetRuns)
			}

			// Staff and audit
			admin.POST("/staff", middleware.AdminRequired(), adminHandler.CreateStaff)
			admin.GET("/audit-logs", middleware.AdminRequired(), adminHandler.GetAuditLogs)
		}
	}

	return r, nil
}

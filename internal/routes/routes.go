package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/handlers"
	"storefront/internal/middleware"
)

type Dependencies struct {
	Products *handlers.ProductHandler
	Users    *handlers.UserHandler
	Sales    *handlers.SalesHandler
	Auth     middleware.Authenticator
	Logger   *logrus.Logger

	UploadDir       string
	UploadURLPrefix string
	CORSOrigins     []string
}

// NewRouter arma el engine con recovery, log de peticiones y CORS
func NewRouter(d Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(cors.New(corsConfig(d.CORSOrigins)))

	RegisterRoutes(router, d)
	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Accept", "Content-Type", middleware.UserIDHeader},
		ExposeHeaders: []string{"Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

func RegisterRoutes(router *gin.Engine, d Dependencies) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.UploadDir != "" {
		router.Static(d.UploadURLPrefix, d.UploadDir)
	}

	requireUser := middleware.RequireUser(d.Auth, d.Logger)
	requireAdmin := middleware.RequireAdmin(d.Auth, d.Logger)

	api := router.Group("/api")
	{
		api.GET("/products", d.Products.ListProducts)
		api.GET("/products/featured", d.Products.GetFeatured)
		api.GET("/products/max-price", d.Products.GetMaxPrice)
		api.GET("/products/categories", d.Products.GetCategories)
		api.GET("/products/slug/:slug", d.Products.GetBySlug)

		api.POST("/register", d.Users.Register)
		api.POST("/login", d.Users.Login)
		api.POST("/logout", d.Users.Logout)
	}

	user := api.Group("", requireUser)
	{
		user.GET("/users/me", d.Users.GetMe)
		user.PUT("/users/me", d.Users.UpdateMe)
		user.POST("/upload-profile-image", d.Users.UploadProfileImage)
		user.POST("/sales", d.Sales.RecordSale)
	}

	admin := api.Group("", requireUser, requireAdmin)
	{
		admin.POST("/products", d.Products.CreateProduct)
		admin.PUT("/products/:id", d.Products.UpdateProduct)
		admin.DELETE("/products/:id", d.Products.DeleteProduct)
		admin.POST("/products/bulk-delete", d.Products.BulkDelete)
		admin.PATCH("/products/:id/featured", d.Products.SetFeatured)
		admin.POST("/products/upload-image", d.Products.UploadImage)

		admin.GET("/users", d.Users.ListUsers)
		admin.PUT("/users/:id", d.Users.UpdateUser)
		admin.DELETE("/users/:id", d.Users.DeleteUser)

		admin.GET("/sales/monthly", d.Sales.Monthly)
		admin.GET("/sales/range", d.Sales.Range)
		admin.GET("/sales/summary", d.Sales.Summary)
		admin.GET("/sales/export", d.Sales.Export)
	}
}

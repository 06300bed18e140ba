package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/handlers"
	"storefront/internal/logger"
	"storefront/internal/repository"
	"storefront/internal/repository/memory"
	"storefront/internal/routes"
	"storefront/internal/service"
	"storefront/internal/storage"
)

const shutdownTimeout = 10 * time.Second

type stores struct {
	products service.ProductStore
	users    service.UserStore
	sales    service.SaleStore
	close    func()
}

func main() {
	// Logger provisional hasta tener la configuración
	bootLog := logger.New(logger.Options{Level: "info"})

	cfg, err := config.LoadConfig(bootLog)
	if err != nil {
		bootLog.Fatalf("Failed to load configuration: %v", err)
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	log.Info("Starting storefront API...")

	if os.Getenv(gin.EnvGinMode) == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.close()

	catalogCache := cache.New(cfg.CacheTTL)
	defer catalogCache.Close()

	images := storage.NewImageStore(cfg.UploadDir, cfg.UploadURLPrefix, cfg.MaxUploadBytes,
		cfg.DefaultProductImage, cfg.DefaultProfileImage)

	catalog := service.NewCatalogService(st.products, images, catalogCache, cfg.DefaultProductImage, log)
	users := service.NewUserService(st.users, images, cfg.DefaultProfileImage, log)
	sales := service.NewSalesService(st.sales, st.products, log)

	if cfg.HasAdminSeed() {
		if err := users.EnsureAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			log.Fatalf("Failed to seed admin account: %v", err)
		}
	}

	router := routes.NewRouter(routes.Dependencies{
		Products:        handlers.NewProductHandler(catalog, cfg.MaxUploadBytes, log),
		Users:           handlers.NewUserHandler(users, cfg.MaxUploadBytes, log),
		Sales:           handlers.NewSalesHandler(sales, log),
		Auth:            users,
		Logger:          log,
		UploadDir:       cfg.UploadDir,
		UploadURLPrefix: cfg.UploadURLPrefix,
		CORSOrigins:     cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("🚀 Server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Warn("Shutdown signal received...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Graceful shutdown failed: %v", err)
	}
	log.Info("Server stopped.")
}

// openStores elige el almacenamiento según STORE_DRIVER
func openStores(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("⚠️ Using in-memory store, data is lost on restart")
		return &stores{
			products: memory.NewProductRepository(),
			users:    memory.NewUserRepository(),
			sales:    memory.NewSaleRepository(),
			close:    func() {},
		}, nil
	}

	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	log.Info("✅ Connected to MongoDB")

	db := client.Database(cfg.MongoDB)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return &stores{
		products: repository.NewProductRepository(db.Collection(database.ProductsCollection)),
		users:    repository.NewUserRepository(db.Collection(database.UsersCollection)),
		sales:    repository.NewSaleRepository(db.Collection(database.SalesCollection)),
		close: func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Errorf("Error closing MongoDB connection: %v", err)
			} else {
				log.Info("MongoDB connection closed.")
			}
		},
	}, nil
}

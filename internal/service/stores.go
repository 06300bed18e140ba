package service

import (
	"context"
	"mime/multipart"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

// ProductStore lo implementan repository.ProductRepository y memory.ProductRepository
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindFeatured(ctx context.Context) (*models.Product, error)
	Find(ctx context.Context, q models.ProductQuery) ([]models.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error)
	MaxPrice(ctx context.Context) (float64, bool, error)
	Categories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error)
	SetFeatured(ctx context.Context, id primitive.ObjectID, featured bool) (*models.Product, error)
	ClearFeaturedExcept(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error)
	CountByImage(ctx context.Context, imagePath string) (int64, error)
}

type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, id primitive.ObjectID, upd models.UserUpdate) (*models.User, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type SaleStore interface {
	Create(ctx context.Context, sale *models.Sale) error
	DailyTotals(ctx context.Context, from, to time.Time) ([]models.DailyTotal, error)
	MonthlyTotals(ctx context.Context, from, to time.Time) ([]models.MonthlyTotal, error)
	Amounts(ctx context.Context, from, to time.Time) ([]float64, error)
}

type ImageStore interface {
	Save(fh *multipart.FileHeader, prefix string) (string, error)
	Remove(ref string) error
	IsPlaceholder(ref string) bool
}

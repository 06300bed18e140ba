package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

type SaleRepository struct {
	collection *mongo.Collection
}

func NewSaleRepository(collection *mongo.Collection) *SaleRepository {
	return &SaleRepository{collection: collection}
}

func (r *SaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	sale.ID = primitive.NewObjectID()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}

	_, err := r.collection.InsertOne(ctx, sale)
	return translate(err)
}

// DailyTotals suma las ventas por día en [from, to)
func (r *SaleRepository) DailyTotals(ctx context.Context, from, to time.Time) ([]models.DailyTotal, error) {
	totals := make([]models.DailyTotal, 0)
	err := r.aggregate(ctx, totalsPipeline(from, to, "%Y-%m-%d"), &totals)
	return totals, err
}

// MonthlyTotals suma las ventas por mes en [from, to)
func (r *SaleRepository) MonthlyTotals(ctx context.Context, from, to time.Time) ([]models.MonthlyTotal, error) {
	totals := make([]models.MonthlyTotal, 0)
	err := r.aggregate(ctx, totalsPipeline(from, to, "%Y-%m"), &totals)
	return totals, err
}

func (r *SaleRepository) aggregate(ctx context.Context, pipeline mongo.Pipeline, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, out)
}

// Amounts devuelve el total de cada venta en [from, to)
func (r *SaleRepository) Amounts(ctx context.Context, from, to time.Time) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	opts := options.Find().SetProjection(bson.M{"total": 1})
	cursor, err := r.collection.Find(ctx, createdBetween(from, to), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	amounts := make([]float64, 0)
	for cursor.Next(ctx) {
		var row struct {
			Total float64 `bson:"total"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, err
		}
		amounts = append(amounts, row.Total)
	}
	return amounts, cursor.Err()
}

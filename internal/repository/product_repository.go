package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

const (
	readTimeout  = 3 * time.Second
	writeTimeout = 5 * time.Second
	queryTimeout = 10 * time.Second
)

type ProductRepository struct {
	collection *mongo.Collection
}

func NewProductRepository(collection *mongo.Collection) *ProductRepository {
	return &ProductRepository{
		collection: collection,
	}
}

// Create crea un nuevo producto
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, product)
	return translate(err)
}

// FindByID obtiene un producto por ID
func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// FindBySlug obtiene un producto por slug
func (r *ProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"slug": slug})
}

// FindFeatured obtiene el producto destacado
func (r *ProductRepository) FindFeatured(ctx context.Context) (*models.Product, error) {
	return r.findOne(ctx, bson.M{"is_featured": true})
}

func (r *ProductRepository) findOne(ctx context.Context, filter bson.M) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	var product models.Product
	if err := r.collection.FindOne(ctx, filter).Decode(&product); err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// Find lista productos con paginación y filtros
func (r *ProductRepository) Find(ctx context.Context, q models.ProductQuery) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, buildProductFilter(q), productListOptions(q))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0, q.Limit)
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// FindByIDs obtiene varios productos a la vez
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]models.Product, 0, len(ids))
	if err = cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// MaxPrice devuelve el precio más alto; ok es false si no hay productos
func (r *ProductRepository) MaxPrice(ctx context.Context) (max float64, ok bool, err error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	opts := options.FindOne().
		SetSort(bson.D{{Key: "price", Value: -1}}).
		SetProjection(bson.M{"price": 1})

	var product models.Product
	err = r.collection.FindOne(ctx, bson.M{}, opts).Decode(&product)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, false, nil
		}
		return 0, false, err
	}
	return product.Price, true, nil
}

// Categories devuelve las categorías distintas no vacías
func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	values, err := r.collection.Distinct(ctx, "category", bson.M{"category": bson.M{"$ne": ""}})
	if err != nil {
		return nil, err
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	return categories, nil
}

// Update actualiza un producto y devuelve el documento resultante
func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error) {
	set := productSet(upd)
	// Agregar updated_at automáticamente
	set["updated_at"] = time.Now().UTC()

	return r.findOneAndSet(ctx, id, set)
}

// SetFeatured marca o desmarca un producto como destacado
func (r *ProductRepository) SetFeatured(ctx context.Context, id primitive.ObjectID, featured bool) (*models.Product, error) {
	return r.findOneAndSet(ctx, id, bson.M{
		"is_featured": featured,
		"updated_at":  time.Now().UTC(),
	})
}

func (r *ProductRepository) findOneAndSet(ctx context.Context, id primitive.ObjectID, set bson.M) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&product)
	if err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// ClearFeaturedExcept desmarca todos los destacados salvo el indicado
func (r *ProductRepository) ClearFeaturedExcept(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	filter := bson.M{
		"is_featured": true,
		"_id":         bson.M{"$ne": id},
	}
	update := bson.M{"$set": bson.M{
		"is_featured": false,
		"updated_at":  time.Now().UTC(),
	}}

	if _, err := r.collection.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("clear featured: %w", err)
	}
	return nil
}

// Delete elimina un producto
func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany elimina varios productos y devuelve cuántos se borraron
func (r *ProductRepository) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// CountByImage cuenta los productos que usan la imagen indicada
func (r *ProductRepository) CountByImage(ctx context.Context, imagePath string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"image_path": imagePath})
}

package repository

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/internal/models"
)

// buildProductFilter construye el filtro de MongoDB a partir de la consulta
func buildProductFilter(q models.ProductQuery) bson.M {
	filter := bson.M{}

	// El nombre se busca como subcadena literal
	if q.Name != "" {
		filter["name"] = bson.M{"$regex": regexp.QuoteMeta(q.Name), "$options": "i"}
	}

	if q.Category != "" {
		filter["category"] = q.Category
	}

	if q.Review != nil {
		filter["review"] = *q.Review
	}

	addPriceFilter(filter, q)

	return filter
}

// addPriceFilter agrega el rango de precio al filtro principal
func addPriceFilter(filter bson.M, q models.ProductQuery) {
	priceFilter := bson.M{}

	if q.MinPrice != nil {
		priceFilter["$gte"] = *q.MinPrice
	}
	if q.MaxPrice != nil {
		priceFilter["$lte"] = *q.MaxPrice
	}

	if len(priceFilter) > 0 {
		filter["price"] = priceFilter
	}
}

// productListOptions ordena por fecha de creación descendente y pagina
func productListOptions(q models.ProductQuery) *options.FindOptions {
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(q.Skip()).
		SetLimit(int64(q.Limit))
}

// productSet traduce una actualización parcial a un documento $set
func productSet(upd models.ProductUpdate) bson.M {
	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Slug != nil {
		set["slug"] = *upd.Slug
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.ImagePath != nil {
		set["image_path"] = *upd.ImagePath
	}
	if upd.Price != nil {
		set["price"] = *upd.Price
	}
	if upd.Review != nil {
		set["review"] = *upd.Review
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	return set
}

func userSet(upd models.UserUpdate) bson.M {
	set := bson.M{}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.PasswordHash != nil {
		set["password"] = *upd.PasswordHash
	}
	if upd.StatusID != nil {
		set["status_id"] = *upd.StatusID
	}
	if upd.RoleID != nil {
		set["role_id"] = *upd.RoleID
	}
	if upd.ProfileImage != nil {
		set["profileImage"] = *upd.ProfileImage
	}
	return set
}

// createdBetween filtra ventas en [from, to)
func createdBetween(from, to time.Time) bson.M {
	return bson.M{"created_at": bson.M{"$gte": from, "$lt": to}}
}

// totalsPipeline agrupa ventas por fecha formateada con el formato dado
func totalsPipeline(from, to time.Time, format string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: createdBetween(from, to)}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{"$dateToString": bson.M{
				"format":   format,
				"date":     "$created_at",
				"timezone": "UTC",
			}},
			"total": bson.M{"$sum": "$total"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	MinReview = 0
	MaxReview = 10
)

// Product representa un producto en el catálogo
type Product struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`
	Slug        string             `json:"slug" bson:"slug"`
	Category    string             `json:"category" bson:"category"`
	ImagePath   string             `json:"image_path" bson:"image_path"`
	Price       float64            `json:"price" bson:"price"`
	Review      int                `json:"review" bson:"review"`
	Description string             `json:"description" bson:"description"`
	IsFeatured  bool               `json:"is_featured" bson:"is_featured"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" bson:"updated_at"`
}

// ProductInput es el cuerpo de creación de un producto.
// Price es puntero para distinguir "no enviado" de 0.
type ProductInput struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	ImagePath   string   `json:"image_path"`
	Price       *float64 `json:"price"`
	Review      *int     `json:"review"`
	Description string   `json:"description"`
}

// ProductUpdate representa los campos actualizables de un producto
type ProductUpdate struct {
	Name        *string  `json:"name,omitempty"`
	Category    *string  `json:"category,omitempty"`
	ImagePath   *string  `json:"image_path,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Review      *int     `json:"review,omitempty"`
	Description *string  `json:"description,omitempty"`

	// Slug lo calcula el servicio cuando cambia el nombre
	Slug *string `json:"-"`
}

// IsEmpty indica si la actualización no trae ningún campo
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.Category == nil && u.ImagePath == nil &&
		u.Price == nil && u.Review == nil && u.Description == nil
}

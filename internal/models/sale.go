package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const DateLayout = "2006-01-02"

// Sale registra una venta con el precio vigente al momento de la compra
type Sale struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	ProductID   primitive.ObjectID `json:"product_id" bson:"product_id"`
	ProductName string             `json:"product_name" bson:"product_name"`
	UserID      primitive.ObjectID `json:"user_id" bson:"user_id"`
	Quantity    int                `json:"quantity" bson:"quantity"`
	UnitPrice   float64            `json:"unit_price" bson:"unit_price"`
	Total       float64            `json:"total" bson:"total"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}

// DailyTotal es la suma de ventas de un día (YYYY-MM-DD)
type DailyTotal struct {
	Date  string  `json:"date" bson:"_id"`
	Total float64 `json:"total" bson:"total"`
}

// MonthlyTotal es la suma de ventas de un mes (YYYY-MM)
type MonthlyTotal struct {
	Month string  `json:"month" bson:"_id"`
	Total float64 `json:"total" bson:"total"`
}

type SalesSummary struct {
	From    string  `json:"from"`
	To      string  `json:"to"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	Max     float64 `json:"max"`
}

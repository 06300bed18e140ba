package models

import "math"

const (
	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 100
)

// ProductQuery agrupa paginación y filtros del listado.
// Los filtros nil o vacíos se ignoran.
type ProductQuery struct {
	Page     int
	Limit    int
	Name     string
	Category string
	Review   *int
	MinPrice *float64
	MaxPrice *float64
}

// Normalize aplica los valores por defecto de paginación
func (q *ProductQuery) Normalize() {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	// (Page-1)*Limit no debe desbordar int
	if maxPage := math.MaxInt / q.Limit; q.Page > maxPage {
		q.Page = maxPage
	}
}

// Skip devuelve cuántos documentos saltar para la página actual
func (q ProductQuery) Skip() int64 {
	return int64((q.Page - 1) * q.Limit)
}

// ProductPage es la respuesta del listado
type ProductPage struct {
	Products []Product `json:"products"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
	HasMore  bool      `json:"hasMore"`
}

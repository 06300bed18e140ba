package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
)

type SaleRepository struct {
	mu    sync.RWMutex
	sales []models.Sale
}

func NewSaleRepository() *SaleRepository {
	return &SaleRepository{}
}

func (m *SaleRepository) Create(ctx context.Context, sale *models.Sale) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sale.ID = primitive.NewObjectID()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	m.sales = append(m.sales, *sale)
	return nil
}

func (m *SaleRepository) DailyTotals(ctx context.Context, from, to time.Time) ([]models.DailyTotal, error) {
	sums, keys := m.group(from, to, models.DateLayout)

	totals := make([]models.DailyTotal, 0, len(keys))
	for _, k := range keys {
		totals = append(totals, models.DailyTotal{Date: k, Total: sums[k]})
	}
	return totals, nil
}

func (m *SaleRepository) MonthlyTotals(ctx context.Context, from, to time.Time) ([]models.MonthlyTotal, error) {
	sums, keys := m.group(from, to, "2006-01")

	totals := make([]models.MonthlyTotal, 0, len(keys))
	for _, k := range keys {
		totals = append(totals, models.MonthlyTotal{Month: k, Total: sums[k]})
	}
	return totals, nil
}

// group suma los totales en [from, to) agrupados por la fecha formateada
func (m *SaleRepository) group(from, to time.Time, layout string) (map[string]float64, []string) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sums := make(map[string]float64)
	for _, s := range m.sales {
		if s.CreatedAt.Before(from) || !s.CreatedAt.Before(to) {
			continue
		}
		sums[s.CreatedAt.UTC().Format(layout)] += s.Total
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return sums, keys
}

func (m *SaleRepository) Amounts(ctx context.Context, from, to time.Time) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	amounts := make([]float64, 0)
	for _, s := range m.sales {
		if s.CreatedAt.Before(from) || !s.CreatedAt.Before(to) {
			continue
		}
		amounts = append(amounts, s.Total)
	}
	return amounts, nil
}

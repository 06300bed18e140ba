package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/models"
	"storefront/internal/repository"
)

// ProductRepository guarda el catálogo en memoria con las mismas
// restricciones que los índices de MongoDB: slug único y un solo destacado.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]models.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[primitive.ObjectID]models.Product),
	}
}

func (m *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.slugTaken(product.Slug, primitive.NilObjectID) {
		return repository.ErrDuplicateKey
	}
	if product.IsFeatured && m.featuredOther(primitive.NilObjectID) {
		return repository.ErrDuplicateKey
	}

	now := time.Now().UTC()
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now

	m.products[product.ID] = *product
	return nil
}

func (m *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &product, nil
}

func (m *ProductRepository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return m.findFirst(func(p models.Product) bool { return p.Slug == slug })
}

func (m *ProductRepository) FindFeatured(ctx context.Context) (*models.Product, error) {
	return m.findFirst(func(p models.Product) bool { return p.IsFeatured })
}

func (m *ProductRepository) findFirst(match func(models.Product) bool) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.products {
		if match(p) {
			found := p
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *ProductRepository) Find(ctx context.Context, q models.ProductQuery) ([]models.Product, error) {
	m.mu.RLock()
	matched := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		if matches(p, q) {
			matched = append(matched, p)
		}
	}
	m.mu.RUnlock()

	sortNewestFirst(matched)

	skip := int(q.Skip())
	if skip < 0 || skip >= len(matched) {
		return []models.Product{}, nil
	}
	end := skip + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[skip:end], nil
}

func matches(p models.Product, q models.ProductQuery) bool {
	if q.Name != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q.Name)) {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.Review != nil && p.Review != *q.Review {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	return true
}

// sortNewestFirst replica el orden {created_at: -1, _id: -1}
func sortNewestFirst(products []models.Product) {
	sort.Slice(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.Hex() > b.ID.Hex()
	})
}

func (m *ProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (m *ProductRepository) MaxPrice(ctx context.Context) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		max   float64
		found bool
	)
	for _, p := range m.products {
		if !found || p.Price > max {
			max = p.Price
			found = true
		}
	}
	return max, found, nil
}

func (m *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, p := range m.products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	sort.Strings(categories)
	return categories, nil
}

func (m *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, upd models.ProductUpdate) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Slug != nil && m.slugTaken(*upd.Slug, id) {
		return nil, repository.ErrDuplicateKey
	}

	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Slug != nil {
		p.Slug = *upd.Slug
	}
	if upd.Category != nil {
		p.Category = *upd.Category
	}
	if upd.ImagePath != nil {
		p.ImagePath = *upd.ImagePath
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Review != nil {
		p.Review = *upd.Review
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	p.UpdatedAt = time.Now().UTC()

	m.products[id] = p
	return &p, nil
}

func (m *ProductRepository) SetFeatured(ctx context.Context, id primitive.ObjectID, featured bool) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if featured && m.featuredOther(id) {
		return nil, repository.ErrDuplicateKey
	}

	p.IsFeatured = featured
	p.UpdatedAt = time.Now().UTC()
	m.products[id] = p
	return &p, nil
}

func (m *ProductRepository) ClearFeaturedExcept(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for pid, p := range m.products {
		if pid != id && p.IsFeatured {
			p.IsFeatured = false
			p.UpdatedAt = time.Now().UTC()
			m.products[pid] = p
		}
	}
	return nil
}

func (m *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *ProductRepository) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if _, ok := m.products[id]; ok {
			delete(m.products, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *ProductRepository) CountByImage(ctx context.Context, imagePath string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, p := range m.products {
		if p.ImagePath == imagePath {
			n++
		}
	}
	return n, nil
}

// slugTaken y featuredOther asumen que el mutex ya está tomado
func (m *ProductRepository) slugTaken(slug string, except primitive.ObjectID) bool {
	for id, p := range m.products {
		if id != except && p.Slug == slug {
			return true
		}
	}
	return false
}

func (m *ProductRepository) featuredOther(except primitive.ObjectID) bool {
	for id, p := range m.products {
		if id != except && p.IsFeatured {
			return true
		}
	}
	return false
}

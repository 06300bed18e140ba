package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/repository"
)

const (
	// Precio máximo que se informa con el catálogo vacío
	emptyCatalogMaxPrice = 1000

	catalogPrefix = "catalog:"
)

type CatalogService struct {
	products     ProductStore
	images       ImageStore
	cache        *cache.Cache
	defaultImage string
	log          *logrus.Logger
}

func NewCatalogService(products ProductStore, images ImageStore, c *cache.Cache, defaultImage string, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		products:     products,
		images:       images,
		cache:        c,
		defaultImage: defaultImage,
		log:          logger,
	}
}

// List devuelve una página del catálogo. hasMore es true cuando la página
// vino completa, aunque no queden más productos.
func (s *CatalogService) List(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error) {
	q.Normalize()

	key := catalogPrefix + "list:" + listKey(q)
	var page models.ProductPage
	if s.fromCache(key, &page) {
		return &page, nil
	}

	products, err := s.products.Find(ctx, q)
	if err != nil {
		s.log.Errorf("Catalog: failed to list products: %v", err)
		return nil, fmt.Errorf("list products: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}

	page = models.ProductPage{
		Products: products,
		Page:     q.Page,
		Limit:    q.Limit,
		HasMore:  len(products) == q.Limit,
	}
	s.toCache(key, page)
	return &page, nil
}

func listKey(q models.ProductQuery) string {
	return fmt.Sprintf("p%d_l%d_n:%s_c:%s_r:%s_min:%s_max:%s",
		q.Page, q.Limit, strings.ToLower(q.Name), q.Category,
		intKey(q.Review), floatKey(q.MinPrice), floatKey(q.MaxPrice))
}

func intKey(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func floatKey(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func (s *CatalogService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	key := catalogPrefix + "slug:" + slug
	var product models.Product
	if s.fromCache(key, &product) {
		return &product, nil
	}

	found, err := s.products.FindBySlug(ctx, slug)
	if err != nil {
		return nil, s.lookupError(err, "product", "slug", slug)
	}
	s.toCache(key, found)
	return found, nil
}

// GetFeatured devuelve el producto destacado o ErrNotFound si no hay ninguno
func (s *CatalogService) GetFeatured(ctx context.Context) (*models.Product, error) {
	key := catalogPrefix + "featured"
	var product models.Product
	if s.fromCache(key, &product) {
		return &product, nil
	}

	found, err := s.products.FindFeatured(ctx)
	if err != nil {
		return nil, s.lookupError(err, "featured product", "featured", "")
	}
	s.toCache(key, found)
	return found, nil
}

func (s *CatalogService) MaxPrice(ctx context.Context) (float64, error) {
	key := catalogPrefix + "max-price"
	var max float64
	if s.fromCache(key, &max) {
		return max, nil
	}

	max, ok, err := s.products.MaxPrice(ctx)
	if err != nil {
		s.log.Errorf("Catalog: failed to compute max price: %v", err)
		return 0, fmt.Errorf("max price: %w", err)
	}
	if !ok {
		max = emptyCatalogMaxPrice
	}
	s.toCache(key, max)
	return max, nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	key := catalogPrefix + "categories"
	var categories []string
	if s.fromCache(key, &categories) {
		return categories, nil
	}

	categories, err := s.products.Categories(ctx)
	if err != nil {
		s.log.Errorf("Catalog: failed to list categories: %v", err)
		return nil, fmt.Errorf("categories: %w", err)
	}
	if categories == nil {
		categories = []string{}
	}
	s.toCache(key, categories)
	return categories, nil
}

func (s *CatalogService) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid("name", "name is required")
	}
	slug := models.Slugify(name)
	if slug == "" {
		return nil, invalid("name", "name must contain at least one letter or digit")
	}
	if in.Price == nil {
		return nil, invalid("price", "price is required")
	}
	if err := validatePrice(*in.Price); err != nil {
		return nil, err
	}

	review := models.MinReview
	if in.Review != nil {
		if err := validateReview(*in.Review); err != nil {
			return nil, err
		}
		review = *in.Review
	}

	image := strings.TrimSpace(in.ImagePath)
	if image == "" {
		image = s.defaultImage
	}

	product := &models.Product{
		Name:        name,
		Slug:        slug,
		Category:    strings.TrimSpace(in.Category),
		ImagePath:   image,
		Price:       *in.Price,
		Review:      review,
		Description: in.Description,
	}

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.log.Warnf("Catalog: slug %q already taken", slug)
			return nil, conflict(fmt.Sprintf("a product with slug %q already exists", slug))
		}
		s.log.Errorf("Catalog: failed to create product %q: %v", name, err)
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.invalidate()
	s.log.WithFields(logrus.Fields{"id": product.ID.Hex(), "slug": slug}).Info("Catalog: product created")
	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, rawID string, upd models.ProductUpdate) (*models.Product, error) {
	id, err := parseID("id", rawID)
	if err != nil {
		return nil, err
	}
	if upd.IsEmpty() {
		return nil, invalid("body", "no valid fields to update")
	}

	upd.Slug = nil
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, invalid("name", "name cannot be empty")
		}
		slug := models.Slugify(name)
		if slug == "" {
			return nil, invalid("name", "name must contain at least one letter or digit")
		}
		upd.Name = &name
		upd.Slug = &slug
	}
	if upd.Price != nil {
		if err := validatePrice(*upd.Price); err != nil {
			return nil, err
		}
	}
	if upd.Review != nil {
		if err := validateReview(*upd.Review); err != nil {
			return nil, err
		}
	}

	var previousImage string
	if upd.ImagePath != nil {
		image := strings.TrimSpace(*upd.ImagePath)
		if image == "" {
			image = s.defaultImage
		}
		upd.ImagePath = &image

		current, err := s.products.FindByID(ctx, id)
		if err != nil {
			return nil, s.lookupError(err, "product", "id", rawID)
		}
		previousImage = current.ImagePath
	}

	product, err := s.products.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) && upd.Slug != nil {
			return nil, conflict(fmt.Sprintf("a product with slug %q already exists", *upd.Slug))
		}
		return nil, s.lookupError(err, "product", "id", rawID)
	}

	if upd.ImagePath != nil && previousImage != product.ImagePath {
		s.removeImage(ctx, previousImage)
	}

	s.invalidate()
	s.log.Infof("Catalog: product %s updated", rawID)
	return product, nil
}

// Delete borra el producto y su imagen si no es el placeholder
func (s *CatalogService) Delete(ctx context.Context, rawID string) error {
	id, err := parseID("id", rawID)
	if err != nil {
		return err
	}

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return s.lookupError(err, "product", "id", rawID)
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return s.lookupError(err, "product", "id", rawID)
	}

	s.removeImage(ctx, product.ImagePath)
	s.invalidate()
	s.log.Infof("Catalog: product %s deleted", rawID)
	return nil
}

// BulkDelete borra los productos indicados; los ids desconocidos no cuentan
func (s *CatalogService) BulkDelete(ctx context.Context, rawIDs []string) (int64, error) {
	if len(rawIDs) == 0 {
		return 0, invalid("ids", "ids are required")
	}

	ids := make([]primitive.ObjectID, 0, len(rawIDs))
	for _, raw := range rawIDs {
		id, err := parseID("ids", raw)
		if err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}

	products, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		s.log.Errorf("Catalog: failed to load products for bulk delete: %v", err)
		return 0, fmt.Errorf("bulk delete: %w", err)
	}

	deleted, err := s.products.DeleteMany(ctx, ids)
	if err != nil {
		s.log.Errorf("Catalog: bulk delete failed: %v", err)
		return 0, fmt.Errorf("bulk delete: %w", err)
	}

	for _, p := range products {
		s.removeImage(ctx, p.ImagePath)
	}
	s.invalidate()
	s.log.Infof("Catalog: bulk delete removed %d of %d products", deleted, len(ids))
	return deleted, nil
}

// SetFeatured marca o desmarca el producto. Al marcarlo se desmarcan los
// demás primero; el índice único parcial rechaza una carrera entre dos
// marcados simultáneos.
func (s *CatalogService) SetFeatured(ctx context.Context, rawID string, featured bool) (*models.Product, error) {
	id, err := parseID("id", rawID)
	if err != nil {
		return nil, err
	}

	if _, err := s.products.FindByID(ctx, id); err != nil {
		return nil, s.lookupError(err, "product", "id", rawID)
	}

	if featured {
		if err := s.products.ClearFeaturedExcept(ctx, id); err != nil {
			s.log.Errorf("Catalog: failed to clear featured products: %v", err)
			return nil, fmt.Errorf("clear featured: %w", err)
		}
	}

	product, err := s.products.SetFeatured(ctx, id, featured)
	s.invalidate()
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.log.Warnf("Catalog: concurrent featured toggle rejected for %s", rawID)
			return nil, conflict("another product was featured at the same time, retry")
		}
		return nil, s.lookupError(err, "product", "id", rawID)
	}

	s.log.WithFields(logrus.Fields{"id": rawID, "featured": featured}).Info("Catalog: featured flag updated")
	return product, nil
}

func (s *CatalogService) UploadImage(fh *multipart.FileHeader) (string, error) {
	return s.images.Save(fh, "product")
}

func validatePrice(price float64) error {
	if price < 0 {
		return invalid("price", "price cannot be negative")
	}
	return nil
}

func validateReview(review int) error {
	if review < models.MinReview || review > models.MaxReview {
		return invalid("review", "review must be between %d and %d", models.MinReview, models.MaxReview)
	}
	return nil
}

// lookupError traduce el error del repositorio a uno del servicio
func (s *CatalogService) lookupError(err error, resource, field, value string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(resource)
	}
	s.log.Errorf("Catalog: lookup by %s %q failed: %v", field, value, err)
	return fmt.Errorf("find %s: %w", resource, err)
}

// removeImage borra el archivo solo si ningún producto restante lo usa
func (s *CatalogService) removeImage(ctx context.Context, ref string) {
	if s.images.IsPlaceholder(ref) {
		return
	}
	inUse, err := s.products.CountByImage(ctx, ref)
	if err != nil {
		s.log.Warnf("Catalog: could not check usage of image %s, keeping it: %v", ref, err)
		return
	}
	if inUse > 0 {
		s.log.Debugf("Catalog: image %s still used by %d products", ref, inUse)
		return
	}
	if err := s.images.Remove(ref); err != nil {
		s.log.Warnf("Catalog: could not remove image %s: %v", ref, err)
	}
}

func (s *CatalogService) fromCache(key string, target interface{}) bool {
	found, err := s.cache.Unmarshal(key, target)
	if err != nil {
		s.log.Warnf("Catalog: corrupt cache entry %s: %v", key, err)
		return false
	}
	return found
}

func (s *CatalogService) toCache(key string, value interface{}) {
	if err := s.cache.Marshal(key, value); err != nil {
		s.log.Warnf("Catalog: could not cache %s: %v", key, err)
	}
}

func (s *CatalogService) invalidate() {
	s.cache.DeleteByPrefix(catalogPrefix)
}

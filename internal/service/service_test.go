package service

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"storefront/internal/cache"
	"storefront/internal/models"
	"storefront/internal/repository/memory"
	"storefront/internal/storage"
)

const (
	placeholderImage = "/public/uploads/sample.image.jpg"
	placeholderUser  = "defaultuserpic.png"
)

type fixture struct {
	ctx      context.Context
	products *memory.ProductRepository
	users    *memory.UserRepository
	sales    *memory.SaleRepository
	images   *storage.ImageStore
	dir      string

	catalog  *CatalogService
	userSvc  *UserService
	salesSvc *SalesService
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := quietLogger()
	dir := t.TempDir()
	f := &fixture{
		ctx:      context.Background(),
		products: memory.NewProductRepository(),
		users:    memory.NewUserRepository(),
		sales:    memory.NewSaleRepository(),
		images:   storage.NewImageStore(dir, "/public/uploads", 1<<20, placeholderImage, placeholderUser),
		dir:      dir,
	}

	c := cache.New(time.Minute)
	t.Cleanup(c.Close)

	f.catalog = NewCatalogService(f.products, f.images, c, placeholderImage, log)
	f.userSvc = newUserService(f.users, f.images, placeholderUser, 4, log)
	f.salesSvc = NewSalesService(f.sales, f.products, log)
	return f
}

func (f *fixture) createProduct(t *testing.T, name string, price float64) *models.Product {
	t.Helper()
	p, err := f.catalog.Create(f.ctx, models.ProductInput{Name: name, Category: "perfume", Price: &price})
	require.NoError(t, err)
	return p
}

// writeUpload deja un archivo en el directorio de subidas y devuelve su ruta pública
func (f *fixture) writeUpload(t *testing.T, name string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.dir, name), []byte("img"), 0o644))
	return "/public/uploads/" + name
}

func (f *fixture) exists(name string) bool {
	_, err := os.Stat(filepath.Join(f.dir, name))
	return err == nil
}

func ptr[T any](v T) *T { return &v }

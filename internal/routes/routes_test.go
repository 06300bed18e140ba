package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cache"
	"storefront/internal/handlers"
	"storefront/internal/models"
	"storefront/internal/repository/memory"
	"storefront/internal/service"
	"storefront/internal/storage"
)

type testServer struct {
	router   *gin.Engine
	adminID  string
	customer string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	products := memory.NewProductRepository()
	users := memory.NewUserRepository()
	sales := memory.NewSaleRepository()
	dir := t.TempDir()
	images := storage.NewImageStore(dir, "/public/uploads", 1<<20, "/public/uploads/sample.image.jpg", "defaultuserpic.png")
	c := cache.New(time.Minute)
	t.Cleanup(c.Close)

	catalog := service.NewCatalogService(products, images, c, "/public/uploads/sample.image.jpg", log)
	userSvc := service.NewUserService(users, images, "defaultuserpic.png", log)
	salesSvc := service.NewSalesService(sales, products, log)

	ctx := context.Background()
	require.NoError(t, userSvc.EnsureAdmin(ctx, "Admin", "admin@example.com", "adminpass"))
	admin, err := userSvc.Login(ctx, "admin@example.com", "adminpass")
	require.NoError(t, err)
	customer, err := userSvc.Register(ctx, "Ana", "ana@example.com", "secret123")
	require.NoError(t, err)

	router := NewRouter(Dependencies{
		Products:        handlers.NewProductHandler(catalog, 1<<20, log),
		Users:           handlers.NewUserHandler(userSvc, 1<<20, log),
		Sales:           handlers.NewSalesHandler(salesSvc, log),
		Auth:            userSvc,
		Logger:          log,
		UploadDir:       dir,
		UploadURLPrefix: "/public/uploads",
		CORSOrigins:     []string{"*"},
	})

	return &testServer{router: router, adminID: admin.ID.Hex(), customer: customer.ID.Hex()}
}

func (s *testServer) do(t *testing.T, method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("user-id", userID)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v))
}

func (s *testServer) createProduct(t *testing.T, name string, price float64) models.Product {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/products", s.adminID, gin.H{"name": name, "price": price, "category": "perfume"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var p models.Product
	decode(t, w, &p)
	return p
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestListingShapeAndPagination(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 15; i++ {
		s.createProduct(t, fmt.Sprintf("Scent %02d", i), float64(i+1))
	}

	w := s.do(t, http.MethodGet, "/api/products?page=1&limit=12", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var first models.ProductPage
	decode(t, w, &first)
	assert.Len(t, first.Products, 12)
	assert.True(t, first.HasMore)

	w = s.do(t, http.MethodGet, "/api/products?page=2&limit=12&review=abc&minPrice=x", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var raw map[string]interface{}
	decode(t, w, &raw)
	assert.Equal(t, false, raw["hasMore"])
	assert.Len(t, raw["products"], 3)
	assert.EqualValues(t, 2, raw["page"])
	assert.EqualValues(t, 12, raw["limit"])
}

func TestMutationsRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	body := gin.H{"name": "Oud", "price": 10}

	w := s.do(t, http.MethodPost, "/api/products", "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/products", "0123456789abcdef01234567", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/products", "not-an-id", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/products", s.customer, body)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/products", s.adminID, body)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestProductErrors(t *testing.T) {
	s := newTestServer(t)
	s.createProduct(t, "Black Oud", 10)

	w := s.do(t, http.MethodPost, "/api/products", s.adminID, gin.H{"name": "Black Oud", "price": 20})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/products", s.adminID, gin.H{"name": "No price"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/products", s.adminID, gin.H{"name": "Bad review", "price": 1, "review": 11})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/products/featured", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	var errBody handlers.ErrorResponse
	decode(t, w, &errBody)
	assert.NotEmpty(t, errBody.Error)

	w = s.do(t, http.MethodGet, "/api/products/slug/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/api/products/not-an-id", s.adminID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/products/0123456789abcdef01234567", s.adminID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeaturedToggle(t *testing.T) {
	s := newTestServer(t)
	a := s.createProduct(t, "A", 1)
	b := s.createProduct(t, "B", 2)

	for _, p := range []models.Product{a, b} {
		w := s.do(t, http.MethodPatch, "/api/products/"+p.ID.Hex()+"/featured", s.adminID, gin.H{"is_featured": true})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w := s.do(t, http.MethodGet, "/api/products/featured", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var featured models.Product
	decode(t, w, &featured)
	assert.Equal(t, b.ID, featured.ID)

	w = s.do(t, http.MethodGet, "/api/products?limit=100", "", nil)
	var page models.ProductPage
	decode(t, w, &page)
	count := 0
	for _, p := range page.Products {
		if p.IsFeatured {
			count++
		}
	}
	assert.Equal(t, 1, count)

	w = s.do(t, http.MethodPatch, "/api/products/"+a.ID.Hex()+"/featured", s.adminID, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateDeleteAndBulkDelete(t *testing.T) {
	s := newTestServer(t)
	a := s.createProduct(t, "A", 1)
	b := s.createProduct(t, "B", 2)
	c := s.createProduct(t, "C", 3)

	w := s.do(t, http.MethodPut, "/api/products/"+a.ID.Hex(), s.adminID, gin.H{"name": "A Prime", "price": 9})
	require.Equal(t, http.StatusOK, w.Code)
	var updated models.Product
	decode(t, w, &updated)
	assert.Equal(t, "a-prime", updated.Slug)
	assert.Equal(t, 9.0, updated.Price)

	w = s.do(t, http.MethodGet, "/api/products/slug/a-prime", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/api/products/"+a.ID.Hex(), s.adminID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/api/products/bulk-delete", s.adminID, gin.H{"ids": []string{b.ID.Hex(), c.ID.Hex()}})
	require.Equal(t, http.StatusOK, w.Code)
	var res struct {
		Deleted int64 `json:"deleted"`
	}
	decode(t, w, &res)
	assert.Equal(t, int64(2), res.Deleted)

	w = s.do(t, http.MethodGet, "/api/products/max-price", "", nil)
	assert.JSONEq(t, `{"maxPrice":1000}`, w.Body.String())
}

func TestRegisterLoginAndMe(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/register", "", gin.H{"name": "Bob", "email": "bob@example.com", "password": "bobpass1"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodPost, "/api/register", "", gin.H{"name": "Bob", "email": "bob@example.com", "password": "bobpass1"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "bob@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	wrong := w.Body.String()

	w = s.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "nobody@example.com", "password": "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrong, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "bob@example.com", "password": "bobpass1"})
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		User models.PublicUser `json:"user"`
	}
	decode(t, w, &login)
	assert.Equal(t, models.RoleCustomer, login.User.RoleID)
	assert.NotContains(t, w.Body.String(), "$2a$")

	w = s.do(t, http.MethodGet, "/api/users/me", login.User.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me models.PublicUser
	decode(t, w, &me)
	assert.Equal(t, "bob@example.com", me.Email)

	w = s.do(t, http.MethodGet, "/api/users", login.User.ID, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/users", s.adminID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var users []models.PublicUser
	decode(t, w, &users)
	assert.Len(t, users, 3)
}

func TestDeactivatedUserIsRejected(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/users/"+s.customer, s.adminID, gin.H{"status_id": models.StatusDeactivated})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/login", "", gin.H{"email": "ana@example.com", "password": "secret123"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/api/users/me", s.customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func multipartRequest(t *testing.T, path, userID, field, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("user-id", userID)
	return req
}

func TestUploads(t *testing.T) {
	s := newTestServer(t)
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 24)...)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, multipartRequest(t, "/api/products/upload-image", s.adminID, "image", "p.png", png, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var uploaded struct {
		ImagePath string `json:"image_path"`
	}
	decode(t, w, &uploaded)
	assert.Contains(t, uploaded.ImagePath, "/public/uploads/product-")

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, uploaded.ImagePath, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, multipartRequest(t, "/api/products/upload-image", s.adminID, "image", "p.exe", png, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, multipartRequest(t, "/api/products/upload-image", s.adminID, "", "", nil, nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, multipartRequest(t, "/api/upload-profile-image", s.customer, "profileImage", "me.png", png, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var profile struct {
		Filename string `json:"filename"`
	}
	decode(t, w, &profile)
	assert.Regexp(t, `^profile-.+\.png$`, profile.Filename)

	req := multipartRequest(t, "/api/users/me", s.customer, "profileImage", "me.png", png, map[string]string{"name": "Ana Updated"})
	req.Method = http.MethodPut
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "Ana Updated")
}

func TestSalesEndpoints(t *testing.T) {
	s := newTestServer(t)
	p := s.createProduct(t, "Oud", 20)

	w := s.do(t, http.MethodPost, "/api/sales", s.customer, gin.H{"product_id": p.ID.Hex(), "quantity": 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var sale models.Sale
	decode(t, w, &sale)
	assert.Equal(t, 40.0, sale.Total)

	year := time.Now().UTC().Year()
	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/sales/monthly?year=%d", year), s.customer, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/sales/monthly?year=%d", year), s.adminID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var months []models.MonthlyTotal
	decode(t, w, &months)
	require.Len(t, months, 12)
	total := 0.0
	for _, m := range months {
		total += m.Total
	}
	assert.Equal(t, 40.0, total)

	w = s.do(t, http.MethodGet, "/api/sales/monthly?year=abc", s.adminID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/sales/range?start=2024-03-05&end=2024-03-01", s.adminID, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/sales/summary", s.adminID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var summary models.SalesSummary
	decode(t, w, &summary)
	assert.Equal(t, 1, summary.Count)

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/sales/export?year=%d", year), s.adminID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), fmt.Sprintf("sales-%d.xlsx", year))
	assert.NotEmpty(t, w.Body.Bytes())
}

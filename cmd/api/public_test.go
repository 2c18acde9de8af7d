package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"myson/internal/domain/catalog"
	"myson/internal/domain/storage"
	"myson/internal/imagestore"

	"github.com/go-chi/chi/v5"
	"github.com/speps/go-hashids/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// catalogStub fakes the catalog store for handler tests. The embedded
// interface panics on any method a handler should not be calling.
type catalogStub struct {
	catalog.Store

	product    *catalog.ProductWithRefs
	productErr error

	listFilter   *catalog.ProductFilter
	listProducts []*catalog.ProductWithRefs
	listTotal    int

	brandByName    *catalog.Brand
	categoryByName *catalog.Category
	searchResults  []*catalog.ProductWithRefs
	searchQuery    string

	flagSet   catalog.ProductFlag
	flagValue bool
}

func (s *catalogStub) GetProductByID(ctx context.Context, id int64) (*catalog.ProductWithRefs, error) {
	if s.productErr != nil {
		return nil, s.productErr
	}
	return s.product, nil
}

func (s *catalogStub) ListProducts(ctx context.Context, f catalog.ProductFilter, limit, offset int) ([]*catalog.ProductWithRefs, int, error) {
	s.listFilter = &f
	return s.listProducts, s.listTotal, nil
}

func (s *catalogStub) FindBrandByName(ctx context.Context, name string) (*catalog.Brand, error) {
	if s.brandByName == nil || !strings.EqualFold(s.brandByName.Name, name) {
		return nil, catalog.ErrBrandNotFound
	}
	return s.brandByName, nil
}

func (s *catalogStub) FindCategoryByName(ctx context.Context, name string) (*catalog.Category, error) {
	if s.categoryByName == nil || !strings.EqualFold(s.categoryByName.Name, name) {
		return nil, catalog.ErrCategoryNotFound
	}
	return s.categoryByName, nil
}

func (s *catalogStub) SearchProducts(ctx context.Context, query string, limit int) ([]*catalog.ProductWithRefs, error) {
	s.searchQuery = query
	return s.searchResults, nil
}

func (s *catalogStub) SetProductFlag(ctx context.Context, id int64, flag catalog.ProductFlag, value bool) (*catalog.Product, error) {
	if s.product == nil {
		return nil, catalog.ErrProductNotFound
	}
	s.flagSet = flag
	s.flagValue = value
	return &s.product.Product, nil
}

func newTestApp(t *testing.T, cat catalog.Store) *application {
	t.Helper()

	images, err := imagestore.NewDiskStore(t.TempDir(), "/images")
	require.NoError(t, err)

	hd := hashids.NewData()
	hd.Salt = "test-salt"
	hd.MinLength = 8
	codes, err := hashids.NewWithData(hd)
	require.NoError(t, err)

	logger := zap.NewNop().Sugar()
	return &application{
		config:    config{images: imagesConfig{publicPath: "/images"}},
		store:     &storage.Container{Catalog: cat},
		logger:    logger,
		images:    images,
		lifecycle: catalog.NewImageLifecycle(cat, images, logger),
		codes:     codes,
	}
}

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope.Data
}

func sampleProduct(listed bool) *catalog.ProductWithRefs {
	return &catalog.ProductWithRefs{
		Product: catalog.Product{
			ID:     42,
			Name:   "Desk Lamp",
			Price:  19.99,
			Images: []string{"lamp-1.jpg"},
			Listed: listed,
		},
		Brand:    &catalog.Brand{ID: 1, Name: "Lumio", Listed: true},
		Category: &catalog.Category{ID: 2, Name: "Lighting", Listed: true},
	}
}

func TestPublicProductsForcesListedFilter(t *testing.T) {
	stub := &catalogStub{
		listProducts: []*catalog.ProductWithRefs{sampleProduct(true)},
		listTotal:    1,
	}
	app := newTestApp(t, stub)

	// an adversarial client asking for unlisted rows gets listed ones anyway
	r := httptest.NewRequest("GET", "http://shop.test/v1/public/products?listed=false&bestSeller=true", nil)
	rec := httptest.NewRecorder()
	app.publicProductsHandler(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.listFilter)
	require.NotNil(t, stub.listFilter.Listed)
	assert.True(t, *stub.listFilter.Listed)
	assert.Nil(t, stub.listFilter.BestSeller)

	data := decodeData(t, rec)
	assert.Equal(t, float64(1), data["total"])
	assert.Equal(t, float64(1), data["page"])
	assert.Equal(t, float64(10), data["limit"])
	require.Len(t, data["products"], 1)
}

func TestPublicProductResponseShape(t *testing.T) {
	stub := &catalogStub{product: sampleProduct(true)}
	app := newTestApp(t, stub)

	r := withURLParam(
		httptest.NewRequest("GET", "http://shop.test/v1/public/products/42", nil),
		"productID", "42")
	rec := httptest.NewRecorder()
	app.publicProductDetailsHandler(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeData(t, rec)

	assert.Equal(t, "Desk Lamp", data["name"])
	assert.NotEmpty(t, data["code"])

	images, ok := data["images"].([]any)
	require.True(t, ok)
	require.Len(t, images, 1)
	assert.Equal(t, "http://shop.test/images/lamp-1.jpg", images[0])
}

func TestPublicProductDetailsHidesUnlisted(t *testing.T) {
	app := newTestApp(t, &catalogStub{product: sampleProduct(false)})

	r := withURLParam(
		httptest.NewRequest("GET", "http://shop.test/v1/public/products/42", nil),
		"productID", "42")
	rec := httptest.NewRecorder()
	app.publicProductDetailsHandler(rec, r)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPublicFeaturedTypeValidation(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode int
		check    func(t *testing.T, f *catalog.ProductFilter)
	}{
		{
			name:     "best-sellers",
			query:    "type=best-sellers",
			wantCode: http.StatusOK,
			check: func(t *testing.T, f *catalog.ProductFilter) {
				require.NotNil(t, f.BestSeller)
				assert.True(t, *f.BestSeller)
				assert.Nil(t, f.Trending)
			},
		},
		{
			name:     "trending",
			query:    "type=trending",
			wantCode: http.StatusOK,
			check: func(t *testing.T, f *catalog.ProductFilter) {
				require.NotNil(t, f.Trending)
				assert.True(t, *f.Trending)
				assert.Nil(t, f.BestSeller)
			},
		},
		{name: "unknown type", query: "type=newest", wantCode: http.StatusBadRequest},
		{name: "missing type", query: "", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &catalogStub{}
			app := newTestApp(t, stub)

			r := httptest.NewRequest("GET", "http://shop.test/v1/public/featured?"+tt.query, nil)
			rec := httptest.NewRecorder()
			app.publicFeaturedHandler(rec, r)

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.check != nil {
				require.NotNil(t, stub.listFilter)
				require.NotNil(t, stub.listFilter.Listed)
				assert.True(t, *stub.listFilter.Listed)
				tt.check(t, stub.listFilter)
			} else {
				assert.Nil(t, stub.listFilter, "no query should run for a rejected type")
			}
		})
	}
}

func TestPublicSearchSplitsQuery(t *testing.T) {
	stub := &catalogStub{
		brandByName:   &catalog.Brand{ID: 1, Name: "Lumio", Listed: true},
		searchResults: []*catalog.ProductWithRefs{sampleProduct(true)},
	}
	app := newTestApp(t, stub)

	r := httptest.NewRequest("GET", "http://shop.test/v1/public/search?q=lumio+lighting", nil)
	rec := httptest.NewRecorder()
	app.publicSearchHandler(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "lumio lighting", stub.searchQuery)

	data := decodeData(t, rec)
	brand, ok := data["brand"].(map[string]any)
	require.True(t, ok, "first word matched a brand")
	assert.Equal(t, "Lumio", brand["name"])
	assert.Nil(t, data["category"], "no category named 'lighting' in the stub")
	require.Len(t, data["products"], 1)
}

func TestPublicSearchRequiresQuery(t *testing.T) {
	app := newTestApp(t, &catalogStub{})

	for _, q := range []string{"", "q=", "q=+++"} {
		r := httptest.NewRequest("GET", "http://shop.test/v1/public/search?"+q, nil)
		rec := httptest.NewRecorder()
		app.publicSearchHandler(rec, r)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestToggleProductListingRequiresBool(t *testing.T) {
	stub := &catalogStub{product: sampleProduct(true)}
	app := newTestApp(t, stub)

	r := withURLParam(
		httptest.NewRequest("PATCH", "/v1/products/42/listing", strings.NewReader(`{}`)),
		"productID", "42")
	rec := httptest.NewRecorder()
	app.toggleProductListingHandler(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	r = withURLParam(
		httptest.NewRequest("PATCH", "/v1/products/42/listing", strings.NewReader(`{"listed":false}`)),
		"productID", "42")
	rec = httptest.NewRecorder()
	app.toggleProductListingHandler(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, catalog.FlagListed, stub.flagSet)
	assert.False(t, stub.flagValue)
}

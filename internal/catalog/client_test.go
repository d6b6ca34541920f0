package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"freshkeeper/internal/models"
)

func TestLookupBarcode_Found(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v0/product/8410128750145.json", r.URL.Path)
		assert.Contains(t, r.Header.Get("User-Agent"), "FreshKeeper")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": 1,
			"product": {
				"code": "8410128750145",
				"product_name": "Leche Semidesnatada",
				"brands": "Puleva",
				"categories": "Lácteos, Leches",
				"allergens": "en:milk",
				"image_url": "https://images.example/milk.jpg",
				"nutriments": {
					"energy-kcal_100g": 46,
					"energy-kcal_unit": "kcal",
					"proteins_100g": 3.1,
					"proteins_unit": "g",
					"fat": 1.6,
					"fat_unit": "g",
					"nutrition-score-fr": "c"
				}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	product, err := client.LookupBarcode(context.Background(), "8410128750145")

	require.NoError(t, err)
	require.NotNil(t, product)
	assert.Equal(t, "Leche Semidesnatada", product.Name)
	assert.Equal(t, "8410128750145", *product.Barcode)
	assert.Equal(t, "Puleva", *product.Brand)
	assert.Equal(t, "Lácteos", *product.Category)
	assert.Equal(t, []string{"leche"}, product.Allergens)
	assert.Equal(t, models.SourceExternalCatalog, product.Source)
	assert.True(t, product.IsVerified)
	require.NotNil(t, product.NutritionalInfo)
	assert.Equal(t, 46.0, *product.NutritionalInfo.Calories)
	assert.Equal(t, 3.1, *product.NutritionalInfo.Protein)
	assert.Equal(t, 1.6, *product.NutritionalInfo.Fat)
}

func TestLookupBarcode_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": 0, "status_verbose": "product not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	product, err := client.LookupBarcode(context.Background(), "0000000000000")

	assert.NoError(t, err)
	assert.Nil(t, product)
}

func TestLookupBarcode_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	product, err := client.LookupBarcode(context.Background(), "8410128750145")

	assert.Nil(t, product)
	assert.True(t, errors.Is(err, models.ErrUpstreamUnavailable))
}

func TestSearchByText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi/search.pl", r.URL.Path)
		query := r.URL.Query()
		assert.Equal(t, "coca cola", query.Get("search_terms"))
		assert.Equal(t, "1", query.Get("json"))
		assert.Equal(t, "5", query.Get("page_size"))
		assert.Equal(t, "es", query.Get("lang"))
		w.Write([]byte(`{
			"products": [
				{"code": "5449000000996", "product_name": "Coca-Cola", "brands": "Coca-Cola", "categories": "Beverages"},
				{"_id": "123", "product_name_es": "Cola Genérica"},
				{"code": "999", "brands": "Nameless Brand"}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	products, err := client.SearchByText(context.Background(), "coca cola", "es", 5)

	require.NoError(t, err)
	// The record without any usable name is dropped.
	require.Len(t, products, 2)
	assert.Equal(t, "Coca-Cola", products[0].Name)
	assert.Equal(t, "5449000000996", *products[0].Barcode)
	assert.Equal(t, "Bebidas", *products[0].Category)
	assert.Equal(t, "Cola Genérica", products[1].Name)
	assert.Equal(t, "123", *products[1].Barcode)
}

func TestSearchByText_EmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	products, err := client.SearchByText(context.Background(), "zzzz", "es", 5)

	assert.NoError(t, err)
	assert.Empty(t, products)
}

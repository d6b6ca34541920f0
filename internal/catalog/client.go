// Package catalog talks to the Open Food Facts HTTP API and maps its
// loosely-typed records into canonical products.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"freshkeeper/internal/models"
)

const (
	defaultBaseURL = "https://world.openfoodfacts.org"
	userAgent      = "FreshKeeper/1.0 (https://freshkeeper.app)"
	defaultTimeout = 8 * time.Second
)

// Client queries the external food catalog. Not-found is reported as a nil
// product, not an error; errors mean the upstream was unreachable or
// answered with a non-2xx status.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// barcodeEnvelope is the /api/v0/product/{code}.json response. Status 1
// means found, 0 means unknown barcode.
type barcodeEnvelope struct {
	Status  int        `json:"status"`
	Product *rawRecord `json:"product"`
}

type searchEnvelope struct {
	Products []rawRecord `json:"products"`
}

// LookupBarcode fetches a single product by barcode. Returns (nil, nil)
// when the catalog does not know the code.
func (c *Client) LookupBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	endpoint := fmt.Sprintf("%s/api/v0/product/%s.json", c.baseURL, url.PathEscape(barcode))

	var envelope barcodeEnvelope
	if err := c.getJSON(ctx, endpoint, &envelope); err != nil {
		return nil, err
	}
	if envelope.Status != 1 || envelope.Product == nil {
		return nil, nil
	}
	product := normalizeRecord(*envelope.Product)
	product.Barcode = &barcode
	return product, nil
}

// SearchByText runs the free-text search endpoint. An empty slice is a
// valid outcome, not an error.
func (c *Client) SearchByText(ctx context.Context, query, language string, maxResults int) ([]models.Product, error) {
	if maxResults <= 0 {
		maxResults = 20
	}
	params := url.Values{}
	params.Set("search_terms", query)
	params.Set("search_simple", "1")
	params.Set("action", "process")
	params.Set("json", "1")
	params.Set("page_size", strconv.Itoa(maxResults))
	params.Set("lang", language)
	endpoint := c.baseURL + "/cgi/search.pl?" + params.Encode()

	var envelope searchEnvelope
	if err := c.getJSON(ctx, endpoint, &envelope); err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(envelope.Products))
	for _, record := range envelope.Products {
		normalized := normalizeRecord(record)
		if normalized.Name == "" {
			continue
		}
		if code := record.bestCode(); code != "" {
			normalized.Barcode = &code
		}
		products = append(products, *normalized)
	}
	return products, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: catalog returned status %d", models.ErrUpstreamUnavailable, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	apperrors "github.com/avelane/cartwish/pkg/errors"
	"github.com/avelane/cartwish/pkg/httpclient"

	"github.com/avelane/cartwish/internal/domain"
)

// Client fetches product snapshots from the remote product API. It is used
// when a consumer adds a bare product ID without supplying the
// denormalized display fields itself.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
}

// NewClient creates a catalog client for the given base URL.
func NewClient(http *httpclient.CircuitBreakerClient, baseURL string) *Client {
	return &Client{http: http, baseURL: baseURL}
}

// productResponse mirrors the product API's {data:{...}} envelope.
type productResponse struct {
	Data *struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		ImageURL string `json:"image_url"`
		Category string `json:"category"`
		Price    int64  `json:"price"`
	} `json:"data"`
}

// GetProduct returns the add-time snapshot for a product.
func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	reqURL := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, url.PathEscape(productID))

	resp, err := c.http.Get(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", productID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "product service")
	}

	var body productResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode product %s: %w", productID, err)
	}
	if body.Data == nil {
		return nil, apperrors.NotFound("product", productID)
	}

	return &domain.Product{
		ProductID: body.Data.ID,
		Name:      body.Data.Name,
		ImageURL:  body.Data.ImageURL,
		Category:  body.Data.Category,
		UnitPrice: body.Data.Price,
	}, nil
}

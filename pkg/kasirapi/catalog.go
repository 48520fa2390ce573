package kasirapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/models"
	"github.com/kasirpos/kasir-terminal/pkg/pagination"
)

// ProductQuery filters the backend product listing. Zero values are omitted.
type ProductQuery struct {
	Search     string
	CategoryID int64
	SortBy     string
	Order      string
	Page       int
	PageSize   int
}

func (q ProductQuery) values() url.Values {
	values := url.Values{}
	if s := strings.TrimSpace(q.Search); s != "" {
		values.Set("search", s)
	}
	if q.CategoryID > 0 {
		values.Set("category", strconv.FormatInt(q.CategoryID, 10))
	}
	if q.SortBy != "" {
		values.Set("sortBy", q.SortBy)
	}
	if q.Order != "" {
		values.Set("order", q.Order)
	}
	if q.Page > 0 {
		values.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		values.Set("pageSize", strconv.Itoa(q.PageSize))
	}
	return values
}

// ProductPage is one page of the backend product listing.
type ProductPage struct {
	Data []models.Product `json:"data"`
	Meta pagination.Meta  `json:"meta"`
}

// ListProducts returns a page of products.
func (c *Client) ListProducts(ctx context.Context, query ProductQuery) (*ProductPage, error) {
	body, err := c.read(ctx, "/product", query.values(), "list products")
	if err != nil {
		return nil, err
	}
	var page ProductPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode list products response")
	}
	if page.Data == nil {
		page.Data = []models.Product{}
	}
	return &page, nil
}

// GetProduct fetches the current listing of one product.
func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	body, err := c.read(ctx, fmt.Sprintf("/product/%d", id), nil, "get product")
	if err != nil {
		return nil, err
	}
	var product models.Product
	if err := decodeData(body, "get product", &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListCategories returns every product category.
func (c *Client) ListCategories(ctx context.Context) ([]models.Category, error) {
	body, err := c.read(ctx, "/category", nil, "list categories")
	if err != nil {
		return nil, err
	}
	categories := []models.Category{}
	if err := decodeData(body, "list categories", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ListPaymentMethods returns the tender types available at checkout.
func (c *Client) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	body, err := c.read(ctx, "/bayar", nil, "list payment methods")
	if err != nil {
		return nil, err
	}
	methods := []models.PaymentMethod{}
	if err := decodeData(body, "list payment methods", &methods); err != nil {
		return nil, err
	}
	return methods, nil
}

package catalog

import (
	"context"
	"strings"

	"github.com/kasirpos/kasir-terminal/pkg/enums"
	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/kasirapi"
	"github.com/kasirpos/kasir-terminal/pkg/models"
	"github.com/kasirpos/kasir-terminal/pkg/pagination"
)

type backend interface {
	ListProducts(ctx context.Context, query kasirapi.ProductQuery) (*kasirapi.ProductPage, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
}

// Service reads the product catalog through the Kasir backend.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductList, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error)
}

// ListProductsInput captures the cashier's product search.
type ListProductsInput struct {
	Search     string
	CategoryID int64
	SortBy     enums.ProductSortField
	Order      enums.SortOrder
	Pagination pagination.Params
	// OnlyAvailable hides products with no stock from the returned page. The
	// pagination meta still describes the backend's unfiltered page.
	OnlyAvailable bool
}

// ProductList is a page of products plus the backend pagination meta.
type ProductList struct {
	Products []models.Product
	Meta     pagination.Meta
}

type service struct {
	backend backend
}

// NewService wires the catalog over the backend client.
func NewService(b backend) (Service, error) {
	if b == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "kasir backend client required")
	}
	return &service{backend: b}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductList, error) {
	if input.CategoryID < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category must be positive")
	}
	if input.SortBy == "" {
		input.SortBy = enums.ProductSortName
	}
	if !input.SortBy.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort field")
	}
	if input.Order == "" {
		input.Order = enums.SortOrderAsc
	}
	if !input.Order.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must be asc or desc")
	}
	params := input.Pagination.Normalize()

	page, err := s.backend.ListProducts(ctx, kasirapi.ProductQuery{
		Search:     strings.TrimSpace(input.Search),
		CategoryID: input.CategoryID,
		SortBy:     input.SortBy.String(),
		Order:      input.Order.String(),
		Page:       params.Page,
		PageSize:   params.PageSize,
	})
	if err != nil {
		return nil, err
	}

	products := page.Data
	if input.OnlyAvailable {
		products = filterAvailable(products)
	}
	if products == nil {
		products = []models.Product{}
	}
	return &ProductList{Products: products, Meta: page.Meta}, nil
}

func (s *service) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id must be positive")
	}
	return s.backend.GetProduct(ctx, id)
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.backend.ListCategories(ctx)
}

func (s *service) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	return s.backend.ListPaymentMethods(ctx)
}

func filterAvailable(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.InStock() {
			out = append(out, p)
		}
	}
	return out
}

package controllers

import (
	"net/http"

	"github.com/kasirpos/kasir-terminal/api/responses"
	"github.com/kasirpos/kasir-terminal/api/validators"
	"github.com/kasirpos/kasir-terminal/internal/catalog"
	"github.com/kasirpos/kasir-terminal/pkg/enums"
	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/logger"
	"github.com/kasirpos/kasir-terminal/pkg/pagination"
)

const maxSearchLength = 100

// CatalogProducts lists products for the cashier's product picker.
func CatalogProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		input, err := parseProductQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessMeta(w, list.Products, list.Meta)
	}
}

func parseProductQuery(r *http.Request) (catalog.ListProductsInput, error) {
	q := r.URL.Query()

	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return catalog.ListProductsInput{}, err
	}
	pageSize, err := validators.ParseQueryInt(r, "pageSize", pagination.DefaultPageSize, 1, pagination.MaxPageSize)
	if err != nil {
		return catalog.ListProductsInput{}, err
	}
	categoryID, err := validators.ParseQueryID(r, "category")
	if err != nil {
		return catalog.ListProductsInput{}, err
	}
	onlyAvailable, err := validators.ParseQueryBool(r, "onlyAvailable")
	if err != nil {
		return catalog.ListProductsInput{}, err
	}
	sortBy, err := enums.ParseProductSortField(q.Get("sortBy"))
	if err != nil {
		return catalog.ListProductsInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sortBy")
	}
	order, err := enums.ParseSortOrder(q.Get("order"))
	if err != nil {
		return catalog.ListProductsInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order")
	}

	return catalog.ListProductsInput{
		Search:        validators.SanitizeString(q.Get("search"), maxSearchLength),
		CategoryID:    categoryID,
		SortBy:        sortBy,
		Order:         order,
		Pagination:    pagination.Params{Page: page, PageSize: pageSize},
		OnlyAvailable: onlyAvailable,
	}, nil
}

func CatalogProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := validators.ParsePathID(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

func CatalogCategories(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		categories, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, categories)
	}
}

func CatalogPaymentMethods(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		methods, err := svc.ListPaymentMethods(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, methods)
	}
}

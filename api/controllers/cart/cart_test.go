package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kasirpos/kasir-terminal/api/middleware"
	cartsvc "github.com/kasirpos/kasir-terminal/internal/cart"
	"github.com/kasirpos/kasir-terminal/pkg/enums"
	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/models"
	"github.com/shopspring/decimal"
)

type stubProducts map[int64]models.Product

func (s stubProducts) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	p, ok := s[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	products := stubProducts{
		1: {
			ID:              1,
			Name:            "Indomie Goreng",
			RetailPrice:     decimal.NewFromInt(3500),
			WholesalePrice:  decimal.NewFromInt(3000),
			WholesaleMinQty: 2,
			Stock:           3,
		},
	}
	svc, err := cartsvc.NewService(cartsvc.NewMemoryStore(time.Hour), products, nil)
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithSessionKey(r.Context(), "cashier-1")))
		})
	})
	r.Get("/cart", CartFetch(svc, nil))
	r.Delete("/cart", CartClear(svc, nil))
	r.Post("/cart/items", CartAddItem(svc, nil))
	r.Post("/cart/items/{productID}/decrement", CartDecrementItem(svc, nil))
	r.Delete("/cart/items/{productID}", CartRemoveItem(svc, nil))
	r.Post("/cart/refresh", CartRefresh(svc, nil))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, CartView) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)

	var envelope struct {
		Data CartView `json:"data"`
	}
	if resp.Code == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp, envelope.Data
}

func TestCartAddAppliesWholesaleTier(t *testing.T) {
	h := newTestRouter(t)

	resp, view := do(t, h, http.MethodPost, "/cart/items", `{"productId":1}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if view.Lines[0].Tier != enums.PriceTierRetail {
		t.Fatalf("expected retail tier, got %s", view.Lines[0].Tier)
	}

	_, view = do(t, h, http.MethodPost, "/cart/items", `{"productId":1}`)
	if len(view.Lines) != 1 || view.Lines[0].Qty != 2 {
		t.Fatalf("expected one line with qty 2, got %+v", view.Lines)
	}
	if view.Lines[0].Tier != enums.PriceTierWholesale {
		t.Fatalf("expected wholesale tier, got %s", view.Lines[0].Tier)
	}
	if !view.Total.Equal(decimal.NewFromInt(6000)) {
		t.Fatalf("expected total 6000, got %s", view.Total)
	}
	if view.ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", view.ItemCount)
	}
}

func TestCartAddBeyondStockReturns422(t *testing.T) {
	h := newTestRouter(t)
	for i := 0; i < 3; i++ {
		do(t, h, http.MethodPost, "/cart/items", `{"productId":1}`)
	}

	resp, _ := do(t, h, http.MethodPost, "/cart/items", `{"productId":1}`)
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}

	_, view := do(t, h, http.MethodGet, "/cart", "")
	if view.Lines[0].Qty != 3 {
		t.Fatalf("expected qty to stay 3, got %d", view.Lines[0].Qty)
	}
}

func TestCartAddUnknownProduct(t *testing.T) {
	h := newTestRouter(t)

	resp, _ := do(t, h, http.MethodPost, "/cart/items", `{"productId":99}`)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestCartAddRejectsMissingProductID(t *testing.T) {
	h := newTestRouter(t)

	resp, _ := do(t, h, http.MethodPost, "/cart/items", `{}`)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartDecrementAndRemove(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodPost, "/cart/items", `{"productId":1}`)
	do(t, h, http.MethodPost, "/cart/items", `{"productId":1}`)

	resp, view := do(t, h, http.MethodPost, "/cart/items/1/decrement", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if view.Lines[0].Qty != 1 || view.Lines[0].Tier != enums.PriceTierRetail {
		t.Fatalf("expected qty 1 at retail, got %+v", view.Lines[0])
	}

	resp, view = do(t, h, http.MethodDelete, "/cart/items/1", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if len(view.Lines) != 0 || !view.Total.IsZero() {
		t.Fatalf("expected empty cart, got %+v", view)
	}
}

func TestCartDecrementRejectsBadPathID(t *testing.T) {
	h := newTestRouter(t)

	resp, _ := do(t, h, http.MethodPost, "/cart/items/abc/decrement", "")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartClear(t *testing.T) {
	h := newTestRouter(t)
	do(t, h, http.MethodPost, "/cart/items", `{"productId":1}`)

	resp, _ := do(t, h, http.MethodDelete, "/cart", "")
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", resp.Code)
	}

	_, view := do(t, h, http.MethodGet, "/cart", "")
	if len(view.Lines) != 0 {
		t.Fatalf("expected cleared cart, got %+v", view.Lines)
	}
}

func TestCartFetchRequiresSession(t *testing.T) {
	svc, err := cartsvc.NewService(cartsvc.NewMemoryStore(time.Hour), stubProducts{}, nil)
	if err != nil {
		t.Fatalf("new cart service: %v", err)
	}

	resp := httptest.NewRecorder()
	CartFetch(svc, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/cart", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kasirpos/kasir-terminal/api/middleware"
	"github.com/kasirpos/kasir-terminal/internal/catalog"
	"github.com/kasirpos/kasir-terminal/internal/checkout"
	"github.com/kasirpos/kasir-terminal/internal/receipt"
	"github.com/kasirpos/kasir-terminal/pkg/config"
	"github.com/kasirpos/kasir-terminal/pkg/enums"
	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/models"
	"github.com/kasirpos/kasir-terminal/pkg/pagination"
	"github.com/shopspring/decimal"
)

type stubCatalog struct {
	lastInput catalog.ListProductsInput
	list      *catalog.ProductList
	err       error
}

func (s *stubCatalog) ListProducts(ctx context.Context, input catalog.ListProductsInput) (*catalog.ProductList, error) {
	s.lastInput = input
	return s.list, s.err
}

func (s *stubCatalog) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &models.Product{ID: id, Name: "Aqua 600ml"}, nil
}

func (s *stubCatalog) ListCategories(ctx context.Context) ([]models.Category, error) {
	return []models.Category{{ID: 1, Name: "Minuman"}}, s.err
}

func (s *stubCatalog) ListPaymentMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	return []models.PaymentMethod{{ID: 1, Name: "Tunai"}}, s.err
}

type stubCheckout struct {
	session string
	method  int64
	result  *checkout.Result
	err     error
}

func (s *stubCheckout) Submit(ctx context.Context, sessionKey string, paymentMethodID int64) (*checkout.Result, error) {
	s.session = sessionKey
	s.method = paymentMethodID
	return s.result, s.err
}

type stubReceipts struct {
	rec     *receipt.Receipt
	err     error
	emailed int64
}

func (s *stubReceipts) Get(ctx context.Context, orderID int64) (*receipt.Receipt, error) {
	return s.rec, s.err
}

func (s *stubReceipts) Email(ctx context.Context, orderID int64) error {
	s.emailed = orderID
	return s.err
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

func TestCatalogProductsParsesQuery(t *testing.T) {
	svc := &stubCatalog{list: &catalog.ProductList{
		Products: []models.Product{{ID: 1, Name: "Aqua 600ml"}},
		Meta:     pagination.Meta{Total: 1, Page: 2, PageSize: 20, TotalPages: 1},
	}}
	req := httptest.NewRequest(http.MethodGet, "/products?search=%20aqua%20&category=3&sortBy=hargaJualRetail&order=desc&page=2&pageSize=20&onlyAvailable=true", nil)
	resp := httptest.NewRecorder()
	CatalogProducts(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	in := svc.lastInput
	if in.Search != "aqua" || in.CategoryID != 3 || in.SortBy != enums.ProductSortRetailPrice || in.Order != enums.SortOrderDesc {
		t.Fatalf("unexpected input %+v", in)
	}
	if in.Pagination.Page != 2 || in.Pagination.PageSize != 20 || !in.OnlyAvailable {
		t.Fatalf("unexpected paging %+v", in)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["meta"]; !ok {
		t.Fatalf("expected meta block, got %v", body)
	}
}

func TestCatalogProductsRejectsBadSort(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products?sortBy=stok", nil)
	resp := httptest.NewRecorder()
	CatalogProducts(&stubCatalog{}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCatalogProductsSurfacesBackendOutage(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	resp := httptest.NewRecorder()
	CatalogProducts(&stubCatalog{err: pkgerrors.New(pkgerrors.CodeDependency, "down")}, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestCatalogProductUsesPathID(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/products/{productID}", CatalogProduct(&stubCatalog{}, nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/products/12", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data models.Product `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.ID != 12 {
		t.Fatalf("expected product 12, got %d", envelope.Data.ID)
	}
}

func TestCheckoutSubmitReturnsCreated(t *testing.T) {
	svc := &stubCheckout{result: &checkout.Result{OrderID: 42, ReceiptPath: "/api/v1/receipts/42"}}
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"paymentMethodId":2}`))
	req = req.WithContext(middleware.WithSessionKey(req.Context(), "cashier-7"))
	resp := httptest.NewRecorder()
	CheckoutSubmit(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.session != "cashier-7" || svc.method != 2 {
		t.Fatalf("unexpected submission %q %d", svc.session, svc.method)
	}
	var envelope struct {
		Data checkout.Result `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.OrderID != 42 || envelope.Data.ReceiptPath != "/api/v1/receipts/42" {
		t.Fatalf("unexpected result %+v", envelope.Data)
	}
}

func TestCheckoutSubmitRejectsMissingPaymentMethod(t *testing.T) {
	svc := &stubCheckout{}
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"paymentMethodId":0}`))
	req = req.WithContext(middleware.WithSessionKey(req.Context(), "cashier-7"))
	resp := httptest.NewRecorder()
	CheckoutSubmit(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if svc.session != "" {
		t.Fatalf("service must not be called on invalid input")
	}
}

func TestCheckoutSubmitInFlight(t *testing.T) {
	svc := &stubCheckout{err: pkgerrors.New(pkgerrors.CodeInFlight, "checkout already in progress")}
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"paymentMethodId":1}`))
	req = req.WithContext(middleware.WithSessionKey(req.Context(), "cashier-7"))
	resp := httptest.NewRecorder()
	CheckoutSubmit(svc, nil).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func sampleReceipt() *receipt.Receipt {
	return &receipt.Receipt{
		OrderID:           5,
		Number:            receipt.Number(5),
		CashierName:       "Sari",
		PaymentMethodName: "Tunai",
		CreatedAt:         time.Date(2024, 3, 1, 3, 0, 0, 0, time.UTC),
		Lines: []receipt.AggregatedLine{
			{ProductID: 1, Name: "Aqua 600ml", Qty: 2, UnitPrice: decimal.NewFromInt(3000), Subtotal: decimal.NewFromInt(6000)},
		},
		Total: decimal.NewFromInt(6000),
	}
}

func receiptRouter(svc receipt.Service) http.Handler {
	r := chi.NewRouter()
	r.Get("/receipts/{orderID}", ReceiptFetch(svc, nil))
	r.Get("/receipts/{orderID}/text", ReceiptText(svc, nil))
	r.Post("/receipts/{orderID}/email", ReceiptEmail(svc, nil))
	return r
}

func TestReceiptFetchJSON(t *testing.T) {
	resp := httptest.NewRecorder()
	receiptRouter(&stubReceipts{rec: sampleReceipt()}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/receipts/5", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data receipt.Receipt `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.Number != "TRX-005" || len(envelope.Data.Lines) != 1 {
		t.Fatalf("unexpected receipt %+v", envelope.Data)
	}
}

func TestReceiptTextRendersPlainText(t *testing.T) {
	resp := httptest.NewRecorder()
	receiptRouter(&stubReceipts{rec: sampleReceipt()}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/receipts/5/text", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.HasPrefix(resp.Header().Get("Content-Type"), "text/plain") {
		t.Fatalf("unexpected content type %q", resp.Header().Get("Content-Type"))
	}
	if !strings.Contains(resp.Body.String(), "TRX-005") {
		t.Fatalf("expected receipt number in body:\n%s", resp.Body.String())
	}
}

func TestReceiptFetchNotFound(t *testing.T) {
	resp := httptest.NewRecorder()
	svc := &stubReceipts{err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found")}
	receiptRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/receipts/9", nil))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestReceiptEmail(t *testing.T) {
	svc := &stubReceipts{}
	resp := httptest.NewRecorder()
	receiptRouter(svc).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/receipts/5/email", nil))

	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", resp.Code)
	}
	if svc.emailed != 5 {
		t.Fatalf("expected order 5 emailed, got %d", svc.emailed)
	}
}

func TestHealthReadyPingsSessionStore(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, stubPinger{}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	HealthReady(cfg, stubPinger{err: errors.New("connection refused")}, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	HealthReady(cfg, nil, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 without redis, got %d", resp.Code)
	}
}

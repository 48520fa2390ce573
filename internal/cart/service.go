package cart

import (
	"context"
	"fmt"
	"strings"

	pkgerrors "github.com/kasirpos/kasir-terminal/pkg/errors"
	"github.com/kasirpos/kasir-terminal/pkg/metrics"
	"github.com/kasirpos/kasir-terminal/pkg/models"
	"go.uber.org/multierr"
)

const (
	opAdd       = "add"
	opDecrement = "decrement"
	opRemove    = "remove"
	opClear     = "clear"
	opRefresh   = "refresh"
)

type productLoader interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

type mutationRecorder interface {
	IncCartMutation(operation, outcome string)
}

// SubmissionCheck reports whether an order for the session is being
// submitted. Writes are refused meanwhile so nothing added after the order
// was built is lost when the cart is emptied.
type SubmissionCheck interface {
	InFlight(ctx context.Context, sessionKey string) (bool, error)
}

// Option customizes the cart service.
type Option func(*service)

// WithLocker replaces the in-process session lock, e.g. with a RedisLocker
// when several instances share one store.
func WithLocker(locker Locker) Option {
	return func(s *service) {
		if locker != nil {
			s.locks = locker
		}
	}
}

// WithSubmissionCheck refuses cart writes while an order is in flight.
func WithSubmissionCheck(check SubmissionCheck) Option {
	return func(s *service) {
		s.submissions = check
	}
}

// Service exposes the cashier's cart for one session key at a time.
type Service interface {
	Get(ctx context.Context, sessionKey string) (*Ledger, error)
	Add(ctx context.Context, sessionKey string, productID int64) (*Ledger, error)
	Decrement(ctx context.Context, sessionKey string, productID int64) (*Ledger, error)
	Remove(ctx context.Context, sessionKey string, productID int64) (*Ledger, error)
	Clear(ctx context.Context, sessionKey string) error
	Refresh(ctx context.Context, sessionKey string) (*Ledger, []Adjustment, error)
}

type service struct {
	store    Store
	products productLoader
	metrics  mutationRecorder
	locks    Locker

	submissions SubmissionCheck
}

// NewService builds a cart service over the provided session store. Products
// are resolved through the catalog each time a unit is added.
func NewService(store Store, products productLoader, recorder mutationRecorder, opts ...Option) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if recorder == nil {
		recorder = (*metrics.POSMetrics)(nil)
	}
	svc := &service{
		store:    store,
		products: products,
		metrics:  recorder,
		locks:    newSessionLocks(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

func (s *service) Get(ctx context.Context, sessionKey string) (*Ledger, error) {
	if err := validateSessionKey(sessionKey); err != nil {
		return nil, err
	}
	unlock, err := s.locks.Lock(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.load(ctx, sessionKey)
}

func (s *service) Add(ctx context.Context, sessionKey string, productID int64) (*Ledger, error) {
	if err := validateSessionKey(sessionKey); err != nil {
		return nil, err
	}
	if err := validateProductID(productID); err != nil {
		return nil, err
	}
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		s.metrics.IncCartMutation(opAdd, metrics.OutcomeFailure)
		return nil, err
	}
	if product == nil {
		s.metrics.IncCartMutation(opAdd, metrics.OutcomeFailure)
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	return s.mutate(ctx, sessionKey, opAdd, func(l *Ledger) error {
		_, err := l.AddOrIncrement(*product)
		return err
	})
}

func (s *service) Decrement(ctx context.Context, sessionKey string, productID int64) (*Ledger, error) {
	if err := validateProductID(productID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionKey, opDecrement, func(l *Ledger) error {
		if _, ok := l.Decrement(productID); !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the cart")
		}
		return nil
	})
}

func (s *service) Remove(ctx context.Context, sessionKey string, productID int64) (*Ledger, error) {
	if err := validateProductID(productID); err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionKey, opRemove, func(l *Ledger) error {
		l.Remove(productID)
		return nil
	})
}

func (s *service) Clear(ctx context.Context, sessionKey string) error {
	if err := validateSessionKey(sessionKey); err != nil {
		return err
	}
	unlock, err := s.locks.Lock(ctx, sessionKey)
	if err != nil {
		s.metrics.IncCartMutation(opClear, metrics.OutcomeFailure)
		return err
	}
	defer unlock()

	if err := s.store.Delete(ctx, sessionKey); err != nil {
		s.metrics.IncCartMutation(opClear, metrics.OutcomeFailure)
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
	}
	s.metrics.IncCartMutation(opClear, metrics.OutcomeSuccess)
	return nil
}

// Refresh re-reads every line's product from the catalog. Products the catalog
// no longer knows are dropped. Any other lookup failure aborts the refresh and
// leaves the stored cart untouched.
func (s *service) Refresh(ctx context.Context, sessionKey string) (*Ledger, []Adjustment, error) {
	if err := validateSessionKey(sessionKey); err != nil {
		return nil, nil, err
	}
	unlock, err := s.locks.Lock(ctx, sessionKey)
	if err != nil {
		s.metrics.IncCartMutation(opRefresh, metrics.OutcomeFailure)
		return nil, nil, err
	}
	defer unlock()

	if err := s.ensureNotSubmitting(ctx, sessionKey); err != nil {
		s.metrics.IncCartMutation(opRefresh, metrics.OutcomeRejected)
		return nil, nil, err
	}
	ledger, err := s.load(ctx, sessionKey)
	if err != nil {
		return nil, nil, err
	}

	current := make(map[int64]models.Product, ledger.Len())
	var errs error
	for _, line := range ledger.Lines() {
		product, err := s.products.GetProduct(ctx, line.Product.ID)
		switch {
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			continue
		case err != nil:
			errs = multierr.Append(errs, fmt.Errorf("product %d: %w", line.Product.ID, err))
		case product != nil:
			current[product.ID] = *product
		}
	}
	if errs != nil {
		s.metrics.IncCartMutation(opRefresh, metrics.OutcomeFailure)
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "refresh cart from catalog")
	}

	adjustments := ledger.Refresh(current)
	if err := s.store.Save(ctx, sessionKey, ledger); err != nil {
		s.metrics.IncCartMutation(opRefresh, metrics.OutcomeFailure)
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart")
	}
	s.metrics.IncCartMutation(opRefresh, metrics.OutcomeSuccess)
	return ledger, adjustments, nil
}

// mutate applies fn to the session's cart under the session lock and saves
// the result only when fn succeeds.
func (s *service) mutate(ctx context.Context, sessionKey, op string, fn func(*Ledger) error) (*Ledger, error) {
	if err := validateSessionKey(sessionKey); err != nil {
		return nil, err
	}
	unlock, err := s.locks.Lock(ctx, sessionKey)
	if err != nil {
		s.metrics.IncCartMutation(op, metrics.OutcomeFailure)
		return nil, err
	}
	defer unlock()

	if err := s.ensureNotSubmitting(ctx, sessionKey); err != nil {
		s.metrics.IncCartMutation(op, metrics.OutcomeRejected)
		return nil, err
	}
	ledger, err := s.load(ctx, sessionKey)
	if err != nil {
		s.metrics.IncCartMutation(op, metrics.OutcomeFailure)
		return nil, err
	}
	if err := fn(ledger); err != nil {
		s.metrics.IncCartMutation(op, metrics.OutcomeRejected)
		return nil, err
	}
	if err := s.store.Save(ctx, sessionKey, ledger); err != nil {
		s.metrics.IncCartMutation(op, metrics.OutcomeFailure)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart")
	}
	s.metrics.IncCartMutation(op, metrics.OutcomeSuccess)
	return ledger, nil
}

// ensureNotSubmitting must run under the session lock. Checkout reads the cart
// through the same lock after taking its guard, so a write either lands
// before the order is built or is refused.
func (s *service) ensureNotSubmitting(ctx context.Context, sessionKey string) error {
	if s.submissions == nil {
		return nil
	}
	busy, err := s.submissions.InFlight(ctx, sessionKey)
	if err != nil {
		return err
	}
	if busy {
		return pkgerrors.New(pkgerrors.CodeInFlight, "an order for this cart is being submitted, wait for it to finish")
	}
	return nil
}

func (s *service) load(ctx context.Context, sessionKey string) (*Ledger, error) {
	ledger, err := s.store.Load(ctx, sessionKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return ledger, nil
}

func validateSessionKey(sessionKey string) error {
	if strings.TrimSpace(sessionKey) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "cashier session required")
	}
	return nil
}

func validateProductID(productID int64) error {
	if productID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "productId must be positive")
	}
	return nil
}

// Package cart holds the shopping cart domain and the store that serializes every mutation
// through stock checks, durable persistence and change notification.
package cart

import (
	"context"
	"errors"
	"sync"

	pkgerrors "github.com/angelmondragon/rocketcart/pkg/errors"
	"github.com/angelmondragon/rocketcart/pkg/logger"
)

const (
	opAdd    = "add"
	opUpdate = "update"
	opRemove = "remove"
	opClear  = "clear"
)

var failureMessages = map[string]string{
	opAdd:    msgAddFailed,
	opUpdate: msgUpdateFailed,
	opRemove: msgRemoveFailed,
	opClear:  msgClearFailed,
}

type StoreParams struct {
	Oracle    StockOracle
	Persister Persister
	Logger    *logger.Logger
	Recorder  Recorder
	Notifier  *Notifier
}

// UpdateAmount asks for an absolute quantity on an existing line.
type UpdateAmount struct {
	ProductID int64
	Amount    int
}

// InsufficientStock is attached as details when a requested quantity exceeds availability.
type InsufficientStock struct {
	ProductID int64 `json:"product_id"`
	Requested int   `json:"requested"`
	Available int   `json:"available"`
}

// Store owns the cart. Mutations run one at a time; readers always see the last committed cart.
type Store struct {
	oracle    StockOracle
	persister Persister
	logg      *logger.Logger
	recorder  Recorder
	notifier  *Notifier

	// sem is the single-writer slot. It is held across oracle calls and persistence.
	sem chan struct{}

	mu   sync.RWMutex
	cart Cart
}

// NewStore builds the store and restores the cart from the persister.
func NewStore(ctx context.Context, params StoreParams) (*Store, error) {
	if params.Oracle == nil {
		return nil, errors.New("cart store requires a stock oracle")
	}
	if params.Persister == nil {
		return nil, errors.New("cart store requires a persister")
	}
	if params.Logger == nil {
		params.Logger = logger.Nop()
	}
	if params.Recorder == nil {
		params.Recorder = nopRecorder{}
	}
	if params.Notifier == nil {
		params.Notifier = NewNotifier(params.Logger)
	}

	initial, err := params.Persister.Load(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart snapshot")
	}
	if err := initial.Validate(); err != nil {
		params.Logger.Warn(params.Logger.WithField(ctx, "error", err.Error()), "cart.snapshot_invalid")
		initial = Cart{}
	}

	return &Store{
		oracle:    params.Oracle,
		persister: params.Persister,
		logg:      params.Logger,
		recorder:  params.Recorder,
		notifier:  params.Notifier,
		sem:       make(chan struct{}, 1),
		cart:      initial.Clone(),
	}, nil
}

// Cart returns a copy of the committed cart.
func (s *Store) Cart() Cart {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Clone()
}

// Subscribe registers fn for committed carts and returns the unsubscribe function.
func (s *Store) Subscribe(fn Subscriber) func() {
	return s.notifier.Subscribe(fn)
}

// AddProduct puts one more unit of productID in the cart, creating the line from the catalog
// when the product is not in the cart yet.
func (s *Store) AddProduct(ctx context.Context, productID int64) (Result, error) {
	ctx = s.logg.WithProductID(s.logg.WithOperation(ctx, opAdd), productID)
	if productID <= 0 {
		return s.reject(ctx, opAdd, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidProduct))
	}
	if err := s.acquire(ctx); err != nil {
		return s.reject(ctx, opAdd, err)
	}
	defer s.release()

	current := s.Cart()
	if line, idx, ok := current.Find(productID); ok {
		return s.setAmount(ctx, opAdd, current, idx, line.Amount+1, msgNoStockToAdd)
	}

	available, err := s.oracle.GetStock(ctx, productID)
	if err != nil {
		return s.reject(ctx, opAdd, oracleError(err, msgAddFailed))
	}
	if available < 1 {
		return s.reject(ctx, opAdd, insufficient(msgNoStockToAdd, productID, 1, available))
	}

	product, err := s.oracle.GetProduct(ctx, productID)
	if err != nil {
		return s.reject(ctx, opAdd, oracleError(err, msgAddFailed))
	}
	if product.ID != productID {
		return s.reject(ctx, opAdd, pkgerrors.New(pkgerrors.CodeDependency, msgBadCatalogEntry))
	}
	line, err := NewLine(product, 1)
	if err != nil {
		return s.reject(ctx, opAdd, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgBadCatalogEntry))
	}

	next := current.withLine(line)
	return s.commit(ctx, opAdd, next, OutcomeAdded, func(ctx context.Context) error {
		return s.persister.Save(ctx, next)
	})
}

// UpdateProductAmount sets an absolute quantity on an existing line. A product that is not in
// the cart leaves everything untouched.
func (s *Store) UpdateProductAmount(ctx context.Context, req UpdateAmount) (Result, error) {
	ctx = s.logg.WithProductID(s.logg.WithOperation(ctx, opUpdate), req.ProductID)
	if req.ProductID <= 0 {
		return s.reject(ctx, opUpdate, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidProduct))
	}
	if req.Amount <= 1 {
		return s.reject(ctx, opUpdate, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidQuantity).
			WithDetails(map[string]int{"amount": req.Amount}))
	}
	if err := s.acquire(ctx); err != nil {
		return s.reject(ctx, opUpdate, err)
	}
	defer s.release()

	current := s.Cart()
	_, idx, ok := current.Find(req.ProductID)
	if !ok {
		s.recorder.ObserveOperation(opUpdate, string(OutcomeUnchanged))
		s.logg.Debug(ctx, "cart.update_skipped")
		return newResult(OutcomeUnchanged, current), nil
	}
	return s.setAmount(ctx, opUpdate, current, idx, req.Amount, msgOutOfStock)
}

// RemoveProduct deletes the line for productID.
func (s *Store) RemoveProduct(ctx context.Context, productID int64) (Result, error) {
	ctx = s.logg.WithProductID(s.logg.WithOperation(ctx, opRemove), productID)
	if err := s.acquire(ctx); err != nil {
		return s.reject(ctx, opRemove, err)
	}
	defer s.release()

	current := s.Cart()
	_, idx, ok := current.Find(productID)
	if !ok {
		return s.reject(ctx, opRemove, pkgerrors.New(pkgerrors.CodeNotFound, msgNotInCart))
	}

	next := current.without(idx)
	return s.commit(ctx, opRemove, next, OutcomeRemoved, func(ctx context.Context) error {
		return s.persister.Save(ctx, next)
	})
}

// ClearCart empties the cart and deletes the snapshot. Clearing an empty cart succeeds.
func (s *Store) ClearCart(ctx context.Context) (Result, error) {
	ctx = s.logg.WithOperation(ctx, opClear)
	if err := s.acquire(ctx); err != nil {
		return s.reject(ctx, opClear, err)
	}
	defer s.release()

	return s.commit(ctx, opClear, Cart{}, OutcomeCleared, s.persister.Clear)
}

func (s *Store) setAmount(ctx context.Context, op string, current Cart, idx, amount int, stockMsg string) (Result, error) {
	line := current[idx]
	available, err := s.oracle.GetStock(ctx, line.ID)
	if err != nil {
		return s.reject(ctx, op, oracleError(err, failureMessages[op]))
	}
	if amount > available {
		return s.reject(ctx, op, insufficient(stockMsg, line.ID, amount, available))
	}

	outcome := OutcomeDecreased
	if amount > line.Amount {
		outcome = OutcomeIncreased
	}
	next := current.withAmount(idx, amount)
	return s.commit(ctx, op, next, outcome, func(ctx context.Context) error {
		return s.persister.Save(ctx, next)
	})
}

// commit persists first. Memory and subscribers only see next once the write succeeded.
func (s *Store) commit(ctx context.Context, op string, next Cart, outcome Outcome, write func(context.Context) error) (Result, error) {
	if err := write(ctx); err != nil {
		return s.reject(ctx, op, pkgerrors.Wrap(pkgerrors.CodeDependency, err, failureMessages[op]))
	}

	s.mu.Lock()
	s.cart = next.Clone()
	s.mu.Unlock()

	s.recorder.ObserveOperation(op, string(outcome))
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"outcome": string(outcome),
		"lines":   len(next),
		"units":   next.Units(),
	}), "cart.committed")

	s.notifier.Publish(ctx, next)
	return newResult(outcome, next), nil
}

func (s *Store) reject(ctx context.Context, op string, err error) (Result, error) {
	code := pkgerrors.CodeInternal
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
	}
	s.recorder.ObserveOperation(op, string(code))

	ctx = s.logg.WithField(ctx, "error_code", string(code))
	if pkgerrors.MetadataFor(code).HTTPStatus >= 500 {
		s.logg.Error(ctx, "cart.rejected", err)
	} else {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "cart.rejected")
	}
	return Result{}, err
}

func (s *Store) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), msgStoreBusy)
	}
}

func (s *Store) release() {
	<-s.sem
}

// oracleError keeps not-found answers from the inventory and turns everything else into a
// retryable dependency failure.
func oracleError(err error, message string) error {
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, message)
}

func insufficient(message string, productID int64, requested, available int) error {
	return pkgerrors.New(pkgerrors.CodeInsufficientStock, message).WithDetails(InsufficientStock{
		ProductID: productID,
		Requested: requested,
		Available: available,
	})
}

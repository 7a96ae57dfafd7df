package cart

import (
	"context"
	stdErrors "errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/angelmondragon/rocketcart/pkg/errors"
)

type stubOracle struct {
	mu         sync.Mutex
	stock      map[int64]int
	products   map[int64]Product
	stockErr   error
	productErr error
	stockCalls atomic.Int64
}

func (o *stubOracle) GetStock(_ context.Context, productID int64) (int, error) {
	o.stockCalls.Add(1)
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stockErr != nil {
		return 0, o.stockErr
	}
	amount, ok := o.stock[productID]
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "stock not found")
	}
	return amount, nil
}

func (o *stubOracle) GetProduct(_ context.Context, productID int64) (Product, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.productErr != nil {
		return Product{}, o.productErr
	}
	product, ok := o.products[productID]
	if !ok {
		return Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return product, nil
}

type stubPersister struct {
	mu       sync.Mutex
	saved    Cart
	loadErr  error
	saveErr  error
	clearErr error
	saves    int
	clears   int
}

func (p *stubPersister) Load(context.Context) (Cart, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return p.saved.Clone(), nil
}

func (p *stubPersister) Save(_ context.Context, c Cart) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saves++
	p.saved = c.Clone()
	return nil
}

func (p *stubPersister) Clear(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clearErr != nil {
		return p.clearErr
	}
	p.clears++
	p.saved = nil
	return nil
}

type stubRecorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *stubRecorder) ObserveOperation(operation, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, operation+":"+outcome)
}

func shoe() Product {
	return Product{ID: 42, Title: "Shoe", Price: decimal.NewFromInt(100), Image: "x.png"}
}

func newTestStore(t *testing.T, oracle *stubOracle, persister *stubPersister) (*Store, *stubRecorder) {
	t.Helper()
	recorder := &stubRecorder{}
	store, err := NewStore(context.Background(), StoreParams{
		Oracle:    oracle,
		Persister: persister,
		Recorder:  recorder,
	})
	require.NoError(t, err)
	return store, recorder
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	require.Equal(t, code, typed.Code())
}

func TestNewStoreRequiresCollaborators(t *testing.T) {
	t.Parallel()

	_, err := NewStore(context.Background(), StoreParams{Persister: &stubPersister{}})
	require.Error(t, err)
	_, err = NewStore(context.Background(), StoreParams{Oracle: &stubOracle{}})
	require.Error(t, err)
}

func TestNewStoreRestoresSnapshot(t *testing.T) {
	t.Parallel()

	persister := &stubPersister{saved: Cart{{Product: shoe(), Amount: 2}}}
	store, _ := newTestStore(t, &stubOracle{}, persister)

	got := store.Cart()
	require.Len(t, got, 1)
	require.Equal(t, 2, got[0].Amount)
}

func TestNewStoreLoadFailure(t *testing.T) {
	t.Parallel()

	_, err := NewStore(context.Background(), StoreParams{
		Oracle:    &stubOracle{},
		Persister: &stubPersister{loadErr: stdErrors.New("disk gone")},
	})
	requireCode(t, err, pkgerrors.CodeDependency)
}

func TestNewStoreDiscardsInvalidSnapshot(t *testing.T) {
	t.Parallel()

	persister := &stubPersister{saved: Cart{{Product: shoe(), Amount: 0}}}
	store, _ := newTestStore(t, &stubOracle{}, persister)
	require.Empty(t, store.Cart())
}

func TestAddProductToEmptyCart(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{stock: map[int64]int{42: 5}, products: map[int64]Product{42: shoe()}}
	persister := &stubPersister{}
	store, recorder := newTestStore(t, oracle, persister)

	res, err := store.AddProduct(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, OutcomeAdded, res.Outcome)
	require.Equal(t, Cart{{Product: shoe(), Amount: 1}}, res.Cart)
	require.Equal(t, Cart{{Product: shoe(), Amount: 1}}, store.Cart())
	require.Equal(t, Cart{{Product: shoe(), Amount: 1}}, persister.saved)
	require.Equal(t, []string{"add:added"}, recorder.ops)
}

func TestAddProductIncrementsExistingLine(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{stock: map[int64]int{42: 5}}
	persister := &stubPersister{saved: Cart{{Product: shoe(), Amount: 2}}}
	store, _ := newTestStore(t, oracle, persister)

	res, err := store.AddProduct(context.Background(), 42)
	require.NoError(t, err)
	require.Equal(t, OutcomeIncreased, res.Outcome)
	require.Equal(t, 3, store.Cart()[0].Amount)
	require.Equal(t, 3, persister.saved[0].Amount)
}

func TestAddProductAtStockLimit(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{stock: map[int64]int{42: 3}}
	persister := &stubPersister{saved: Cart{{Product: shoe(), Amount: 3}}}
	store, recorder := newTestStore(t, oracle, persister)

	_, err := store.AddProduct(context.Background(), 42)
	requireCode(t, err, pkgerrors.CodeInsufficientStock)
	require.Equal(t, msgNoStockToAdd, pkgerrors.As(err).Message())
	require.Equal(t, InsufficientStock{ProductID: 42, Requested: 4, Available: 3}, pkgerrors.As(err).Details())
	require.Equal(t, 3, store.Cart()[0].Amount)
	require.Zero(t, persister.saves)
	require.Equal(t, []string{"add:INSUFFICIENT_STOCK"}, recorder.ops)
}

func TestAddProductOutOfStock(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{stock: map[int64]int{42: 0}, products: map[int64]Product{42: shoe()}}
	store, _ := newTestStore(t, oracle, &stubPersister{})

	_, err := store.AddProduct(context.Background(), 42)
	requireCode(t, err, pkgerrors.CodeInsufficientStock)
	require.Empty(t, store.Cart())
}

func TestAddProductRejectsInvalidID(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{}
	store, _ := newTestStore(t, oracle, &stubPersister{})

	_, err := store.AddProduct(context.Background(), 0)
	requireCode(t, err, pkgerrors.CodeValidation)
	require.Zero(t, oracle.stockCalls.Load())
}

func TestAddProductUnknownProduct(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{stock: map[int64]int{}}
	store, _ := newTestStore(t, oracle, &stubPersister{})

	_, err := store.AddProduct(context.Background(), 404)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestAddProductOracleFailure(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{stockErr: stdErrors.New("connection refused")}
	persister := &stubPersister{saved: Cart{{Product: shoe(), Amount: 1}}}
	store, _ := newTestStore(t, oracle, persister)

	_, err := store.AddProduct(context.Background(), 42)
	requireCode(t, err, pkgerrors.CodeDependency)
	require.Equal(t, msgAddFailed, pkgerrors.As(err).Message())
	require.Equal(t, 1, store.Cart()[0].Amount)
	require.Zero(t, persister.saves)
}

func TestAddProductCatalogFailure(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{stock: map[int64]int{42: 5}, productErr: stdErrors.New("timeout")}
	store, _ := newTestStore(t, oracle, &stubPersister{})

	_, err := store.AddProduct(context.Background(), 42)
	requireCode(t, err, pkgerrors.CodeDependency)
	require.Empty(t, store.Cart())
}

func TestAddProductRejectsMalformedCatalogEntry(t *testing.T) {
	t.Parallel()

	broken := shoe()
	broken.Title = ""
	oracle := &stubOracle{stock: map[int64]int{42: 5}, products: map[int64]Product{42: broken}}
	store, _ := newTestStore(t, oracle, &stubPersister{})

	_, err := store.AddProduct(context.Background(), 42)
	requireCode(t, err, pkgerrors.CodeDependency)
	require.Empty(t, store.Cart())
}

func TestAddProductPersistFailureLeavesCartUntouched(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{stock: map[int64]int{42: 5}, products: map[int64]Product{42: shoe()}}
	persister := &stubPersister{saveErr: stdErrors.New("disk full")}
	store, _ := newTestStore(t, oracle, persister)

	notified := 0
	store.Subscribe(func(Cart) { notified++ })

	_, err := store.AddProduct(context.Background(), 42)
	requireCode(t, err, pkgerrors.CodeDependency)
	require.Empty(t, store.Cart())
	require.Zero(t, notified)
}

func TestUpdateProductAmountWithinStock(t *testing.T) {
	t.Parallel()

	line := Line{Product: Product{ID: 9, Title: "Boot", Price: decimal.NewFromInt(50)}, Amount: 1}
	oracle := &stubOracle{stock: map[int64]int{9: 10}}
	persister := &stubPersister{saved: Cart{line}}
	store, _ := newTestStore(t, oracle, persister)

	var deliveries []Cart
	store.Subscribe(func(c Cart) { deliveries = append(deliveries, c) })

	res, err := store.UpdateProductAmount(context.Background(), UpdateAmount{ProductID: 9, Amount: 4})
	require.NoError(t, err)
	require.Equal(t, OutcomeIncreased, res.Outcome)
	require.Equal(t, 4, store.Cart()[0].Amount)
	require.Len(t, deliveries, 1)
	require.Equal(t, 4, deliveries[0][0].Amount)
}

func TestUpdateProductAmountDecrease(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{stock: map[int64]int{42: 10}}
	persister := &stubPersister{saved: Cart{{Product: shoe(), Amount: 5}}}
	store, _ := newTestStore(t, oracle, persister)

	res, err := store.UpdateProductAmount(context.Background(), UpdateAmount{ProductID: 42, Amount: 2})
	require.NoError(t, err)
	require.Equal(t, OutcomeDecreased, res.Outcome)
	require.Equal(t, 2, persister.saved[0].Amount)
}

func TestUpdateProductAmountRejectsSmallAmounts(t *testing.T) {
	t.Parallel()

	for _, amount := range []int{1, 0, -3} {
		oracle := &stubOracle{stock: map[int64]int{42: 10}}
		persister := &stubPersister{saved: Cart{{Product: shoe(), Amount: 3}}}
		store, _ := newTestStore(t, oracle, persister)

		_, err := store.UpdateProductAmount(context.Background(), UpdateAmount{ProductID: 42, Amount: amount})
		requireCode(t, err, pkgerrors.CodeValidation)
		require.Equal(t, 3, store.Cart()[0].Amount)
		require.Zero(t, oracle.stockCalls.Load())
	}
}

func TestUpdateProductAmountBeyondStock(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{stock: map[int64]int{42: 3}}
	persister := &stubPersister{saved: Cart{{Product: shoe(), Amount: 2}}}
	store, _ := newTestStore(t, oracle, persister)

	_, err := store.UpdateProductAmount(context.Background(), UpdateAmount{ProductID: 42, Amount: 4})
	requireCode(t, err, pkgerrors.CodeInsufficientStock)
	require.Equal(t, msgOutOfStock, pkgerrors.As(err).Message())
	require.Equal(t, 2, store.Cart()[0].Amount)
}

func TestUpdateProductAmountMissingLineIsNoop(t *testing.T) {
	t.Parallel()

	oracle := &stubOracle{stock: map[int64]int{42: 10}}
	persister := &stubPersister{}
	store, recorder := newTestStore(t, oracle, persister)

	notified := 0
	store.Subscribe(func(Cart) { notified++ })

	res, err := store.UpdateProductAmount(context.Background(), UpdateAmount{ProductID: 42, Amount: 3})
	require.NoError(t, err)
	require.Equal(t, OutcomeUnchanged, res.Outcome)
	require.Empty(t, res.Cart)
	require.Zero(t, oracle.stockCalls.Load())
	require.Zero(t, persister.saves)
	require.Zero(t, notified)
	require.Equal(t, []string{"update:unchanged"}, recorder.ops)
}

func TestRemoveProduct(t *testing.T) {
	t.Parallel()

	line := Line{Product: Product{ID: 7, Title: "Sandal", Price: decimal.NewFromInt(30)}, Amount: 2}
	persister := &stubPersister{saved: Cart{line}}
	store, _ := newTestStore(t, &stubOracle{}, persister)

	res, err := store.RemoveProduct(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, OutcomeRemoved, res.Outcome)
	require.Empty(t, store.Cart())
	require.Empty(t, persister.saved)
	require.Equal(t, 1, persister.saves)
}

func TestRemoveProductKeepsOrder(t *testing.T) {
	t.Parallel()

	persister := &stubPersister{saved: Cart{
		{Product: Product{ID: 1, Title: "a", Price: decimal.NewFromInt(1)}, Amount: 1},
		{Product: Product{ID: 2, Title: "b", Price: decimal.NewFromInt(1)}, Amount: 1},
		{Product: Product{ID: 3, Title: "c", Price: decimal.NewFromInt(1)}, Amount: 1},
	}}
	store, _ := newTestStore(t, &stubOracle{}, persister)

	_, err := store.RemoveProduct(context.Background(), 2)
	require.NoError(t, err)
	got := store.Cart()
	require.Len(t, got, 2)
	require.Equal(t, int64(1), got[0].ID)
	require.Equal(t, int64(3), got[1].ID)
}

func TestRemoveProductMissing(t *testing.T) {
	t.Parallel()

	persister := &stubPersister{saved: Cart{{Product: shoe(), Amount: 1}}}
	store, _ := newTestStore(t, &stubOracle{}, persister)

	_, err := store.RemoveProduct(context.Background(), 7)
	requireCode(t, err, pkgerrors.CodeNotFound)
	require.Len(t, store.Cart(), 1)
	require.Zero(t, persister.saves)
}

func TestClearCart(t *testing.T) {
	t.Parallel()

	persister := &stubPersister{saved: Cart{{Product: shoe(), Amount: 1}}}
	store, _ := newTestStore(t, &stubOracle{}, persister)

	notified := 0
	store.Subscribe(func(c Cart) {
		notified++
		require.Empty(t, c)
	})

	res, err := store.ClearCart(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeCleared, res.Outcome)
	require.Empty(t, store.Cart())

	_, err = store.ClearCart(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, persister.clears)
	require.Equal(t, 2, notified)
}

func TestClearCartFailure(t *testing.T) {
	t.Parallel()

	persister := &stubPersister{saved: Cart{{Product: shoe(), Amount: 1}}, clearErr: stdErrors.New("permission denied")}
	store, _ := newTestStore(t, &stubOracle{}, persister)

	_, err := store.ClearCart(context.Background())
	requireCode(t, err, pkgerrors.CodeDependency)
	require.Len(t, store.Cart(), 1)
}

func TestCartReturnsCopy(t *testing.T) {
	t.Parallel()

	persister := &stubPersister{saved: Cart{{Product: shoe(), Amount: 1}}}
	store, _ := newTestStore(t, &stubOracle{}, persister)

	view := store.Cart()
	view[0].Amount = 50
	require.Equal(t, 1, store.Cart()[0].Amount)
}

func TestMutationHonoursCancelledContextWhileBusy(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t, &stubOracle{}, &stubPersister{})
	require.NoError(t, store.acquire(context.Background()))
	defer store.release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ClearCart(ctx)
	requireCode(t, err, pkgerrors.CodeDependency)
}

func TestConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	t.Parallel()

	const adds = 20
	oracle := &stubOracle{stock: map[int64]int{42: adds}, products: map[int64]Product{42: shoe()}}
	persister := &stubPersister{}
	store, _ := newTestStore(t, oracle, persister)

	var g errgroup.Group
	for i := 0; i < adds; i++ {
		g.Go(func() error {
			_, err := store.AddProduct(context.Background(), 42)
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, adds, store.Cart()[0].Amount)
	require.Equal(t, adds, persister.saved[0].Amount)
}

func TestConcurrentAddsNeverExceedStock(t *testing.T) {
	t.Parallel()

	const stock = 5
	oracle := &stubOracle{stock: map[int64]int{42: stock}, products: map[int64]Product{42: shoe()}}
	store, _ := newTestStore(t, oracle, &stubPersister{})

	var (
		g        errgroup.Group
		rejected atomic.Int64
	)
	for i := 0; i < stock*3; i++ {
		g.Go(func() error {
			_, err := store.AddProduct(context.Background(), 42)
			if pkgerrors.IsCode(err, pkgerrors.CodeInsufficientStock) {
				rejected.Add(1)
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, stock, store.Cart()[0].Amount)
	require.Equal(t, int64(stock*2), rejected.Load())
}

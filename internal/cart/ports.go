package cart

import "context"

// StockOracle is the inventory authority consulted before every quantity change.
type StockOracle interface {
	GetStock(ctx context.Context, productID int64) (int, error)
	GetProduct(ctx context.Context, productID int64) (Product, error)
}

// Persister keeps the durable snapshot of the cart.
type Persister interface {
	Load(ctx context.Context) (Cart, error)
	Save(ctx context.Context, c Cart) error
	Clear(ctx context.Context) error
}

// Recorder counts mutations by operation and outcome.
type Recorder interface {
	ObserveOperation(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, string) {}

package cartdto

import "github.com/shopspring/decimal"

// CartLine is one product row as rendered to clients.
type CartLine struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Amount   int             `json:"amount"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartTotals struct {
	Total decimal.Decimal `json:"total"`
	Units int             `json:"units"`
}

// Cart is the committed cart in insertion order plus its totals.
type Cart struct {
	Items  []CartLine `json:"items"`
	Totals CartTotals `json:"totals"`
}

// Mutation answers every write endpoint.
type Mutation struct {
	Outcome string `json:"outcome"`
	Message string `json:"message"`
	Cart    Cart   `json:"cart"`
}

// CatalogProduct is a catalog entry annotated with how many units are already in the cart.
type CatalogProduct struct {
	ID     int64           `json:"id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	Image  string          `json:"image"`
	InCart int             `json:"in_cart"`
}

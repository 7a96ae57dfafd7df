package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/rocketcart/internal/cart"
)

// The payload is a bare JSON array of lines. It carries no version field; a breaking change
// to the layout needs a new storage key.
type wireLine struct {
	ID     int64      `json:"id"`
	Title  string     `json:"title"`
	Price  jsonNumber `json:"price"`
	Image  string     `json:"image"`
	Amount int        `json:"amount"`
}

// jsonNumber writes a decimal as a bare JSON number. Reading accepts quoted values too.
type jsonNumber struct {
	decimal.Decimal
}

func (n jsonNumber) MarshalJSON() ([]byte, error) {
	return []byte(n.Decimal.String()), nil
}

func (n *jsonNumber) UnmarshalJSON(data []byte) error {
	return n.Decimal.UnmarshalJSON(data)
}

// Encode serializes the cart in line order.
func Encode(c cart.Cart) ([]byte, error) {
	lines := make([]wireLine, 0, len(c))
	for _, line := range c {
		lines = append(lines, wireLine{
			ID:     line.ID,
			Title:  line.Title,
			Price:  jsonNumber{line.Price},
			Image:  line.Image,
			Amount: line.Amount,
		})
	}
	return json.Marshal(lines)
}

// Decode parses a payload and rejects carts that break the line invariants.
func Decode(data []byte) (cart.Cart, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return cart.Cart{}, nil
	}

	var lines []wireLine
	if err := json.Unmarshal(trimmed, &lines); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	c := make(cart.Cart, 0, len(lines))
	for _, l := range lines {
		c = append(c, cart.Line{
			Product: cart.Product{ID: l.ID, Title: l.Title, Price: l.Price.Decimal, Image: l.Image},
			Amount:  l.Amount,
		})
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	return c, nil
}

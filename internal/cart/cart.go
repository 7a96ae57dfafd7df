package cart

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a catalog fact. The cart copies it on first add and never changes it afterwards.
type Product struct {
	ID    int64
	Title string
	Price decimal.Decimal
	Image string
}

// Line is one product in the cart together with the quantity the shopper wants.
type Line struct {
	Product
	Amount int
}

// NewLine validates the product attributes and the amount before building a line.
func NewLine(product Product, amount int) (Line, error) {
	if product.ID <= 0 {
		return Line{}, fmt.Errorf("product id must be positive, got %d", product.ID)
	}
	if strings.TrimSpace(product.Title) == "" {
		return Line{}, fmt.Errorf("product %d has no title", product.ID)
	}
	if product.Price.IsNegative() {
		return Line{}, fmt.Errorf("product %d has negative price %s", product.ID, product.Price)
	}
	if amount < 1 {
		return Line{}, fmt.Errorf("product %d amount must be at least 1, got %d", product.ID, amount)
	}
	return Line{Product: product, Amount: amount}, nil
}

// Subtotal is price times amount.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Amount)))
}

// Cart is the ordered list of lines, first add first.
type Cart []Line

// Find returns the line for productID and its position.
func (c Cart) Find(productID int64) (Line, int, bool) {
	for i, line := range c {
		if line.ID == productID {
			return line, i, true
		}
	}
	return Line{}, -1, false
}

func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Validate checks id uniqueness and that every line is well formed.
func (c Cart) Validate() error {
	seen := make(map[int64]struct{}, len(c))
	for _, line := range c {
		if _, err := NewLine(line.Product, line.Amount); err != nil {
			return err
		}
		if _, dup := seen[line.ID]; dup {
			return fmt.Errorf("product %d appears more than once", line.ID)
		}
		seen[line.ID] = struct{}{}
	}
	return nil
}

// Quantities maps product id to the amount in the cart.
func (c Cart) Quantities() map[int64]int {
	out := make(map[int64]int, len(c))
	for _, line := range c {
		out[line.ID] = line.Amount
	}
	return out
}

func (c Cart) Units() int {
	total := 0
	for _, line := range c {
		total += line.Amount
	}
	return total
}

type LineTotal struct {
	ProductID int64
	Subtotal  decimal.Decimal
}

type Totals struct {
	Lines []LineTotal
	Total decimal.Decimal
	Units int
}

func (c Cart) Totals() Totals {
	totals := Totals{
		Lines: make([]LineTotal, 0, len(c)),
		Total: decimal.Zero,
	}
	for _, line := range c {
		sub := line.Subtotal()
		totals.Lines = append(totals.Lines, LineTotal{ProductID: line.ID, Subtotal: sub})
		totals.Total = totals.Total.Add(sub)
		totals.Units += line.Amount
	}
	return totals
}

func (c Cart) withLine(line Line) Cart {
	next := make(Cart, 0, len(c)+1)
	next = append(next, c...)
	return append(next, line)
}

func (c Cart) withAmount(idx, amount int) Cart {
	next := c.Clone()
	next[idx].Amount = amount
	return next
}

func (c Cart) without(idx int) Cart {
	next := make(Cart, 0, len(c)-1)
	next = append(next, c[:idx]...)
	return append(next, c[idx+1:]...)
}

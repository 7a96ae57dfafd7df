package cart

import (
	cartdto "github.com/angelmondragon/rocketcart/api/controllers/cart/dto"
	cartsvc "github.com/angelmondragon/rocketcart/internal/cart"
)

func newCart(c cartsvc.Cart) cartdto.Cart {
	totals := c.Totals()
	items := make([]cartdto.CartLine, 0, len(c))
	for i, line := range c {
		items = append(items, cartdto.CartLine{
			ID:       line.ID,
			Title:    line.Title,
			Price:    line.Price,
			Image:    line.Image,
			Amount:   line.Amount,
			Subtotal: totals.Lines[i].Subtotal,
		})
	}
	return cartdto.Cart{
		Items: items,
		Totals: cartdto.CartTotals{
			Total: totals.Total,
			Units: totals.Units,
		},
	}
}

func newMutation(result cartsvc.Result) cartdto.Mutation {
	return cartdto.Mutation{
		Outcome: string(result.Outcome),
		Message: result.Message,
		Cart:    newCart(result.Cart),
	}
}

func newCatalog(products []cartsvc.Product, c cartsvc.Cart) []cartdto.CatalogProduct {
	quantities := c.Quantities()
	out := make([]cartdto.CatalogProduct, 0, len(products))
	for _, p := range products {
		out = append(out, cartdto.CatalogProduct{
			ID:     p.ID,
			Title:  p.Title,
			Price:  p.Price,
			Image:  p.Image,
			InCart: quantities[p.ID],
		})
	}
	return out
}

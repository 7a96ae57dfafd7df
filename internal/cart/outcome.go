package cart

// Outcome is the advisory feedback shown to the shopper after a mutation.
type Outcome string

const (
	OutcomeAdded     Outcome = "added"
	OutcomeIncreased Outcome = "increased"
	OutcomeDecreased Outcome = "decreased"
	OutcomeRemoved   Outcome = "removed"
	OutcomeCleared   Outcome = "cleared"
	OutcomeUnchanged Outcome = "unchanged"
)

var outcomeMessages = map[Outcome]string{
	OutcomeAdded:     "product added to cart",
	OutcomeIncreased: "product quantity increased",
	OutcomeDecreased: "product quantity decreased",
	OutcomeRemoved:   "product removed from cart",
	OutcomeCleared:   "cart cleared",
	OutcomeUnchanged: "nothing to update",
}

func (o Outcome) Message() string {
	return outcomeMessages[o]
}

// Result describes a finished mutation and carries the cart as committed.
type Result struct {
	Outcome Outcome
	Message string
	Cart    Cart
}

func newResult(outcome Outcome, c Cart) Result {
	return Result{Outcome: outcome, Message: outcome.Message(), Cart: c.Clone()}
}

const (
	msgInvalidProduct  = "product id must be positive"
	msgInvalidQuantity = "invalid quantity"
	msgNoStockToAdd    = "no more stock to add for this product"
	msgOutOfStock      = "requested quantity out of stock"
	msgNotInCart       = "product not in cart"
	msgAddFailed       = "failed to add product"
	msgUpdateFailed    = "failed to update product quantity"
	msgRemoveFailed    = "failed to remove product"
	msgClearFailed     = "failed to clear cart"
	msgBadCatalogEntry = "catalog returned an invalid product"
	msgStoreBusy       = "cart is busy"
)

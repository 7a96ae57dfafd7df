package cartdto

type AddItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
}

// UpdateItemRequest uses a pointer so a missing amount is told apart from zero.
type UpdateItemRequest struct {
	Amount *int `json:"amount" validate:"required"`
}

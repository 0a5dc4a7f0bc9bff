package dto

// PurchaseRequest represents a shop purchase. Quantity is validated by the
// shop service so the rejection carries the right error code.
type PurchaseRequest struct {
	Resource string `json:"resource" validate:"required"`
	Quantity int64  `json:"quantity"`
}

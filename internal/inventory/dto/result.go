package dto

import "github.com/fekuna/omnipos-inventory-service/internal/model"

// LineResult is the outcome of one order line. Exactly one of Product and Err
// is set.
type LineResult struct {
	ProductID string
	Quantity  int64
	Product   *model.Product
	Err       error
}

package inventory

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

// Repository is the slice of the product store the stock ledger needs. Stock
// lives on the product record, so the product repositories satisfy it.
type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)
	DecrementStock(ctx context.Context, id string, qty int64) (*model.Product, error)
	IncrementStock(ctx context.Context, id string, qty int64) (*model.Product, error)
}

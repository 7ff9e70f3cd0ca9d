package inventory

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type UseCase interface {
	// Sell removes qty units in one conditional write. A rejected sell is a
	// *model.SellRejection and leaves the stock untouched.
	Sell(ctx context.Context, input *dto.SellInput) (*model.Product, error)
	Restock(ctx context.Context, input *dto.RestockInput) (*model.Product, error)
	// SellOrder sells each line independently. Lines are not atomic as a group.
	SellOrder(ctx context.Context, input *dto.SellOrderInput) ([]dto.LineResult, error)
}

package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-inventory-service/internal/inventory"
	"github.com/fekuna/omnipos-inventory-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo   inventory.Repository
	cache  *cache.RedisClient
	logger logger.ZapLogger
}

func NewInventoryUseCase(repo inventory.Repository, cache *cache.RedisClient, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:   repo,
		cache:  cache,
		logger: log,
	}
}

func (uc *inventoryUseCase) Sell(ctx context.Context, input *dto.SellInput) (*model.Product, error) {
	if input.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	// The decrement is the decision. Nothing read before or after it can
	// change whether the units were sold.
	p, err := uc.repo.DecrementStock(ctx, input.ProductID, input.Quantity)
	if err != nil {
		if errors.Is(err, model.ErrNoMatch) {
			return nil, uc.rejection(ctx, input)
		}
		if errors.Is(err, model.ErrUnavailable) {
			uc.logger.Warn("sell outcome unknown",
				zap.String("product_id", input.ProductID),
				zap.Int64("quantity", input.Quantity),
				zap.Error(err),
			)
		}
		return nil, err
	}

	uc.invalidate(ctx, p.ID)
	return p, nil
}

// rejection explains a decrement that did not apply. The extra read only
// shapes the error message.
func (uc *inventoryUseCase) rejection(ctx context.Context, input *dto.SellInput) error {
	rej := &model.SellRejection{
		ProductID: input.ProductID,
		Requested: input.Quantity,
	}

	current, err := uc.repo.FindByID(ctx, input.ProductID)
	switch {
	case err != nil:
		uc.logger.Debug("could not classify sell rejection",
			zap.String("product_id", input.ProductID),
			zap.Error(err),
		)
	case current == nil:
		rej.Reason = model.ErrProductNotFound
	default:
		rej.Reason = model.ErrInsufficientStock
		rej.Available = current.Stock
	}
	return rej
}

func (uc *inventoryUseCase) Restock(ctx context.Context, input *dto.RestockInput) (*model.Product, error) {
	if input.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	p, err := uc.repo.IncrementStock(ctx, input.ProductID, input.Quantity)
	if err != nil {
		if errors.Is(err, model.ErrNoMatch) {
			return nil, fmt.Errorf("%w: %s", model.ErrProductNotFound, input.ProductID)
		}
		return nil, err
	}

	uc.invalidate(ctx, p.ID)
	return p, nil
}

func (uc *inventoryUseCase) SellOrder(ctx context.Context, input *dto.SellOrderInput) ([]dto.LineResult, error) {
	if len(input.Lines) == 0 {
		return nil, model.Invalid("order %s has no lines", input.OrderID)
	}

	results := make([]dto.LineResult, 0, len(input.Lines))
	var errs []error
	for _, line := range input.Lines {
		p, err := uc.Sell(ctx, &dto.SellInput{ProductID: line.ProductID, Quantity: line.Quantity})
		results = append(results, dto.LineResult{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Product:   p,
			Err:       err,
		})
		if err != nil {
			uc.logger.Error("failed to sell order line",
				zap.String("order_id", input.OrderID),
				zap.String("product_id", line.ProductID),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return results, fmt.Errorf("order %s: %d of %d lines failed: %w",
			input.OrderID, len(errs), len(input.Lines), errors.Join(errs...))
	}
	return results, nil
}

func (uc *inventoryUseCase) invalidate(ctx context.Context, productID string) {
	if err := uc.cache.Delete(ctx, product.CacheKey(productID)); err != nil {
		uc.logger.Warn("failed to invalidate product cache",
			zap.String("product_id", productID),
			zap.Error(err),
		)
	}
}

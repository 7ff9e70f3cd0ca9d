package product

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
)

type UseCase interface {
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error)
	ChangeCategory(ctx context.Context, productID, categoryID string) (*model.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	BulkUpdatePrices(ctx context.Context, inputs []dto.PriceUpdate) (int64, error)
}

// SKUAssigner hands out category-scoped SKUs. Assign runs persist with a
// candidate SKU and retries with a fresh one when persist reports a
// duplicate SKU.
type SKUAssigner interface {
	Allocate(ctx context.Context, categoryID string) (string, error)
	Assign(ctx context.Context, categoryID string, persist func(ctx context.Context, sku string) error) (string, error)
}

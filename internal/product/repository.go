package product

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
)

// Repository is the product side of the record store. Every mutation is a
// single store round-trip; none of them is a read followed by a write.
type Repository interface {
	// Create fails with *model.DuplicateKeyError when the SKU is taken.
	Create(ctx context.Context, product *model.Product) error
	// FindByID returns nil, nil when the product does not exist.
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	ExistsBySKU(ctx context.Context, sku string) (bool, error)

	// Update applies only the fields set on patch. It returns model.ErrNoMatch
	// when the product is gone or patch.ExpectCategoryID does not hold.
	Update(ctx context.Context, id string, patch *dto.ProductPatch) (*model.Product, error)

	// DecrementStock subtracts qty only if stock >= qty at the moment of the
	// write, otherwise model.ErrNoMatch. Missing products also yield ErrNoMatch.
	DecrementStock(ctx context.Context, id string, qty int64) (*model.Product, error)
	IncrementStock(ctx context.Context, id string, qty int64) (*model.Product, error)

	BulkUpdatePrices(ctx context.Context, updates []dto.PriceUpdate) (int64, error)
	// Delete returns model.ErrProductNotFound when nothing was deleted.
	Delete(ctx context.Context, id string) error
}

// CacheKey is the cache entry holding a single product lookup.
func CacheKey(id string) string {
	return "products:item:" + id
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/category"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/retry"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/sku"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultMaxAttempts = 5
	defaultCacheTTL    = 30 * time.Second
	priceScale         = 2
)

type Config struct {
	// MaxAttempts bounds the re-read and write cycles of a category change
	// that keeps losing to concurrent writers.
	MaxAttempts int
	CacheTTL    time.Duration
	Backoff     retry.Backoff
}

type productUseCase struct {
	repo       product.Repository
	categories category.Repository
	skus       product.SKUAssigner
	cache      *cache.RedisClient
	cfg        Config
	logger     logger.ZapLogger
}

func NewProductUseCase(
	repo product.Repository,
	categories category.Repository,
	skus product.SKUAssigner,
	cache *cache.RedisClient,
	cfg Config,
	log logger.ZapLogger,
) product.UseCase {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}
	return &productUseCase{
		repo:       repo,
		categories: categories,
		skus:       skus,
		cache:      cache,
		cfg:        cfg,
		logger:     log,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, model.Invalid("name is required")
	}
	if err := checkPrice(input.Price); err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, model.Invalid("stock cannot be negative")
	}

	cat, err := uc.findCategory(ctx, input.CategoryID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &model.Product{
		BaseModel:  model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		CategoryID: cat.ID,
		Name:       name,
		Price:      input.Price,
		Stock:      input.Stock,
	}

	_, err = uc.skus.Assign(ctx, cat.ID, func(ctx context.Context, sku string) error {
		p.SKU = sku
		return uc.repo.Create(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return uc.conformSKU(ctx, p)
}

// GetProduct serves from the cache when it can. Cached entries are for
// display only; stock decisions always go to the store. A mutation that
// commits between the store read and the cache write has already invalidated
// the key, so the row is read once more after caching and the entry is
// dropped if it changed.
func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	hit, err := uc.cache.GetJSON(ctx, product.CacheKey(id), &p)
	if err != nil {
		uc.logger.Warn("product cache read failed", zap.String("product_id", id), zap.Error(err))
	}
	if !hit {
		found, err := uc.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if found == nil {
			return nil, fmt.Errorf("%w: %s", model.ErrProductNotFound, id)
		}
		p = *found
		p.Category = nil
		if err := uc.cache.SetJSON(ctx, product.CacheKey(id), &p, uc.cfg.CacheTTL); err != nil {
			uc.logger.Warn("product cache write failed", zap.String("product_id", id), zap.Error(err))
		}

		latest, err := uc.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if latest == nil {
			uc.invalidate(ctx, id)
			return nil, fmt.Errorf("%w: %s", model.ErrProductNotFound, id)
		}
		if !sameRow(&p, latest) {
			uc.invalidate(ctx, id)
			p = *latest
			p.Category = nil
		}
	}

	cat, err := uc.categories.FindByID(ctx, p.CategoryID)
	if err != nil {
		return nil, err
	}
	p.Category = cat
	return &p, nil
}

func sameRow(a, b *model.Product) bool {
	return a.UpdatedAt.Equal(b.UpdatedAt) &&
		a.Stock == b.Stock &&
		a.Price.Equal(b.Price) &&
		a.SKU == b.SKU &&
		a.CategoryID == b.CategoryID &&
		a.Name == b.Name
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	filters.SearchQuery = strings.TrimSpace(filters.SearchQuery)

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	joined := make(map[string]*model.Category)
	for i := range products {
		cid := products[i].CategoryID
		cat, ok := joined[cid]
		if !ok {
			cat, err = uc.categories.FindByID(ctx, cid)
			if err != nil {
				return nil, 0, err
			}
			joined[cid] = cat
		}
		products[i].Category = cat
	}
	return products, count, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	patch, err := buildPatch(input)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		return uc.changeCategory(ctx, input.ID, *input.CategoryID, patch)
	}

	if patch.IsEmpty() {
		return uc.GetProduct(ctx, input.ID)
	}

	p, err := uc.repo.Update(ctx, input.ID, patch)
	if err != nil {
		if errors.Is(err, model.ErrNoMatch) {
			return nil, fmt.Errorf("%w: %s", model.ErrProductNotFound, input.ID)
		}
		return nil, err
	}

	uc.invalidate(ctx, p.ID)
	return uc.withCategory(ctx, p)
}

func buildPatch(input *dto.UpdateProductInput) (*dto.ProductPatch, error) {
	patch := &dto.ProductPatch{Price: input.Price, Stock: input.Stock}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, model.Invalid("name cannot be empty")
		}
		patch.Name = &name
	}
	if input.Price != nil {
		if err := checkPrice(*input.Price); err != nil {
			return nil, err
		}
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, model.Invalid("stock cannot be negative")
	}
	return patch, nil
}

// checkPrice accepts positive prices with at most priceScale decimal places,
// the precision prices are stored with.
func checkPrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return model.Invalid("price must be greater than 0")
	}
	if !price.Equal(price.Round(priceScale)) {
		return model.Invalid("price cannot have more than %d decimal places", priceScale)
	}
	return nil
}

func (uc *productUseCase) ChangeCategory(ctx context.Context, productID, categoryID string) (*model.Product, error) {
	return uc.changeCategory(ctx, productID, categoryID, &dto.ProductPatch{})
}

// changeCategory moves a product and regenerates its SKU in one conditional
// write, together with any other fields in base. The write only applies if
// the product is still in the category it was read in, so category and SKU
// never disagree. Losing that race re-reads and starts over.
func (uc *productUseCase) changeCategory(ctx context.Context, productID, categoryID string, base *dto.ProductPatch) (*model.Product, error) {
	cat, err := uc.findCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= uc.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := uc.cfg.Backoff.Wait(ctx, attempt-1); err != nil {
				return nil, model.Unavailable(err)
			}
		}

		current, err := uc.repo.FindByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		if current == nil {
			return nil, fmt.Errorf("%w: %s", model.ErrProductNotFound, productID)
		}

		// The SKU already carries this category's prefix.
		if current.CategoryID == cat.ID {
			if base.IsEmpty() {
				current.Category = cat
				return current, nil
			}
			patch := *base
			patch.ExpectCategoryID = &current.CategoryID
			updated, err := uc.repo.Update(ctx, productID, &patch)
			if err == nil {
				uc.invalidate(ctx, productID)
				return uc.conformSKU(ctx, updated)
			}
			if !errors.Is(err, model.ErrNoMatch) {
				return nil, err
			}
		} else {
			var updated *model.Product
			_, err = uc.skus.Assign(ctx, cat.ID, func(ctx context.Context, sku string) error {
				patch := *base
				patch.CategoryID = &cat.ID
				patch.SKU = &sku
				patch.ExpectCategoryID = &current.CategoryID

				var uerr error
				updated, uerr = uc.repo.Update(ctx, productID, &patch)
				return uerr
			})
			if err == nil {
				uc.invalidate(ctx, productID)
				return uc.conformSKU(ctx, updated)
			}
			if !errors.Is(err, model.ErrNoMatch) {
				return nil, err
			}
		}

		uc.logger.Debug("product changed during category change, retrying",
			zap.String("product_id", productID),
			zap.String("category_id", cat.ID),
			zap.Int("attempt", attempt),
		)
	}

	uc.logger.Warn("category change exhausted retries",
		zap.String("product_id", productID),
		zap.String("category_id", cat.ID),
	)
	return nil, fmt.Errorf("%w: product %s could not move to category %s after %d attempts",
		model.ErrConflict, productID, cat.ID, uc.cfg.MaxAttempts)
}

// conformSKU re-checks a SKU just written under a category against the
// prefix the category holds now. A prefix change that listed the category
// before this write cannot see the product, so the writer re-keys it itself.
func (uc *productUseCase) conformSKU(ctx context.Context, p *model.Product) (*model.Product, error) {
	for attempt := 1; attempt <= uc.cfg.MaxAttempts; attempt++ {
		cat, err := uc.categories.FindByID(ctx, p.CategoryID)
		if err != nil {
			return nil, err
		}
		if cat == nil || sku.Matches(p.SKU, cat.SKUPrefix) {
			p.Category = cat
			return p, nil
		}

		var updated *model.Product
		_, err = uc.skus.Assign(ctx, cat.ID, func(ctx context.Context, next string) error {
			var uerr error
			updated, uerr = uc.repo.Update(ctx, p.ID, &dto.ProductPatch{
				SKU:              &next,
				ExpectCategoryID: &cat.ID,
			})
			return uerr
		})
		if errors.Is(err, model.ErrNoMatch) {
			// Moved or deleted meanwhile; the other writer owns its SKU now.
			current, err := uc.repo.FindByID(ctx, p.ID)
			if err != nil {
				return nil, err
			}
			if current == nil {
				return nil, fmt.Errorf("%w: %s", model.ErrProductNotFound, p.ID)
			}
			return uc.withCategory(ctx, current)
		}
		if err != nil {
			return nil, err
		}

		uc.logger.Debug("category prefix changed under a new sku, re-keyed",
			zap.String("product_id", p.ID),
			zap.String("sku", updated.SKU),
		)
		uc.invalidate(ctx, p.ID)
		p = updated
	}

	return nil, fmt.Errorf("%w: product %s sku keeps lagging its category prefix", model.ErrConflict, p.ID)
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.invalidate(ctx, id)
	return nil
}

// BulkUpdatePrices skips entries without a product id or with an invalid
// price and returns how many products actually changed.
func (uc *productUseCase) BulkUpdatePrices(ctx context.Context, inputs []dto.PriceUpdate) (int64, error) {
	valid := make([]dto.PriceUpdate, 0, len(inputs))
	keys := make([]string, 0, len(inputs))
	for _, in := range inputs {
		if strings.TrimSpace(in.ProductID) == "" || checkPrice(in.NewPrice) != nil {
			continue
		}
		valid = append(valid, in)
		keys = append(keys, product.CacheKey(in.ProductID))
	}
	if len(valid) == 0 {
		return 0, model.Invalid("no valid price updates")
	}

	modified, err := uc.repo.BulkUpdatePrices(ctx, valid)
	if err != nil {
		return 0, err
	}

	if err := uc.cache.Delete(ctx, keys...); err != nil {
		uc.logger.Warn("failed to invalidate product cache", zap.Error(err))
	}
	return modified, nil
}

func (uc *productUseCase) findCategory(ctx context.Context, id string) (*model.Category, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.Invalid("category is required")
	}
	cat, err := uc.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrCategoryNotFound, id)
	}
	return cat, nil
}

func (uc *productUseCase) withCategory(ctx context.Context, p *model.Product) (*model.Product, error) {
	cat, err := uc.categories.FindByID(ctx, p.CategoryID)
	if err != nil {
		return nil, err
	}
	p.Category = cat
	return p, nil
}

func (uc *productUseCase) invalidate(ctx context.Context, id string) {
	if err := uc.cache.Delete(ctx, product.CacheKey(id)); err != nil {
		uc.logger.Warn("failed to invalidate product cache", zap.String("product_id", id), zap.Error(err))
	}
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/category"
	"github.com/fekuna/omnipos-inventory-service/internal/category/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	productDto "github.com/fekuna/omnipos-inventory-service/internal/product/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/sku"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxRekeyPasses bounds how often a prefix change re-lists the category
// while concurrent creates keep adding products under the old prefix.
const maxRekeyPasses = 5

type categoryUseCase struct {
	repo     category.Repository
	products product.Repository
	skus     product.SKUAssigner
	cache    *cache.RedisClient
	logger   logger.ZapLogger
}

func NewCategoryUseCase(
	repo category.Repository,
	products product.Repository,
	skus product.SKUAssigner,
	cache *cache.RedisClient,
	log logger.ZapLogger,
) category.UseCase {
	return &categoryUseCase{
		repo:     repo,
		products: products,
		skus:     skus,
		cache:    cache,
		logger:   log,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, model.Invalid("name is required")
	}
	prefix := model.NormalizeSKUPrefix(input.SKUPrefix)
	if !model.ValidSKUPrefix(prefix) {
		return nil, model.Invalid("sku_prefix must be 2 to 10 letters, got %q", input.SKUPrefix)
	}

	now := time.Now().UTC()
	cat := &model.Category{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:      name,
		SKUPrefix: prefix,
	}

	if err := uc.repo.Create(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrCategoryNotFound, id)
	}
	return cat, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

// UpdateCategory renames a category or changes its prefix. Only the supplied
// fields are written. Whenever a prefix is supplied, every product of the
// category is brought under the prefix now stored, so repeating an update
// also repairs SKUs a previous one could not reach.
func (uc *categoryUseCase) UpdateCategory(ctx context.Context, input *dto.UpdateCategoryInput) (*model.Category, error) {
	patch := &dto.CategoryPatch{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, model.Invalid("name cannot be empty")
		}
		patch.Name = &name
	}
	if input.SKUPrefix != nil {
		prefix := model.NormalizeSKUPrefix(*input.SKUPrefix)
		if !model.ValidSKUPrefix(prefix) {
			return nil, model.Invalid("sku_prefix must be 2 to 10 letters, got %q", *input.SKUPrefix)
		}
		patch.SKUPrefix = &prefix
	}
	if patch.IsEmpty() {
		return uc.GetCategory(ctx, input.ID)
	}

	cat, err := uc.repo.Update(ctx, input.ID, patch)
	if err != nil {
		if errors.Is(err, model.ErrNoMatch) {
			return nil, fmt.Errorf("%w: %s", model.ErrCategoryNotFound, input.ID)
		}
		return nil, err
	}

	if patch.SKUPrefix != nil {
		if err := uc.rekey(ctx, cat.ID); err != nil {
			return nil, err
		}
	}
	return cat, nil
}

// rekey gives every product of the category that does not carry the
// category's stored prefix a fresh SKU under it. Each pass re-reads the
// prefix and the product list; a product created under the old prefix after
// a listing is caught by the next pass, and the loop ends on a pass with
// nothing left to fix. Products that left the category meanwhile are skipped.
func (uc *categoryUseCase) rekey(ctx context.Context, categoryID string) error {
	for pass := 1; pass <= maxRekeyPasses; pass++ {
		cat, err := uc.repo.FindByID(ctx, categoryID)
		if err != nil {
			return err
		}
		if cat == nil {
			return nil
		}

		products, _, err := uc.products.FindAll(ctx, &productDto.ProductFilters{CategoryID: cat.ID})
		if err != nil {
			return fmt.Errorf("list products of category %s: %w", cat.ID, err)
		}

		stale := 0
		var errs []error
		for _, p := range products {
			if sku.Matches(p.SKU, cat.SKUPrefix) {
				continue
			}
			stale++

			_, err := uc.skus.Assign(ctx, cat.ID, func(ctx context.Context, next string) error {
				_, err := uc.products.Update(ctx, p.ID, &productDto.ProductPatch{
					SKU:              &next,
					ExpectCategoryID: &cat.ID,
				})
				return err
			})
			if errors.Is(err, model.ErrNoMatch) {
				continue
			}
			if err != nil {
				errs = append(errs, fmt.Errorf("product %s: %w", p.ID, err))
				continue
			}

			if err := uc.cache.Delete(ctx, product.CacheKey(p.ID)); err != nil {
				uc.logger.Warn("failed to invalidate product cache", zap.String("product_id", p.ID), zap.Error(err))
			}
		}

		if len(errs) > 0 {
			uc.logger.Error("products kept their old sku after a prefix change",
				zap.String("category_id", cat.ID),
				zap.Int("failed", len(errs)),
			)
			return fmt.Errorf("%w: category %s updated but %d products kept their old sku: %w",
				model.ErrConflict, cat.ID, len(errs), errors.Join(errs...))
		}
		if stale == 0 {
			return nil
		}

		uc.logger.Debug("re-checking category after rekey pass",
			zap.String("category_id", cat.ID),
			zap.Int("pass", pass),
			zap.Int("rekeyed", stale),
		)
	}

	uc.logger.Warn("category still has products under another prefix",
		zap.String("category_id", categoryID),
		zap.Int("passes", maxRekeyPasses),
	)
	return fmt.Errorf("%w: category %s still has products under another prefix after %d passes",
		model.ErrConflict, categoryID, maxRekeyPasses)
}

// DeleteCategory removes the category only. Products that reference it are
// left as they are.
func (uc *categoryUseCase) DeleteCategory(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}

	_, orphans, err := uc.products.FindAll(ctx, &productDto.ProductFilters{CategoryID: id, PageSize: 1})
	if err == nil && orphans > 0 {
		uc.logger.Warn("deleted category is still referenced by products",
			zap.String("category_id", id),
			zap.Int("products", orphans),
		)
	}
	return nil
}

func (uc *categoryUseCase) NextSKU(ctx context.Context, id string) (string, error) {
	return uc.skus.Allocate(ctx, id)
}

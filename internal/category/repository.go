package category

import (
	"context"

	"github.com/fekuna/omnipos-inventory-service/internal/category/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type Repository interface {
	// Create and Update fail with *model.DuplicateKeyError when the name or
	// SKU prefix belongs to another category.
	Create(ctx context.Context, category *model.Category) error
	// FindByID returns nil, nil when the category does not exist.
	FindByID(ctx context.Context, id string) (*model.Category, error)
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	// Update writes only the fields set on the patch in one statement and
	// returns the stored category, or model.ErrNoMatch when it does not exist.
	Update(ctx context.Context, id string, patch *dto.CategoryPatch) (*model.Category, error)
	// Delete returns model.ErrCategoryNotFound when nothing was deleted.
	Delete(ctx context.Context, id string) error
}

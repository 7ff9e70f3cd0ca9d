package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/category/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
)

type MemoryRepository struct {
	mu         sync.RWMutex
	categories map[string]model.Category
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{categories: make(map[string]model.Category)}
}

func (r *MemoryRepository) Create(ctx context.Context, c *model.Category) error {
	if err := ctx.Err(); err != nil {
		return model.Unavailable(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkUnique(c); err != nil {
		return err
	}
	r.categories[c.ID] = *c
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.Unavailable(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *MemoryRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, model.Unavailable(err)
	}

	r.mu.RLock()
	all := make([]model.Category, 0, len(r.categories))
	for _, c := range r.categories {
		all = append(all, c)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].Name < all[j].Name
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		start := min((page-1)*f.PageSize, total)
		end := min(start+f.PageSize, total)
		all = all[start:end]
	}
	return all, total, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, patch *dto.CategoryPatch) (*model.Category, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.Unavailable(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.categories[id]
	if !ok {
		return nil, model.ErrNoMatch
	}

	if patch.Name != nil {
		c.Name = *patch.Name
	}
	if patch.SKUPrefix != nil {
		c.SKUPrefix = *patch.SKUPrefix
	}
	if err := r.checkUnique(&c); err != nil {
		return nil, err
	}
	c.UpdatedAt = time.Now().UTC()
	r.categories[id] = c
	return &c, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return model.Unavailable(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.categories[id]; !ok {
		return model.ErrCategoryNotFound
	}
	delete(r.categories, id)
	return nil
}

// checkUnique must be called with the write lock held.
func (r *MemoryRepository) checkUnique(c *model.Category) error {
	for id, other := range r.categories {
		if id == c.ID {
			continue
		}
		if other.Name == c.Name {
			return &model.DuplicateKeyError{Field: "name"}
		}
		if other.SKUPrefix == c.SKUPrefix {
			return &model.DuplicateKeyError{Field: "sku_prefix"}
		}
	}
	return nil
}

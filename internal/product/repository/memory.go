package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
)

// MemoryRepository is an in-process record store with the same guarantees as
// the database backends: each method is atomic and SKUs are unique.
type MemoryRepository struct {
	mu       sync.RWMutex
	products map[string]*model.Product
	skus     map[string]string // sku -> product id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		products: make(map[string]*model.Product),
		skus:     make(map[string]string),
	}
}

func (r *MemoryRepository) Create(ctx context.Context, p *model.Product) error {
	if err := ctx.Err(); err != nil {
		return model.Unavailable(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.skus[p.SKU]; taken {
		return &model.DuplicateKeyError{Field: "sku"}
	}
	if _, exists := r.products[p.ID]; exists {
		return &model.DuplicateKeyError{Field: "id"}
	}

	stored := p.Clone()
	stored.Category = nil
	r.products[p.ID] = stored
	r.skus[p.SKU] = p.ID
	return nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.Unavailable(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	return p.Clone(), nil
}

func (r *MemoryRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, model.Unavailable(err)
	}

	r.mu.RLock()
	matched := make([]model.Product, 0, len(r.products))
	search := strings.ToLower(f.SearchQuery)
	for _, p := range r.products {
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.SKU), search) {
			continue
		}
		matched = append(matched, *p.Clone())
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].SKU < matched[j].SKU
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * f.PageSize
		if start > total {
			start = total
		}
		end := start + f.PageSize
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (r *MemoryRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, model.Unavailable(err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.skus[sku]
	return ok, nil
}

func (r *MemoryRepository) Update(ctx context.Context, id string, patch *dto.ProductPatch) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.Unavailable(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, model.ErrNoMatch
	}
	if patch.ExpectCategoryID != nil && p.CategoryID != *patch.ExpectCategoryID {
		return nil, model.ErrNoMatch
	}
	if patch.SKU != nil && *patch.SKU != p.SKU {
		if owner, taken := r.skus[*patch.SKU]; taken && owner != id {
			return nil, &model.DuplicateKeyError{Field: "sku"}
		}
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.SKU != nil && *patch.SKU != p.SKU {
		delete(r.skus, p.SKU)
		p.SKU = *patch.SKU
		r.skus[p.SKU] = id
	}
	p.UpdatedAt = time.Now().UTC()

	return p.Clone(), nil
}

func (r *MemoryRepository) DecrementStock(ctx context.Context, id string, qty int64) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.Unavailable(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok || p.Stock < qty {
		return nil, model.ErrNoMatch
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now().UTC()
	return p.Clone(), nil
}

func (r *MemoryRepository) IncrementStock(ctx context.Context, id string, qty int64) (*model.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, model.Unavailable(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, model.ErrNoMatch
	}
	p.Stock += qty
	p.UpdatedAt = time.Now().UTC()
	return p.Clone(), nil
}

func (r *MemoryRepository) BulkUpdatePrices(ctx context.Context, updates []dto.PriceUpdate) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, model.Unavailable(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var modified int64
	now := time.Now().UTC()
	for _, u := range updates {
		p, ok := r.products[u.ProductID]
		if !ok || p.Price.Equal(u.NewPrice) {
			continue
		}
		p.Price = u.NewPrice
		p.UpdatedAt = now
		modified++
	}
	return modified, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return model.Unavailable(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return model.ErrProductNotFound
	}
	delete(r.skus, p.SKU)
	delete(r.products, id)
	return nil
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	catDto "github.com/fekuna/omnipos-inventory-service/internal/category/dto"
	catRepo "github.com/fekuna/omnipos-inventory-service/internal/category/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/product"
	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/product/repository"
	"github.com/fekuna/omnipos-inventory-service/internal/sku"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Helpers ---

type fixture struct {
	products   *repository.MemoryRepository
	categories *catRepo.MemoryRepository
	uc         product.UseCase
}

func newFixture(t *testing.T, attempts int) *fixture {
	t.Helper()
	f := &fixture{
		products:   repository.NewMemoryRepository(),
		categories: catRepo.NewMemoryRepository(),
	}
	for _, c := range []struct{ id, name, prefix string }{
		{"food", "Food", "FOOD"},
		{"bev", "Beverage", "BEV"},
	} {
		require.NoError(t, f.categories.Create(context.Background(), &model.Category{
			BaseModel: model.BaseModel{ID: c.id, CreatedAt: time.Now()},
			Name:      c.name,
			SKUPrefix: c.prefix,
		}))
	}
	f.uc = f.newUseCase(f.products, attempts)
	return f
}

func (f *fixture) newUseCase(repo product.Repository, attempts int) product.UseCase {
	alloc := sku.NewAllocator(f.categories, repo, sku.Config{MaxAttempts: attempts}, logger.NewNop())
	return NewProductUseCase(repo, f.categories, alloc, nil, Config{MaxAttempts: attempts}, logger.NewNop())
}

func (f *fixture) create(t *testing.T, name, categoryID string) *model.Product {
	t.Helper()
	p, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{
		Name:       name,
		Price:      decimal.NewFromFloat(9.5),
		Stock:      5,
		CategoryID: categoryID,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stored(t *testing.T, id string) *model.Product {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func ptr[T any](v T) *T { return &v }

// racingRepository moves the product to another category right before the
// first guarded update, as a concurrent writer would.
type racingRepository struct {
	*repository.MemoryRepository
	once   sync.Once
	moveTo string
	sku    string
}

func (r *racingRepository) Update(ctx context.Context, id string, patch *dto.ProductPatch) (*model.Product, error) {
	if patch.ExpectCategoryID != nil {
		r.once.Do(func() {
			_, _ = r.MemoryRepository.Update(ctx, id, &dto.ProductPatch{CategoryID: &r.moveTo, SKU: &r.sku})
		})
	}
	return r.MemoryRepository.Update(ctx, id, patch)
}

// prefixChangingAssigner commits a prefix change on the category right after
// a SKU was persisted, as a concurrent category update whose product listing
// ran before the write would.
type prefixChangingAssigner struct {
	product.SKUAssigner
	categories *catRepo.MemoryRepository
	once       sync.Once
	prefix     string
}

func (a *prefixChangingAssigner) Assign(ctx context.Context, categoryID string, persist func(ctx context.Context, sku string) error) (string, error) {
	got, err := a.SKUAssigner.Assign(ctx, categoryID, persist)
	if err == nil {
		a.once.Do(func() {
			_, _ = a.categories.Update(ctx, categoryID, &catDto.CategoryPatch{SKUPrefix: &a.prefix})
		})
	}
	return got, err
}

// sellAfterRead lets a sale commit right after the first product read, in the
// window between a lookup and its cache write.
type sellAfterRead struct {
	*repository.MemoryRepository
	once  sync.Once
	reads int
}

func (r *sellAfterRead) FindByID(ctx context.Context, id string) (*model.Product, error) {
	r.reads++
	p, err := r.MemoryRepository.FindByID(ctx, id)
	r.once.Do(func() {
		_, _ = r.MemoryRepository.DecrementStock(ctx, id, 2)
	})
	return p, err
}

// failingAssigner never manages to persist a SKU.
type failingAssigner struct{ err error }

func (a *failingAssigner) Allocate(ctx context.Context, categoryID string) (string, error) {
	return "", a.err
}

func (a *failingAssigner) Assign(ctx context.Context, categoryID string, persist func(ctx context.Context, sku string) error) (string, error) {
	return "", a.err
}

// --- Tests ---

func TestCreateProduct(t *testing.T) {
	testCases := []struct {
		name        string
		input       *dto.CreateProductInput
		expectedErr error
	}{
		{
			name:  "valid product",
			input: &dto.CreateProductInput{Name: "Rice", Price: decimal.NewFromInt(3), Stock: 10, CategoryID: "food"},
		},
		{
			name:        "blank name",
			input:       &dto.CreateProductInput{Name: "  ", Price: decimal.NewFromInt(3), CategoryID: "food"},
			expectedErr: model.ErrValidation,
		},
		{
			name:        "zero price",
			input:       &dto.CreateProductInput{Name: "Rice", Price: decimal.Zero, CategoryID: "food"},
			expectedErr: model.ErrValidation,
		},
		{
			name:        "negative stock",
			input:       &dto.CreateProductInput{Name: "Rice", Price: decimal.NewFromInt(3), Stock: -1, CategoryID: "food"},
			expectedErr: model.ErrValidation,
		},
		{
			name:        "missing category",
			input:       &dto.CreateProductInput{Name: "Rice", Price: decimal.NewFromInt(3)},
			expectedErr: model.ErrValidation,
		},
		{
			name:        "unknown category",
			input:       &dto.CreateProductInput{Name: "Rice", Price: decimal.NewFromInt(3), CategoryID: "toys"},
			expectedErr: model.ErrCategoryNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t, 5)

			// Act
			p, err := f.uc.CreateProduct(context.Background(), tc.input)

			// Assert
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "FOOD001", p.SKU)
			assert.Equal(t, "Food", p.Category.Name)
			assert.NotEmpty(t, p.ID)
		})
	}
}

func TestCreateProductFollowsPrefixChangedMidCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	alloc := sku.NewAllocator(f.categories, f.products, sku.Config{}, logger.NewNop())
	assigner := &prefixChangingAssigner{SKUAssigner: alloc, categories: f.categories, prefix: "GROC"}
	uc := NewProductUseCase(f.products, f.categories, assigner, nil, Config{}, logger.NewNop())

	p, err := uc.CreateProduct(ctx, &dto.CreateProductInput{
		Name:       "Rice",
		Price:      decimal.NewFromInt(3),
		CategoryID: "food",
	})

	require.NoError(t, err)
	assert.Equal(t, "GROC001", p.SKU)
	assert.Equal(t, "GROC", p.Category.SKUPrefix)
	assert.Equal(t, "GROC001", f.stored(t, p.ID).SKU)
}

func TestPriceScale(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)

	_, err := f.uc.CreateProduct(ctx, &dto.CreateProductInput{
		Name:       "Salt",
		Price:      decimal.RequireFromString("0.001"),
		CategoryID: "food",
	})
	assert.ErrorIs(t, err, model.ErrValidation)

	p, err := f.uc.CreateProduct(ctx, &dto.CreateProductInput{
		Name:       "Salt",
		Price:      decimal.RequireFromString("0.50"),
		CategoryID: "food",
	})
	require.NoError(t, err)

	_, err = f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: p.ID, Price: ptr(decimal.RequireFromString("1.999"))})
	assert.ErrorIs(t, err, model.ErrValidation)

	modified, err := f.uc.BulkUpdatePrices(ctx, []dto.PriceUpdate{
		{ProductID: p.ID, NewPrice: decimal.RequireFromString("2.005")},
	})
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Zero(t, modified)
}

func TestCreateProductSequence(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)

	first := f.create(t, "Rice", "food")
	second := f.create(t, "Bread", "food")
	soda := f.create(t, "Soda", "bev")
	assert.Equal(t, "FOOD001", first.SKU)
	assert.Equal(t, "FOOD002", second.SKU)
	assert.Equal(t, "BEV001", soda.SKU)

	require.NoError(t, f.uc.DeleteProduct(ctx, first.ID))
	assert.Equal(t, "FOOD001", f.create(t, "Noodles", "food").SKU)
	assert.Equal(t, "FOOD003", f.create(t, "Flour", "food").SKU)
}

func TestCreateProductConcurrent(t *testing.T) {
	const workers = sku.DefaultMaxAttempts

	f := newFixture(t, 0)

	var wg sync.WaitGroup
	skus := make([]string, workers)
	errs := make([]error, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			p, err := f.uc.CreateProduct(context.Background(), &dto.CreateProductInput{
				Name:       fmt.Sprintf("Item %d", i),
				Price:      decimal.NewFromInt(1),
				CategoryID: "food",
			})
			errs[i] = err
			if err == nil {
				skus[i] = p.SKU
			}
		}(i)
	}
	close(start)
	wg.Wait()

	seen := make(map[string]bool, workers)
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.True(t, strings.HasPrefix(skus[i], "FOOD"))
		assert.False(t, seen[skus[i]], "duplicate sku %s", skus[i])
		seen[skus[i]] = true
	}
}

func TestChangeCategory(t *testing.T) {
	ctx := context.Background()

	t.Run("moves category and sku together", func(t *testing.T) {
		f := newFixture(t, 5)
		f.create(t, "Cola", "bev")
		p := f.create(t, "Rice", "food")

		moved, err := f.uc.ChangeCategory(ctx, p.ID, "bev")

		require.NoError(t, err)
		assert.Equal(t, "bev", moved.CategoryID)
		assert.Equal(t, "BEV002", moved.SKU)
		assert.Equal(t, "Beverage", moved.Category.Name)
		stored := f.stored(t, p.ID)
		assert.Equal(t, "bev", stored.CategoryID)
		assert.Equal(t, "BEV002", stored.SKU)

		// The old sku is free again.
		assert.Equal(t, "FOOD001", f.create(t, "Bread", "food").SKU)
	})

	t.Run("same category keeps the sku", func(t *testing.T) {
		f := newFixture(t, 5)
		p := f.create(t, "Rice", "food")

		same, err := f.uc.ChangeCategory(ctx, p.ID, "food")

		require.NoError(t, err)
		assert.Equal(t, "FOOD001", same.SKU)
	})

	t.Run("unknown target leaves product unchanged", func(t *testing.T) {
		f := newFixture(t, 5)
		p := f.create(t, "Rice", "food")

		_, err := f.uc.ChangeCategory(ctx, p.ID, "toys")

		assert.ErrorIs(t, err, model.ErrCategoryNotFound)
		stored := f.stored(t, p.ID)
		assert.Equal(t, "food", stored.CategoryID)
		assert.Equal(t, "FOOD001", stored.SKU)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture(t, 5)

		_, err := f.uc.ChangeCategory(ctx, "missing", "bev")

		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})

	t.Run("allocation failure leaves both fields unchanged", func(t *testing.T) {
		f := newFixture(t, 5)
		p := f.create(t, "Rice", "food")
		uc := NewProductUseCase(f.products, f.categories, &failingAssigner{err: model.ErrAllocationFailed}, nil, Config{}, logger.NewNop())

		_, err := uc.ChangeCategory(ctx, p.ID, "bev")

		assert.ErrorIs(t, err, model.ErrAllocationFailed)
		stored := f.stored(t, p.ID)
		assert.Equal(t, "food", stored.CategoryID)
		assert.Equal(t, "FOOD001", stored.SKU)
	})

	t.Run("concurrent move is re-read and retried", func(t *testing.T) {
		f := newFixture(t, 5)
		require.NoError(t, f.categories.Create(ctx, &model.Category{
			BaseModel: model.BaseModel{ID: "util", CreatedAt: time.Now()},
			Name:      "Utility",
			SKUPrefix: "UTIL",
		}))
		p := f.create(t, "Rice", "food")
		racing := &racingRepository{MemoryRepository: f.products, moveTo: "util", sku: "UTIL001"}
		uc := f.newUseCase(racing, 5)

		moved, err := uc.ChangeCategory(ctx, p.ID, "bev")

		require.NoError(t, err)
		assert.Equal(t, "bev", moved.CategoryID)
		assert.Equal(t, "BEV001", moved.SKU)
		stored := f.stored(t, p.ID)
		assert.Equal(t, "bev", stored.CategoryID)
		assert.Equal(t, "BEV001", stored.SKU)
	})
}

func TestChangeCategoryConcurrentMovesStayConsistent(t *testing.T) {
	const products = 10

	ctx := context.Background()
	f := newFixture(t, products*2)
	ids := make([]string, products)
	for i := range ids {
		ids[i] = f.create(t, fmt.Sprintf("Item %d", i), "food").ID
	}

	var wg sync.WaitGroup
	for _, id := range ids {
		for _, target := range []string{"bev", "food"} {
			wg.Add(1)
			go func(id, target string) {
				defer wg.Done()
				_, err := f.uc.ChangeCategory(ctx, id, target)
				assert.NoError(t, err)
			}(id, target)
		}
	}
	wg.Wait()

	all, total, err := f.products.FindAll(ctx, &dto.ProductFilters{})
	require.NoError(t, err)
	require.Equal(t, products, total)
	seen := make(map[string]bool, products)
	for _, p := range all {
		prefix := map[string]string{"food": "FOOD", "bev": "BEV"}[p.CategoryID]
		assert.True(t, strings.HasPrefix(p.SKU, prefix), "sku %s in category %s", p.SKU, p.CategoryID)
		assert.False(t, seen[p.SKU])
		seen[p.SKU] = true
	}
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("patches plain fields", func(t *testing.T) {
		f := newFixture(t, 5)
		p := f.create(t, "Rice", "food")

		updated, err := f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{
			ID:    p.ID,
			Name:  ptr("Brown Rice"),
			Price: ptr(decimal.NewFromInt(12)),
			Stock: ptr(int64(40)),
		})

		require.NoError(t, err)
		assert.Equal(t, "Brown Rice", updated.Name)
		assert.True(t, decimal.NewFromInt(12).Equal(updated.Price))
		assert.Equal(t, int64(40), updated.Stock)
		assert.Equal(t, "FOOD001", updated.SKU)
	})

	t.Run("category change carries the other fields", func(t *testing.T) {
		f := newFixture(t, 5)
		p := f.create(t, "Rice", "food")

		updated, err := f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{
			ID:         p.ID,
			Name:       ptr("Rice Milk"),
			CategoryID: ptr("bev"),
		})

		require.NoError(t, err)
		stored := f.stored(t, p.ID)
		assert.Equal(t, "Rice Milk", stored.Name)
		assert.Equal(t, "bev", stored.CategoryID)
		assert.Equal(t, "BEV001", stored.SKU)
		assert.Equal(t, stored.SKU, updated.SKU)
	})

	t.Run("rejects invalid fields", func(t *testing.T) {
		f := newFixture(t, 5)
		p := f.create(t, "Rice", "food")

		_, err := f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: p.ID, Price: ptr(decimal.NewFromInt(-1))})
		assert.ErrorIs(t, err, model.ErrValidation)

		_, err = f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: p.ID, Stock: ptr(int64(-5))})
		assert.ErrorIs(t, err, model.ErrValidation)

		_, err = f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: p.ID, Name: ptr(" ")})
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture(t, 5)

		_, err := f.uc.UpdateProduct(ctx, &dto.UpdateProductInput{ID: "missing", Name: ptr("x")})

		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})
}

func TestGetListDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	rice := f.create(t, "Rice", "food")
	f.create(t, "Cola", "bev")

	got, err := f.uc.GetProduct(ctx, rice.ID)
	require.NoError(t, err)
	assert.Equal(t, "FOOD001", got.SKU)
	assert.Equal(t, "Food", got.Category.Name)

	list, total, err := f.uc.ListProducts(ctx, &dto.ProductFilters{CategoryID: "bev"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Cola", list[0].Name)
	assert.Equal(t, "BEV", list[0].Category.SKUPrefix)

	list, _, err = f.uc.ListProducts(ctx, &dto.ProductFilters{SearchQuery: " food0 "})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, rice.ID, list[0].ID)

	require.NoError(t, f.uc.DeleteProduct(ctx, rice.ID))
	_, err = f.uc.GetProduct(ctx, rice.ID)
	assert.ErrorIs(t, err, model.ErrProductNotFound)
	assert.ErrorIs(t, f.uc.DeleteProduct(ctx, rice.ID), model.ErrProductNotFound)
}

func TestGetProductDoesNotKeepRowChangedDuringLookup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	p := f.create(t, "Rice", "food")
	repo := &sellAfterRead{MemoryRepository: f.products}
	uc := f.newUseCase(repo, 5)

	got, err := uc.GetProduct(ctx, p.ID)

	require.NoError(t, err)
	assert.Equal(t, 2, repo.reads)
	assert.Equal(t, int64(3), got.Stock)
	assert.Equal(t, "Food", got.Category.Name)
}

func TestBulkUpdatePrices(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 5)
	rice := f.create(t, "Rice", "food")
	bread := f.create(t, "Bread", "food")

	n, err := f.uc.BulkUpdatePrices(ctx, []dto.PriceUpdate{
		{ProductID: rice.ID, NewPrice: decimal.NewFromInt(20)},
		{ProductID: bread.ID, NewPrice: decimal.NewFromInt(-3)},
		{ProductID: "", NewPrice: decimal.NewFromInt(4)},
		{ProductID: "missing", NewPrice: decimal.NewFromInt(4)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.True(t, decimal.NewFromInt(20).Equal(f.stored(t, rice.ID).Price))
	assert.True(t, decimal.NewFromFloat(9.5).Equal(f.stored(t, bread.ID).Price))

	_, err = f.uc.BulkUpdatePrices(ctx, []dto.PriceUpdate{{ProductID: rice.ID, NewPrice: decimal.Zero}})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestStoreUnavailablePropagates(t *testing.T) {
	f := newFixture(t, 5)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.uc.CreateProduct(ctx, &dto.CreateProductInput{Name: "Rice", Price: decimal.NewFromInt(1), CategoryID: "food"})

	assert.ErrorIs(t, err, model.ErrUnavailable)
	assert.False(t, errors.Is(err, model.ErrAllocationFailed))
}

// Package sku assigns category-scoped product SKUs of the form
// prefix + zero padded sequence number, e.g. FOOD001.
//
// The allocator never stores a counter. It probes the record store for the
// smallest sequence number not in use, so numbers freed by deletions are
// reused. Two concurrent allocations may pick the same candidate; the store's
// unique constraint on sku rejects the second write and Assign retries it
// with a fresh probe after a jittered backoff.
package sku

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/retry"
	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 16
	DefaultPadWidth    = 3
)

type CategoryFinder interface {
	FindByID(ctx context.Context, id string) (*model.Category, error)
}

type SKUChecker interface {
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
}

// Config tunes the allocator. Every lost race means another writer committed
// a SKU, so a burst of N concurrent creates in one category needs at most N
// attempts per writer; MaxAttempts bounds the burst that always succeeds.
type Config struct {
	MaxAttempts int
	PadWidth    int
	Backoff     retry.Backoff
}

type Allocator struct {
	categories CategoryFinder
	products   SKUChecker
	cfg        Config
	logger     logger.ZapLogger
}

func NewAllocator(categories CategoryFinder, products SKUChecker, cfg Config, log logger.ZapLogger) *Allocator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.PadWidth < 1 {
		cfg.PadWidth = DefaultPadWidth
	}
	return &Allocator{
		categories: categories,
		products:   products,
		cfg:        cfg,
		logger:     log,
	}
}

// Format builds a SKU. Numbers wider than width are not truncated.
func Format(prefix string, n, width int) string {
	return fmt.Sprintf("%s%0*d", prefix, width, n)
}

// Matches reports whether s is prefix followed by a sequence number.
func Matches(s, prefix string) bool {
	rest, ok := strings.CutPrefix(s, prefix)
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Allocate returns the smallest free SKU for the category at the time of the
// probe. The result is a candidate only: persist it through Assign.
func (a *Allocator) Allocate(ctx context.Context, categoryID string) (string, error) {
	cat, err := a.categories.FindByID(ctx, categoryID)
	if err != nil {
		return "", err
	}
	if cat == nil {
		return "", fmt.Errorf("%w: %s", model.ErrCategoryNotFound, categoryID)
	}
	return a.Next(ctx, cat.SKUPrefix)
}

// Next probes prefix+001, prefix+002, ... and returns the first SKU no
// product holds.
func (a *Allocator) Next(ctx context.Context, prefix string) (string, error) {
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			return "", model.Unavailable(err)
		}

		candidate := Format(prefix, n, a.cfg.PadWidth)
		taken, err := a.products.ExistsBySKU(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe sku %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
}

// Assign allocates a SKU and hands it to persist, which must write it in a
// single store operation. A duplicate SKU reported by persist means another
// writer took the candidate first; Assign then probes again, up to
// MaxAttempts times, before failing with model.ErrAllocationFailed. Any other
// error from persist is returned unchanged. Retries wait a random delay so
// that writers who lost the same candidate spread out.
func (a *Allocator) Assign(ctx context.Context, categoryID string, persist func(ctx context.Context, sku string) error) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := a.cfg.Backoff.Wait(ctx, attempt-1); err != nil {
				return "", model.Unavailable(err)
			}
		}

		candidate, err := a.Allocate(ctx, categoryID)
		if err != nil {
			return "", err
		}

		err = persist(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if !model.IsDuplicateField(err, "sku") {
			return "", err
		}

		lastErr = err
		a.logger.Debug("sku taken by a concurrent writer, retrying",
			zap.String("category_id", categoryID),
			zap.String("sku", candidate),
			zap.Int("attempt", attempt),
		)
	}

	a.logger.Warn("sku allocation exhausted retries",
		zap.String("category_id", categoryID),
		zap.Int("max_attempts", a.cfg.MaxAttempts),
	)
	return "", fmt.Errorf("%w: category %s after %d attempts: %v",
		model.ErrAllocationFailed, categoryID, a.cfg.MaxAttempts, lastErr)
}

package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"testing"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestTranslateError(t *testing.T) {
	testCases := []struct {
		name        string
		err         error
		duplicateOn string
		unavailable bool
		invalid     bool
		passthrough bool
	}{
		{
			name:        "nil",
			err:         nil,
			passthrough: true,
		},
		{
			name:        "sku unique violation",
			err:         &pq.Error{Code: "23505", Constraint: ConstraintProductSKU},
			duplicateOn: "sku",
		},
		{
			name:        "category prefix unique violation",
			err:         fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: ConstraintCategorySKUPrefix}),
			duplicateOn: "sku_prefix",
		},
		{
			name:        "unknown constraint keeps its name",
			err:         &pq.Error{Code: "23505", Constraint: "other_key"},
			duplicateOn: "other_key",
		},
		{
			name:        "deadline exceeded",
			err:         context.DeadlineExceeded,
			unavailable: true,
		},
		{
			name:        "bad connection",
			err:         driver.ErrBadConn,
			unavailable: true,
		},
		{
			name:    "check violation is a validation error",
			err:     &pq.Error{Code: "23514", Constraint: "products_price_check"},
			invalid: true,
		},
		{
			name:        "no rows passes through",
			err:         sql.ErrNoRows,
			passthrough: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := TranslateError(tc.err)

			if tc.passthrough {
				assert.Equal(t, tc.err, got)
				return
			}
			if tc.duplicateOn != "" {
				assert.True(t, errors.Is(got, model.ErrDuplicateKey))
				assert.True(t, model.IsDuplicateField(got, tc.duplicateOn))
			}
			assert.Equal(t, tc.unavailable, errors.Is(got, model.ErrUnavailable))
			assert.Equal(t, tc.invalid, errors.Is(got, model.ErrValidation))
		})
	}
}

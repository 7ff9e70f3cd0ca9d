package postgres

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/lib/pq"
)

const (
	uniqueViolation = "23505"
	checkViolation  = "23514"
)

var constraintFields = map[string]string{
	ConstraintProductSKU:        "sku",
	ConstraintCategoryName:      "name",
	ConstraintCategorySKUPrefix: "sku_prefix",
}

// TranslateError maps driver errors onto the model error kinds: unique
// violations become *model.DuplicateKeyError and check violations match
// model.ErrValidation, since the row was rejected and nothing was written.
// Timeouts and broken connections match model.ErrUnavailable. Other errors
// pass through.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		field, ok := constraintFields[pqErr.Constraint]
		if !ok {
			field = pqErr.Constraint
		}
		return &model.DuplicateKeyError{Field: field, Err: err}
	}
	if errors.As(err, &pqErr) && pqErr.Code == checkViolation {
		return model.Invalid("%s violated", pqErr.Constraint)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) || errors.As(err, &netErr) {
		return model.Unavailable(err)
	}

	return err
}

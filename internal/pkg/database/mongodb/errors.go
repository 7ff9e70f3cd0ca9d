package mongodb

import (
	"context"
	"errors"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"go.mongodb.org/mongo-driver/mongo"
)

var indexFields = map[string]string{
	IndexProductSKU:        "sku",
	IndexCategoryName:      "name",
	IndexCategorySKUPrefix: "sku_prefix",
}

// TranslateError maps driver errors onto the model error kinds, the same way
// the postgres package does for SQL backends.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	if mongo.IsDuplicateKeyError(err) {
		return &model.DuplicateKeyError{Field: duplicateField(err), Err: err}
	}

	if mongo.IsTimeout(err) || mongo.IsNetworkError(err) || errors.Is(err, context.DeadlineExceeded) {
		return model.Unavailable(err)
	}

	return err
}

// duplicateField finds the violated index in the server message, which has
// the form "E11000 duplicate key error collection: db.products index: products_sku_unique dup key: ...".
func duplicateField(err error) string {
	msg := err.Error()
	for index, field := range indexFields {
		if strings.Contains(msg, "index: "+index+" ") {
			return field
		}
	}
	return "unknown"
}

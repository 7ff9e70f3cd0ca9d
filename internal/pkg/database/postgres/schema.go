package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Unique constraint names, mapped back to logical field names by TranslateError.
const (
	ConstraintProductSKU        = "products_sku_key"
	ConstraintCategoryName      = "categories_name_key"
	ConstraintCategorySKUPrefix = "categories_sku_prefix_key"
)

const schema = `
CREATE TABLE IF NOT EXISTS categories (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    sku_prefix  VARCHAR(10) NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT categories_name_key UNIQUE (name),
    CONSTRAINT categories_sku_prefix_key UNIQUE (sku_prefix),
    CONSTRAINT categories_sku_prefix_check CHECK (sku_prefix ~ '^[A-Z]{2,10}$')
);

CREATE TABLE IF NOT EXISTS products (
    id          TEXT PRIMARY KEY,
    category_id TEXT NOT NULL,
    sku         TEXT NOT NULL,
    name        TEXT NOT NULL,
    price       NUMERIC(12,2) NOT NULL,
    stock       BIGINT NOT NULL,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT products_sku_key UNIQUE (sku),
    CONSTRAINT products_price_check CHECK (price > 0),
    CONSTRAINT products_stock_check CHECK (stock >= 0)
);

CREATE INDEX IF NOT EXISTS products_category_id_idx ON products (category_id);
`

// Migrate creates the tables and unique constraints the repositories rely on.
// category_id carries no foreign key: deleting a category does not cascade.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

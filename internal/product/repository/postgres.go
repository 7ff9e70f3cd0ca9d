package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/database/postgres"
	"github.com/fekuna/omnipos-inventory-service/internal/product/dto"
	"github.com/jmoiron/sqlx"
)

const productColumns = `id, category_id, sku, name, price, stock, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (id, category_id, sku, name, price, stock, created_at, updated_at)
        VALUES (:id, :category_id, :sku, :name, :price, :stock, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return postgres.TranslateError(err)
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, postgres.TranslateError(err)
	}
	return &product, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.CategoryID != "" {
		conditions = append(conditions, "category_id = :category_id")
		args["category_id"] = f.CategoryID
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR sku ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, postgres.TranslateError(err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return nil, 0, err
		}
	}

	query := "SELECT " + productColumns + " FROM products" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, postgres.TranslateError(err)
	}
	defer nstmt.Close()

	if err := nstmt.SelectContext(ctx, &products, args); err != nil {
		return nil, 0, postgres.TranslateError(err)
	}

	return products, count, nil
}

func (r *PGRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var exists bool
	err := r.DB.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM products WHERE sku = $1)`, sku)
	if err != nil {
		return false, postgres.TranslateError(err)
	}
	return exists, nil
}

func (r *PGRepository) Update(ctx context.Context, id string, patch *dto.ProductPatch) (*model.Product, error) {
	sets := []string{"updated_at = NOW()"}
	args := map[string]interface{}{"id": id}

	if patch.Name != nil {
		sets = append(sets, "name = :name")
		args["name"] = *patch.Name
	}
	if patch.Price != nil {
		sets = append(sets, "price = :price")
		args["price"] = *patch.Price
	}
	if patch.Stock != nil {
		sets = append(sets, "stock = :stock")
		args["stock"] = *patch.Stock
	}
	if patch.CategoryID != nil {
		sets = append(sets, "category_id = :category_id")
		args["category_id"] = *patch.CategoryID
	}
	if patch.SKU != nil {
		sets = append(sets, "sku = :sku")
		args["sku"] = *patch.SKU
	}

	where := "id = :id"
	if patch.ExpectCategoryID != nil {
		where += " AND category_id = :expect_category_id"
		args["expect_category_id"] = *patch.ExpectCategoryID
	}

	query := "UPDATE products SET " + strings.Join(sets, ", ") + " WHERE " + where + " RETURNING " + productColumns
	return r.getOne(ctx, query, args)
}

func (r *PGRepository) DecrementStock(ctx context.Context, id string, qty int64) (*model.Product, error) {
	query := `
        UPDATE products
        SET stock = stock - :qty, updated_at = NOW()
        WHERE id = :id AND stock >= :qty
        RETURNING ` + productColumns
	return r.getOne(ctx, query, map[string]interface{}{"id": id, "qty": qty})
}

func (r *PGRepository) IncrementStock(ctx context.Context, id string, qty int64) (*model.Product, error) {
	query := `
        UPDATE products
        SET stock = stock + :qty, updated_at = NOW()
        WHERE id = :id
        RETURNING ` + productColumns
	return r.getOne(ctx, query, map[string]interface{}{"id": id, "qty": qty})
}

func (r *PGRepository) BulkUpdatePrices(ctx context.Context, updates []dto.PriceUpdate) (int64, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, postgres.TranslateError(err)
	}
	defer tx.Rollback()

	query := `UPDATE products SET price = $1, updated_at = NOW() WHERE id = $2 AND price <> $1`

	var modified int64
	for _, u := range updates {
		res, err := tx.ExecContext(ctx, query, u.NewPrice, u.ProductID)
		if err != nil {
			return 0, postgres.TranslateError(err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return 0, err
		}
		modified += rows
	}

	if err := tx.Commit(); err != nil {
		return 0, postgres.TranslateError(err)
	}
	return modified, nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return postgres.TranslateError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return model.ErrProductNotFound
	}
	return nil
}

// getOne runs a named UPDATE ... RETURNING and maps "no row" to ErrNoMatch.
func (r *PGRepository) getOne(ctx context.Context, query string, args map[string]interface{}) (*model.Product, error) {
	bound, params, err := sqlx.Named(query, args)
	if err != nil {
		return nil, err
	}

	var product model.Product
	if err := r.DB.GetContext(ctx, &product, r.DB.Rebind(bound), params...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNoMatch
		}
		return nil, postgres.TranslateError(err)
	}
	return &product, nil
}

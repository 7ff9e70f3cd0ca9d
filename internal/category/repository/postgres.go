package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-inventory-service/internal/category/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/model"
	"github.com/fekuna/omnipos-inventory-service/internal/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

const categoryColumns = `id, name, sku_prefix, created_at, updated_at`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, c *model.Category) error {
	query := `
        INSERT INTO categories (id, name, sku_prefix, created_at, updated_at)
        VALUES (:id, :name, :sku_prefix, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, c)
	return postgres.TranslateError(err)
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Category, error) {
	var category model.Category
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &category, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, postgres.TranslateError(err)
	}
	return &category, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, int, error) {
	var categories []model.Category
	var count int

	if err := r.DB.GetContext(ctx, &count, "SELECT count(*) FROM categories"); err != nil {
		return nil, 0, postgres.TranslateError(err)
	}

	query := "SELECT " + categoryColumns + " FROM categories ORDER BY created_at DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	if err := r.DB.SelectContext(ctx, &categories, query); err != nil {
		return nil, 0, postgres.TranslateError(err)
	}
	return categories, count, nil
}

func (r *PGRepository) Update(ctx context.Context, id string, patch *dto.CategoryPatch) (*model.Category, error) {
	sets := []string{"updated_at = NOW()"}
	args := map[string]interface{}{"id": id}

	if patch.Name != nil {
		sets = append(sets, "name = :name")
		args["name"] = *patch.Name
	}
	if patch.SKUPrefix != nil {
		sets = append(sets, "sku_prefix = :sku_prefix")
		args["sku_prefix"] = *patch.SKUPrefix
	}

	query := "UPDATE categories SET " + strings.Join(sets, ", ") + " WHERE id = :id RETURNING " + categoryColumns
	bound, params, err := sqlx.Named(query, args)
	if err != nil {
		return nil, err
	}

	var category model.Category
	if err := r.DB.GetContext(ctx, &category, r.DB.Rebind(bound), params...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNoMatch
		}
		return nil, postgres.TranslateError(err)
	}
	return &category, nil
}

// Delete removes the category only. Products that still reference it keep
// their category_id and SKU.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return postgres.TranslateError(err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return model.ErrCategoryNotFound
	}
	return nil
}

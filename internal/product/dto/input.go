package dto

import "github.com/shopspring/decimal"

type CreateProductInput struct {
	Name       string
	Price      decimal.Decimal
	Stock      int64
	CategoryID string
}

// UpdateProductInput carries the fields to change; nil means unchanged.
type UpdateProductInput struct {
	ID         string
	Name       *string
	Price      *decimal.Decimal
	Stock      *int64
	CategoryID *string
}

type PriceUpdate struct {
	ProductID string
	NewPrice  decimal.Decimal
}

// ProductPatch is the store-level partial update. ExpectCategoryID, when
// set, turns the update into a conditional one on the current category.
type ProductPatch struct {
	Name             *string
	Price            *decimal.Decimal
	Stock            *int64
	CategoryID       *string
	SKU              *string
	ExpectCategoryID *string
}

func (p *ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Price == nil && p.Stock == nil && p.CategoryID == nil && p.SKU == nil
}

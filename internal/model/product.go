package model

import "github.com/shopspring/decimal"

// Product is a sellable item. Stock is never negative and SKU always starts
// with the SKUPrefix of the category referenced by CategoryID.
type Product struct {
	BaseModel
	CategoryID string          `db:"category_id" json:"category_id"`
	SKU        string          `db:"sku" json:"sku"`
	Name       string          `db:"name" json:"name"`
	Price      decimal.Decimal `db:"price" json:"price"`
	Stock      int64           `db:"stock" json:"stock"`
	Category   *Category       `db:"-" json:"category,omitempty"` // Joined data
}

// Clone returns a copy that does not share the joined category.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Category != nil {
		cat := *p.Category
		cp.Category = &cat
	}
	return &cp
}

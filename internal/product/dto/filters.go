package dto

type ProductFilters struct {
	CategoryID  string
	SearchQuery string // Case-insensitive match on name or sku
	Page        int
	PageSize    int
}

package dto

type CreateCategoryInput struct {
	Name      string
	SKUPrefix string
}

// UpdateCategoryInput carries the fields to change; nil means unchanged.
type UpdateCategoryInput struct {
	ID        string
	Name      *string
	SKUPrefix *string
}

// CategoryPatch is the store-level partial update. Fields left nil keep the
// value currently stored.
type CategoryPatch struct {
	Name      *string
	SKUPrefix *string
}

func (p *CategoryPatch) IsEmpty() bool {
	return p.Name == nil && p.SKUPrefix == nil
}

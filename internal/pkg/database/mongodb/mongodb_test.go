package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexesCoverEveryUniqueKey(t *testing.T) {
	unique := map[string]string{}
	for collection, models := range indexes() {
		for _, m := range models {
			if m.Options == nil || m.Options.Unique == nil || !*m.Options.Unique {
				continue
			}
			require.NotNil(t, m.Options.Name)
			unique[*m.Options.Name] = collection
		}
	}

	assert.Equal(t, map[string]string{
		IndexProductSKU:        ProductsCollection,
		IndexCategoryName:      CategoriesCollection,
		IndexCategorySKUPrefix: CategoriesCollection,
	}, unique)
}

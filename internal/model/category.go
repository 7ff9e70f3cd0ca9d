package model

import (
	"regexp"
	"strings"
)

var skuPrefixPattern = regexp.MustCompile(`^[A-Z]{2,10}$`)

// Category groups products and owns the prefix used for their SKUs.
// Both Name and SKUPrefix are unique across all categories.
type Category struct {
	BaseModel
	Name      string `db:"name" json:"name"`
	SKUPrefix string `db:"sku_prefix" json:"sku_prefix"`
}

// NormalizeSKUPrefix upper-cases and trims a prefix before it is stored.
func NormalizeSKUPrefix(prefix string) string {
	return strings.ToUpper(strings.TrimSpace(prefix))
}

// ValidSKUPrefix reports whether an already normalized prefix is 2-10
// letters. Digits are reserved for the sequence part of a SKU so that no
// SKU can be read as belonging to two different prefixes.
func ValidSKUPrefix(prefix string) bool {
	return skuPrefixPattern.MatchString(prefix)
}

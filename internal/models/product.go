// internal/models/product.go
package models

// ProductKeys is the closed set of Skunk product identifiers. Mutating
// operations reject anything outside this set; read-only lookups simply find
// no entry.
var ProductKeys = []string{"crm", "forms", "pages"}

func IsValidProduct(key string) bool {
	for _, p := range ProductKeys {
		if p == key {
			return true
		}
	}
	return false
}

// ProSlugByProduct maps each product to the slug of its paid companion
// plugin.
var ProSlugByProduct = map[string]string{
	"crm":   "skunkcrm-pro",
	"forms": "skunkforms-pro",
	"pages": "skunkpages-pro",
}

// IsProSlug reports whether a plugin slug is one of the paid companions.
// Package URLs for these are only disclosed when the owning product holds a
// valid license.
func IsProSlug(slug string) bool {
	for _, pro := range ProSlugByProduct {
		if pro == slug {
			return true
		}
	}
	return false
}

// internal/models/license.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// License is the canonical record for one license key. Products point at it
// through ProductLicense rows, so a bundle key that covers several products
// is stored exactly once.
type License struct {
	BaseModel
	Key             string        `json:"key" gorm:"size:64;not null;uniqueIndex"`
	Status          LicenseStatus `json:"status" gorm:"type:varchar(20);not null;default:'valid'"`
	ProductFromAPI  string        `json:"product_from_api" gorm:"size:50"`
	PlanType        string        `json:"plan_type" gorm:"size:50"`
	MaxSites        int           `json:"max_sites" gorm:"default:1"`
	Billing         string        `json:"billing" gorm:"size:50"`
	LastCheck       time.Time     `json:"last_check"`
	ProductsCovered StringList    `json:"products_covered" gorm:"type:jsonb"`
}

// Covers reports whether the license's bundle includes the given product.
func (l *License) Covers(product string) bool {
	return l.ProductsCovered.Contains(product)
}

// ProductLicense maps a product key to its license record. One row per
// covered product replaces the duplicated per-product entries the suite used
// to keep, so a bundle update touches a single canonical row.
type ProductLicense struct {
	BaseModel
	ProductKey string    `json:"product_key" gorm:"size:50;not null;uniqueIndex"`
	LicenseID  uuid.UUID `json:"license_id" gorm:"type:uuid;not null;index"`

	License License `json:"license,omitempty" gorm:"foreignKey:LicenseID"`
}

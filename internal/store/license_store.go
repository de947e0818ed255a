// internal/store/license_store.go
package store

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/skunkglobal/suite-server/internal/models"
)

// LicenseStore persists one canonical License row per key plus a
// ProductLicense index row for every covered product.
type LicenseStore struct {
	db *gorm.DB
}

func NewLicenseStore(db *gorm.DB) *LicenseStore {
	return &LicenseStore{db: db}
}

// GetByProduct resolves a product's direct slot through the index table.
// Returns (nil, nil) when the product has no entry.
func (s *LicenseStore) GetByProduct(product string) (*models.License, error) {
	var pl models.ProductLicense
	err := s.db.Where("product_key = ?", product).First(&pl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up product license: %w", err)
	}

	var license models.License
	if err := s.db.First(&license, "id = ?", pl.LicenseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Dangling index row; treat as no entry
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load license: %w", err)
	}

	return &license, nil
}

// FindCovering scans all licenses for one whose bundle covers the product.
// The license population is tiny (one per key), so a linear scan is fine.
func (s *LicenseStore) FindCovering(product string) (*models.License, error) {
	var licenses []models.License
	if err := s.db.Find(&licenses).Error; err != nil {
		return nil, fmt.Errorf("failed to scan licenses: %w", err)
	}

	for i := range licenses {
		if licenses[i].Covers(product) {
			return &licenses[i], nil
		}
	}

	return nil, nil
}

// Upsert saves the canonical license row and points every given product's
// index slot at it, overwriting slots held by other keys.
func (s *LicenseStore) Upsert(license *models.License, products []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.License
		err := tx.Where("key = ?", license.Key).First(&existing).Error
		switch {
		case err == nil:
			license.ID = existing.ID
			license.CreatedAt = existing.CreatedAt
			if err := tx.Save(license).Error; err != nil {
				return fmt.Errorf("failed to update license: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(license).Error; err != nil {
				return fmt.Errorf("failed to create license: %w", err)
			}
		default:
			return fmt.Errorf("failed to look up license by key: %w", err)
		}

		for _, product := range products {
			if err := tx.Where("product_key = ?", product).
				Delete(&models.ProductLicense{}).Error; err != nil {
				return fmt.Errorf("failed to clear product slot %s: %w", product, err)
			}
			pl := models.ProductLicense{ProductKey: product, LicenseID: license.ID}
			if err := tx.Create(&pl).Error; err != nil {
				return fmt.Errorf("failed to index product %s: %w", product, err)
			}
		}

		return nil
	})
}

// RemoveProducts clears the index slots for the given products, but only
// where the slot still points at the given key — a slot overwritten by a
// different key since is left alone. The canonical row is deleted once no
// slot references it.
func (s *LicenseStore) RemoveProducts(key string, products []string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var license models.License
		err := tx.Where("key = ?", key).First(&license).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up license by key: %w", err)
		}

		for _, product := range products {
			if err := tx.Where("product_key = ? AND license_id = ?", product, license.ID).
				Delete(&models.ProductLicense{}).Error; err != nil {
				return fmt.Errorf("failed to remove product slot %s: %w", product, err)
			}
		}

		var remaining int64
		if err := tx.Model(&models.ProductLicense{}).
			Where("license_id = ?", license.ID).Count(&remaining).Error; err != nil {
			return fmt.Errorf("failed to count remaining slots: %w", err)
		}
		if remaining == 0 {
			if err := tx.Delete(&license).Error; err != nil {
				return fmt.Errorf("failed to delete orphaned license: %w", err)
			}
		}

		return nil
	})
}
